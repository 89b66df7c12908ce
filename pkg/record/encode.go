package record

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format controls how a record is serialized.
type Format string

const (
	// FormatJSON emits application/json payloads.
	FormatJSON Format = "json"
	// FormatYAML emits YAML documents.
	FormatYAML Format = "yaml"
	// FormatFormURLEncoded emits application/x-www-form-urlencoded payloads.
	FormatFormURLEncoded Format = "form"
	// FormatPrettyText emits one key=value line per leaf.
	FormatPrettyText Format = "pretty"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatFormURLEncoded, FormatPrettyText}
}

// ParseFormat resolves a format name; the empty string selects JSON.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatFormURLEncoded, "urlencoded":
		return FormatFormURLEncoded, nil
	case FormatPrettyText, "text":
		return FormatPrettyText, nil
	default:
		return "", fmt.Errorf("record: unknown format %q", raw)
	}
}

// ContentType reports the media type of a format.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case FormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Encode serializes rec in the requested format.
func Encode(rec Record, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(map[string]any(rec))
	case FormatFormURLEncoded:
		return []byte(flattenForm(rec)), nil
	case FormatPrettyText:
		return []byte(prettyPrint(rec)), nil
	case FormatJSON, "":
		return json.MarshalIndent(map[string]any(rec), "", "  ")
	default:
		return nil, fmt.Errorf("record: unknown format %q", format)
	}
}

func flattenForm(values map[string]any) string {
	flattened := url.Values{}
	flatten("", values, flattened)
	return flattened.Encode()
}

func flatten(prefix string, value any, out url.Values) {
	switch v := value.(type) {
	case Record:
		flatten(prefix, map[string]any(v), out)
	case map[string]any:
		for key, val := range v {
			next := key
			if prefix != "" {
				next = prefix + "." + key
			}
			flatten(next, val, out)
		}
	case []any:
		if len(v) == 0 {
			out.Set(prefix, "")
			return
		}
		for idx, val := range v {
			if _, nested := val.(map[string]any); nested {
				flatten(fmt.Sprintf("%s[%d]", prefix, idx), val, out)
				continue
			}
			out.Add(prefix+"[]", fmt.Sprint(val))
		}
	case nil:
		out.Set(prefix, "")
	default:
		out.Set(prefix, fmt.Sprint(v))
	}
}

func prettyPrint(values map[string]any) string {
	var b strings.Builder
	writePretty(&b, "", values)
	return b.String()
}

func writePretty(b *strings.Builder, prefix string, value any) {
	switch v := value.(type) {
	case Record:
		writePretty(b, prefix, map[string]any(v))
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			next := key
			if prefix != "" {
				next = prefix + "." + key
			}
			writePretty(b, next, v[key])
		}
	case []any:
		if len(v) == 0 && prefix != "" {
			fmt.Fprintf(b, "%s=\n", prefix)
		}
		for idx, val := range v {
			next := fmt.Sprintf("%s[%d]", prefix, idx)
			writePretty(b, next, val)
		}
	case nil:
		if prefix != "" {
			fmt.Fprintf(b, "%s=\n", prefix)
		}
	default:
		if prefix != "" {
			fmt.Fprintf(b, "%s=%v\n", prefix, v)
		}
	}
}
