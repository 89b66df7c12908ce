package render

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// ErrUnknownKey is returned by Catalog.Translate for keys the matched locale
// does not define.
var ErrUnknownKey = errors.New("render: unknown translation key")

// Catalog is a Translator backed by an x/text message catalog. Messages may
// use fmt verbs; Translate arguments are applied through a message.Printer.
type Catalog struct {
	builder   *catalog.Builder
	languages []language.Tag
	matcher   language.Matcher
	keys      map[language.Tag]map[string]struct{}
}

// NewCatalog builds a catalog from locale → key → message tables. fallback
// names the locale used when a requested locale has no close match.
func NewCatalog(fallback string, messages map[string]map[string]string) (*Catalog, error) {
	fallbackTag, err := language.Parse(strings.TrimSpace(fallback))
	if err != nil {
		return nil, fmt.Errorf("render: parse fallback locale %q: %w", fallback, err)
	}
	if _, ok := messages[fallback]; !ok {
		return nil, fmt.Errorf("render: fallback locale %q has no messages", fallback)
	}

	c := &Catalog{
		builder: catalog.NewBuilder(catalog.Fallback(fallbackTag)),
		keys:    make(map[language.Tag]map[string]struct{}, len(messages)),
	}

	locales := make([]string, 0, len(messages))
	for locale := range messages {
		locales = append(locales, locale)
	}
	sort.Strings(locales)

	// The fallback locale must come first so the matcher prefers it.
	c.languages = append(c.languages, fallbackTag)
	for _, locale := range locales {
		tag, err := language.Parse(strings.TrimSpace(locale))
		if err != nil {
			return nil, fmt.Errorf("render: parse locale %q: %w", locale, err)
		}
		if tag != fallbackTag {
			c.languages = append(c.languages, tag)
		}
		known := make(map[string]struct{}, len(messages[locale]))
		for key, msg := range messages[locale] {
			if err := c.builder.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("render: set %s/%s: %w", locale, key, err)
			}
			known[key] = struct{}{}
		}
		c.keys[tag] = known
	}
	c.matcher = language.NewMatcher(c.languages)
	return c, nil
}

// ParseMessages decodes a YAML (or JSON) document shaped as
// locale → key → message.
func ParseMessages(data []byte) (map[string]map[string]string, error) {
	var out map[string]map[string]string
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("render: parse messages: %w", err)
	}
	if len(out) == 0 {
		return nil, errors.New("render: messages document is empty")
	}
	return out, nil
}

// Languages lists the locales the catalog serves, fallback first.
func (c *Catalog) Languages() []string {
	out := make([]string, 0, len(c.languages))
	for _, tag := range c.languages {
		out = append(out, tag.String())
	}
	return out
}

// Translate implements Translator.
func (c *Catalog) Translate(locale, key string, args ...any) (string, error) {
	requested, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		requested = c.languages[0]
	}
	_, idx, _ := c.matcher.Match(requested)
	tag := c.languages[idx]

	if _, ok := c.keys[tag][key]; !ok {
		tag = c.languages[0]
		if _, ok := c.keys[tag][key]; !ok {
			return "", fmt.Errorf("%w %q", ErrUnknownKey, key)
		}
	}

	printer := message.NewPrinter(tag, message.Catalog(c.builder))
	return printer.Sprintf(key, args...), nil
}
