package render

import (
	"strings"

	"github.com/goliatone/go-formwizard/pkg/validation"
)

// ErrorMapping splits validation failures into per-field messages keyed by
// selectType and the ordered, de-duplicated list used for a single page-level
// notification.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MapFieldErrors resolves every error key through lookup. Order follows the
// failures; duplicate messages collapse so a page reports one aggregated
// notification.
func MapFieldErrors(failures []validation.FieldError, lookup LookupFunc) ErrorMapping {
	mapping := ErrorMapping{}
	if len(failures) == 0 {
		return mapping
	}
	if lookup == nil {
		lookup = IdentityLookup
	}

	mapping.Fields = make(map[string][]string, len(failures))
	messages := make([]string, 0, len(failures))
	for _, failure := range failures {
		msg := lookup(failure.ErrorKey)
		mapping.Fields[failure.SelectType] = append(mapping.Fields[failure.SelectType], msg)
		messages = append(messages, msg)
	}
	mapping.Form = normalizeMessages(messages)
	return mapping
}

// Messages returns the localized, de-duplicated messages for failures.
func Messages(failures []validation.FieldError, lookup LookupFunc) []string {
	return MapFieldErrors(failures, lookup).Form
}

// Notification joins the messages for failures into one transient notice.
// An empty string means there is nothing to report.
func Notification(failures []validation.FieldError, lookup LookupFunc, sep string) string {
	if sep == "" {
		sep = "\n"
	}
	return strings.Join(Messages(failures, lookup), sep)
}

// MergeFormErrors concatenates and normalises multiple form-level error
// slices, trimming whitespace and removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
