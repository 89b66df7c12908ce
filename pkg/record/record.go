package record

import (
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formwizard/pkg/model"
)

// Layouts used when temporal values are written into a record.
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04"
	DateTimeLayout = time.RFC3339
)

// Record is the plain keyed payload produced from a finalized FormState. Values
// are strings, nil, []any or map[string]any so every encoder can handle them.
type Record map[string]any

// Option configures FromState.
type Option func(*config)

type config struct {
	sanitize bool
	labels   bool
	location *time.Location
}

// WithSanitizer strips markup from free text before it is written.
func WithSanitizer() Option {
	return func(cfg *config) {
		cfg.sanitize = true
	}
}

// WithOptionLabels writes option labels instead of option ids.
func WithOptionLabels() Option {
	return func(cfg *config) {
		cfg.labels = true
	}
}

// WithLocation converts temporal values into loc before formatting.
func WithLocation(loc *time.Location) Option {
	return func(cfg *config) {
		cfg.location = loc
	}
}

// FromState projects state onto the fields of schema. Every top-level field
// yields a key, so the record never misses a declared selectType.
func FromState(schema model.PageSchema, state model.FormState, options ...Option) Record {
	cfg := config{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return fromFields(schema.Fields(), state, cfg)
}

func fromFields(fields []model.FieldSpec, state model.FormState, cfg config) Record {
	out := make(Record, len(fields))
	for _, field := range fields {
		out[field.SelectType] = convert(field, state[field.SelectType], cfg)
	}
	return out
}

func convert(field model.FieldSpec, value model.Value, cfg config) any {
	if value == nil {
		return nil
	}
	switch typed := value.(type) {
	case model.TextValue:
		if !typed.Valid {
			return nil
		}
		if cfg.sanitize {
			return sanitizeText(typed.Text)
		}
		return typed.Text
	case model.ChoiceValue:
		if typed.Option == nil {
			return nil
		}
		return optionValue(*typed.Option, cfg)
	case model.MultiChoiceValue:
		out := make([]any, 0, len(typed.Options))
		for _, opt := range typed.Options {
			out = append(out, optionValue(opt, cfg))
		}
		return out
	case model.TimeValue:
		return formatTime(typed, cfg)
	case model.ImageValue:
		out := make([]any, 0, len(typed.Slots))
		for _, slot := range typed.Slots {
			if slot.Filled() {
				out = append(out, slot.Image)
			}
		}
		return out
	case model.CollectionValue:
		out := make([]any, 0, len(typed.Entries))
		for _, entry := range typed.Entries {
			out = append(out, map[string]any{
				"id":     entry.ID,
				"key":    entry.Key,
				"values": map[string]any(fromFields(field.Fields, entry.Values, cfg)),
			})
		}
		return out
	default:
		panic(model.UnknownKindError{Kind: value.Kind()})
	}
}

func optionValue(opt model.Option, cfg config) string {
	if cfg.labels {
		return opt.Label
	}
	return opt.ID
}

func formatTime(value model.TimeValue, cfg config) any {
	if value.Time.IsZero() {
		return nil
	}
	t := value.Time
	if cfg.location != nil {
		t = t.In(cfg.location)
	}
	switch value.Of {
	case model.KindDate:
		return t.Format(DateLayout)
	case model.KindTime:
		return t.Format(TimeLayout)
	case model.KindDateTime:
		return t.Format(DateTimeLayout)
	default:
		panic(model.UnknownKindError{Kind: value.Of})
	}
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

func sanitizeText(raw string) string {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(textPolicy.Sanitize(raw))
}
