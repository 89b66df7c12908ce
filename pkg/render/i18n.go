package render

import (
	"errors"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/model"
)

// ErrMissingTranslator is passed to MissingTranslationHandler when no
// Translator was configured.
var ErrMissingTranslator = errors.New("render: translator is not configured")

// Translator resolves a localization key for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(locale, key string, args ...any) (string, error)

// Translate implements Translator.
func (f TranslatorFunc) Translate(locale, key string, args ...any) (string, error) {
	return f(locale, key, args...)
}

// MissingTranslationHandler decides what to display when a key cannot be
// translated. err is ErrMissingTranslator or the translator's error.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

// LookupFunc is the host-supplied localization lookup the engine calls to
// turn error keys, section titles and option labels into display strings.
type LookupFunc func(key string) string

func missingTranslationDefault(_ string, key string, _ []any, _ error) string {
	return key
}

// IdentityLookup returns keys untranslated. It is the lookup used when the
// host supplies none.
func IdentityLookup(key string) string {
	return key
}

// Lookup binds a Translator and locale into a LookupFunc. Missing or blank
// translations are routed through onMissing, which defaults to echoing the
// key.
func Lookup(t Translator, locale string, onMissing MissingTranslationHandler) LookupFunc {
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	return func(key string) string {
		key = strings.TrimSpace(key)
		if key == "" {
			return ""
		}
		if t == nil {
			return onMissing(locale, key, nil, ErrMissingTranslator)
		}
		msg, err := t.Translate(locale, key)
		if err != nil || strings.TrimSpace(msg) == "" {
			return onMissing(locale, key, nil, err)
		}
		return msg
	}
}

// LocalizedOption is an option with its label resolved.
type LocalizedOption struct {
	ID    string
	Label string
}

// LocalizedField is a field with its label and options resolved.
type LocalizedField struct {
	SelectType string
	Kind       model.Kind
	Label      string
	Options    []LocalizedOption
	Fields     []LocalizedField
}

// LocalizedPage is the display projection of a page.
type LocalizedPage struct {
	ID            string
	SectionTitle  string
	NextPageTitle string
	Fields        []LocalizedField
}

// LocalizePage resolves every key of page through lookup. Fields without a
// label fall back to their id as the lookup key.
func LocalizePage(page model.Page, lookup LookupFunc) LocalizedPage {
	if lookup == nil {
		lookup = IdentityLookup
	}
	out := LocalizedPage{
		ID:           page.ID,
		SectionTitle: lookup(page.SectionTitle),
		Fields:       localizeFields(page.Fields, lookup),
	}
	if strings.TrimSpace(page.NextPageTitle) != "" {
		out.NextPageTitle = lookup(page.NextPageTitle)
	}
	return out
}

func localizeFields(fields []model.FieldSpec, lookup LookupFunc) []LocalizedField {
	if len(fields) == 0 {
		return nil
	}
	out := make([]LocalizedField, 0, len(fields))
	for _, field := range fields {
		key := field.Label
		if strings.TrimSpace(key) == "" {
			key = field.ID
		}
		localized := LocalizedField{
			SelectType: field.SelectType,
			Kind:       field.Kind,
			Label:      lookup(key),
			Fields:     localizeFields(field.Fields, lookup),
		}
		for _, opt := range field.Options {
			localized.Options = append(localized.Options, LocalizedOption{
				ID:    opt.ID,
				Label: lookup(opt.Label),
			})
		}
		out = append(out, localized)
	}
	return out
}
