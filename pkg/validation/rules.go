package validation

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goliatone/go-formwizard/pkg/model"
)

// Default error keys reported by the built-in rules. Hosts resolve them to
// localized messages.
const (
	KeyRequired   = "validation.required"
	KeyMinLength  = "validation.minLength"
	KeyNumber     = "validation.number"
	KeyOneOf      = "validation.oneOf"
	KeyDate       = "validation.date"
	KeyFutureDate = "validation.futureDate"
	KeyPattern    = "validation.pattern"
	KeyImages     = "validation.images"
)

// Result is the outcome of validating one value. ErrorKey is empty when the
// value is valid.
type Result struct {
	Valid    bool   `json:"valid"`
	ErrorKey string `json:"errorKey,omitempty"`
}

// OK is the passing result.
func OK() Result {
	return Result{Valid: true}
}

// Fail returns a failing result carrying key.
func Fail(key string) Result {
	return Result{Valid: false, ErrorKey: key}
}

// Rule is a pure predicate over a value. now is the evaluation time used by
// date-relative rules.
type Rule func(value model.Value, now time.Time) Result

// Always accepts every value.
func Always() Rule {
	return func(model.Value, time.Time) Result {
		return OK()
	}
}

// NotEmpty rejects nil values, null or all-whitespace text, unchosen selects,
// empty collections and image lists without an image.
func NotEmpty(key string) Rule {
	key = keyOr(key, KeyRequired)
	return func(value model.Value, _ time.Time) Result {
		if isEmpty(value) {
			return Fail(key)
		}
		return OK()
	}
}

// MinLength requires text of at least n characters after trimming.
func MinLength(n int, key string) Rule {
	key = keyOr(key, KeyMinLength)
	return func(value model.Value, _ time.Time) Result {
		text, ok := textOf(value)
		if !ok || utf8.RuneCountInString(strings.TrimSpace(text)) < n {
			return Fail(key)
		}
		return OK()
	}
}

// NonNegativeNumber requires text that parses to a number that is neither NaN
// nor negative.
func NonNegativeNumber(key string) Rule {
	key = keyOr(key, KeyNumber)
	return func(value model.Value, _ time.Time) Result {
		text, ok := textOf(value)
		if !ok {
			return Fail(key)
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil || math.IsNaN(n) || n < 0 {
			return Fail(key)
		}
		return OK()
	}
}

// OneOf requires the chosen option label (or the text) to be a member of the
// allowed set.
func OneOf(key string, allowed ...string) Rule {
	key = keyOr(key, KeyOneOf)
	set := make(map[string]struct{}, len(allowed))
	for _, item := range allowed {
		set[item] = struct{}{}
	}
	return func(value model.Value, _ time.Time) Result {
		var candidate string
		switch typed := value.(type) {
		case model.ChoiceValue:
			if typed.Option == nil {
				return Fail(key)
			}
			candidate = typed.Option.Label
		case model.TextValue:
			if !typed.Valid {
				return Fail(key)
			}
			candidate = typed.Text
		default:
			return Fail(key)
		}
		if _, ok := set[candidate]; !ok {
			return Fail(key)
		}
		return OK()
	}
}

// ValidDate requires a value that resolves to a real calendar date.
func ValidDate(key string) Rule {
	key = keyOr(key, KeyDate)
	return func(value model.Value, _ time.Time) Result {
		if _, ok := dateOf(value); !ok {
			return Fail(key)
		}
		return OK()
	}
}

// FutureDate requires a real date strictly after the evaluation time.
func FutureDate(key string) Rule {
	key = keyOr(key, KeyFutureDate)
	return func(value model.Value, now time.Time) Result {
		t, ok := dateOf(value)
		if !ok || !t.After(now) {
			return Fail(key)
		}
		return OK()
	}
}

// HasImage requires at least one filled slot.
func HasImage(key string) Rule {
	key = keyOr(key, KeyImages)
	return func(value model.Value, _ time.Time) Result {
		images, ok := value.(model.ImageValue)
		if !ok || !images.HasImage() {
			return Fail(key)
		}
		return OK()
	}
}

// Pattern requires non-empty text and, when enforce is set, a match of re.
// With enforce false the rule degrades to NotEmpty.
func Pattern(re *regexp.Regexp, enforce bool, key string) Rule {
	key = keyOr(key, KeyPattern)
	required := NotEmpty(key)
	return func(value model.Value, now time.Time) Result {
		if res := required(value, now); !res.Valid {
			return res
		}
		if !enforce || re == nil {
			return OK()
		}
		text, ok := textOf(value)
		if !ok || !re.MatchString(strings.TrimSpace(text)) {
			return Fail(key)
		}
		return OK()
	}
}

// KindDefault returns the rule applied to a field that declares no rule of
// its own.
func KindDefault(kind model.Kind) Rule {
	switch kind {
	case model.KindText, model.KindSelect, model.KindMultiSelect, model.KindCollection:
		return NotEmpty("")
	case model.KindDate, model.KindTime, model.KindDateTime:
		return ValidDate("")
	case model.KindImage:
		return HasImage("")
	default:
		panic(model.UnknownKindError{Kind: kind})
	}
}

func isEmpty(value model.Value) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case model.TextValue:
		return !typed.Valid || strings.TrimSpace(typed.Text) == ""
	case model.ChoiceValue:
		return typed.Option == nil
	case model.MultiChoiceValue:
		return len(typed.Options) == 0
	case model.TimeValue:
		return typed.Time.IsZero()
	case model.ImageValue:
		return !typed.HasImage()
	case model.CollectionValue:
		return len(typed.Entries) == 0
	default:
		panic(model.UnknownKindError{Kind: value.Kind()})
	}
}

func textOf(value model.Value) (string, bool) {
	text, ok := value.(model.TextValue)
	if !ok || !text.Valid {
		return "", false
	}
	return text.Text, true
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006",
}

func dateOf(value model.Value) (time.Time, bool) {
	switch typed := value.(type) {
	case model.TimeValue:
		if typed.Time.IsZero() {
			return time.Time{}, false
		}
		return typed.Time, true
	case model.TextValue:
		if !typed.Valid {
			return time.Time{}, false
		}
		raw := strings.TrimSpace(typed.Text)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func keyOr(key, fallback string) string {
	if strings.TrimSpace(key) == "" {
		return fallback
	}
	return key
}
