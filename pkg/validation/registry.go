package validation

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-formwizard/pkg/model"
)

// ErrUncovered is returned when a strict registry is asked to bind a field
// that has neither an explicit rule nor a declarative one.
var ErrUncovered = errors.New("validation: field has no validation rule")

// FieldError pairs a failing selectType with the error key of the rule that
// rejected it.
type FieldError struct {
	SelectType string `json:"selectType"`
	ErrorKey   string `json:"errorKey"`
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source handed to date-relative rules.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithStrict disables per-kind default rules: every bound field must carry an
// explicit or declarative rule, otherwise Bind fails.
func WithStrict() Option {
	return func(r *Registry) {
		r.strict = true
	}
}

// Registry dispatches validation by selectType. Lookups for unknown keys are
// permissive and report the value as valid.
type Registry struct {
	mu     sync.RWMutex
	rules  map[string][]Rule
	clock  func() time.Time
	strict bool
}

// NewRegistry constructs an empty registry.
func NewRegistry(options ...Option) *Registry {
	r := &Registry{
		rules: make(map[string][]Rule),
		clock: time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Register attaches rules to selectType. Rules run in order and the first
// failure wins. Registering the same selectType twice returns an error.
func (r *Registry) Register(selectType string, rules ...Rule) error {
	key := strings.TrimSpace(selectType)
	if key == "" {
		return errors.New("validation: selectType is required")
	}
	if len(rules) == 0 {
		return fmt.Errorf("validation: no rules supplied for %q", key)
	}
	for _, rule := range rules {
		if rule == nil {
			return fmt.Errorf("validation: nil rule supplied for %q", key)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[key]; exists {
		return fmt.Errorf("validation: rules for %q already registered", key)
	}
	r.rules[key] = append([]Rule(nil), rules...)
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(selectType string, rules ...Rule) {
	if err := r.Register(selectType, rules...); err != nil {
		panic(err)
	}
}

// Has reports whether selectType carries explicit rules.
func (r *Registry) Has(selectType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rules[selectType]
	return ok
}

// List returns the registered selectTypes in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.rules))
	for key := range r.rules {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Strict reports whether kind defaults are disabled.
func (r *Registry) Strict() bool {
	return r.strict
}

// Bind registers rules for every field (and nested collection field) that has
// none yet: declarative ValidationRules when present, the kind default
// otherwise. Host-registered rules are left untouched.
func (r *Registry) Bind(fields []model.FieldSpec) error {
	for _, field := range fields {
		if err := r.bindField(field); err != nil {
			return err
		}
		if len(field.Fields) > 0 {
			if err := r.Bind(field.Fields); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Registry) bindField(field model.FieldSpec) error {
	if r.Has(field.SelectType) {
		return nil
	}
	rules, err := Compile(field.Validations)
	if err != nil {
		return fmt.Errorf("validation: field %q: %w", field.SelectType, err)
	}
	if len(rules) == 0 {
		if r.strict {
			return fmt.Errorf("%w: %q", ErrUncovered, field.SelectType)
		}
		rules = []Rule{KindDefault(field.Kind)}
	}
	return r.Register(field.SelectType, rules...)
}

// Validate runs the rules registered for selectType against value. Unknown
// selectTypes are reported valid.
func (r *Registry) Validate(selectType string, value model.Value) Result {
	r.mu.RLock()
	rules := r.rules[selectType]
	r.mu.RUnlock()

	if len(rules) == 0 {
		return OK()
	}
	now := r.clock()
	for _, rule := range rules {
		if res := rule(value, now); !res.Valid {
			if res.ErrorKey == "" {
				res.ErrorKey = KeyRequired
			}
			return res
		}
	}
	return OK()
}

// ValidateFields validates every field against state and returns all
// failures in field order. It never stops at the first failure.
func (r *Registry) ValidateFields(fields []model.FieldSpec, state model.FormState) []FieldError {
	var failures []FieldError
	for _, field := range fields {
		res := r.Validate(field.SelectType, state[field.SelectType])
		if res.Valid {
			continue
		}
		failures = append(failures, FieldError{
			SelectType: field.SelectType,
			ErrorKey:   res.ErrorKey,
		})
	}
	return failures
}

// Compile converts declarative rules into Rule functions, keeping
// declaration order.
func Compile(specs []model.ValidationRule) ([]Rule, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make([]Rule, 0, len(specs))
	for _, spec := range specs {
		if err := model.CheckRule(spec); err != nil {
			return nil, err
		}
		key := spec.Params["errorKey"]
		switch spec.Kind {
		case model.ValidationRuleRequired:
			out = append(out, NotEmpty(key))
		case model.ValidationRuleMinLength:
			n, _ := strconv.Atoi(strings.TrimSpace(spec.Params["value"]))
			out = append(out, MinLength(n, key))
		case model.ValidationRuleNumber:
			out = append(out, NonNegativeNumber(key))
		case model.ValidationRuleOneOf:
			out = append(out, OneOf(key, model.SplitList(spec.Params["values"])...))
		case model.ValidationRuleDate:
			out = append(out, ValidDate(key))
		case model.ValidationRuleFutureDate:
			out = append(out, FutureDate(key))
		case model.ValidationRulePattern:
			enforce := true
			if raw := spec.Params["enforce"]; raw != "" {
				enforce, _ = strconv.ParseBool(raw)
			}
			out = append(out, Pattern(regexp.MustCompile(spec.Params["pattern"]), enforce, key))
		case model.ValidationRuleAlways:
			out = append(out, Always())
		}
	}
	return out, nil
}
