package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalidSchema wraps every construction-time schema defect.
	ErrInvalidSchema = errors.New("model: invalid schema")
	// ErrValueRejected wraps values that do not fit the field they target.
	ErrValueRejected = errors.New("model: value rejected")
)

var (
	errNoPages          = errors.New("schema declares no pages")
	errPageIDMissing    = errors.New("page id is required")
	errFieldIDMissing   = errors.New("field id is required")
	errSelectTypeMissed = errors.New("field selectType is required")
)

// Check reports the first defect found in the schema. A schema that passes
// Check can be handed to a wizard controller without further validation.
func (s PageSchema) Check() error {
	if len(s.Pages) == 0 {
		return schemaErr(errNoPages)
	}

	seenPages := make(map[string]struct{}, len(s.Pages))
	seenKeys := make(map[string]string)

	for i, page := range s.Pages {
		id := strings.TrimSpace(page.ID)
		if id == "" {
			return schemaErr(fmt.Errorf("page %d: %w", i, errPageIDMissing))
		}
		if _, dup := seenPages[id]; dup {
			return schemaErr(fmt.Errorf("duplicate page id %q", id))
		}
		seenPages[id] = struct{}{}

		seenFields := make(map[string]struct{}, len(page.Fields))
		for _, field := range page.Fields {
			if err := checkField(field, false); err != nil {
				return schemaErr(fmt.Errorf("page %q: %w", id, err))
			}
			if _, dup := seenFields[field.ID]; dup {
				return schemaErr(fmt.Errorf("page %q: duplicate field id %q", id, field.ID))
			}
			seenFields[field.ID] = struct{}{}

			if err := claimKey(seenKeys, field, id); err != nil {
				return schemaErr(err)
			}
			for _, nested := range field.Fields {
				if err := claimKey(seenKeys, nested, id+"/"+field.SelectType); err != nil {
					return schemaErr(err)
				}
			}
		}
	}
	return nil
}

func schemaErr(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidSchema, err)
}

func claimKey(seen map[string]string, field FieldSpec, owner string) error {
	if prev, dup := seen[field.SelectType]; dup {
		return fmt.Errorf("selectType %q declared by %s and %s", field.SelectType, prev, owner)
	}
	seen[field.SelectType] = owner
	return nil
}

func checkField(field FieldSpec, nested bool) error {
	if strings.TrimSpace(field.ID) == "" {
		return errFieldIDMissing
	}
	if strings.TrimSpace(field.SelectType) == "" {
		return fmt.Errorf("field %q: %w", field.ID, errSelectTypeMissed)
	}
	if !field.Kind.Valid() {
		return fmt.Errorf("field %q: unknown kind %q", field.ID, field.Kind)
	}

	switch {
	case field.Kind.IsChoice() && len(field.Options) == 0:
		return fmt.Errorf("field %q: %s requires options", field.ID, field.Kind)
	case !field.Kind.IsChoice() && len(field.Options) > 0:
		return fmt.Errorf("field %q: options are only valid on select fields", field.ID)
	case field.Kind != KindImage && field.MinSlots != 0:
		return fmt.Errorf("field %q: minSlots is only valid on image fields", field.ID)
	case field.MinSlots < 0:
		return fmt.Errorf("field %q: minSlots must be positive", field.ID)
	case field.Kind != KindCollection && len(field.Fields) > 0:
		return fmt.Errorf("field %q: nested fields are only valid on collections", field.ID)
	case field.Kind == KindCollection && len(field.Fields) == 0:
		return fmt.Errorf("field %q: collection declares no fields", field.ID)
	case nested && field.Kind == KindCollection:
		return fmt.Errorf("field %q: collections cannot be nested", field.ID)
	case nested && field.Kind == KindImage:
		return fmt.Errorf("field %q: image fields are not supported inside collections", field.ID)
	}

	if field.Kind == KindSelect && field.Default != "" {
		if _, ok := field.OptionByID(field.Default); !ok {
			return fmt.Errorf("field %q: default %q is not a declared option", field.ID, field.Default)
		}
	}

	seenOptions := make(map[string]struct{}, len(field.Options))
	for _, opt := range field.Options {
		if strings.TrimSpace(opt.ID) == "" {
			return fmt.Errorf("field %q: option id is required", field.ID)
		}
		if _, dup := seenOptions[opt.ID]; dup {
			return fmt.Errorf("field %q: duplicate option %q", field.ID, opt.ID)
		}
		seenOptions[opt.ID] = struct{}{}
	}

	for _, rule := range field.Validations {
		if err := CheckRule(rule); err != nil {
			return fmt.Errorf("field %q: %w", field.ID, err)
		}
	}

	seenNested := make(map[string]struct{}, len(field.Fields))
	for _, child := range field.Fields {
		if err := checkField(child, true); err != nil {
			return fmt.Errorf("collection %q: %w", field.ID, err)
		}
		if _, dup := seenNested[child.ID]; dup {
			return fmt.Errorf("collection %q: duplicate field id %q", field.ID, child.ID)
		}
		seenNested[child.ID] = struct{}{}
	}
	return nil
}

// CheckRule verifies a declarative rule carries the parameters its kind needs.
func CheckRule(rule ValidationRule) error {
	switch rule.Kind {
	case ValidationRuleRequired, ValidationRuleNumber, ValidationRuleDate,
		ValidationRuleFutureDate, ValidationRuleAlways:
		return nil
	case ValidationRuleMinLength:
		n, err := strconv.Atoi(strings.TrimSpace(rule.Params["value"]))
		if err != nil || n < 0 {
			return fmt.Errorf("rule %s: value must be a non-negative integer", rule.Kind)
		}
		return nil
	case ValidationRuleOneOf:
		if len(SplitList(rule.Params["values"])) == 0 {
			return fmt.Errorf("rule %s: values are required", rule.Kind)
		}
		return nil
	case ValidationRulePattern:
		expr := rule.Params["pattern"]
		if expr == "" {
			return fmt.Errorf("rule %s: pattern is required", rule.Kind)
		}
		if _, err := regexp.Compile(expr); err != nil {
			return fmt.Errorf("rule %s: %w", rule.Kind, err)
		}
		if raw := rule.Params["enforce"]; raw != "" {
			if _, err := strconv.ParseBool(raw); err != nil {
				return fmt.Errorf("rule %s: enforce must be a boolean", rule.Kind)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown validation rule %q", rule.Kind)
	}
}

// SplitList splits a comma separated parameter, dropping blank items.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
