package model

import "fmt"

// Kind is the closed enumeration of field kinds a page schema may declare.
type Kind string

const (
	KindText        Kind = "text"
	KindSelect      Kind = "select"
	KindMultiSelect Kind = "multiSelect"
	KindDate        Kind = "date"
	KindTime        Kind = "time"
	KindDateTime    Kind = "dateTime"
	KindImage       Kind = "image"
	KindCollection  Kind = "repeatableCollection"
)

// Kinds lists every supported kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindText,
		KindSelect,
		KindMultiSelect,
		KindDate,
		KindTime,
		KindDateTime,
		KindImage,
		KindCollection,
	}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// IsTemporal reports whether values of this kind are timestamps.
func (k Kind) IsTemporal() bool {
	return k == KindDate || k == KindTime || k == KindDateTime
}

// IsChoice reports whether the kind picks from declared options.
func (k Kind) IsChoice() bool {
	return k == KindSelect || k == KindMultiSelect
}

// UnknownKindError is raised when a switch over Kind meets a value outside the
// enumeration. Reaching it means a new kind was added without updating every
// dispatch site.
type UnknownKindError struct {
	Kind Kind
}

func (e UnknownKindError) Error() string {
	return fmt.Sprintf("model: unhandled field kind %q", string(e.Kind))
}

// DefaultMinSlots is the number of image slots an image field starts with.
const DefaultMinSlots = 4

const (
	ValidationRuleRequired   = "required"
	ValidationRuleMinLength  = "minLength"
	ValidationRuleNumber     = "number"
	ValidationRuleOneOf      = "oneOf"
	ValidationRuleDate       = "date"
	ValidationRuleFutureDate = "futureDate"
	ValidationRulePattern    = "pattern"
	ValidationRuleAlways     = "always"
)

// ValidationRule represents a single declarative constraint applied to a
// field. Thresholds travel as strings in Params ("value", "values",
// "pattern", "enforce") so schema documents stay diff friendly. An optional
// Params["errorKey"] replaces the rule's default error key.
type ValidationRule struct {
	Kind   string            `json:"kind" yaml:"kind"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Option is one selectable choice for select and multiSelect fields. Label is
// a localization key, never display text.
type Option struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// FieldSpec declares a single input. SelectType is the key under which the
// value lives in FormState and must be unique across the whole schema,
// nested collection fields included.
type FieldSpec struct {
	ID          string           `json:"id" yaml:"id"`
	SelectType  string           `json:"selectType" yaml:"selectType"`
	Kind        Kind             `json:"kind" yaml:"kind"`
	Label       string           `json:"label,omitempty" yaml:"label,omitempty"`
	Options     []Option         `json:"options,omitempty" yaml:"options,omitempty"`
	Default     string           `json:"default,omitempty" yaml:"default,omitempty"`
	Validations []ValidationRule `json:"validations,omitempty" yaml:"validations,omitempty"`
	// MinSlots applies to image fields only; zero means DefaultMinSlots.
	MinSlots int `json:"minSlots,omitempty" yaml:"minSlots,omitempty"`
	// Fields is the sub-form schema of a repeatableCollection.
	Fields []FieldSpec `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Slots returns the effective minimum slot count for an image field.
func (f FieldSpec) Slots() int {
	if f.MinSlots > 0 {
		return f.MinSlots
	}
	return DefaultMinSlots
}

// OptionByID returns the declared option with the supplied id.
func (f FieldSpec) OptionByID(id string) (Option, bool) {
	for _, opt := range f.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}

// Page groups the fields shown on one wizard step. SectionTitle and
// NextPageTitle are localization keys.
type Page struct {
	ID            string      `json:"id" yaml:"id"`
	SectionTitle  string      `json:"sectionTitle" yaml:"sectionTitle"`
	NextPageTitle string      `json:"nextPageTitle,omitempty" yaml:"nextPageTitle,omitempty"`
	Fields        []FieldSpec `json:"fields" yaml:"fields"`
}

// PageSchema is the ordered page list driving a wizard. It is treated as
// immutable once handed to a controller.
type PageSchema struct {
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`
	Pages []Page `json:"pages" yaml:"pages"`
}

// Fields returns every top-level field in page order.
func (s PageSchema) Fields() []FieldSpec {
	var out []FieldSpec
	for _, page := range s.Pages {
		out = append(out, page.Fields...)
	}
	return out
}

// Field looks up a top-level field by selectType.
func (s PageSchema) Field(selectType string) (FieldSpec, bool) {
	for _, page := range s.Pages {
		for _, field := range page.Fields {
			if field.SelectType == selectType {
				return field, true
			}
		}
	}
	return FieldSpec{}, false
}

// ImageSlot is one addressable position in an image field. An empty Image
// means the slot holds nothing.
type ImageSlot struct {
	SlotID string `json:"slotId"`
	Image  string `json:"image,omitempty"`
}

// Filled reports whether the slot holds an image reference.
func (s ImageSlot) Filled() bool {
	return s.Image != ""
}

// Entry is one committed sub-record of a repeatable collection. ID is the
// dense 1-based display position; Key is an opaque identity assigned once.
type Entry struct {
	ID     int       `json:"id"`
	Key    string    `json:"key"`
	Values FormState `json:"values"`
}
