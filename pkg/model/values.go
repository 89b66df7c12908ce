package model

import (
	"fmt"
	"strconv"
	"time"
)

// Value is the closed union of field values. The unexported marker keeps the
// set of implementations inside this package, so a type switch over Value
// covers every variant listed here.
type Value interface {
	Kind() Kind
	clone() Value
	isValue()
}

// TextValue holds a text input. Valid is false for a null value.
type TextValue struct {
	Text  string
	Valid bool
}

// Text returns a non-null text value.
func Text(s string) TextValue {
	return TextValue{Text: s, Valid: true}
}

// NullText returns the null text value.
func NullText() TextValue {
	return TextValue{}
}

func (TextValue) Kind() Kind     { return KindText }
func (v TextValue) clone() Value { return v }
func (TextValue) isValue()       {}

// ChoiceValue holds the chosen option of a select field, nil when nothing is
// chosen.
type ChoiceValue struct {
	Option *Option
}

// Choice returns a select value with opt chosen.
func Choice(opt Option) ChoiceValue {
	return ChoiceValue{Option: &opt}
}

func (ChoiceValue) Kind() Kind { return KindSelect }
func (v ChoiceValue) clone() Value {
	if v.Option == nil {
		return ChoiceValue{}
	}
	opt := *v.Option
	return ChoiceValue{Option: &opt}
}
func (ChoiceValue) isValue() {}

// MultiChoiceValue holds the chosen options of a multiSelect field in
// selection order.
type MultiChoiceValue struct {
	Options []Option
}

// Choices returns a multiSelect value with opts chosen in order.
func Choices(opts ...Option) MultiChoiceValue {
	return MultiChoiceValue{Options: append([]Option{}, opts...)}
}

func (MultiChoiceValue) Kind() Kind { return KindMultiSelect }
func (v MultiChoiceValue) clone() Value {
	return MultiChoiceValue{Options: append([]Option{}, v.Options...)}
}
func (MultiChoiceValue) isValue() {}

// Toggle adds opt when it is not chosen yet and removes it otherwise,
// preserving the order of the remaining selections.
func (v MultiChoiceValue) Toggle(opt Option) MultiChoiceValue {
	out := make([]Option, 0, len(v.Options)+1)
	removed := false
	for _, existing := range v.Options {
		if existing.ID == opt.ID {
			removed = true
			continue
		}
		out = append(out, existing)
	}
	if !removed {
		out = append(out, opt)
	}
	return MultiChoiceValue{Options: out}
}

// TimeValue holds a date, time or dateTime value. Of records which of the
// three temporal kinds the value belongs to.
type TimeValue struct {
	Of   Kind
	Time time.Time
}

// Timestamp returns a temporal value of the supplied kind.
func Timestamp(kind Kind, t time.Time) TimeValue {
	return TimeValue{Of: kind, Time: t}
}

func (v TimeValue) Kind() Kind   { return v.Of }
func (v TimeValue) clone() Value { return v }
func (TimeValue) isValue()       {}

// ImageValue holds the slot list of an image field.
type ImageValue struct {
	Slots []ImageSlot
}

// EmptySlots returns n empty slots numbered from 1.
func EmptySlots(n int) ImageValue {
	slots := make([]ImageSlot, n)
	for i := range slots {
		slots[i] = ImageSlot{SlotID: strconv.Itoa(i + 1)}
	}
	return ImageValue{Slots: slots}
}

func (ImageValue) Kind() Kind { return KindImage }
func (v ImageValue) clone() Value {
	return ImageValue{Slots: append([]ImageSlot{}, v.Slots...)}
}
func (ImageValue) isValue() {}

// HasImage reports whether any slot is filled.
func (v ImageValue) HasImage() bool {
	for _, slot := range v.Slots {
		if slot.Filled() {
			return true
		}
	}
	return false
}

// CollectionValue holds the committed entries of a repeatable collection.
type CollectionValue struct {
	Entries []Entry
}

func (CollectionValue) Kind() Kind { return KindCollection }
func (v CollectionValue) clone() Value {
	out := make([]Entry, len(v.Entries))
	for i, entry := range v.Entries {
		out[i] = Entry{ID: entry.ID, Key: entry.Key, Values: entry.Values.Clone()}
	}
	return CollectionValue{Entries: out}
}
func (CollectionValue) isValue() {}

// Clone deep-copies a value. Nil stays nil.
func Clone(v Value) Value {
	if v == nil {
		return nil
	}
	return v.clone()
}

// FormState maps selectType to the current value of that field.
type FormState map[string]Value

// Clone returns a deep copy of the state.
func (s FormState) Clone() FormState {
	if s == nil {
		return nil
	}
	out := make(FormState, len(s))
	for key, value := range s {
		out[key] = Clone(value)
	}
	return out
}

// InitialValue returns the value a field starts with. Temporal fields default
// to now; text and select fields honour FieldSpec.Default.
func InitialValue(field FieldSpec, now time.Time) Value {
	switch field.Kind {
	case KindText:
		if field.Default != "" {
			return Text(field.Default)
		}
		return NullText()
	case KindSelect:
		if opt, ok := field.OptionByID(field.Default); ok {
			return Choice(opt)
		}
		return ChoiceValue{}
	case KindMultiSelect:
		return Choices()
	case KindDate, KindTime, KindDateTime:
		return Timestamp(field.Kind, now)
	case KindImage:
		return EmptySlots(field.Slots())
	case KindCollection:
		return CollectionValue{Entries: []Entry{}}
	default:
		panic(UnknownKindError{Kind: field.Kind})
	}
}

// InitialState builds one entry per field from its declared initial value.
func InitialState(fields []FieldSpec, now time.Time) FormState {
	state := make(FormState, len(fields))
	for _, field := range fields {
		state[field.SelectType] = InitialValue(field, now)
	}
	return state
}

// Accepts reports whether value may be stored under field. Choice values must
// reference declared options.
func (f FieldSpec) Accepts(value Value) error {
	if value == nil {
		return fmt.Errorf("%w: field %q: value is nil", ErrValueRejected, f.SelectType)
	}
	if value.Kind() != f.Kind {
		return fmt.Errorf("%w: field %q expects %s, got %s", ErrValueRejected, f.SelectType, f.Kind, value.Kind())
	}
	switch typed := value.(type) {
	case ChoiceValue:
		if typed.Option != nil {
			if _, ok := f.OptionByID(typed.Option.ID); !ok {
				return fmt.Errorf("%w: field %q: unknown option %q", ErrValueRejected, f.SelectType, typed.Option.ID)
			}
		}
	case MultiChoiceValue:
		for _, opt := range typed.Options {
			if _, ok := f.OptionByID(opt.ID); !ok {
				return fmt.Errorf("%w: field %q: unknown option %q", ErrValueRejected, f.SelectType, opt.ID)
			}
		}
	}
	return nil
}

// Normalize checks value with Accepts and returns a copy in which every chosen
// option is the declared one, so labels always come from the schema. Entries
// of a collection value are normalized against the sub-form fields.
func (f FieldSpec) Normalize(value Value) (Value, error) {
	if err := f.Accepts(value); err != nil {
		return nil, err
	}
	switch typed := value.(type) {
	case ChoiceValue:
		if typed.Option == nil {
			return ChoiceValue{}, nil
		}
		opt, _ := f.OptionByID(typed.Option.ID)
		return Choice(opt), nil
	case MultiChoiceValue:
		out := make([]Option, 0, len(typed.Options))
		for _, chosen := range typed.Options {
			opt, _ := f.OptionByID(chosen.ID)
			out = append(out, opt)
		}
		return MultiChoiceValue{Options: out}, nil
	case CollectionValue:
		entries := make([]Entry, len(typed.Entries))
		for i, entry := range typed.Entries {
			values := make(FormState, len(entry.Values))
			for key, v := range entry.Values {
				sub, ok := f.subField(key)
				if !ok {
					return nil, fmt.Errorf("%w: field %q: unknown sub-field %q", ErrValueRejected, f.SelectType, key)
				}
				normalized, err := sub.Normalize(v)
				if err != nil {
					return nil, err
				}
				values[key] = normalized
			}
			entries[i] = Entry{ID: entry.ID, Key: entry.Key, Values: values}
		}
		return CollectionValue{Entries: entries}, nil
	default:
		return Clone(value), nil
	}
}

func (f FieldSpec) subField(selectType string) (FieldSpec, bool) {
	for _, sub := range f.Fields {
		if sub.SelectType == selectType {
			return sub, true
		}
	}
	return FieldSpec{}, false
}
