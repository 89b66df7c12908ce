package collection

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/goliatone/go-formwizard/pkg/model"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

var (
	// ErrDraftOpen is returned when a create or edit starts while another
	// draft is still pending.
	ErrDraftOpen = errors.New("collection: a draft is already open")
	// ErrNoDraft is returned by draft operations when nothing is open.
	ErrNoDraft = errors.New("collection: no draft is open")
	// ErrIndexOutOfRange is returned for positions outside the entry list.
	ErrIndexOutOfRange = errors.New("collection: index out of range")
	// ErrEntryGone is returned when committing an edit whose entry was
	// removed after the edit started.
	ErrEntryGone = errors.New("collection: edited entry no longer exists")
	// ErrUnknownField is returned when a draft value targets a field outside
	// the collection's sub-form.
	ErrUnknownField = errors.New("collection: unknown sub-form field")
)

// Mode tells whether a draft adds a new entry or updates an existing one.
type Mode int

const (
	ModeAdd Mode = iota + 1
	ModeUpdate
)

func (m Mode) String() string {
	switch m {
	case ModeAdd:
		return "add"
	case ModeUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Draft is the single in-progress sub-record of a collection. Key is empty
// for ModeAdd and names the edited entry for ModeUpdate.
type Draft struct {
	Mode   Mode
	Key    string
	Values model.FormState
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used to seed temporal draft fields and
// entry keys.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithEntropy overrides the entropy source used for entry keys.
func WithEntropy(entropy io.Reader) Option {
	return func(m *Manager) {
		if entropy != nil {
			m.entropy = entropy
		}
	}
}

// Manager owns the committed entries of one repeatable collection field and
// at most one draft. Entry ids are positional: they always form 1..n and are
// recomputed after every removal. Entry keys never change.
type Manager struct {
	field    model.FieldSpec
	registry *validation.Registry
	entries  []model.Entry
	draft    *Draft
	clock    func() time.Time
	entropy  io.Reader
}

// New constructs a manager for a repeatableCollection field. The registry
// must already be bound to the field's sub-form.
func New(field model.FieldSpec, registry *validation.Registry, options ...Option) (*Manager, error) {
	if field.Kind != model.KindCollection {
		return nil, fmt.Errorf("collection: field %q is %s, not a collection", field.SelectType, field.Kind)
	}
	if registry == nil {
		return nil, errors.New("collection: validation registry is required")
	}
	m := &Manager{
		field:    field,
		registry: registry,
		entries:  []model.Entry{},
		clock:    time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(m)
	}
	if m.entropy == nil {
		m.entropy = ulid.Monotonic(rand.Reader, 0)
	}
	return m, nil
}

// SelectType reports the collection field key.
func (m *Manager) SelectType() string {
	return m.field.SelectType
}

// Fields returns the sub-form schema.
func (m *Manager) Fields() []model.FieldSpec {
	return append([]model.FieldSpec(nil), m.field.Fields...)
}

// Len reports the number of committed entries.
func (m *Manager) Len() int {
	return len(m.entries)
}

// Entries returns a deep copy of the committed entries.
func (m *Manager) Entries() []model.Entry {
	return m.Value().Entries
}

// Value returns the committed entries as a form value.
func (m *Manager) Value() model.CollectionValue {
	return model.Clone(model.CollectionValue{Entries: m.entries}).(model.CollectionValue)
}

// Load replaces the committed entries, discarding any open draft. Ids are
// recomputed from position. Missing keys and keys already used by an earlier
// entry are replaced with fresh ones, so every key names one entry.
func (m *Manager) Load(value model.CollectionValue) {
	m.entries = model.Clone(value).(model.CollectionValue).Entries
	if m.entries == nil {
		m.entries = []model.Entry{}
	}
	seen := make(map[string]struct{}, len(m.entries))
	for i := range m.entries {
		if _, dup := seen[m.entries[i].Key]; dup || m.entries[i].Key == "" {
			m.entries[i].Key = m.newKey()
		}
		seen[m.entries[i].Key] = struct{}{}
	}
	m.renumber()
	m.draft = nil
}

// StartCreate opens a draft seeded from the sub-form's initial values.
func (m *Manager) StartCreate() error {
	if m.draft != nil {
		return ErrDraftOpen
	}
	m.draft = &Draft{
		Mode:   ModeAdd,
		Values: model.InitialState(m.field.Fields, m.clock()),
	}
	return nil
}

// StartEdit opens a draft pre-populated from the entry at the zero-based
// position index.
func (m *Manager) StartEdit(index int) error {
	if m.draft != nil {
		return ErrDraftOpen
	}
	if index < 0 || index >= len(m.entries) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	entry := m.entries[index]
	m.draft = &Draft{
		Mode:   ModeUpdate,
		Key:    entry.Key,
		Values: entry.Values.Clone(),
	}
	return nil
}

// Draft returns a copy of the open draft.
func (m *Manager) Draft() (Draft, bool) {
	if m.draft == nil {
		return Draft{}, false
	}
	return Draft{
		Mode:   m.draft.Mode,
		Key:    m.draft.Key,
		Values: m.draft.Values.Clone(),
	}, true
}

// SetDraftValue writes a sub-form value into the open draft.
func (m *Manager) SetDraftValue(selectType string, value model.Value) error {
	if m.draft == nil {
		return ErrNoDraft
	}
	field, ok := m.subField(selectType)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownField, selectType)
	}
	value, err := field.Normalize(value)
	if err != nil {
		return err
	}
	m.draft.Values[selectType] = value
	return nil
}

// Commit validates the draft against the sub-form fields. Failures are
// returned without touching the committed entries or closing the draft. On
// success an add appends a new entry and an update replaces the edited one.
func (m *Manager) Commit() ([]validation.FieldError, error) {
	if m.draft == nil {
		return nil, ErrNoDraft
	}
	if failures := m.registry.ValidateFields(m.field.Fields, m.draft.Values); len(failures) > 0 {
		return failures, nil
	}

	switch m.draft.Mode {
	case ModeAdd:
		m.entries = append(m.entries, model.Entry{
			ID:     len(m.entries) + 1,
			Key:    m.newKey(),
			Values: m.draft.Values.Clone(),
		})
	case ModeUpdate:
		idx := m.indexOfKey(m.draft.Key)
		if idx < 0 {
			m.draft = nil
			return nil, ErrEntryGone
		}
		m.entries[idx].Values = m.draft.Values.Clone()
	}
	m.draft = nil
	return nil, nil
}

// Cancel discards the open draft. It reports whether a draft was open.
func (m *Manager) Cancel() bool {
	open := m.draft != nil
	m.draft = nil
	return open
}

// Remove deletes the entry at the zero-based position index and renumbers
// the entries after it.
func (m *Manager) Remove(index int) error {
	if index < 0 || index >= len(m.entries) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	m.entries = append(m.entries[:index], m.entries[index+1:]...)
	m.renumber()
	return nil
}

func (m *Manager) renumber() {
	for i := range m.entries {
		m.entries[i].ID = i + 1
	}
}

func (m *Manager) indexOfKey(key string) int {
	for i, entry := range m.entries {
		if entry.Key == key {
			return i
		}
	}
	return -1
}

func (m *Manager) subField(selectType string) (model.FieldSpec, bool) {
	for _, field := range m.field.Fields {
		if field.SelectType == selectType {
			return field, true
		}
	}
	return model.FieldSpec{}, false
}

func (m *Manager) newKey() string {
	return ulid.MustNew(ulid.Timestamp(m.clock()), m.entropy).String()
}
