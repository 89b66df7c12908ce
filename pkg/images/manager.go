package images

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/model"
)

var (
	// ErrUnknownSlot is returned when a slot id does not address an existing
	// slot.
	ErrUnknownSlot = errors.New("images: unknown slot")
	// ErrEmptyImage is returned when SetImage receives a blank reference.
	ErrEmptyImage = errors.New("images: image reference is empty")
)

// Manager owns the ordered slot list of one image field. The list never drops
// below the minimum, grows by one empty slot once every slot is filled, and
// keeps slot ids dense ("1".."n") after deletions. Ids are positional: a
// RemoveImage that deletes a slot renumbers the ones after it, so hosts must
// re-read Slots instead of holding ids across the call.
type Manager struct {
	selectType string
	minSlots   int
	slots      []model.ImageSlot
}

// New constructs a manager with minSlots empty slots. Values below one fall
// back to model.DefaultMinSlots.
func New(selectType string, minSlots int) *Manager {
	if minSlots < 1 {
		minSlots = model.DefaultMinSlots
	}
	return &Manager{
		selectType: selectType,
		minSlots:   minSlots,
		slots:      model.EmptySlots(minSlots).Slots,
	}
}

// SelectType reports the field the manager belongs to.
func (m *Manager) SelectType() string {
	return m.selectType
}

// MinSlots reports the slot floor.
func (m *Manager) MinSlots() int {
	return m.minSlots
}

// Slots returns a copy of the current slot list.
func (m *Manager) Slots() []model.ImageSlot {
	return append([]model.ImageSlot(nil), m.slots...)
}

// Len reports the current slot count.
func (m *Manager) Len() int {
	return len(m.slots)
}

// Filled reports how many slots hold an image.
func (m *Manager) Filled() int {
	count := 0
	for _, slot := range m.slots {
		if slot.Filled() {
			count++
		}
	}
	return count
}

// SetImage stores uri in the slot addressed by slotID, replacing any previous
// image. When the write fills the last empty slot a new empty slot is
// appended.
func (m *Manager) SetImage(slotID, uri string) error {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return ErrEmptyImage
	}
	idx := m.indexOf(slotID)
	if idx < 0 {
		return fmt.Errorf("%w %q", ErrUnknownSlot, slotID)
	}
	m.slots[idx].Image = uri
	m.grow()
	return nil
}

// RemoveImage clears the slot addressed by slotID. At or below the floor the
// slot is kept empty; above it the slot is deleted and the remaining slots are
// renumbered.
func (m *Manager) RemoveImage(slotID string) error {
	idx := m.indexOf(slotID)
	if idx < 0 {
		return fmt.Errorf("%w %q", ErrUnknownSlot, slotID)
	}
	if len(m.slots) <= m.minSlots {
		m.slots[idx].Image = ""
		return nil
	}
	m.slots = append(m.slots[:idx], m.slots[idx+1:]...)
	m.renumber()
	return nil
}

// Value returns the slot list as a form value.
func (m *Manager) Value() model.ImageValue {
	return model.ImageValue{Slots: m.Slots()}
}

// Load replaces the slot list with value, then restores the floor, the
// trailing empty slot and dense ids.
func (m *Manager) Load(value model.ImageValue) {
	m.slots = append([]model.ImageSlot(nil), value.Slots...)
	for len(m.slots) < m.minSlots {
		m.slots = append(m.slots, model.ImageSlot{})
	}
	m.renumber()
	m.grow()
}

// grow appends one empty slot when every slot is filled; otherwise it is a
// no-op.
func (m *Manager) grow() {
	if m.Filled() < len(m.slots) {
		return
	}
	m.slots = append(m.slots, model.ImageSlot{SlotID: strconv.Itoa(len(m.slots) + 1)})
}

func (m *Manager) renumber() {
	for i := range m.slots {
		m.slots[i].SlotID = strconv.Itoa(i + 1)
	}
}

func (m *Manager) indexOf(slotID string) int {
	for i, slot := range m.slots {
		if slot.SlotID == slotID {
			return i
		}
	}
	return -1
}
