package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/goliatone/go-formwizard/pkg/collection"
	"github.com/goliatone/go-formwizard/pkg/model"
	"github.com/goliatone/go-formwizard/pkg/record"
	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// Input layouts for temporal fields.
const (
	DateInputLayout     = "2006-01-02"
	TimeInputLayout     = "15:04"
	DateTimeInputLayout = "2006-01-02 15:04"
)

var imageSources = []wizard.Source{wizard.SourceGallery, wizard.SourceCamera}

type action int

const (
	actionContinue action = iota
	actionBack
	actionAdd
	actionEdit
	actionRemove
	actionDone
)

// Host drives a wizard.Controller from the terminal: one prompt per field,
// a navigation menu per page and the page notification when an advance is
// rejected.
type Host struct {
	driver        PromptDriver
	format        record.Format
	recordOptions []record.Option
	theme         Theme
	labels        Labels
	logger        *slog.Logger
}

// New builds a Host. Without WithPromptDriver it prompts through survey on
// stdin/stdout.
func New(options ...Option) *Host {
	h := &Host{
		format: record.FormatJSON,
		labels: DefaultLabels(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(h)
		}
	}
	if h.driver == nil {
		h.driver = NewSurveyDriver(nil)
	}
	return h
}

// Acquirer returns an image acquirer that asks for a path or URI through the
// prompt driver. An empty answer cancels the acquisition.
func (h *Host) Acquirer() wizard.Acquirer {
	return wizard.AcquirerFunc(func(ctx context.Context, source wizard.Source) (string, bool, error) {
		answer, err := h.driver.Input(ctx, InputConfig{
			Message: h.labels.ImagePath,
			Help:    string(source),
		})
		if err != nil {
			return "", false, err
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return "", false, nil
		}
		return answer, true, nil
	})
}

// Run walks ctrl until it finishes and returns the finished state serialized
// in the configured format.
func (h *Host) Run(ctx context.Context, ctrl *wizard.Controller) ([]byte, error) {
	if ctrl == nil {
		return nil, ErrNilController
	}
	for !ctrl.Finished() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := h.runPage(ctx, ctrl); err != nil {
			return nil, err
		}
	}
	rec := record.FromState(ctrl.Schema(), ctrl.State(), h.recordOptions...)
	return record.Encode(rec, h.format)
}

func (h *Host) runPage(ctx context.Context, ctrl *wizard.Controller) error {
	page := ctrl.Page()
	localized := ctrl.LocalizedPage()
	title := fmt.Sprintf("%s (%d/%d)", localized.SectionTitle, ctrl.PageIndex()+1, ctrl.PageCount())
	if err := h.say(ctx, h.theme.SectionPrefix, title); err != nil {
		return err
	}

	for i, field := range page.Fields {
		if err := h.promptField(ctx, ctrl, field, localized.Fields[i]); err != nil {
			return err
		}
	}

	move, err := h.navigate(ctx, ctrl, localized)
	if err != nil {
		return err
	}
	if move == actionBack {
		ctrl.Retreat()
		return nil
	}

	step, err := ctrl.Advance()
	if errors.Is(err, wizard.ErrSink) {
		h.logger.Warn("finalization failed, staying on last page", "error", err)
		return h.say(ctx, h.theme.ErrorPrefix, err.Error())
	}
	if err != nil {
		return err
	}
	if !step.Advanced() {
		h.logger.Debug("page rejected", "page", page.ID, "failures", len(step.Errors))
		return h.sayAll(ctx, h.theme.ErrorPrefix, ctrl.Messages(step.Errors))
	}
	return nil
}

func (h *Host) navigate(ctx context.Context, ctrl *wizard.Controller, page render.LocalizedPage) (action, error) {
	forward := h.labels.Continue
	if ctrl.PageIndex() == ctrl.PageCount()-1 {
		forward = h.labels.Finish
	} else if page.NextPageTitle != "" {
		forward = fmt.Sprintf("%s: %s", h.labels.Continue, page.NextPageTitle)
	}
	captions := []string{forward}
	actions := []action{actionContinue}
	if ctrl.PageIndex() > 0 {
		captions = append(captions, h.labels.Back)
		actions = append(actions, actionBack)
	}
	return h.choose(ctx, page.SectionTitle, captions, actions)
}

func (h *Host) promptField(ctx context.Context, ctrl *wizard.Controller, field model.FieldSpec, localized render.LocalizedField) error {
	switch field.Kind {
	case model.KindImage:
		return h.promptImages(ctx, ctrl, field, localized.Label)
	case model.KindCollection:
		manager, ok := ctrl.Collection(field.SelectType)
		if !ok {
			return fmt.Errorf("tui: %q has no collection manager", field.SelectType)
		}
		return h.promptCollection(ctx, ctrl, manager, field, localized)
	default:
		current, _ := ctrl.Value(field.SelectType)
		value, err := h.promptScalar(ctx, field, localized, current)
		if err != nil {
			return err
		}
		return ctrl.Set(field.SelectType, value)
	}
}

// promptScalar asks for one value of a text, choice or temporal field.
func (h *Host) promptScalar(ctx context.Context, field model.FieldSpec, localized render.LocalizedField, current model.Value) (model.Value, error) {
	switch field.Kind {
	case model.KindText:
		def := ""
		if text, ok := current.(model.TextValue); ok {
			def = text.Text
		}
		answer, err := h.driver.Input(ctx, InputConfig{Message: localized.Label, Default: def})
		if err != nil {
			return nil, err
		}
		if answer == "" {
			return model.NullText(), nil
		}
		return model.Text(answer), nil

	case model.KindSelect:
		def := -1
		if choice, ok := current.(model.ChoiceValue); ok && choice.Option != nil {
			def = optionIndex(field.Options, choice.Option.ID)
		}
		idx, err := h.driver.Select(ctx, SelectConfig{
			Message:      localized.Label,
			Options:      optionLabels(localized),
			DefaultIndex: def,
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(field.Options) {
			return model.ChoiceValue{}, nil
		}
		return model.Choice(field.Options[idx]), nil

	case model.KindMultiSelect:
		var defaults []int
		if multi, ok := current.(model.MultiChoiceValue); ok {
			for _, opt := range multi.Options {
				if idx := optionIndex(field.Options, opt.ID); idx >= 0 {
					defaults = append(defaults, idx)
				}
			}
		}
		picked, err := h.driver.MultiSelect(ctx, SelectConfig{
			Message:  localized.Label,
			Options:  optionLabels(localized),
			Defaults: defaults,
		})
		if err != nil {
			return nil, err
		}
		chosen := make([]model.Option, 0, len(picked))
		for _, idx := range picked {
			if idx >= 0 && idx < len(field.Options) {
				chosen = append(chosen, field.Options[idx])
			}
		}
		return model.Choices(chosen...), nil

	case model.KindDate, model.KindTime, model.KindDateTime:
		base := time.Now()
		if stamp, ok := current.(model.TimeValue); ok && !stamp.Time.IsZero() {
			base = stamp.Time
		}
		layout := inputLayout(field.Kind)
		answer, err := h.driver.Input(ctx, InputConfig{
			Message: localized.Label,
			Default: base.Format(layout),
			Help:    layout,
			Validator: func(raw string) error {
				_, err := parseTemporal(field.Kind, raw, base)
				return err
			},
		})
		if err != nil {
			return nil, err
		}
		parsed, err := parseTemporal(field.Kind, answer, base)
		if err != nil {
			// Left for the page validation to report as an invalid date.
			return model.Timestamp(field.Kind, time.Time{}), nil
		}
		return model.Timestamp(field.Kind, parsed), nil

	default:
		panic(model.UnknownKindError{Kind: field.Kind})
	}
}

func (h *Host) promptImages(ctx context.Context, ctrl *wizard.Controller, field model.FieldSpec, label string) error {
	manager, ok := ctrl.Images(field.SelectType)
	if !ok {
		return fmt.Errorf("tui: %q has no image manager", field.SelectType)
	}
	for {
		filled := manager.Filled()
		if err := h.say(ctx, h.theme.InfoPrefix, fmt.Sprintf("%s: %d/%d", label, filled, manager.Len())); err != nil {
			return err
		}
		captions := []string{h.labels.AddImage}
		actions := []action{actionAdd}
		if filled > 0 {
			captions = append(captions, h.labels.RemoveImage)
			actions = append(actions, actionRemove)
		}
		captions = append(captions, h.labels.Done)
		actions = append(actions, actionDone)

		choice, err := h.choose(ctx, label, captions, actions)
		if err != nil {
			return err
		}
		switch choice {
		case actionAdd:
			source, err := h.chooseSource(ctx)
			if err != nil {
				return err
			}
			slot := firstEmptySlot(manager.Slots())
			if _, err := ctrl.RequestImage(ctx, field.SelectType, slot, source); err != nil {
				return err
			}
		case actionRemove:
			slot, err := h.chooseFilledSlot(ctx, manager.Slots())
			if err != nil {
				return err
			}
			if slot == "" {
				continue
			}
			if err := manager.RemoveImage(slot); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (h *Host) chooseSource(ctx context.Context) (wizard.Source, error) {
	captions := make([]string, len(imageSources))
	for i, source := range imageSources {
		captions[i] = string(source)
	}
	idx, err := h.driver.Select(ctx, SelectConfig{Message: h.labels.ChooseSrc, Options: captions})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(imageSources) {
		return wizard.SourceGallery, nil
	}
	return imageSources[idx], nil
}

func (h *Host) chooseFilledSlot(ctx context.Context, slots []model.ImageSlot) (string, error) {
	var ids, captions []string
	for _, slot := range slots {
		if slot.Filled() {
			ids = append(ids, slot.SlotID)
			captions = append(captions, fmt.Sprintf("%s: %s", slot.SlotID, slot.Image))
		}
	}
	idx, err := h.driver.Select(ctx, SelectConfig{Message: h.labels.ChooseSlot, Options: captions})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(ids) {
		return "", nil
	}
	return ids[idx], nil
}

func (h *Host) promptCollection(ctx context.Context, ctrl *wizard.Controller, manager *collection.Manager, field model.FieldSpec, localized render.LocalizedField) error {
	for {
		entries := manager.Entries()
		lines := []string{fmt.Sprintf("%s: %d", localized.Label, len(entries))}
		for _, entry := range entries {
			lines = append(lines, fmt.Sprintf("  #%d %s", entry.ID, entrySummary(field.Fields, entry)))
		}
		if err := h.sayAll(ctx, h.theme.InfoPrefix, lines); err != nil {
			return err
		}

		captions := []string{h.labels.AddEntry}
		actions := []action{actionAdd}
		if len(entries) > 0 {
			captions = append(captions, h.labels.EditEntry, h.labels.RemoveEntry)
			actions = append(actions, actionEdit, actionRemove)
		}
		captions = append(captions, h.labels.Done)
		actions = append(actions, actionDone)

		choice, err := h.choose(ctx, localized.Label, captions, actions)
		if err != nil {
			return err
		}
		switch choice {
		case actionAdd:
			if err := manager.StartCreate(); err != nil {
				return err
			}
			if err := h.editDraft(ctx, ctrl, manager, field, localized); err != nil {
				return err
			}
		case actionEdit:
			idx, err := h.chooseEntry(ctx, field.Fields, entries)
			if err != nil {
				return err
			}
			if err := manager.StartEdit(idx); err != nil {
				return err
			}
			if err := h.editDraft(ctx, ctrl, manager, field, localized); err != nil {
				return err
			}
		case actionRemove:
			idx, err := h.chooseEntry(ctx, field.Fields, entries)
			if err != nil {
				return err
			}
			if err := manager.Remove(idx); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// editDraft fills the open draft and commits it. Rejected drafts are shown
// with their messages and either edited again or cancelled.
func (h *Host) editDraft(ctx context.Context, ctrl *wizard.Controller, manager *collection.Manager, field model.FieldSpec, localized render.LocalizedField) error {
	for {
		draft, ok := manager.Draft()
		if !ok {
			return nil
		}
		for i, sub := range field.Fields {
			value, err := h.promptScalar(ctx, sub, localized.Fields[i], draft.Values[sub.SelectType])
			if err == nil {
				err = manager.SetDraftValue(sub.SelectType, value)
			}
			if err != nil {
				manager.Cancel()
				return err
			}
		}

		failures, err := manager.Commit()
		if err != nil {
			return err
		}
		if len(failures) == 0 {
			return nil
		}
		if err := h.sayAll(ctx, h.theme.ErrorPrefix, ctrl.Messages(failures)); err != nil {
			manager.Cancel()
			return err
		}
		retry, err := h.driver.Confirm(ctx, ConfirmConfig{Message: h.labels.RetryEntry, Default: true})
		if err != nil || !retry {
			manager.Cancel()
			return err
		}
	}
}

func (h *Host) chooseEntry(ctx context.Context, fields []model.FieldSpec, entries []model.Entry) (int, error) {
	captions := make([]string, len(entries))
	for i, entry := range entries {
		captions[i] = fmt.Sprintf("#%d %s", entry.ID, entrySummary(fields, entry))
	}
	idx, err := h.driver.Select(ctx, SelectConfig{Message: h.labels.ChooseEntry, Options: captions})
	if err != nil {
		return 0, err
	}
	return idx, nil
}

func (h *Host) choose(ctx context.Context, message string, captions []string, actions []action) (action, error) {
	idx, err := h.driver.Select(ctx, SelectConfig{Message: message, Options: captions})
	if err != nil {
		return 0, err
	}
	if idx < 0 || idx >= len(actions) {
		return actions[len(actions)-1], nil
	}
	return actions[idx], nil
}

func (h *Host) say(ctx context.Context, prefix, msg string) error {
	return h.driver.Info(ctx, prefix+msg)
}

func (h *Host) sayAll(ctx context.Context, prefix string, lines []string) error {
	for _, line := range lines {
		if err := h.say(ctx, prefix, line); err != nil {
			return err
		}
	}
	return nil
}

func optionLabels(field render.LocalizedField) []string {
	out := make([]string, len(field.Options))
	for i, opt := range field.Options {
		out[i] = opt.Label
	}
	return out
}

func optionIndex(options []model.Option, id string) int {
	for i, opt := range options {
		if opt.ID == id {
			return i
		}
	}
	return -1
}

func firstEmptySlot(slots []model.ImageSlot) string {
	for _, slot := range slots {
		if !slot.Filled() {
			return slot.SlotID
		}
	}
	return ""
}

// entrySummary joins the text values of an entry in sub-field order.
func entrySummary(fields []model.FieldSpec, entry model.Entry) string {
	var parts []string
	for _, field := range fields {
		if text, ok := entry.Values[field.SelectType].(model.TextValue); ok && text.Valid && text.Text != "" {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, " / ")
}

func inputLayout(kind model.Kind) string {
	switch kind {
	case model.KindTime:
		return TimeInputLayout
	case model.KindDateTime:
		return DateTimeInputLayout
	default:
		return DateInputLayout
	}
}

// parseTemporal reads raw with the input layout of kind in base's location.
// Time-only answers keep the calendar day of base.
func parseTemporal(kind model.Kind, raw string, base time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	parsed, err := time.ParseInLocation(inputLayout(kind), raw, base.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("tui: expected %s: %w", inputLayout(kind), err)
	}
	if kind == model.KindTime {
		parsed = time.Date(base.Year(), base.Month(), base.Day(), parsed.Hour(), parsed.Minute(), 0, 0, base.Location())
	}
	return parsed, nil
}
