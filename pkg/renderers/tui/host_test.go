package tui

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/model"
	"github.com/goliatone/go-formwizard/pkg/record"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

var errScriptExhausted = errors.New("stub: script exhausted")

type stubDriver struct {
	inputs    []string
	selectIdx []int
	multiIdx  [][]int
	confirm   []bool

	inputPos   int
	selectPos  int
	multiPos   int
	confirmPos int

	inputDefaults []string
	infoMessages  []string
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errScriptExhausted
	}
	s.inputDefaults = append(s.inputDefaults, cfg.Default)
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errScriptExhausted
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, _ SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return 0, errScriptExhausted
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, _ SelectConfig) ([]int, error) {
	if s.multiPos >= len(s.multiIdx) {
		return nil, errScriptExhausted
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

var fixedNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

func newController(t *testing.T, schema model.PageSchema, opts ...wizard.Option) *wizard.Controller {
	t.Helper()
	opts = append([]wizard.Option{wizard.WithClock(func() time.Time { return fixedNow })}, opts...)
	ctrl, err := wizard.New(schema, opts...)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return ctrl
}

func textField(key string) model.FieldSpec {
	return model.FieldSpec{ID: key, SelectType: key, Kind: model.KindText, Label: "field." + key}
}

func decodeJSON(t *testing.T, payload []byte) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(payload, &out); err != nil {
		t.Fatalf("decode output: %v\n%s", err, payload)
	}
	return out
}

func TestRun_RepromptsRejectedPageAndCollectsEntries(t *testing.T) {
	schema := model.PageSchema{
		ID: "incident",
		Pages: []model.Page{
			{ID: "general", SectionTitle: "General", Fields: []model.FieldSpec{
				textField("zone"),
				{
					ID: "shift", SelectType: "shift", Kind: model.KindSelect, Label: "field.shift",
					Options: []model.Option{{ID: "morning", Label: "Morning"}, {ID: "night", Label: "Night"}},
				},
			}},
			{ID: "actions", SectionTitle: "Actions", Fields: []model.FieldSpec{{
				ID: "actions", SelectType: "actions", Kind: model.KindCollection, Label: "field.actions",
				Fields: []model.FieldSpec{textField("actionName")},
			}}},
		},
	}
	driver := &stubDriver{
		inputs: []string{"", "North", "", "Close valve"},
		// shift, continue, shift, continue, add entry, done, finish
		selectIdx: []int{0, 0, 1, 0, 0, 3, 0},
		confirm:   []bool{true},
	}
	host := New(WithPromptDriver(driver), WithTheme(Theme{ErrorPrefix: "! "}))

	out, err := host.Run(context.Background(), newController(t, schema))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	got := decodeJSON(t, out)
	if got["zone"] != "North" || got["shift"] != "night" {
		t.Fatalf("unexpected scalar values: %v", got)
	}
	actions, ok := got["actions"].([]any)
	if !ok || len(actions) != 1 {
		t.Fatalf("expected one committed action, got %v", got["actions"])
	}
	values := actions[0].(map[string]any)["values"].(map[string]any)
	if values["actionName"] != "Close valve" {
		t.Fatalf("unexpected entry values: %v", values)
	}

	errorLines := 0
	for _, msg := range driver.infoMessages {
		if strings.HasPrefix(msg, "! ") {
			errorLines++
		}
	}
	// One rejected page and one rejected draft.
	if errorLines != 2 {
		t.Fatalf("expected 2 error notifications, got %d in %q", errorLines, driver.infoMessages)
	}
	if driver.inputPos != len(driver.inputs) || driver.selectPos != len(driver.selectIdx) {
		t.Fatalf("prompts not consumed as expected: inputs %d selects %d", driver.inputPos, driver.selectPos)
	}
}

func TestRun_BackKeepsValues(t *testing.T) {
	schema := model.PageSchema{
		ID: "notes",
		Pages: []model.Page{
			{ID: "first", SectionTitle: "First", Fields: []model.FieldSpec{textField("zone")}},
			{ID: "second", SectionTitle: "Second", Fields: []model.FieldSpec{textField("notes")}},
		},
	}
	driver := &stubDriver{
		inputs: []string{"A", "n", "B", "n2"},
		// continue, back, continue, finish
		selectIdx: []int{0, 1, 0, 0},
	}
	host := New(WithPromptDriver(driver), WithOutputFormat(record.FormatPrettyText))

	out, err := host.Run(context.Background(), newController(t, schema))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if diff := cmp.Diff("notes=n2\nzone=B\n", string(out)); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"", "", "A", "n"}, driver.inputDefaults); diff != "" {
		t.Fatalf("prompt defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_ImagesAndDates(t *testing.T) {
	schema := model.PageSchema{
		ID: "evidence",
		Pages: []model.Page{{ID: "evidence", SectionTitle: "Evidence", Fields: []model.FieldSpec{
			{ID: "photos", SelectType: "photos", Kind: model.KindImage, Label: "field.photos", MinSlots: 1},
			{ID: "incidentDate", SelectType: "incidentDate", Kind: model.KindDate, Label: "field.incidentDate"},
		}}},
	}
	driver := &stubDriver{
		inputs: []string{"/tmp/a.jpg", "", "/tmp/b.jpg", "2024-04-01"},
		// add camera, add gallery (cancelled), add gallery, remove slot 1, done, finish
		selectIdx: []int{0, 1, 0, 0, 0, 0, 1, 0, 2, 0},
	}
	host := New(WithPromptDriver(driver))
	ctrl := newController(t, schema, wizard.WithImageAcquirer(host.Acquirer()))

	out, err := host.Run(context.Background(), ctrl)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	got := decodeJSON(t, out)
	if diff := cmp.Diff([]any{"/tmp/b.jpg"}, got["photos"]); diff != "" {
		t.Fatalf("photos mismatch (-want +got):\n%s", diff)
	}
	if got["incidentDate"] != "2024-04-01" {
		t.Fatalf("unexpected date %v", got["incidentDate"])
	}
	if driver.inputDefaults[3] != "2024-03-10" {
		t.Fatalf("expected the date prompt to default to the clock, got %q", driver.inputDefaults[3])
	}
}

func TestRun_PropagatesAbort(t *testing.T) {
	schema := model.PageSchema{
		ID:    "single",
		Pages: []model.Page{{ID: "only", Fields: []model.FieldSpec{textField("zone")}}},
	}
	host := New(WithPromptDriver(&stubDriver{}))
	if _, err := host.Run(context.Background(), newController(t, schema)); !errors.Is(err, errScriptExhausted) {
		t.Fatalf("expected driver error, got %v", err)
	}
	if _, err := host.Run(context.Background(), nil); !errors.Is(err, ErrNilController) {
		t.Fatalf("expected ErrNilController, got %v", err)
	}
}

func TestParseTemporal(t *testing.T) {
	base := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

	got, err := parseTemporal(model.KindTime, " 17:45 ", base)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	if want := time.Date(2024, 3, 10, 17, 45, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("time kept day wrong: got %v want %v", got, want)
	}

	got, err = parseTemporal(model.KindDateTime, "2024-05-01 08:00", base)
	if err != nil || got.Day() != 1 || got.Hour() != 8 {
		t.Fatalf("parse dateTime: %v %v", got, err)
	}

	if _, err := parseTemporal(model.KindDate, "01/05/2024", base); err == nil {
		t.Fatalf("expected layout error")
	}
}
