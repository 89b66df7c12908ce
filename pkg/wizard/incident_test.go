package wizard_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/model"
	"github.com/goliatone/go-formwizard/pkg/record"
	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/validation"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

func TestIncidentSchemaWalkthrough(t *testing.T) {
	messages, err := render.ParseMessages(schema.EmbeddedMessages())
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	catalog, err := render.NewCatalog("en", messages)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	var finalized model.FormState
	incident := schema.Incident()
	ctrl := mustNew(t, incident,
		wizard.WithLookup(render.Lookup(catalog, "es", nil)),
		wizard.WithSink(wizard.SinkFunc(func(s model.FormState) error {
			finalized = s
			return nil
		})),
	)

	if got := ctrl.LocalizedPage().SectionTitle; got != "Información general" {
		t.Fatalf("localized section title: got %q", got)
	}

	step, _ := ctrl.Advance()
	want := []validation.FieldError{
		{SelectType: "zone", ErrorKey: validation.KeyRequired},
		{SelectType: "serialNumber", ErrorKey: validation.KeyRequired},
		{SelectType: "shift", ErrorKey: validation.KeyRequired},
	}
	if diff := cmp.Diff(want, step.Errors); diff != "" {
		t.Fatalf("general page failures (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Completa todos los campos obligatorios"}, ctrl.Messages(step.Errors)); diff != "" {
		t.Fatalf("notification mismatch (-want +got):\n%s", diff)
	}

	shift, _ := incident.Field("shift")
	night, _ := shift.OptionByID("night")
	mustSet := func(key string, v model.Value) {
		t.Helper()
		if err := ctrl.Set(key, v); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}
	mustSet("zone", model.Text("Plant 2"))
	// The serial number pattern is relaxed: any non-empty value passes.
	mustSet("serialNumber", model.Text("legacy 77"))
	mustSet("shift", model.Choice(night))
	advanceOK(t, ctrl)

	mustSet("description", model.Text("short"))
	mustSet("estimatedCost", model.Text("-3"))
	mustSet("referenceNumber", model.Text("ticket"))
	step, _ = ctrl.Advance()
	want = []validation.FieldError{
		{SelectType: "description", ErrorKey: validation.KeyMinLength},
		{SelectType: "estimatedCost", ErrorKey: validation.KeyNumber},
	}
	if diff := cmp.Diff(want, step.Errors); diff != "" {
		t.Fatalf("description page failures (-want +got):\n%s", diff)
	}
	mustSet("description", model.Text("Forklift hit a rack"))
	mustSet("estimatedCost", model.Text("1200.50"))
	advanceOK(t, ctrl)

	step, _ = ctrl.Advance()
	if diff := cmp.Diff([]validation.FieldError{{SelectType: "photos", ErrorKey: validation.KeyImages}}, step.Errors); diff != "" {
		t.Fatalf("images page failures (-want +got):\n%s", diff)
	}
	photos, _ := ctrl.Images("photos")
	for _, slot := range []string{"1", "2", "3", "4"} {
		if err := photos.SetImage(slot, "file:///evidence/"+slot+".jpg"); err != nil {
			t.Fatalf("set image %s: %v", slot, err)
		}
	}
	if photos.Len() != 5 {
		t.Fatalf("expected auto-grown fifth slot, got %d", photos.Len())
	}
	advanceOK(t, ctrl)

	actions, _ := ctrl.Collection("actions")
	if err := actions.StartCreate(); err != nil {
		t.Fatalf("start create: %v", err)
	}
	_ = actions.SetDraftValue("actionName", model.Text("Repair rack"))
	_ = actions.SetDraftValue("actionOwner", model.Text("Maintenance"))
	failures, err := actions.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if diff := cmp.Diff([]validation.FieldError{{SelectType: "actionDueDate", ErrorKey: validation.KeyFutureDate}}, failures); diff != "" {
		t.Fatalf("draft failures (-want +got):\n%s", diff)
	}
	_ = actions.SetDraftValue("actionDueDate", model.Timestamp(model.KindDate, fixedNow.Add(72*time.Hour)))
	if failures, err := actions.Commit(); err != nil || len(failures) != 0 {
		t.Fatalf("commit after fix: %v %v", err, failures)
	}
	advanceOK(t, ctrl)

	results, _ := ctrl.Collection("results")
	_ = results.StartCreate()
	_ = results.SetDraftValue("resultSummary", model.Text("Rack replaced"))
	_ = results.SetDraftValue("resultJustification", model.Text("Bent upright"))
	if failures, err := results.Commit(); err != nil || len(failures) != 0 {
		t.Fatalf("results commit: %v %v", err, failures)
	}
	categories, _ := incident.Field("categories")
	safety, _ := categories.OptionByID("safety")
	mustSet("categories", model.Choices(safety))

	step, err = ctrl.Advance()
	if err != nil || !step.Finished {
		t.Fatalf("expected finish, got %+v %v", step, err)
	}

	rec := record.FromState(incident, finalized)
	for _, field := range incident.Fields() {
		if _, ok := rec[field.SelectType]; !ok {
			t.Fatalf("record missing %q", field.SelectType)
		}
	}
	if rec["shift"] != "night" || rec["injuries"] != "no" {
		t.Fatalf("unexpected choices in record: shift=%v injuries=%v", rec["shift"], rec["injuries"])
	}
	if got := len(rec["photos"].([]any)); got != 4 {
		t.Fatalf("expected 4 photos in record, got %d", got)
	}
}

func advanceOK(t *testing.T, ctrl *wizard.Controller) {
	t.Helper()
	step, err := ctrl.Advance()
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !step.Advanced() {
		t.Fatalf("advance rejected on page %d: %v", ctrl.PageIndex(), step.Errors)
	}
}
