package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

func TestMapFieldErrors_AggregatesPage(t *testing.T) {
	failures := []validation.FieldError{
		{SelectType: "zone", ErrorKey: validation.KeyRequired},
		{SelectType: "shift", ErrorKey: validation.KeyRequired},
		{SelectType: "description", ErrorKey: validation.KeyMinLength},
	}
	lookup := render.Lookup(stubTranslator{
		validation.KeyRequired:  "Required",
		validation.KeyMinLength: "Too short",
	}, "en", nil)

	mapped := render.MapFieldErrors(failures, lookup)

	wantFields := map[string][]string{
		"zone":        {"Required"},
		"shift":       {"Required"},
		"description": {"Too short"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Required", "Too short"}, mapped.Form); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
	if got := render.Notification(failures, lookup, "; "); got != "Required; Too short" {
		t.Fatalf("unexpected notification %q", got)
	}
}

func TestMapFieldErrors_Empty(t *testing.T) {
	mapped := render.MapFieldErrors(nil, nil)
	if mapped.Fields != nil || mapped.Form != nil {
		t.Fatalf("expected empty mapping, got %#v", mapped)
	}
	if got := render.Notification(nil, nil, ""); got != "" {
		t.Fatalf("expected empty notification, got %q", got)
	}
}

func TestMergeFormErrors(t *testing.T) {
	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	want := []string{"First", "Second", "third"}

	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}
