package model_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/model"
)

func categoriesField() model.FieldSpec {
	return model.FieldSpec{
		ID: "categories", SelectType: "categories", Kind: model.KindMultiSelect,
		Options: []model.Option{{ID: "safety", Label: "category.safety"}, {ID: "quality", Label: "category.quality"}},
	}
}

func TestNormalize_ReplacesChosenOptions(t *testing.T) {
	got, err := categoriesField().Normalize(model.Choices(
		model.Option{ID: "quality", Label: "forged"},
		model.Option{ID: "safety"},
	))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := model.Value(model.Choices(
		model.Option{ID: "quality", Label: "category.quality"},
		model.Option{ID: "safety", Label: "category.safety"},
	))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("normalized value (-want +got):\n%s", diff)
	}
}

func TestNormalize_CollectionEntries(t *testing.T) {
	results := model.FieldSpec{
		ID: "results", SelectType: "results", Kind: model.KindCollection,
		Fields: []model.FieldSpec{
			{ID: "summary", SelectType: "summary", Kind: model.KindText},
			{
				ID: "severity", SelectType: "severity", Kind: model.KindSelect,
				Options: []model.Option{{ID: "low", Label: "severity.low"}},
			},
		},
	}

	got, err := results.Normalize(model.CollectionValue{Entries: []model.Entry{{
		Key: "a",
		Values: model.FormState{
			"summary":  model.Text("ok"),
			"severity": model.Choice(model.Option{ID: "low", Label: "severity.high"}),
		},
	}}})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	entry := got.(model.CollectionValue).Entries[0]
	if diff := cmp.Diff(model.Value(model.Choice(model.Option{ID: "low", Label: "severity.low"})), entry.Values["severity"]); diff != "" {
		t.Fatalf("entry option (-want +got):\n%s", diff)
	}

	_, err = results.Normalize(model.CollectionValue{Entries: []model.Entry{{
		Values: model.FormState{"unknown": model.Text("x")},
	}}})
	if !errors.Is(err, model.ErrValueRejected) {
		t.Fatalf("expected ErrValueRejected for an unknown sub-field, got %v", err)
	}
}
