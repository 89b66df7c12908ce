package validation_test

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/model"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestRules(t *testing.T) {
	morning := model.Option{ID: "m", Label: "Morning"}
	other := model.Option{ID: "x", Label: "Maybe"}

	tests := []struct {
		name  string
		rule  validation.Rule
		value model.Value
		want  validation.Result
	}{
		{"not empty nil", validation.NotEmpty(""), nil, validation.Fail(validation.KeyRequired)},
		{"not empty null text", validation.NotEmpty(""), model.NullText(), validation.Fail(validation.KeyRequired)},
		{"not empty whitespace", validation.NotEmpty(""), model.Text("   "), validation.Fail(validation.KeyRequired)},
		{"not empty text", validation.NotEmpty(""), model.Text("zone A"), validation.OK()},
		{"not empty no choice", validation.NotEmpty(""), model.ChoiceValue{}, validation.Fail(validation.KeyRequired)},
		{"not empty empty multi", validation.NotEmpty(""), model.Choices(), validation.Fail(validation.KeyRequired)},
		{"not empty empty collection", validation.NotEmpty(""), model.CollectionValue{}, validation.Fail(validation.KeyRequired)},
		{"not empty custom key", validation.NotEmpty("zone.empty"), model.Text(""), validation.Fail("zone.empty")},
		{"min length short", validation.MinLength(10, ""), model.Text("too short"), validation.Fail(validation.KeyMinLength)},
		{"min length trims", validation.MinLength(5, ""), model.Text("  abcd  "), validation.Fail(validation.KeyMinLength)},
		{"min length ok", validation.MinLength(5, ""), model.Text("leaked"), validation.OK()},
		{"min length counts runes", validation.MinLength(5, ""), model.Text("ñandú"), validation.OK()},
		{"number ok", validation.NonNegativeNumber(""), model.Text("12.5"), validation.OK()},
		{"number zero", validation.NonNegativeNumber(""), model.Text("0"), validation.OK()},
		{"number negative", validation.NonNegativeNumber(""), model.Text("-1"), validation.Fail(validation.KeyNumber)},
		{"number NaN", validation.NonNegativeNumber(""), model.Text("NaN"), validation.Fail(validation.KeyNumber)},
		{"number garbage", validation.NonNegativeNumber(""), model.Text("ten"), validation.Fail(validation.KeyNumber)},
		{"one of choice", validation.OneOf("", "Morning", "Evening", "Night"), model.Choice(morning), validation.OK()},
		{"one of outside", validation.OneOf("", "Yes", "No"), model.Choice(other), validation.Fail(validation.KeyOneOf)},
		{"one of nothing chosen", validation.OneOf("", "Yes", "No"), model.ChoiceValue{}, validation.Fail(validation.KeyOneOf)},
		{"date ok", validation.ValidDate(""), model.Timestamp(model.KindDate, fixedNow), validation.OK()},
		{"date zero", validation.ValidDate(""), model.Timestamp(model.KindDate, time.Time{}), validation.Fail(validation.KeyDate)},
		{"date text", validation.ValidDate(""), model.Text("2024-02-30"), validation.Fail(validation.KeyDate)},
		{"date text ok", validation.ValidDate(""), model.Text("2024-02-29"), validation.OK()},
		{"future past", validation.FutureDate(""), model.Timestamp(model.KindDate, fixedNow.Add(-time.Hour)), validation.Fail(validation.KeyFutureDate)},
		{"future now", validation.FutureDate(""), model.Timestamp(model.KindDate, fixedNow), validation.Fail(validation.KeyFutureDate)},
		{"future ok", validation.FutureDate(""), model.Timestamp(model.KindDate, fixedNow.Add(time.Hour)), validation.OK()},
		{"images none", validation.HasImage(""), model.EmptySlots(4), validation.Fail(validation.KeyImages)},
		{"images one", validation.HasImage(""), model.ImageValue{Slots: []model.ImageSlot{{SlotID: "1"}, {SlotID: "2", Image: "file://a.jpg"}}}, validation.OK()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rule(tt.value, fixedNow)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPattern_RelaxedDegradesToNotEmpty(t *testing.T) {
	re := regexp.MustCompile(`^SN-\d{4}$`)

	relaxed := validation.Pattern(re, false, "")
	if got := relaxed(model.Text("anything"), fixedNow); !got.Valid {
		t.Fatalf("relaxed pattern should accept non-empty text: %#v", got)
	}
	if got := relaxed(model.Text(" "), fixedNow); got.Valid || got.ErrorKey != validation.KeyPattern {
		t.Fatalf("relaxed pattern should still reject empty text: %#v", got)
	}

	strict := validation.Pattern(re, true, "")
	if got := strict(model.Text("SN-12"), fixedNow); got.Valid {
		t.Fatalf("enforced pattern should reject malformed text")
	}
	if got := strict(model.Text("SN-1234"), fixedNow); !got.Valid {
		t.Fatalf("enforced pattern should accept matching text: %#v", got)
	}
}

func TestRegistry_UnknownSelectTypeIsValid(t *testing.T) {
	reg := validation.NewRegistry()
	if got := reg.Validate("missing", nil); !got.Valid {
		t.Fatalf("expected permissive fallback, got %#v", got)
	}
}

func TestRegistry_RegisterRejectsDuplicates(t *testing.T) {
	reg := validation.NewRegistry()
	reg.MustRegister("zone", validation.NotEmpty(""))
	if err := reg.Register("zone", validation.Always()); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if err := reg.Register(" ", validation.Always()); err == nil {
		t.Fatalf("expected empty selectType error")
	}
	if diff := cmp.Diff([]string{"zone"}, reg.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_FirstFailingRuleWins(t *testing.T) {
	reg := validation.NewRegistry()
	reg.MustRegister("description", validation.NotEmpty(""), validation.MinLength(10, ""))

	if got := reg.Validate("description", model.NullText()); got.ErrorKey != validation.KeyRequired {
		t.Fatalf("expected required key, got %#v", got)
	}
	if got := reg.Validate("description", model.Text("short")); got.ErrorKey != validation.KeyMinLength {
		t.Fatalf("expected minLength key, got %#v", got)
	}
}

func TestRegistry_BindCompilesDeclarativeRules(t *testing.T) {
	fields := []model.FieldSpec{
		{ID: "zone", SelectType: "zone", Kind: model.KindText},
		{
			ID: "description", SelectType: "description", Kind: model.KindText,
			Validations: []model.ValidationRule{
				{Kind: model.ValidationRuleMinLength, Params: map[string]string{"value": "10", "errorKey": "description.short"}},
			},
		},
		{
			ID: "deadline", SelectType: "deadline", Kind: model.KindDate,
			Validations: []model.ValidationRule{{Kind: model.ValidationRuleFutureDate}},
		},
		{
			ID: "actions", SelectType: "actions", Kind: model.KindCollection,
			Fields: []model.FieldSpec{{ID: "what", SelectType: "actionWhat", Kind: model.KindText}},
		},
	}

	reg := validation.NewRegistry(validation.WithClock(fixedClock))
	reg.MustRegister("zone", validation.Always())
	if err := reg.Bind(fields); err != nil {
		t.Fatalf("bind: %v", err)
	}

	state := model.FormState{
		"zone":        model.NullText(),
		"description": model.Text("tiny"),
		"deadline":    model.Timestamp(model.KindDate, fixedNow.Add(-24*time.Hour)),
		"actions":     model.CollectionValue{},
	}
	got := reg.ValidateFields(fields, state)
	want := []validation.FieldError{
		{SelectType: "description", ErrorKey: "description.short"},
		{SelectType: "deadline", ErrorKey: validation.KeyFutureDate},
		{SelectType: "actions", ErrorKey: validation.KeyRequired},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if !reg.Has("actionWhat") {
		t.Fatalf("expected nested collection field to be bound")
	}
}

func TestRegistry_StrictRequiresRules(t *testing.T) {
	reg := validation.NewRegistry(validation.WithStrict())
	err := reg.Bind([]model.FieldSpec{{ID: "zone", SelectType: "zone", Kind: model.KindText}})
	if !errors.Is(err, validation.ErrUncovered) {
		t.Fatalf("expected ErrUncovered, got %v", err)
	}

	reg = validation.NewRegistry(validation.WithStrict())
	reg.MustRegister("zone", validation.Always())
	if err := reg.Bind([]model.FieldSpec{{ID: "zone", SelectType: "zone", Kind: model.KindText}}); err != nil {
		t.Fatalf("explicit rule should satisfy strict binding: %v", err)
	}
}
