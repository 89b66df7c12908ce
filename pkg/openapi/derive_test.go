package openapi_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/model"
	"github.com/goliatone/go-formwizard/pkg/openapi"
)

const incidentAPI = `openapi: 3.0.3
info:
  title: Incidents
  version: 1.0.0
paths:
  /incidents:
    post:
      operationId: createIncident
      summary: Report incident
      x-formwizard:
        id: incident
        pages:
          - id: general
            sectionTitle: section.general
            nextPageTitle: section.evidence
            fields: [zone, shift, occurredAt]
          - id: evidence
            sectionTitle: section.evidence
            fields: [photos]
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [zone, shift]
              properties:
                zone:
                  type: string
                shift:
                  type: string
                  enum: [morning, night]
                occurredAt:
                  type: string
                  format: date-time
                photos:
                  type: array
                  items:
                    type: string
                    format: uri
                  x-formwizard-min-slots: 2
                actions:
                  type: array
                  items:
                    type: object
                    required: [name]
                    properties:
                      name:
                        type: string
                        minLength: 3
                cost:
                  type: number
      responses:
        "201":
          description: created
    get:
      operationId: listIncidents
      responses:
        "200":
          description: ok
`

func loadDoc(t *testing.T) openapi.Document {
	t.Helper()
	fsys := fstest.MapFS{"api.yaml": {Data: []byte(incidentAPI)}}
	doc, err := openapi.Load(context.Background(), openapi.SourceFromFS("api.yaml"), openapi.WithFileSystem(fsys))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return doc
}

func TestOperations(t *testing.T) {
	ids, err := openapi.Operations(context.Background(), loadDoc(t))
	if err != nil {
		t.Fatalf("operations: %v", err)
	}
	if diff := cmp.Diff([]string{"createIncident"}, ids); diff != "" {
		t.Fatalf("operations mismatch (-want +got):\n%s", diff)
	}
}

func TestDerive(t *testing.T) {
	schema, err := openapi.Derive(context.Background(), loadDoc(t), "createIncident")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	always := []model.ValidationRule{{Kind: model.ValidationRuleAlways}}
	required := []model.ValidationRule{{Kind: model.ValidationRuleRequired}}
	want := model.PageSchema{
		ID: "incident",
		Pages: []model.Page{
			{
				ID: "general", SectionTitle: "section.general", NextPageTitle: "section.evidence",
				Fields: []model.FieldSpec{
					{ID: "zone", SelectType: "zone", Kind: model.KindText, Label: "field.zone", Validations: required},
					{
						ID: "shift", SelectType: "shift", Kind: model.KindSelect, Label: "field.shift",
						Options: []model.Option{
							{ID: "morning", Label: "shift.morning"},
							{ID: "night", Label: "shift.night"},
						},
						Validations: required,
					},
					{ID: "occurredAt", SelectType: "occurredAt", Kind: model.KindDateTime, Label: "field.occurredAt", Validations: always},
				},
			},
			{
				ID: "evidence", SectionTitle: "section.evidence",
				Fields: []model.FieldSpec{
					{ID: "photos", SelectType: "photos", Kind: model.KindImage, Label: "field.photos", MinSlots: 2, Validations: always},
					{
						ID: "actions", SelectType: "actions", Kind: model.KindCollection, Label: "field.actions",
						Validations: always,
						Fields: []model.FieldSpec{{
							ID: "name", SelectType: "name", Kind: model.KindText, Label: "field.name",
							Validations: []model.ValidationRule{
								{Kind: model.ValidationRuleRequired},
								{Kind: model.ValidationRuleMinLength, Params: map[string]string{"value": "3"}},
							},
						}},
					},
					{
						ID: "cost", SelectType: "cost", Kind: model.KindText, Label: "field.cost",
						Validations: []model.ValidationRule{{Kind: model.ValidationRuleNumber}},
					},
				},
			},
		},
	}
	if diff := cmp.Diff(want, schema); diff != "" {
		t.Fatalf("derived schema mismatch (-want +got):\n%s", diff)
	}
}

func TestDerive_UnknownOperation(t *testing.T) {
	_, err := openapi.Derive(context.Background(), loadDoc(t), "listIncidents")
	if !errors.Is(err, openapi.ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound for body-less operation, got %v", err)
	}
	_, err = openapi.Derive(context.Background(), loadDoc(t), "missing")
	if !errors.Is(err, openapi.ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got %v", err)
	}
}

func TestLoad_RequiresFileSystem(t *testing.T) {
	if _, err := openapi.Load(context.Background(), openapi.SourceFromFS("api.yaml")); err == nil {
		t.Fatalf("expected error without filesystem")
	}
}
