package schema_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formwizard/pkg/model"
	"github.com/goliatone/go-formwizard/pkg/schema"
)

const jsonSchema = `{
  "id": "inspection",
  "pages": [
    {"id": "main", "sectionTitle": "section.main", "fields": [
      {"id": "zone", "selectType": "zone", "kind": "text"}
    ]}
  ]
}`

const yamlSchema = `pages:
  - id: main
    sectionTitle: section.main
    fields:
      - id: photos
        selectType: photos
        kind: image
        minSlots: 2
`

func TestParse_JSONAndYAML(t *testing.T) {
	parsed, err := schema.Parse([]byte(jsonSchema), "inspection.json")
	if err != nil {
		t.Fatalf("parse json: %v", err)
	}
	if parsed.ID != "inspection" || len(parsed.Fields()) != 1 {
		t.Fatalf("unexpected json schema: %+v", parsed)
	}

	parsed, err = schema.Parse([]byte(yamlSchema), "dir/evidence.yaml")
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	if parsed.ID != "evidence" {
		t.Fatalf("expected id derived from file name, got %q", parsed.ID)
	}
	field, ok := parsed.Field("photos")
	if !ok || field.Kind != model.KindImage || field.Slots() != 2 {
		t.Fatalf("unexpected image field: %+v", field)
	}
}

func TestParse_RejectsDefects(t *testing.T) {
	dup := `pages:
  - id: a
    fields:
      - {id: zone, selectType: zone, kind: text}
  - id: b
    fields:
      - {id: zone, selectType: zone, kind: text}
`
	if _, err := schema.Parse([]byte(dup), "dup.yaml"); !errors.Is(err, model.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
	if _, err := schema.Parse([]byte("  "), "empty.yaml"); err == nil {
		t.Fatalf("expected empty document error")
	}
	if _, err := schema.Parse([]byte("pages: [unterminated"), "broken.yaml"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"a/inspection.json": {Data: []byte(jsonSchema)},
		"b/evidence.yml":    {Data: []byte(yamlSchema)},
		"README.md":         {Data: []byte("ignored")},
	}
	store, err := schema.LoadFS(fsys)
	if err != nil {
		t.Fatalf("load fs: %v", err)
	}
	if got := store.IDs(); len(got) != 2 || got[0] != "evidence" || got[1] != "inspection" {
		t.Fatalf("unexpected ids: %v", got)
	}

	fsys["c/copy.json"] = &fstest.MapFile{Data: []byte(jsonSchema)}
	if _, err := schema.LoadFS(fsys); err == nil {
		t.Fatalf("expected duplicate schema id error")
	}

	empty, err := schema.LoadFS(nil)
	if err != nil || !empty.Empty() {
		t.Fatalf("nil fs: %v %v", empty, err)
	}
}

func TestLoad_FromFS(t *testing.T) {
	fsys := fstest.MapFS{"inspection.json": {Data: []byte(jsonSchema)}}
	parsed, err := schema.Load(context.Background(), schema.SourceFromFS("inspection.json"), schema.WithFileSystem(fsys))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if parsed.ID != "inspection" {
		t.Fatalf("unexpected id %q", parsed.ID)
	}
	if _, err := schema.Load(context.Background(), schema.SourceFromFS("inspection.json")); err == nil {
		t.Fatalf("expected missing filesystem error")
	}
}

func TestEmbeddedIncident(t *testing.T) {
	store, err := schema.LoadFS(schema.EmbeddedFS())
	if err != nil {
		t.Fatalf("load embedded: %v", err)
	}
	incident, ok := store.Schema(schema.IncidentID)
	if !ok {
		t.Fatalf("incident schema missing from %v", store.IDs())
	}
	if got := len(incident.Pages); got != 5 {
		t.Fatalf("expected 5 pages, got %d", got)
	}
	if len(schema.EmbeddedMessages()) == 0 {
		t.Fatalf("embedded messages are empty")
	}
}
