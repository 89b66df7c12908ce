package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formwizard/pkg/model"
)

const (
	extensionNamespace = "x-formwizard"
	kindExtension      = extensionNamespace + "-kind"
	labelExtension     = extensionNamespace + "-label"
	minSlotsExtension  = extensionNamespace + "-min-slots"
)

// ErrOperationNotFound is returned when the requested operation does not
// exist or has no request body.
var ErrOperationNotFound = errors.New("openapi: operation not found")

var requestMediaTypes = []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"}

// pageLayout mirrors the x-formwizard operation extension.
type pageLayout struct {
	ID    string `json:"id"`
	Pages []struct {
		ID            string   `json:"id"`
		SectionTitle  string   `json:"sectionTitle"`
		NextPageTitle string   `json:"nextPageTitle"`
		Fields        []string `json:"fields"`
	} `json:"pages"`
}

// Operations lists the ids of operations with a request body, sorted.
// Operations without an operationId are keyed as "method:path".
func Operations(ctx context.Context, doc Document) ([]string, error) {
	spec, err := loadSpec(ctx, doc)
	if err != nil {
		return nil, err
	}
	var ids []string
	eachOperation(spec, func(id string, op *openapi3.Operation) bool {
		if requestSchema(op) != nil {
			ids = append(ids, id)
		}
		return true
	})
	sort.Strings(ids)
	return ids, nil
}

// Derive builds a page schema from the request body of operationID. The
// result has passed model.PageSchema.Check.
func Derive(ctx context.Context, doc Document, operationID string) (model.PageSchema, error) {
	spec, err := loadSpec(ctx, doc)
	if err != nil {
		return model.PageSchema{}, err
	}

	var operation *openapi3.Operation
	eachOperation(spec, func(id string, op *openapi3.Operation) bool {
		if id == operationID {
			operation = op
			return false
		}
		return true
	})
	if operation == nil {
		return model.PageSchema{}, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
	}
	body := requestSchema(operation)
	if body == nil {
		return model.PageSchema{}, fmt.Errorf("%w: %q has no request body", ErrOperationNotFound, operationID)
	}

	fields, err := fieldsFromObject(body)
	if err != nil {
		return model.PageSchema{}, fmt.Errorf("openapi: operation %q: %w", operationID, err)
	}

	layout, err := decodeLayout(operation.Extensions[extensionNamespace])
	if err != nil {
		return model.PageSchema{}, fmt.Errorf("openapi: operation %q: %w", operationID, err)
	}

	schema, err := paginate(operationID, operation, fields, layout)
	if err != nil {
		return model.PageSchema{}, fmt.Errorf("openapi: operation %q: %w", operationID, err)
	}
	if err := schema.Check(); err != nil {
		return model.PageSchema{}, err
	}
	return schema, nil
}

func loadSpec(ctx context.Context, doc Document) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := doc.Raw()
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi: validate: %w", err)
	}
	return spec, nil
}

func eachOperation(spec *openapi3.T, fn func(id string, op *openapi3.Operation) bool) {
	if spec.Paths == nil {
		return
	}
	paths := make([]string, 0, spec.Paths.Len())
	for path := range spec.Paths.Map() {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		item := spec.Paths.Value(path)
		if item == nil {
			continue
		}
		operations := item.Operations()
		methods := make([]string, 0, len(operations))
		for method := range operations {
			methods = append(methods, method)
		}
		sort.Strings(methods)
		for _, method := range methods {
			op := operations[method]
			if op == nil {
				continue
			}
			id := op.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			if !fn(id, op) {
				return
			}
		}
	}
}

func requestSchema(op *openapi3.Operation) *openapi3.Schema {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	content := op.RequestBody.Value.Content
	for _, mediaType := range requestMediaTypes {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func fieldsFromObject(schema *openapi3.Schema) ([]model.FieldSpec, error) {
	if !schema.Type.Is(openapi3.TypeObject) && len(schema.Properties) == 0 {
		return nil, errors.New("schema must be an object")
	}
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]model.FieldSpec, 0, len(names))
	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			return nil, fmt.Errorf("property %q has no schema", name)
		}
		field, err := fieldFromProperty(name, ref.Value, required[name])
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func fieldFromProperty(name string, prop *openapi3.Schema, required bool) (model.FieldSpec, error) {
	field := model.FieldSpec{
		ID:         name,
		SelectType: name,
		Label:      extString(prop.Extensions, labelExtension),
	}
	if field.Label == "" {
		field.Label = "field." + name
	}

	kind, err := inferKind(name, prop)
	if err != nil {
		return model.FieldSpec{}, err
	}
	field.Kind = kind

	var rules []model.ValidationRule
	if required {
		rules = append(rules, model.ValidationRule{Kind: model.ValidationRuleRequired})
	}

	switch kind {
	case model.KindText:
		if prop.Type.Is(openapi3.TypeNumber) || prop.Type.Is(openapi3.TypeInteger) {
			rules = append(rules, model.ValidationRule{Kind: model.ValidationRuleNumber})
		}
		if prop.MinLength > 0 {
			rules = append(rules, model.ValidationRule{
				Kind:   model.ValidationRuleMinLength,
				Params: map[string]string{"value": strconv.FormatUint(prop.MinLength, 10)},
			})
		}
		if prop.Pattern != "" {
			rules = append(rules, model.ValidationRule{
				Kind:   model.ValidationRulePattern,
				Params: map[string]string{"pattern": prop.Pattern},
			})
		}
		if prop.Default != nil {
			field.Default = fmt.Sprint(prop.Default)
		}
	case model.KindSelect:
		field.Options = optionsFor(name, prop)
		if prop.Default != nil {
			field.Default = fmt.Sprint(prop.Default)
		}
	case model.KindMultiSelect:
		field.Options = optionsFor(name, prop.Items.Value)
	case model.KindImage:
		field.MinSlots = extInt(prop.Extensions, minSlotsExtension)
	case model.KindCollection:
		nested, err := fieldsFromObject(prop.Items.Value)
		if err != nil {
			return model.FieldSpec{}, fmt.Errorf("property %q: %w", name, err)
		}
		field.Fields = nested
	case model.KindDate, model.KindTime, model.KindDateTime:
	default:
		panic(model.UnknownKindError{Kind: kind})
	}

	if len(rules) == 0 {
		rules = append(rules, model.ValidationRule{Kind: model.ValidationRuleAlways})
	}
	field.Validations = rules
	return field, nil
}

func inferKind(name string, prop *openapi3.Schema) (model.Kind, error) {
	if raw := extString(prop.Extensions, kindExtension); raw != "" {
		kind := model.Kind(raw)
		if !kind.Valid() {
			return "", fmt.Errorf("property %q: unknown %s %q", name, kindExtension, raw)
		}
		if kind == model.KindMultiSelect || kind == model.KindCollection || kind == model.KindImage {
			if !prop.Type.Is(openapi3.TypeArray) || prop.Items == nil || prop.Items.Value == nil {
				return "", fmt.Errorf("property %q: %s requires an array schema with items", name, kind)
			}
		}
		return kind, nil
	}

	switch {
	case prop.Type.Is(openapi3.TypeArray):
		if prop.Items == nil || prop.Items.Value == nil {
			return "", fmt.Errorf("property %q: array has no items schema", name)
		}
		items := prop.Items.Value
		switch {
		case len(items.Enum) > 0:
			return model.KindMultiSelect, nil
		case items.Type.Is(openapi3.TypeObject):
			return model.KindCollection, nil
		case items.Type.Is(openapi3.TypeString) && (items.Format == "uri" || items.Format == "binary"):
			return model.KindImage, nil
		default:
			return "", fmt.Errorf("property %q: unsupported array items", name)
		}
	case prop.Type.Is(openapi3.TypeObject):
		return "", fmt.Errorf("property %q: nested objects are not supported", name)
	case prop.Type.Is(openapi3.TypeBoolean), len(prop.Enum) > 0:
		return model.KindSelect, nil
	case prop.Format == "date":
		return model.KindDate, nil
	case prop.Format == "date-time":
		return model.KindDateTime, nil
	case prop.Format == "time":
		return model.KindTime, nil
	default:
		return model.KindText, nil
	}
}

func optionsFor(name string, prop *openapi3.Schema) []model.Option {
	values := prop.Enum
	if len(values) == 0 && prop.Type.Is(openapi3.TypeBoolean) {
		values = []any{true, false}
	}
	out := make([]model.Option, 0, len(values))
	for _, value := range values {
		id := fmt.Sprint(value)
		out = append(out, model.Option{ID: id, Label: name + "." + id})
	}
	return out
}

func decodeLayout(raw any) (pageLayout, error) {
	var layout pageLayout
	if raw == nil {
		return layout, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return layout, fmt.Errorf("encode %s: %w", extensionNamespace, err)
	}
	if err := json.Unmarshal(data, &layout); err != nil {
		return layout, fmt.Errorf("decode %s: %w", extensionNamespace, err)
	}
	return layout, nil
}

// paginate assigns fields to the pages declared by layout. Fields left out of
// the layout land on the last page; without a layout every field shares one
// page.
func paginate(operationID string, op *openapi3.Operation, fields []model.FieldSpec, layout pageLayout) (model.PageSchema, error) {
	schema := model.PageSchema{ID: layout.ID}
	if schema.ID == "" {
		schema.ID = operationID
	}

	byName := make(map[string]model.FieldSpec, len(fields))
	for _, field := range fields {
		byName[field.SelectType] = field
	}

	if len(layout.Pages) == 0 {
		title := op.Summary
		if title == "" {
			title = operationID
		}
		schema.Pages = []model.Page{{ID: operationID, SectionTitle: title, Fields: fields}}
		return schema, nil
	}

	placed := make(map[string]bool, len(fields))
	for _, declared := range layout.Pages {
		page := model.Page{
			ID:            declared.ID,
			SectionTitle:  declared.SectionTitle,
			NextPageTitle: declared.NextPageTitle,
		}
		for _, name := range declared.Fields {
			field, ok := byName[name]
			if !ok {
				return model.PageSchema{}, fmt.Errorf("page %q lists unknown property %q", declared.ID, name)
			}
			if placed[name] {
				return model.PageSchema{}, fmt.Errorf("property %q is placed on more than one page", name)
			}
			placed[name] = true
			page.Fields = append(page.Fields, field)
		}
		schema.Pages = append(schema.Pages, page)
	}

	last := &schema.Pages[len(schema.Pages)-1]
	for _, field := range fields {
		if !placed[field.SelectType] {
			last.Fields = append(last.Fields, field)
		}
	}
	return schema, nil
}

func extString(ext map[string]any, key string) string {
	value, ok := ext[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func extInt(ext map[string]any, key string) int {
	switch v := ext[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	default:
		return 0
	}
}
