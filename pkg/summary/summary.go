package summary

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/model"
	"github.com/goliatone/go-formwizard/pkg/record"
	"github.com/goliatone/go-formwizard/pkg/render"
)

// DefaultTemplate is the bundled plain-text summary template.
const DefaultTemplate = "summary"

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

func bundledTemplates() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// View is the template data built for a finalized record. Labels are already
// localized; values are display strings.
type View struct {
	Title    string
	Sections []Section
}

// Section is one schema page.
type Section struct {
	Title  string
	Fields []Line
}

// Line is one field. Collection lines carry Entries instead of a Value.
type Line struct {
	Label      string
	Value      string
	Collection bool
	Entries    []EntryView
}

// EntryView is one committed collection entry.
type EntryView struct {
	ID     int
	Fields []Line
}

// BuildView arranges rec by the pages of schema, resolving labels and option
// keys through lookup.
func BuildView(schema model.PageSchema, rec record.Record, lookup render.LookupFunc) View {
	if lookup == nil {
		lookup = render.IdentityLookup
	}
	view := View{Title: schema.ID}
	for _, page := range schema.Pages {
		section := Section{Title: lookup(page.SectionTitle)}
		for _, field := range page.Fields {
			section.Fields = append(section.Fields, line(field, rec[field.SelectType], lookup))
		}
		view.Sections = append(view.Sections, section)
	}
	return view
}

func line(field model.FieldSpec, value any, lookup render.LookupFunc) Line {
	out := Line{Label: fieldLabel(field, lookup)}
	if field.Kind == model.KindCollection {
		out.Collection = true
		items, _ := value.([]any)
		for _, item := range items {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			values, _ := entry["values"].(map[string]any)
			id, _ := entry["id"].(int)
			view := EntryView{ID: id}
			for _, sub := range field.Fields {
				view.Fields = append(view.Fields, line(sub, values[sub.SelectType], lookup))
			}
			out.Entries = append(out.Entries, view)
		}
		return out
	}
	out.Value = displayValue(field, value, lookup)
	return out
}

func fieldLabel(field model.FieldSpec, lookup render.LookupFunc) string {
	if strings.TrimSpace(field.Label) != "" {
		return lookup(field.Label)
	}
	return lookup(field.ID)
}

func displayValue(field model.FieldSpec, value any, lookup render.LookupFunc) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return optionLabel(field, v, lookup)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, optionLabel(field, fmt.Sprint(item), lookup))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

func optionLabel(field model.FieldSpec, raw string, lookup render.LookupFunc) string {
	if !field.Kind.IsChoice() {
		return raw
	}
	if opt, ok := field.OptionByID(raw); ok {
		return lookup(opt.Label)
	}
	return raw
}

// Context converts the view into the pongo2 template context.
func (v View) Context() map[string]any {
	sections := make([]map[string]any, 0, len(v.Sections))
	for _, section := range v.Sections {
		sections = append(sections, map[string]any{
			"title":  section.Title,
			"fields": linesContext(section.Fields),
		})
	}
	return map[string]any{
		"title":    v.Title,
		"sections": sections,
	}
}

func linesContext(lines []Line) []map[string]any {
	out := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		item := map[string]any{"label": l.Label, "value": l.Value}
		if l.Collection {
			entries := make([]map[string]any, 0, len(l.Entries))
			for _, entry := range l.Entries {
				entries = append(entries, map[string]any{
					"id":     entry.ID,
					"fields": linesContext(entry.Fields),
				})
			}
			item["entries"] = entries
			item["collection"] = true
		}
		out = append(out, item)
	}
	return out
}

// Render writes the summary of rec using the named template of engine. A nil
// engine uses the bundled templates; an empty name selects DefaultTemplate.
func Render(engine *Engine, name string, schema model.PageSchema, rec record.Record, lookup render.LookupFunc, out ...io.Writer) (string, error) {
	if engine == nil {
		var err error
		if engine, err = NewEngine(); err != nil {
			return "", err
		}
	}
	if strings.TrimSpace(name) == "" {
		name = DefaultTemplate
	}
	return engine.RenderTemplate(name, BuildView(schema, rec, lookup).Context(), out...)
}
