package schema

import (
	"embed"
	"io/fs"
	"sync"

	"github.com/goliatone/go-formwizard/pkg/model"
)

//go:embed schemas/*.yaml i18n/messages.yaml
var embedded embed.FS

// IncidentID is the id of the bundled incident report schema.
const IncidentID = "incident"

// EmbeddedFS returns the bundled schema documents. Pass it to LoadFS to use
// the default schemas.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embedded, "schemas")
	if err != nil {
		// The embed directive guarantees the subpath exists.
		panic(err)
	}
	return sub
}

// EmbeddedMessages returns the bundled locale → key → message document for
// the default schemas.
func EmbeddedMessages() []byte {
	data, err := embedded.ReadFile("i18n/messages.yaml")
	if err != nil {
		panic(err)
	}
	return data
}

var (
	incidentOnce sync.Once
	incident     model.PageSchema
)

// Incident returns the bundled incident report schema: general data, a
// description, evidence photos, corrective actions and results.
func Incident() model.PageSchema {
	incidentOnce.Do(func() {
		data, err := fs.ReadFile(EmbeddedFS(), "incident.yaml")
		if err != nil {
			panic(err)
		}
		parsed, err := Parse(data, "incident.yaml")
		if err != nil {
			panic(err)
		}
		incident = parsed
	})
	return incident
}
