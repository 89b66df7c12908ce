// Package summary renders a finalized record as a human-readable review using
// pongo2 templates. The bundled "summary" template prints every page as a
// section with its localized labels and display values.
package summary
