// Package model defines the declarative page schema consumed by the wizard
// engine and the closed set of values a form can hold. A PageSchema is an
// ordered list of pages; every page lists FieldSpecs whose SelectType keys
// the field's entry in FormState. Field kinds form a closed enumeration and
// each kind maps to exactly one Value variant (TextValue, ChoiceValue,
// MultiChoiceValue, TimeValue, ImageValue, CollectionValue). Labels, section
// titles and option labels are localization keys; the package never stores
// display text. Schema defects are reported by PageSchema.Check and wrap
// ErrInvalidSchema.
package model
