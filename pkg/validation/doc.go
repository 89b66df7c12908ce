// Package validation maps a field's selectType to pure validation rules and
// reports structured results. Rules never panic on user input; failures carry
// an opaque error key that hosts translate. Registries are bound to a page
// schema through Bind, which compiles declarative model.ValidationRules and
// falls back to a per-kind default unless the registry is strict.
package validation
