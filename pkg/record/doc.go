// Package record converts a finalized FormState into the plain keyed payload
// hosts persist or submit, and serializes it as JSON, YAML, form-urlencoded or
// pretty text.
package record
