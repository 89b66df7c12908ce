// Package schema loads page schemas from JSON or YAML documents and bundles
// the default incident report schema together with its message catalog.
package schema
