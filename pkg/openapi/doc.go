// Package openapi derives wizard page schemas from OpenAPI 3 operations. The
// request body of an operation becomes the field list; an optional
// x-formwizard extension on the operation splits it into pages, and
// x-formwizard-* extensions on properties override kinds, labels and slot
// counts.
package openapi
