package wizard

import (
	"context"

	"github.com/goliatone/go-formwizard/pkg/model"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

// Source names where an image is acquired from.
type Source string

const (
	SourceGallery Source = "gallery"
	SourceCamera  Source = "camera"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourceGallery || s == SourceCamera
}

// Acquirer obtains an image reference from the host. ok is false when the
// user cancelled; a cancelled acquisition leaves the form untouched.
type Acquirer interface {
	Acquire(ctx context.Context, source Source) (uri string, ok bool, err error)
}

// AcquirerFunc adapts a function to Acquirer.
type AcquirerFunc func(ctx context.Context, source Source) (string, bool, error)

// Acquire implements Acquirer.
func (f AcquirerFunc) Acquire(ctx context.Context, source Source) (string, bool, error) {
	return f(ctx, source)
}

// Sink receives the finalized form snapshot when the wizard finishes. A
// failing sink keeps the wizard on its last page so the host may retry.
type Sink interface {
	Finalize(snapshot model.FormState) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(snapshot model.FormState) error

// Finalize implements Sink.
func (f SinkFunc) Finalize(snapshot model.FormState) error {
	return f(snapshot)
}

// Progress is the read-only projection hosts observe to drive their UI.
type Progress struct {
	PageIndex  int                     `json:"pageIndex"`
	PageCount  int                     `json:"pageCount"`
	Progress   float64                 `json:"progress"`
	LastErrors []validation.FieldError `json:"lastErrors,omitempty"`
	Finished   bool                    `json:"finished"`
}

// Observer is notified synchronously after every state transition and after
// every rejected advance.
type Observer func(Progress)
