package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNilController is returned when Run is called without a wizard.
	ErrNilController = errors.New("tui: nil controller")
)
