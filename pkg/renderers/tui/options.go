package tui

import (
	"log/slog"

	"github.com/goliatone/go-formwizard/pkg/record"
)

// Theme captures optional prefixes the host applies when printing messages.
// Keep minimal to avoid coupling host logic to ANSI specifics.
type Theme struct {
	SectionPrefix string
	InfoPrefix    string
	ErrorPrefix   string
}

// Labels are the host's own menu captions. Field labels always come from the
// wizard lookup.
type Labels struct {
	Continue    string
	Finish      string
	Back        string
	AddEntry    string
	EditEntry   string
	RemoveEntry string
	AddImage    string
	RemoveImage string
	Done        string
	ImagePath   string
	ChooseEntry string
	ChooseSlot  string
	ChooseSrc   string
	RetryEntry  string
}

// DefaultLabels returns the English menu captions.
func DefaultLabels() Labels {
	return Labels{
		Continue:    "Continue",
		Finish:      "Finish",
		Back:        "Back",
		AddEntry:    "Add entry",
		EditEntry:   "Edit entry",
		RemoveEntry: "Remove entry",
		AddImage:    "Add image",
		RemoveImage: "Remove image",
		Done:        "Done",
		ImagePath:   "Image path or URI (empty to cancel)",
		ChooseEntry: "Which entry?",
		ChooseSlot:  "Which slot?",
		ChooseSrc:   "Image source",
		RetryEntry:  "Fix this entry?",
	}
}

// Option configures the Host.
type Option func(*Host)

// WithPromptDriver overrides the prompt driver used by the host.
func WithPromptDriver(driver PromptDriver) Option {
	return func(h *Host) {
		if driver != nil {
			h.driver = driver
		}
	}
}

// WithOutputFormat selects the output serialization format.
func WithOutputFormat(format record.Format) Option {
	return func(h *Host) {
		if format != "" {
			h.format = format
		}
	}
}

// WithRecordOptions forwards options to record.FromState when the finished
// state is serialized.
func WithRecordOptions(options ...record.Option) Option {
	return func(h *Host) {
		h.recordOptions = append(h.recordOptions, options...)
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(h *Host) {
		h.theme = theme
	}
}

// WithLabels replaces the menu captions.
func WithLabels(labels Labels) Option {
	return func(h *Host) {
		h.labels = labels
	}
}

// WithLogger sets the logger used for host diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}
