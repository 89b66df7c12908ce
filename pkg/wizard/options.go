package wizard

import (
	"io"
	"log/slog"
	"time"

	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

// Option configures a Controller.
type Option func(*config)

type config struct {
	registry *validation.Registry
	clock    func() time.Time
	lookup   render.LookupFunc
	sink     Sink
	acquirer Acquirer
	logger   *slog.Logger
}

func defaultConfig() config {
	return config{
		clock:  time.Now,
		lookup: render.IdentityLookup,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithRegistry supplies a validator registry. Rules already registered take
// precedence over the schema's declarative rules. When omitted, a registry
// sharing the controller clock is created.
func WithRegistry(registry *validation.Registry) Option {
	return func(cfg *config) {
		cfg.registry = registry
	}
}

// WithClock overrides the time source used for initial temporal values,
// date-relative rules and entry identities.
func WithClock(clock func() time.Time) Option {
	return func(cfg *config) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}

// WithLookup installs the host's localization lookup.
func WithLookup(lookup render.LookupFunc) Option {
	return func(cfg *config) {
		if lookup != nil {
			cfg.lookup = lookup
		}
	}
}

// WithSink installs the finalization consumer.
func WithSink(sink Sink) Option {
	return func(cfg *config) {
		cfg.sink = sink
	}
}

// WithImageAcquirer installs the host's camera/gallery callback.
func WithImageAcquirer(acquirer Acquirer) Option {
	return func(cfg *config) {
		cfg.acquirer = acquirer
	}
}

// WithLogger routes controller diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}
