package openapi

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// LoaderOption configures Load.
type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	fileSystem fs.FS
}

// WithFileSystem supplies the fs.FS used for SourceKindFS sources.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(opts *loaderOptions) {
		opts.fileSystem = files
	}
}

// Load reads the document identified by src.
func Load(ctx context.Context, src Source, options ...LoaderOption) (Document, error) {
	if src == nil {
		return Document{}, errors.New("openapi: source is nil")
	}
	var cfg loaderOptions
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case SourceKindFile:
		data, err = os.ReadFile(src.Location())
	case SourceKindFS:
		if cfg.fileSystem == nil {
			return Document{}, errors.New("openapi: filesystem is not configured")
		}
		data, err = fs.ReadFile(cfg.fileSystem, src.Location())
	default:
		err = fmt.Errorf("openapi: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return Document{}, fmt.Errorf("openapi: load %s: %w", src.Location(), err)
	}
	return NewDocument(src, data)
}
