package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formwizard/pkg/model"
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

// Load reads and parses the schema document identified by src.
func Load(ctx context.Context, src Source, options ...LoaderOption) (model.PageSchema, error) {
	if src == nil {
		return model.PageSchema{}, errNilSource
	}
	var cfg loaderOptions
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := ctx.Err(); err != nil {
		return model.PageSchema{}, err
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
			return model.PageSchema{}, fmt.Errorf("schema: filesystem is not configured")
		}
		data, err = fs.ReadFile(cfg.fileSystem, src.Location())
	default:
		err = fmt.Errorf("unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return model.PageSchema{}, fmt.Errorf("schema: read %s: %w", src.Location(), err)
	}

	doc, err := NewDocument(src, data)
	if err != nil {
		return model.PageSchema{}, err
	}
	return ParseDocument(doc)
}

// ParseDocument parses a wrapped schema document.
func ParseDocument(doc Document) (model.PageSchema, error) {
	return Parse(doc.Raw(), doc.Location())
}

// Parse decodes a JSON or YAML page schema and checks it. source is only used
// in error messages.
func Parse(data []byte, source string) (model.PageSchema, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return model.PageSchema{}, fmt.Errorf("schema: file %s is empty", source)
	}

	var out model.PageSchema
	if err := json.Unmarshal(data, &out); err != nil {
		out = model.PageSchema{}
		if err := yaml.Unmarshal(data, &out); err != nil {
			return model.PageSchema{}, fmt.Errorf("schema: parse %s: invalid JSON or YAML: %w", source, err)
		}
	}
	if out.ID == "" {
		out.ID = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}
	if err := out.Check(); err != nil {
		return model.PageSchema{}, fmt.Errorf("schema: %s: %w", source, err)
	}
	return out, nil
}

// Store holds parsed schemas keyed by id.
type Store struct {
	schemas map[string]model.PageSchema
	sources map[string]string
}

// LoadFS walks fsys and parses every JSON/YAML file as a page schema. When
// fsys is nil the returned store is empty.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{
		schemas: make(map[string]model.PageSchema),
		sources: make(map[string]string),
	}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("schema: read %s: %w", path, err)
		}
		parsed, err := Parse(data, path)
		if err != nil {
			return err
		}
		if previous, exists := store.sources[parsed.ID]; exists {
			return fmt.Errorf("schema: duplicate schema %q (files %s and %s)", parsed.ID, previous, path)
		}
		store.schemas[parsed.ID] = parsed
		store.sources[parsed.ID] = path
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Schema returns the schema registered under id.
func (s *Store) Schema(id string) (model.PageSchema, bool) {
	if s == nil {
		return model.PageSchema{}, false
	}
	schema, ok := s.schemas[id]
	return schema, ok
}

// IDs lists the stored schema ids, sorted.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.schemas))
	for id := range s.schemas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Empty reports whether the store holds any schema.
func (s *Store) Empty() bool {
	return s == nil || len(s.schemas) == 0
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
