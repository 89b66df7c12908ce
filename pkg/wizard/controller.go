package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goliatone/go-formwizard/pkg/collection"
	"github.com/goliatone/go-formwizard/pkg/images"
	"github.com/goliatone/go-formwizard/pkg/model"
	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

var (
	// ErrFinished is returned by mutating calls once the wizard finished.
	// Reset starts a new record.
	ErrFinished = errors.New("wizard: already finished")
	// ErrNotLastPage is returned by Finish before the last page.
	ErrNotLastPage = errors.New("wizard: not on the last page")
	// ErrUnknownField is returned for selectTypes the schema does not declare.
	ErrUnknownField = errors.New("wizard: unknown field")
	// ErrNoAcquirer is returned by RequestImage without an Acquirer.
	ErrNoAcquirer = errors.New("wizard: no image acquirer configured")
	// ErrSink wraps the error of a failing finalization sink.
	ErrSink = errors.New("wizard: finalization sink failed")
)

// Step reports the outcome of Advance or Finish. Errors lists every failing
// field of the page in field order; when it is non-empty nothing moved.
// Moved is false as well when a failing sink kept the wizard on its last
// page. Snapshot is set only on the transition to Finished.
type Step struct {
	PageIndex int
	Progress  float64
	Finished  bool
	Moved     bool
	Errors    []validation.FieldError
	Snapshot  model.FormState
}

// Advanced reports whether the call moved the wizard to the next page or
// finished it.
func (s Step) Advanced() bool {
	return s.Moved
}

// InitialStateOf builds the declared initial values of every top-level field
// in schema. Temporal fields take now.
func InitialStateOf(schema model.PageSchema, now time.Time) model.FormState {
	return model.InitialState(schema.Fields(), now)
}

type subscription struct {
	id int
	fn Observer
}

// Controller drives one record through the pages of a schema. It is
// synchronous and owns its FormState; it is not safe for concurrent use.
//
// Image and collection fields are owned by their managers. The FormState seen
// through Value, Snapshot and the sink always reflects their committed
// contents.
type Controller struct {
	schema   model.PageSchema
	registry *validation.Registry
	clock    func() time.Time
	lookup   render.LookupFunc
	sink     Sink
	acquirer Acquirer
	logger   *slog.Logger

	fields      map[string]model.FieldSpec
	state       model.FormState
	images      map[string]*images.Manager
	collections map[string]*collection.Manager

	pageIndex  int
	finished   bool
	lastErrors []validation.FieldError

	observers []subscription
	nextSubID int
}

// New validates schema, binds its rules into the registry and builds the
// managers for image and collection fields. Schema defects and fields left
// uncovered by a strict registry fail with model.ErrInvalidSchema.
func New(schema model.PageSchema, options ...Option) (*Controller, error) {
	cfg := defaultConfig()
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if err := schema.Check(); err != nil {
		return nil, err
	}
	if cfg.registry == nil {
		cfg.registry = validation.NewRegistry(validation.WithClock(cfg.clock))
	}
	if err := cfg.registry.Bind(schema.Fields()); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidSchema, err)
	}

	c := &Controller{
		schema:      schema,
		registry:    cfg.registry,
		clock:       cfg.clock,
		lookup:      cfg.lookup,
		sink:        cfg.sink,
		acquirer:    cfg.acquirer,
		logger:      cfg.logger.With("schema", schema.ID),
		fields:      make(map[string]model.FieldSpec),
		images:      make(map[string]*images.Manager),
		collections: make(map[string]*collection.Manager),
	}

	for _, field := range schema.Fields() {
		c.fields[field.SelectType] = field
		switch field.Kind {
		case model.KindImage:
			c.images[field.SelectType] = images.New(field.SelectType, field.Slots())
		case model.KindCollection:
			manager, err := collection.New(field, c.registry, collection.WithClock(c.clock))
			if err != nil {
				return nil, fmt.Errorf("%w: %w", model.ErrInvalidSchema, err)
			}
			c.collections[field.SelectType] = manager
		case model.KindText, model.KindSelect, model.KindMultiSelect,
			model.KindDate, model.KindTime, model.KindDateTime:
		default:
			panic(model.UnknownKindError{Kind: field.Kind})
		}
	}

	c.load(InitialStateOf(schema, c.clock()))
	c.logger.Debug("wizard ready", "pages", len(schema.Pages), "fields", len(c.fields))
	return c, nil
}

// Schema returns the schema the controller was built with.
func (c *Controller) Schema() model.PageSchema {
	return c.schema
}

// Registry returns the bound validator registry.
func (c *Controller) Registry() *validation.Registry {
	return c.registry
}

// PageIndex reports the current page. After finishing it stays on the last
// page.
func (c *Controller) PageIndex() int {
	return c.pageIndex
}

// PageCount reports the number of pages.
func (c *Controller) PageCount() int {
	return len(c.schema.Pages)
}

// Progress reports (pageIndex+1)/N.
func (c *Controller) Progress() float64 {
	return float64(c.pageIndex+1) / float64(len(c.schema.Pages))
}

// Finished reports whether the terminal state was reached.
func (c *Controller) Finished() bool {
	return c.finished
}

// Page returns the current page.
func (c *Controller) Page() model.Page {
	return c.schema.Pages[c.pageIndex]
}

// LocalizedPage returns the current page with every key resolved through the
// host lookup.
func (c *Controller) LocalizedPage() render.LocalizedPage {
	return render.LocalizePage(c.Page(), c.lookup)
}

// Snapshot returns the observable projection of the wizard state.
func (c *Controller) Snapshot() Progress {
	return Progress{
		PageIndex:  c.pageIndex,
		PageCount:  len(c.schema.Pages),
		Progress:   c.Progress(),
		LastErrors: append([]validation.FieldError(nil), c.lastErrors...),
		Finished:   c.finished,
	}
}

// State returns a deep copy of the current FormState.
func (c *Controller) State() model.FormState {
	state := c.state.Clone()
	for key, manager := range c.images {
		state[key] = manager.Value()
	}
	for key, manager := range c.collections {
		state[key] = manager.Value()
	}
	return state
}

// Value returns the current value of a top-level field.
func (c *Controller) Value(selectType string) (model.Value, bool) {
	if manager, ok := c.images[selectType]; ok {
		return manager.Value(), true
	}
	if manager, ok := c.collections[selectType]; ok {
		return manager.Value(), true
	}
	value, ok := c.state[selectType]
	return model.Clone(value), ok
}

// Set stores value under selectType. Chosen options are replaced by the
// declared ones. Image and collection values replace the contents of their
// managers.
func (c *Controller) Set(selectType string, value model.Value) error {
	if c.finished {
		return ErrFinished
	}
	field, ok := c.fields[selectType]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, selectType)
	}
	value, err := field.Normalize(value)
	if err != nil {
		return err
	}
	switch typed := value.(type) {
	case model.ImageValue:
		c.images[selectType].Load(typed)
	case model.CollectionValue:
		c.collections[selectType].Load(typed)
	default:
		c.state[selectType] = value
	}
	return nil
}

// Images returns the slot manager of an image field.
func (c *Controller) Images(selectType string) (*images.Manager, bool) {
	manager, ok := c.images[selectType]
	return manager, ok
}

// Collection returns the manager of a repeatable collection field.
func (c *Controller) Collection(selectType string) (*collection.Manager, bool) {
	manager, ok := c.collections[selectType]
	return manager, ok
}

// RequestImage asks the host for an image and stores it in slotID. It reports
// false without error when the user cancelled.
func (c *Controller) RequestImage(ctx context.Context, selectType, slotID string, source Source) (bool, error) {
	if c.finished {
		return false, ErrFinished
	}
	if c.acquirer == nil {
		return false, ErrNoAcquirer
	}
	if !source.Valid() {
		return false, fmt.Errorf("wizard: unknown image source %q", source)
	}
	manager, ok := c.images[selectType]
	if !ok {
		return false, fmt.Errorf("%w: %q is not an image field", ErrUnknownField, selectType)
	}

	uri, ok, err := c.acquirer.Acquire(ctx, source)
	if err != nil {
		return false, fmt.Errorf("wizard: acquire image for %q: %w", selectType, err)
	}
	if !ok {
		c.logger.Debug("image acquisition cancelled", "field", selectType, "source", source)
		return false, nil
	}
	if err := manager.SetImage(slotID, uri); err != nil {
		return false, err
	}
	return true, nil
}

// ValidatePage checks every field on the current page without moving.
func (c *Controller) ValidatePage() []validation.FieldError {
	return c.registry.ValidateFields(c.Page().Fields, c.State())
}

// Advance validates the current page. On failure every failing field is
// reported and nothing moves. On success it moves to the next page or, from
// the last page, finishes and hands the snapshot to the sink.
func (c *Controller) Advance() (Step, error) {
	if c.finished {
		return Step{}, ErrFinished
	}

	failures := c.ValidatePage()
	if len(failures) > 0 {
		c.lastErrors = failures
		c.logger.Debug("advance rejected", "page", c.Page().ID, "failures", len(failures))
		c.notify()
		return c.step(false, failures), nil
	}

	if c.pageIndex < len(c.schema.Pages)-1 {
		c.pageIndex++
		c.lastErrors = nil
		c.logger.Debug("advanced", "page", c.Page().ID, "index", c.pageIndex)
		c.notify()
		return c.step(true, nil), nil
	}
	return c.finish()
}

// Finish is Advance restricted to the last page.
func (c *Controller) Finish() (Step, error) {
	if c.finished {
		return Step{}, ErrFinished
	}
	if c.pageIndex != len(c.schema.Pages)-1 {
		return Step{}, ErrNotLastPage
	}
	return c.Advance()
}

func (c *Controller) finish() (Step, error) {
	snapshot := c.State()
	if c.sink != nil {
		if err := c.sink.Finalize(snapshot.Clone()); err != nil {
			c.logger.Warn("finalization sink failed", "error", err)
			return c.step(false, nil), fmt.Errorf("%w: %w", ErrSink, err)
		}
	}
	c.finished = true
	c.lastErrors = nil
	c.logger.Info("wizard finished", "fields", len(snapshot))
	c.notify()

	step := c.step(true, nil)
	step.Snapshot = snapshot
	return step, nil
}

// Retreat moves back one page without validating or clearing values. It
// reports false on the first page and after finishing.
func (c *Controller) Retreat() bool {
	if c.finished || c.pageIndex == 0 {
		return false
	}
	c.pageIndex--
	c.lastErrors = nil
	c.notify()
	return true
}

// Reset returns to the first page with freshly initialised values and no
// open drafts.
func (c *Controller) Reset() {
	c.pageIndex = 0
	c.finished = false
	c.lastErrors = nil
	c.load(InitialStateOf(c.schema, c.clock()))
	c.logger.Debug("wizard reset")
	c.notify()
}

// Messages localizes failures into the page-level notification lines.
func (c *Controller) Messages(failures []validation.FieldError) []string {
	return render.Messages(failures, c.lookup)
}

// Subscribe registers an observer and returns a func that removes it.
func (c *Controller) Subscribe(observer Observer) func() {
	if observer == nil {
		return func() {}
	}
	c.nextSubID++
	id := c.nextSubID
	c.observers = append(c.observers, subscription{id: id, fn: observer})
	return func() {
		for i, sub := range c.observers {
			if sub.id == id {
				c.observers = append(c.observers[:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

func (c *Controller) notify() {
	if len(c.observers) == 0 {
		return
	}
	snapshot := c.Snapshot()
	for _, sub := range append([]subscription(nil), c.observers...) {
		sub.fn(snapshot)
	}
}

func (c *Controller) step(moved bool, failures []validation.FieldError) Step {
	return Step{
		PageIndex: c.pageIndex,
		Progress:  c.Progress(),
		Finished:  c.finished,
		Moved:     moved,
		Errors:    failures,
	}
}

func (c *Controller) load(initial model.FormState) {
	c.state = make(model.FormState, len(initial))
	for key, value := range initial {
		switch typed := value.(type) {
		case model.ImageValue:
			c.images[key].Load(typed)
		case model.CollectionValue:
			c.collections[key].Load(typed)
		default:
			c.state[key] = value
		}
	}
}
