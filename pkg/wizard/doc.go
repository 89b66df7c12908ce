// Package wizard implements the page-by-page state machine that walks one
// record through a model.PageSchema.
//
// A Controller is either editing page i (0 <= i < N) or finished. Advance
// validates every field of the current page and reports all failures at
// once; only a fully valid page moves forward, and the last page's advance
// finishes the wizard and hands the snapshot to the configured Sink. Retreat
// never validates and never clears values. Reset rebuilds the declared
// initial state.
//
// The controller performs no background work. Image acquisition is the only
// host callback that may block, and a cancelled acquisition leaves the state
// untouched.
package wizard
