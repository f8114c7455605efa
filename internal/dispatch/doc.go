// Package dispatch maps classified source changes to the minimal set of
// render and delete actions and runs them.
//
// Planning is a pure function ([Plan]) of the change and the known
// campaigns. Execution is asynchronous: each campaign owns a single-worker
// FIFO queue, so work for one campaign never interleaves while different
// campaigns proceed in parallel. Within a unit of work deletes always run
// before renders, which makes a rename look atomic from the output store.
//
// Render contexts are cached per campaign for the life of the dispatcher
// and rebuilt only when a change adds, renames or removes sources.
package dispatch
