// Package run defines the data model for one pipeline execution: the
// immutable run context, per-step processing results, the aggregate
// metrics, and the mutable run state.
//
// State and Metrics follow a single-writer discipline: only the
// orchestrator goroutine driving a run mutates them, so no locking is
// used. Concurrent runs each own an independent State.
package run
