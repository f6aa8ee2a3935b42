// Package observer defines the progress/UI observer contract (spec.md
// section 6): the four callbacks the scheduler and materializer broadcast
// to as an export run proceeds.
package observer

import "github.com/jra3/photosync/internal/model"

// Progress is the running success/failure tally broadcast after each item.
type Progress struct {
	Total   int
	Success int
	Failed  int
}

// Observer receives export progress, stage transitions, completion times,
// and the current pending-export count. Implementations must be safe to
// call from the scheduler's single export goroutine; no concurrent calls
// are made.
type Observer interface {
	SetExportProgress(p Progress)
	SetExportStage(stage model.ExportStage)
	SetLastExportTime(epochMs int64)
	SetPendingExports(files int)
}

// Noop is an Observer that discards every call, used where the caller
// doesn't need progress reporting (e.g. engine.New's default and tests).
type Noop struct{}

func (Noop) SetExportProgress(Progress)            {}
func (Noop) SetExportStage(model.ExportStage)      {}
func (Noop) SetLastExportTime(int64)               {}
func (Noop) SetPendingExports(int)                 {}
