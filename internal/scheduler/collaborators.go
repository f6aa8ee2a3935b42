// Package scheduler coordinates export runs: single-flight execution,
// cooperative cancellation, coalesced re-runs requested while a run is in
// flight, and continuous-export triggering off an external event bus
// (spec.md section 4.6).
package scheduler

import (
	"context"

	"github.com/jra3/photosync/internal/model"
)

// InventoryProvider returns the current remote inventory snapshot. Out of
// scope per spec.md section 1 (remote API client); the scheduler only
// depends on this narrow contract (spec.md section 6).
type InventoryProvider interface {
	GetInventory(ctx context.Context) (model.Inventory, error)
}

// CurrentUserProvider returns the ID of the user the export runs as.
type CurrentUserProvider interface {
	CurrentUserID(ctx context.Context) (int64, error)
}

// SettingsProvider supplies the export root and continuous-export flag
// from whatever settings store the application shell owns.
type SettingsProvider interface {
	ExportRoot(ctx context.Context) (string, error)
	ContinuousExport(ctx context.Context) (bool, error)
}

// EventBus is the subset of an application-wide pub/sub bus the scheduler
// needs: subscribing to LOCAL_FILES_UPDATED for continuous-export mode
// (spec.md section 4.6). Subscribe returns a channel of notifications and
// an unsubscribe function.
type EventBus interface {
	Subscribe(topic string) (<-chan struct{}, func())
}

// TopicLocalFilesUpdated is the event bus topic the scheduler subscribes
// to in continuous-export mode.
const TopicLocalFilesUpdated = "LOCAL_FILES_UPDATED"
