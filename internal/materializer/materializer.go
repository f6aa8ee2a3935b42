// Package materializer executes the planner's work lists against the
// filesystem: download streams, metadata sidecars, live-photo two-file
// atomicity, trash moves, and directory renames (spec.md section 4.5).
package materializer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/jra3/photosync/internal/errs"
	"github.com/jra3/photosync/internal/fsgateway"
	"github.com/jra3/photosync/internal/journal"
	"github.com/jra3/photosync/internal/model"
	"github.com/jra3/photosync/internal/nameallocator"
	"github.com/jra3/photosync/internal/observer"
	"github.com/jra3/photosync/internal/planner"
)

// progressThrottle caps how often per-item progress reaches the Observer;
// a large backlog would otherwise emit one broadcast per file, which is
// far more than any UI listener needs (spec.md section 6).
const progressThrottle = 10 * time.Millisecond

// Counters tallies per-item outcomes for one phase or run.
type Counters struct {
	Success int
	Failed  int
}

// Materializer executes a Plan's four work lists in the fixed order
// required by spec.md section 4.5: Rename -> TrashFiles -> ExportFiles ->
// TrashCollections.
type Materializer struct {
	gw         fsgateway.Gateway
	journal    *journal.Journal
	allocator  *nameallocator.Allocator
	downloader Downloader
	exif       ExifUpdater
	livePhoto  LivePhotoDecoder
	obs        observer.Observer
	limiter    *rate.Limiter
}

// New returns a Materializer wired to its collaborators.
func New(gw fsgateway.Gateway, j *journal.Journal, downloader Downloader, exif ExifUpdater, live LivePhotoDecoder, obs observer.Observer) *Materializer {
	if obs == nil {
		obs = observer.Noop{}
	}
	return &Materializer{
		gw:         gw,
		journal:    j,
		allocator:  nameallocator.New(gw),
		downloader: downloader,
		exif:       exif,
		livePhoto:  live,
		obs:        obs,
		limiter:    rate.NewLimiter(rate.Every(progressThrottle), 1),
	}
}

// Run executes the full plan in order, advancing the journal's stage
// before each phase. collections resolves a file's collection to its
// remote name the first time the export-files phase needs to create that
// collection's directory. It returns the aggregate success/failure
// counters and the first fatal error encountered (spec.md section 7
// Policy): fatal kinds abort the run; per-item failures are logged,
// counted, and do not stop the phase.
func (m *Materializer) Run(ctx context.Context, root string, p planner.Plan, collections map[int64]model.Collection) (Counters, error) {
	var total Counters

	if err := m.journal.SetStage(ctx, model.StageRenamingCollectionFolders); err != nil {
		return total, err
	}
	m.obs.SetExportStage(model.StageRenamingCollectionFolders)
	if c, err := m.renamePhase(ctx, root, p.RenamedCollections); err != nil {
		return addCounters(total, c), err
	} else {
		total = addCounters(total, c)
	}

	if err := m.journal.SetStage(ctx, model.StageTrashingDeletedFiles); err != nil {
		return total, err
	}
	m.obs.SetExportStage(model.StageTrashingDeletedFiles)
	if c, err := m.trashFilesPhase(ctx, root, p.RemovedFileUIDs); err != nil {
		return addCounters(total, c), err
	} else {
		total = addCounters(total, c)
	}

	if err := m.journal.SetStage(ctx, model.StageExportingFiles); err != nil {
		return total, err
	}
	m.obs.SetExportStage(model.StageExportingFiles)
	if c, err := m.exportFilesPhase(ctx, root, p.FilesToExport, collections); err != nil {
		return addCounters(total, c), err
	} else {
		total = addCounters(total, c)
	}

	if err := m.journal.SetStage(ctx, model.StageTrashingDeletedCollections); err != nil {
		return total, err
	}
	m.obs.SetExportStage(model.StageTrashingDeletedCollections)
	if c, err := m.trashCollectionsPhase(ctx, root, p.DeletedExportedCollections); err != nil {
		return addCounters(total, c), err
	} else {
		total = addCounters(total, c)
	}

	return total, nil
}

func addCounters(a, b Counters) Counters {
	return Counters{Success: a.Success + b.Success, Failed: a.Failed + b.Failed}
}

// verifyRoot re-checks the export root on every item boundary, per
// spec.md section 4.5 step 1 of each phase.
func (m *Materializer) verifyRoot(root string) error {
	exists, err := m.gw.Exists(root)
	if err != nil {
		return fmt.Errorf("check export root: %w", err)
	}
	if !exists {
		return errs.New(errs.KindExportFolderDoesNotExist, root, fmt.Errorf("export root does not exist"))
	}
	return nil
}

// checkCancelled reports ExportStopped if ctx has been cancelled, the
// cooperative cancellation check performed at each item's first I/O call
// (spec.md section 5).
func checkCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errs.New(errs.KindExportStopped, "", ctx.Err())
	default:
		return nil
	}
}

// logItem emits a per-item progress line in the teacher's
// "[subsystem] message" style (internal/sync/worker.go), including a
// human-readable byte count where relevant.
func logItem(phase, detail string, bytes int64) {
	if bytes > 0 {
		log.Printf("[materializer] %s: %s (%s)", phase, detail, humanize.Bytes(uint64(bytes)))
		return
	}
	log.Printf("[materializer] %s: %s", phase, detail)
}

// broadcastProgress forwards the running tally to the Observer, throttled
// so a large backlog doesn't emit one update per item; the final item of
// a phase (remaining == 0) always gets through regardless of the limiter.
func (m *Materializer) broadcastProgress(total Counters, remaining int) {
	if remaining > 0 && !m.limiter.Allow() {
		return
	}
	m.obs.SetExportProgress(observer.Progress{
		Total:   total.Success + total.Failed + remaining,
		Success: total.Success,
		Failed:  total.Failed,
	})
}
