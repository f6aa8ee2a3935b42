package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/jra3/photosync/internal/errs"
	"github.com/jra3/photosync/internal/fsgateway"
	"github.com/jra3/photosync/internal/journal"
	"github.com/jra3/photosync/internal/materializer"
	"github.com/jra3/photosync/internal/migration"
	"github.com/jra3/photosync/internal/model"
	"github.com/jra3/photosync/internal/nameallocator"
	"github.com/jra3/photosync/internal/observer"
	"github.com/jra3/photosync/internal/planner"
)

// Scheduler is the single-flight run coordinator for one export root: it
// ensures at most one reconciliation-and-materialization pass runs at a
// time, coalesces requests that arrive while a run is in flight into
// exactly one follow-up run, and supports cooperative cancellation and a
// continuous-export mode driven by an external event bus (spec.md
// section 4.6).
type Scheduler struct {
	gw       fsgateway.Gateway
	settings SettingsProvider
	inv      InventoryProvider
	user     CurrentUserProvider
	migrate  *migration.Runner
	obs      observer.Observer
	stats    *RunStats

	newMaterializer func(j *journal.Journal) *materializer.Materializer

	bus EventBus

	sf singleflight.Group

	mu      sync.Mutex
	running bool
	pending bool
	cancel  context.CancelFunc

	// Continuous-export subscription state (spec.md section 4.6). Guarded
	// by mu alongside running/pending/cancel.
	contEnabled bool
	contUnsub   func()
	contCancel  context.CancelFunc
}

// New returns a Scheduler. newMaterializer constructs a Materializer bound
// to the given run's Journal; the caller supplies it so the scheduler
// doesn't need to know about Downloader/ExifUpdater/LivePhotoDecoder
// wiring (spec.md section 6). bus is the event source continuous-export
// mode subscribes to; a nil bus is fine as long as continuous export is
// never enabled in settings.
func New(gw fsgateway.Gateway, settings SettingsProvider, inv InventoryProvider, user CurrentUserProvider, migrate *migration.Runner, obs observer.Observer, newMaterializer func(j *journal.Journal) *materializer.Materializer, bus EventBus) *Scheduler {
	if obs == nil {
		obs = observer.Noop{}
	}
	return &Scheduler{
		gw:              gw,
		settings:        settings,
		inv:             inv,
		user:            user,
		migrate:         migrate,
		obs:             obs,
		stats:           NewRunStats(20),
		newMaterializer: newMaterializer,
		bus:             bus,
	}
}

// Stats returns the scheduler's run-history tracker.
func (s *Scheduler) Stats() *RunStats {
	return s.stats
}

// Schedule requests an export run. If a run is already in flight, this
// call coalesces into it: the in-flight run's result is shared (via
// singleflight), and one additional run is queued so the newly arrived
// state is not silently missed (spec.md section 4.6 "coalesced
// re-run").
func (s *Scheduler) Schedule(ctx context.Context) (materializer.Counters, error) {
	s.mu.Lock()
	if s.running {
		s.pending = true
		s.mu.Unlock()
		v, err, _ := s.sf.Do("export", func() (any, error) { return materializer.Counters{}, nil })
		c, _ := v.(materializer.Counters)
		return c, err
	}
	s.mu.Unlock()

	v, err, _ := s.sf.Do("export", func() (any, error) {
		return s.runLoop(ctx)
	})
	c, _ := v.(materializer.Counters)
	return c, err
}

// runLoop executes one run, then keeps re-running while a coalesced
// request arrived during the previous pass, stopping once a pass
// completes with nothing pending.
func (s *Scheduler) runLoop(ctx context.Context) (materializer.Counters, error) {
	var total materializer.Counters
	for {
		runCtx, cancel := context.WithCancel(ctx)
		s.mu.Lock()
		s.running = true
		s.pending = false
		s.cancel = cancel
		s.mu.Unlock()

		c, err := s.runOnce(runCtx)
		cancel()
		total = c

		s.mu.Lock()
		s.running = false
		again := s.pending
		s.pending = false
		s.cancel = nil
		s.mu.Unlock()

		if err != nil {
			return total, err
		}
		if !again {
			return total, nil
		}
		log.Printf("[scheduler] coalesced re-run starting")
	}
}

// Stop cancels the in-flight run, if any. The materializer observes
// cancellation at the next phase/item boundary (spec.md section 5).
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Running reports whether a run is currently in flight.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ResumeOnStartup checks a previously-interrupted run's recorded stage and
// schedules a resuming run if one was left in progress, then re-enables
// continuous export if settings says it was on (spec.md section 4.6
// "resume on startup": "If the journal's stage is in-progress (INIT <
// stage < FINISHED), call schedule() once. If continuous export is
// enabled in settings, enable it (which itself schedules once).").
func (s *Scheduler) ResumeOnStartup(ctx context.Context) {
	if root, err := s.settings.ExportRoot(ctx); err == nil && root != "" {
		if exists, err := s.gw.Exists(root); err == nil && exists {
			if j, err := journal.Open(s.gw, root); err == nil {
				stage := j.Stage()
				j.Close()
				if stage.InProgress() {
					log.Printf("[scheduler] resuming interrupted run at stage %s", stage)
					go func() {
						if _, err := s.Schedule(ctx); err != nil {
							log.Printf("[scheduler] resume run failed: %v", err)
						}
					}()
				}
			}
		}
	}

	if enabled, err := s.settings.ContinuousExport(ctx); err == nil && enabled {
		s.EnableContinuousExport(ctx)
	}
}

// EnableContinuousExport subscribes to the event bus's LOCAL_FILES_UPDATED
// topic so every future notification triggers a schedule() call, and
// schedules one run immediately (spec.md section 4.6: "enable it (which
// itself schedules once)"). Idempotent: a second call while already
// enabled does nothing.
func (s *Scheduler) EnableContinuousExport(ctx context.Context) {
	s.mu.Lock()
	if s.contEnabled {
		s.mu.Unlock()
		return
	}
	if s.bus == nil {
		s.mu.Unlock()
		log.Printf("[scheduler] continuous export requested but no event bus is configured")
		return
	}
	events, unsubscribe := s.bus.Subscribe(TopicLocalFilesUpdated)
	subCtx, cancel := context.WithCancel(context.Background())
	s.contEnabled = true
	s.contUnsub = unsubscribe
	s.contCancel = cancel
	s.mu.Unlock()

	go func() {
		for {
			select {
			case <-subCtx.Done():
				return
			case <-events:
				if _, err := s.Schedule(subCtx); err != nil {
					log.Printf("[scheduler] continuous-export run failed: %v", err)
				}
			}
		}
	}()

	go func() {
		if _, err := s.Schedule(ctx); err != nil {
			log.Printf("[scheduler] continuous-export initial run failed: %v", err)
		}
	}()
}

// DisableContinuousExport unsubscribes from the event bus. Idempotent: a
// call while already disabled does nothing (spec.md section 4.6).
func (s *Scheduler) DisableContinuousExport() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.contEnabled {
		return
	}
	s.contCancel()
	s.contUnsub()
	s.contEnabled = false
	s.contUnsub = nil
	s.contCancel = nil
}

// runOnce performs one full reconciliation-and-materialization pass:
// migrate, plan, materialize, and record the outcome (spec.md section
// 4.6 preExport/postExport).
func (s *Scheduler) runOnce(ctx context.Context) (materializer.Counters, error) {
	runID := uuid.NewString()
	started := time.Now()

	c, err := s.runOnceInner(ctx, runID)
	s.stats.Record(runID, started, c.Success, c.Failed, err)
	s.obs.SetLastExportTime(time.Now().UnixMilli())
	log.Print(s.stats.Summary())
	return c, err
}

func (s *Scheduler) runOnceInner(ctx context.Context, runID string) (materializer.Counters, error) {
	started := time.Now()
	root, err := s.settings.ExportRoot(ctx)
	if err != nil {
		return materializer.Counters{}, fmt.Errorf("read export root: %w", err)
	}
	if root == "" {
		return materializer.Counters{}, errs.New(errs.KindExportFolderDoesNotExist, "", fmt.Errorf("no export root configured"))
	}

	exists, err := s.gw.Exists(root)
	if err != nil {
		return materializer.Counters{}, fmt.Errorf("check export root: %w", err)
	}
	if !exists {
		return materializer.Counters{}, errs.New(errs.KindExportFolderDoesNotExist, root, fmt.Errorf("export root does not exist"))
	}

	j, err := journal.Open(s.gw, root)
	if err != nil {
		return materializer.Counters{}, err
	}
	defer j.Close()

	if err := s.migrate.Run(ctx, root, j, func(msg string) { log.Printf("[scheduler] run %s: %s", runID, msg) }); err != nil {
		return materializer.Counters{}, err
	}

	if err := j.SetStage(ctx, model.StageStarting); err != nil {
		return materializer.Counters{}, err
	}

	userID, err := s.user.CurrentUserID(ctx)
	if err != nil {
		return materializer.Counters{}, fmt.Errorf("resolve current user: %w", err)
	}
	inv, err := s.inv.GetInventory(ctx)
	if err != nil {
		return materializer.Counters{}, fmt.Errorf("fetch inventory: %w", err)
	}

	collections := make(map[int64]model.Collection, len(inv.Collections))
	for _, col := range inv.Collections {
		collections[col.ID] = col
	}

	rec := j.Snapshot()
	p := planner.Plan(inv, rec, userID, nameallocator.StripRenameSuffix)
	s.obs.SetPendingExports(len(p.FilesToExport))

	m := s.newMaterializer(j)
	counters, err := m.Run(ctx, root, p, collections)
	if err != nil {
		if errs.Is(err, errs.KindExportFolderDoesNotExist) {
			// The root vanished mid-run; reset to INIT so the next run
			// starts clean instead of resuming a stage whose on-disk
			// state it can no longer trust (spec.md section 4.6 postExport).
			if resetErr := j.SetStage(ctx, model.StageInit); resetErr != nil {
				log.Printf("[scheduler] run %s: reset to INIT failed: %v", runID, resetErr)
			}
		}
		return counters, err
	}

	if err := j.SetStage(ctx, model.StageFinished); err != nil {
		return counters, err
	}
	if err := j.SetLastAttempt(ctx, time.Now()); err != nil {
		log.Printf("[scheduler] run %s: record last attempt failed: %v", runID, err)
	}

	log.Printf("[scheduler] run %s finished: success=%d failed=%d duration=%s",
		runID, counters.Success, counters.Failed, time.Since(started))
	return counters, nil
}
