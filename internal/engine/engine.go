// Package engine assembles the export subsystems — gateway, migration,
// planner, materializer, scheduler — into one constructed value owned by
// the application shell (spec.md section 9 "Global service instance...
// becomes a constructed engine value").
package engine

import (
	"github.com/jra3/photosync/internal/config"
	"github.com/jra3/photosync/internal/eventbus"
	"github.com/jra3/photosync/internal/fsgateway"
	"github.com/jra3/photosync/internal/journal"
	"github.com/jra3/photosync/internal/materializer"
	"github.com/jra3/photosync/internal/migration"
	"github.com/jra3/photosync/internal/observer"
	"github.com/jra3/photosync/internal/scheduler"
)

// Collaborators is the set of out-of-scope dependencies (spec.md section
// 1: remote API client, authentication, decryption, live-photo codec) the
// calling application must supply. photosync defines the contracts;
// wiring a concrete remote client is left to the embedder. Bus is the
// continuous-export event source (spec.md section 4.6); if nil, New wires
// an in-process eventbus.Bus that the embedder can still Publish to
// directly once it owns Engine.Bus.
type Collaborators struct {
	Inventory  scheduler.InventoryProvider
	User       scheduler.CurrentUserProvider
	Settings   scheduler.SettingsProvider
	Downloader materializer.Downloader
	Exif       materializer.ExifUpdater
	LivePhoto  materializer.LivePhotoDecoder
	Bus        scheduler.EventBus
}

// Engine is the constructed export service: a Gateway, a MigrationRunner,
// and a Scheduler that opens a fresh Journal and Materializer per run.
type Engine struct {
	GW        fsgateway.Gateway
	Migration *migration.Runner
	Scheduler *scheduler.Scheduler
	Bus       *eventbus.Bus
}

// New assembles an Engine from config and the application-supplied
// collaborators. obs may be nil, in which case progress is discarded.
func New(cfg *config.Config, gw fsgateway.Gateway, collab Collaborators, obs observer.Observer) *Engine {
	if obs == nil {
		obs = observer.Noop{}
	}
	migrate := migration.New(gw)

	newMaterializer := func(j *journal.Journal) *materializer.Materializer {
		return materializer.New(gw, j, collab.Downloader, collab.Exif, collab.LivePhoto, obs)
	}

	var bus *eventbus.Bus
	busCollab := collab.Bus
	if busCollab == nil {
		bus = eventbus.New()
		busCollab = bus
	}

	sched := scheduler.New(gw, collab.Settings, collab.Inventory, collab.User, migrate, obs, newMaterializer, busCollab)

	return &Engine{
		GW:        gw,
		Migration: migrate,
		Scheduler: sched,
		Bus:       bus,
	}
}
