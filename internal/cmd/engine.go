package cmd

import (
	"github.com/jra3/photosync/internal/config"
	"github.com/jra3/photosync/internal/engine"
	"github.com/jra3/photosync/internal/fsgateway"
	"github.com/jra3/photosync/internal/logging"
	"github.com/jra3/photosync/internal/remote"
)

// buildEngine wires an Engine from CLI-loaded configuration. The remote
// API client, authentication, and live-photo codec are out of scope
// (spec.md section 1); remote.Unconfigured surfaces a clear error the
// first time one of those collaborators is actually invoked rather than
// exporting nothing silently.
func buildEngine(cfg *config.Config) (*engine.Engine, *config.Settings, func()) {
	closer := logging.Configure(cfg.Log)
	closeFn := func() {
		if closer != nil {
			_ = closer.Close()
		}
	}

	gw := fsgateway.New()
	settings := config.NewSettings(cfg)
	collab := engine.Collaborators{
		Inventory:  remote.Unconfigured{},
		User:       remote.Unconfigured{},
		Settings:   settings,
		Downloader: remote.Unconfigured{},
		Exif:       remote.Unconfigured{},
		LivePhoto:  remote.Unconfigured{},
	}

	eng := engine.New(cfg, gw, collab, newCLIObserver())
	return eng, settings, closeFn
}
