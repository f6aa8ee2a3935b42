// Package logging wires the standard library's log package to either
// stderr or a rotated file, depending on config.LogConfig. Rotation uses
// lumberjack, the way several of the retrieved example repos' manifests
// bring it in for long-running daemons (see DESIGN.md).
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jra3/photosync/internal/config"
)

// Configure points the standard logger at config.Log's destination. It
// returns the io.Closer to flush/close on shutdown, or nil when logging
// to stderr (nothing to close).
func Configure(cfg config.LogConfig) io.Closer {
	if cfg.File == "" {
		log.SetOutput(os.Stderr)
		return nil
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    nonZero(cfg.MaxSizeMB, 50),
		MaxBackups: nonZero(cfg.MaxBackups, 5),
		MaxAge:     nonZero(cfg.MaxAgeDays, 28),
		Compress:   true,
	}
	log.SetOutput(rotator)
	log.Printf("[logging] writing to %s (level=%s)", cfg.File, cfg.Level)
	return rotator
}

func nonZero(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
