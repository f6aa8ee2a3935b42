// Package fsgateway defines the narrow abstraction over platform
// filesystem primitives and user prompts that the rest of the export
// engine is built against (spec.md section 4.1). It is pure interface
// plus a thin streaming type; the concrete implementation lives in
// os_gateway.go and talks to the real filesystem.
package fsgateway

import (
	"context"
	"io"
)

// Stream is a lazy byte sequence handed to SaveStreamToDisk. The gateway
// fully consumes or the caller explicitly closes it; no stream is read by
// more than one operation at a time (spec.md section 5).
type Stream = io.Reader

// Gateway is the set of filesystem + prompt operations the core invokes.
// No ordering or concurrency guarantees are assumed across calls; callers
// serialize when required (spec.md section 4.1).
type Gateway interface {
	// SelectDirectory prompts the user to choose a directory. Returns
	// errs.KindSelectFolderAborted if the user dismisses the picker.
	SelectDirectory(ctx context.Context) (string, error)

	// Exists reports whether path currently exists.
	Exists(path string) (bool, error)

	// CheckExistsAndCreateDir idempotently creates path and any missing
	// parents (mkdir -p of the final component).
	CheckExistsAndCreateDir(path string) error

	// Rename atomically renames old to new on the same volume.
	Rename(oldPath, newPath string) error

	// MoveFile moves src to dst, creating dst's parent directories as
	// needed.
	MoveFile(src, dst string) error

	// DeleteFile removes a single file.
	DeleteFile(path string) error

	// DeleteFolder removes a directory and its contents.
	DeleteFolder(path string) error

	// SaveFileToDisk atomically replaces path's contents with text.
	SaveFileToDisk(path string, text string) error

	// SaveStreamToDisk writes stream to a fresh file at path. Must not
	// leave a partial file behind on failure.
	SaveStreamToDisk(path string, stream Stream) error

	// ReadTextFile returns the full contents of path as text.
	ReadTextFile(path string) (string, error)
}
