package fsgateway

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jra3/photosync/internal/errs"
)

// OSGateway is the real-filesystem Gateway implementation. SelectDirectory
// is satisfied by a caller-supplied prompt function so the CLI and any
// future GUI shell can each provide their own picker without this package
// depending on either.
type OSGateway struct {
	// Prompt asks the user to pick a directory. If nil, SelectDirectory
	// always returns errs.KindSelectFolderAborted.
	Prompt func(ctx context.Context) (string, bool)
}

// New returns an OSGateway with no directory picker wired in. Callers that
// need SelectDirectory should set Prompt directly.
func New() *OSGateway {
	return &OSGateway{}
}

func (g *OSGateway) SelectDirectory(ctx context.Context) (string, error) {
	if g.Prompt == nil {
		return "", errs.New(errs.KindSelectFolderAborted, "", fmt.Errorf("no directory picker configured"))
	}
	path, ok := g.Prompt(ctx)
	if !ok {
		return "", errs.New(errs.KindSelectFolderAborted, "", fmt.Errorf("user dismissed directory picker"))
	}
	return path, nil
}

func (g *OSGateway) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (g *OSGateway) CheckExistsAndCreateDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (g *OSGateway) Rename(oldPath, newPath string) error {
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", newPath, err)
	}
	return os.Rename(oldPath, newPath)
}

func (g *OSGateway) MoveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", dst, err)
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	// os.Rename fails across volumes; fall back to copy+remove.
	return copyThenRemove(src, dst)
}

func copyThenRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("copy %s to %s: %w", src, tmp, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize %s: %w", dst, err)
	}
	return os.Remove(src)
}

func (g *OSGateway) DeleteFile(path string) error {
	err := os.Remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

func (g *OSGateway) DeleteFolder(path string) error {
	return os.RemoveAll(path)
}

// SaveFileToDisk writes text to a temp file in the same directory as path
// and renames it into place, so a reader never observes a partial file.
func (g *OSGateway) SaveFileToDisk(path string, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return nil
}

// SaveStreamToDisk writes stream to a fresh file at path. On any read or
// write failure, the partial temp file is removed rather than left behind.
func (g *OSGateway) SaveStreamToDisk(path string, stream Stream) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", path, err)
	}
	tmp := path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := io.Copy(out, stream); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("write stream to %s: %w", tmp, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return nil
}

func (g *OSGateway) ReadTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
