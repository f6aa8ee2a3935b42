package fsgateway

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/jra3/photosync/internal/errs"
)

// FakeGateway is an in-memory Gateway implementation for tests. All paths
// are forward-slash-joined and do not touch the real filesystem. Injected
// failures let tests exercise the rollback paths described in spec.md
// section 4.5.
type FakeGateway struct {
	mu sync.Mutex

	files map[string]string // path -> text or marker content
	dirs  map[string]bool

	// SelectDirectoryResult, if set, is returned by SelectDirectory.
	SelectDirectoryResult string
	SelectDirectoryAbort  bool

	// FailOn maps an operation name ("rename", "move", "save_stream", ...)
	// to an error to return the next time it's invoked on the given path.
	// Keyed by "op:path"; consumed (deleted) on use.
	FailOn map[string]error
}

// NewFake creates an empty FakeGateway.
func NewFake() *FakeGateway {
	return &FakeGateway{
		files:  make(map[string]string),
		dirs:   map[string]bool{"": true},
		FailOn: make(map[string]error),
	}
}

func clean(p string) string {
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}

func (g *FakeGateway) failure(op, p string) error {
	key := op + ":" + clean(p)
	if err, ok := g.FailOn[key]; ok {
		delete(g.FailOn, key)
		return err
	}
	return nil
}

func (g *FakeGateway) SelectDirectory(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.SelectDirectoryAbort {
		return "", errs.New(errs.KindSelectFolderAborted, "", fmt.Errorf("aborted"))
	}
	return g.SelectDirectoryResult, nil
}

func (g *FakeGateway) Exists(p string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p = clean(p)
	if g.dirs[p] {
		return true, nil
	}
	_, ok := g.files[p]
	return ok, nil
}

func (g *FakeGateway) CheckExistsAndCreateDir(p string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure("mkdir", p); err != nil {
		return err
	}
	for d := clean(p); d != "." && d != "/"; d = path.Dir(d) {
		g.dirs[d] = true
	}
	return nil
}

func (g *FakeGateway) Rename(oldPath, newPath string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure("rename", oldPath); err != nil {
		return err
	}
	oldPath, newPath = clean(oldPath), clean(newPath)
	if !g.dirs[oldPath] {
		return fmt.Errorf("rename: %s does not exist", oldPath)
	}
	delete(g.dirs, oldPath)
	g.dirs[newPath] = true
	prefix := oldPath + "/"
	for p, content := range g.files {
		if strings.HasPrefix(p, prefix) {
			delete(g.files, p)
			g.files[newPath+"/"+strings.TrimPrefix(p, prefix)] = content
		}
	}
	return nil
}

func (g *FakeGateway) MoveFile(src, dst string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure("move", src); err != nil {
		return err
	}
	src, dst = clean(src), clean(dst)
	content, ok := g.files[src]
	if !ok {
		return fmt.Errorf("move: %s does not exist", src)
	}
	delete(g.files, src)
	g.files[dst] = content
	g.dirs[path.Dir(dst)] = true
	return nil
}

func (g *FakeGateway) DeleteFile(p string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure("delete_file", p); err != nil {
		return err
	}
	delete(g.files, clean(p))
	return nil
}

func (g *FakeGateway) DeleteFolder(p string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure("delete_folder", p); err != nil {
		return err
	}
	p = clean(p)
	delete(g.dirs, p)
	prefix := p + "/"
	for f := range g.files {
		if strings.HasPrefix(f, prefix) {
			delete(g.files, f)
		}
	}
	return nil
}

func (g *FakeGateway) SaveFileToDisk(p string, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure("save_file", p); err != nil {
		return err
	}
	p = clean(p)
	g.files[p] = text
	g.dirs[path.Dir(p)] = true
	return nil
}

func (g *FakeGateway) SaveStreamToDisk(p string, stream Stream) error {
	if err := g.failure("save_stream", p); err != nil {
		return err
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	p = clean(p)
	g.files[p] = string(data)
	g.dirs[path.Dir(p)] = true
	return nil
}

func (g *FakeGateway) ReadTextFile(p string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure("read", p); err != nil {
		return "", err
	}
	content, ok := g.files[clean(p)]
	if !ok {
		return "", fmt.Errorf("read: %s does not exist", clean(p))
	}
	return content, nil
}

// Snapshot returns a copy of all file paths currently recorded, for
// assertions in tests.
func (g *FakeGateway) Snapshot() map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]string, len(g.files))
	for k, v := range g.files {
		out[k] = v
	}
	return out
}
