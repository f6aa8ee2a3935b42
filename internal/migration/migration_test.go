package migration

import (
	"context"
	"testing"

	"github.com/jra3/photosync/internal/fsgateway"
	"github.com/jra3/photosync/internal/journal"
)

func newOpenJournal(t *testing.T, gw *fsgateway.FakeGateway, root string) *journal.Journal {
	t.Helper()
	j, err := journal.Open(gw, root)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(j.Close)
	return j
}

func TestRunIsNoopAtCurrentVersion(t *testing.T) {
	t.Parallel()
	root := "export"
	gw := fsgateway.NewFake()
	if err := gw.CheckExistsAndCreateDir(root); err != nil {
		t.Fatalf("create root: %v", err)
	}
	j := newOpenJournal(t, gw, root)

	var messages []string
	r := New(gw)
	if err := r.Run(context.Background(), root, j, func(m string) { messages = append(messages, m) }); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("Run() reported progress %v, want none at current version", messages)
	}
}

func TestRunUpgradesLegacyVersion(t *testing.T) {
	t.Parallel()
	root := "export"
	gw := fsgateway.NewFake()
	if err := gw.CheckExistsAndCreateDir(root); err != nil {
		t.Fatalf("create root: %v", err)
	}
	j := newOpenJournal(t, gw, root)
	if err := j.SetVersion(context.Background(), 2); err != nil {
		t.Fatalf("SetVersion: %v", err)
	}

	var messages []string
	r := New(gw)
	if err := r.Run(context.Background(), root, j, func(m string) { messages = append(messages, m) }); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("Run() reported %d progress messages, want 1", len(messages))
	}
	if got := j.Snapshot().Version; got != journal.CurrentVersion {
		t.Errorf("Version after Run() = %d, want %d", got, journal.CurrentVersion)
	}
}

func TestRunRejectsUnknownOlderVersion(t *testing.T) {
	t.Parallel()
	root := "export"
	gw := fsgateway.NewFake()
	if err := gw.CheckExistsAndCreateDir(root); err != nil {
		t.Fatalf("create root: %v", err)
	}
	j := newOpenJournal(t, gw, root)
	if err := j.SetVersion(context.Background(), 1); err != nil {
		t.Fatalf("SetVersion: %v", err)
	}

	r := New(gw)
	if err := r.Run(context.Background(), root, j, nil); err == nil {
		t.Error("Run() should error when no migration step is defined for the journal's version")
	}
}
