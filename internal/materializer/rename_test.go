package materializer

import (
	"context"
	"errors"
	"testing"

	"github.com/jra3/photosync/internal/model"
	"github.com/jra3/photosync/internal/planner"
)

func TestRenamePhaseMovesDirectoryAndRecordsNewName(t *testing.T) {
	t.Parallel()
	root := "export"
	m, gw, j := newTestMaterializer(t, root)
	ctx := context.Background()

	if err := gw.SaveFileToDisk("export/Italy/beach.jpg", "data"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := j.SetCollectionName(ctx, 1, "Italy"); err != nil {
		t.Fatalf("SetCollectionName: %v", err)
	}

	renames := []planner.RenamedCollection{
		{Collection: model.Collection{ID: 1, UserFacingName: "Italy 2024"}, OldDirName: "Italy"},
	}

	c, err := m.renamePhase(ctx, root, renames)
	if err != nil {
		t.Fatalf("renamePhase() error: %v", err)
	}
	if c.Success != 1 || c.Failed != 0 {
		t.Fatalf("counters = %+v, want {1 0}", c)
	}

	newName, ok := j.CollectionExportName(1)
	if !ok || newName != "Italy 2024" {
		t.Errorf("CollectionExportName(1) = %q,%v, want %q,true", newName, ok, "Italy 2024")
	}

	snap := gw.Snapshot()
	if _, ok := snap["export/Italy 2024/beach.jpg"]; !ok {
		t.Errorf("expected file moved to new directory, got %v", snap)
	}
	if _, ok := snap["export/Italy/beach.jpg"]; ok {
		t.Errorf("old directory path should no longer exist, got %v", snap)
	}
}

func TestRenamePhaseRestoresJournalOnFailure(t *testing.T) {
	t.Parallel()
	root := "export"
	m, gw, j := newTestMaterializer(t, root)
	ctx := context.Background()

	if err := gw.SaveFileToDisk("export/Italy/beach.jpg", "data"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := j.SetCollectionName(ctx, 1, "Italy"); err != nil {
		t.Fatalf("SetCollectionName: %v", err)
	}
	gw.FailOn["rename:export/Italy"] = errors.New("disk full")

	renames := []planner.RenamedCollection{
		{Collection: model.Collection{ID: 1, UserFacingName: "Italy 2024"}, OldDirName: "Italy"},
	}

	c, err := m.renamePhase(ctx, root, renames)
	if err != nil {
		t.Fatalf("renamePhase() should not return a fatal error for an item failure, got %v", err)
	}
	if c.Failed != 1 {
		t.Fatalf("counters = %+v, want Failed:1", c)
	}

	name, ok := j.CollectionExportName(1)
	if !ok || name != "Italy" {
		t.Errorf("CollectionExportName(1) should be restored to %q, got %q,%v", "Italy", name, ok)
	}
}
