package materializer

import (
	"context"
	"testing"

	"github.com/jra3/photosync/internal/model"
)

func TestTrashCollectionsPhaseDeletesEmptyCollectionFolder(t *testing.T) {
	t.Parallel()
	root := "export"
	m, gw, j := newTestMaterializer(t, root)
	ctx := context.Background()

	if err := j.SetCollectionName(ctx, 1, "Italy"); err != nil {
		t.Fatalf("SetCollectionName: %v", err)
	}
	if err := gw.SaveFileToDisk("export/Italy/beach.jpg", "bytes"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	c, err := m.trashCollectionsPhase(ctx, root, []int64{1})
	if err != nil {
		t.Fatalf("trashCollectionsPhase() error: %v", err)
	}
	if c.Success != 1 || c.Failed != 0 {
		t.Fatalf("counters = %+v, want {1 0}", c)
	}

	if _, ok := j.CollectionExportName(1); ok {
		t.Error("journal should no longer record a directory for the removed collection")
	}

	// The collection-removal phase deletes the directory outright, unlike
	// the file-trash phase: nothing should survive under Trash or in place.
	snap := gw.Snapshot()
	if _, ok := snap["export/Italy/beach.jpg"]; ok {
		t.Errorf("collection contents should have been deleted, got %v", snap)
	}
	if _, ok := snap["export/Trash/Italy/beach.jpg"]; ok {
		t.Errorf("collection-removal phase deletes rather than trashes, got %v", snap)
	}
}

func TestTrashCollectionsPhaseRefusesNonEmptyCollection(t *testing.T) {
	t.Parallel()
	root := "export"
	m, _, j := newTestMaterializer(t, root)
	ctx := context.Background()

	if err := j.SetCollectionName(ctx, 1, "Italy"); err != nil {
		t.Fatalf("SetCollectionName: %v", err)
	}
	if err := j.SetFileName(ctx, "10_1_100", model.ExportName{Kind: model.ExportNamePlain, Name: "beach.jpg"}); err != nil {
		t.Fatalf("SetFileName: %v", err)
	}

	c, err := m.trashCollectionsPhase(ctx, root, []int64{1})
	if err != nil {
		t.Fatalf("trashCollectionsPhase() error: %v", err)
	}
	if c.Failed != 1 {
		t.Fatalf("counters = %+v, want Failed:1 (collection still has a file entry)", c)
	}

	if _, ok := j.CollectionExportName(1); !ok {
		t.Error("journal entry should be left untouched when the collection is not actually empty")
	}
}

func TestTrashCollectionsPhaseMissingRecordIsNoop(t *testing.T) {
	t.Parallel()
	root := "export"
	m, _, _ := newTestMaterializer(t, root)

	c, err := m.trashCollectionsPhase(context.Background(), root, []int64{42})
	if err != nil {
		t.Fatalf("trashCollectionsPhase() error: %v", err)
	}
	if c.Success != 1 {
		t.Errorf("counters = %+v, want Success:1 (treated as already removed)", c)
	}
}
