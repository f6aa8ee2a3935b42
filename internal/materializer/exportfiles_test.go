package materializer

import (
	"context"
	"errors"
	"testing"

	"github.com/jra3/photosync/internal/model"
	"github.com/jra3/photosync/internal/observer"
)

func TestExportFilesPhaseCreatesCollectionDirOnFirstUse(t *testing.T) {
	t.Parallel()
	root := "export"
	m, gw, j := newTestMaterializer(t, root)
	ctx := context.Background()

	collections := map[int64]model.Collection{1: {ID: 1, UserFacingName: "Vacation"}}
	files := []model.File{{ID: 10, CollectionID: 1, UpdationTime: 100, Metadata: model.Metadata{Title: "beach.jpg"}}}

	c, err := m.exportFilesPhase(ctx, root, files, collections)
	if err != nil {
		t.Fatalf("exportFilesPhase() error: %v", err)
	}
	if c.Success != 1 || c.Failed != 0 {
		t.Fatalf("counters = %+v, want {1 0}", c)
	}

	dirName, ok := j.CollectionExportName(1)
	if !ok || dirName != "Vacation" {
		t.Errorf("CollectionExportName(1) = %q,%v, want %q,true", dirName, ok, "Vacation")
	}

	uid := files[0].UID()
	name, ok := j.FileExportName(uid)
	if !ok || name.Name != "beach.jpg" {
		t.Errorf("FileExportName(%q) = %+v,%v, want Name=beach.jpg", uid, name, ok)
	}

	snap := gw.Snapshot()
	if _, ok := snap["export/Vacation/beach.jpg"]; !ok {
		t.Errorf("expected exported bytes, got %v", snap)
	}
	if _, ok := snap["export/Vacation/metadata/beach.jpg.json"]; !ok {
		t.Errorf("expected sidecar, got %v", snap)
	}
}

func TestExportFilesPhaseRollsBackJournalOnWriteFailure(t *testing.T) {
	t.Parallel()
	root := "export"
	m, gw, j := newTestMaterializer(t, root)
	ctx := context.Background()

	collections := map[int64]model.Collection{1: {ID: 1, UserFacingName: "Vacation"}}
	files := []model.File{{ID: 10, CollectionID: 1, UpdationTime: 100, Metadata: model.Metadata{Title: "beach.jpg"}}}

	gw.FailOn["save_stream:export/Vacation/beach.jpg"] = errors.New("disk full")

	c, err := m.exportFilesPhase(ctx, root, files, collections)
	if err != nil {
		t.Fatalf("exportFilesPhase() should not surface an item failure as fatal, got %v", err)
	}
	if c.Failed != 1 {
		t.Fatalf("counters = %+v, want Failed:1", c)
	}

	if _, ok := j.FileExportName(files[0].UID()); ok {
		t.Error("journal entry should be rolled back after a failed write")
	}
}

func TestExportFilesPhaseUnknownCollectionIsItemFailure(t *testing.T) {
	t.Parallel()
	root := "export"
	m, _, _ := newTestMaterializer(t, root)
	ctx := context.Background()

	files := []model.File{{ID: 10, CollectionID: 99, UpdationTime: 100, Metadata: model.Metadata{Title: "beach.jpg"}}}

	c, err := m.exportFilesPhase(ctx, root, files, map[int64]model.Collection{})
	if err != nil {
		t.Fatalf("exportFilesPhase() error: %v", err)
	}
	if c.Failed != 1 {
		t.Errorf("counters = %+v, want Failed:1 for an unresolvable collection", c)
	}
}

func TestExportLivePhotoWritesBothLegs(t *testing.T) {
	t.Parallel()
	root := "export"
	gw := newFakeGatewayWithRoot(t, root)
	j := openTestJournal(t, gw, root)

	m := New(gw, j, &fakeDownloader{payload: []byte("blob")}, passthroughExif{}, &fakeLivePhotoDecoder{}, observer.Noop{})

	collections := map[int64]model.Collection{1: {ID: 1, UserFacingName: "Vacation"}}
	files := []model.File{{ID: 10, CollectionID: 1, UpdationTime: 100, FileType: model.FileTypeLivePhoto}}

	c, err := m.exportFilesPhase(context.Background(), root, files, collections)
	if err != nil {
		t.Fatalf("exportFilesPhase() error: %v", err)
	}
	if c.Success != 1 {
		t.Fatalf("counters = %+v, want Success:1", c)
	}

	snap := gw.Snapshot()
	if _, ok := snap["export/Vacation/live.jpg"]; !ok {
		t.Errorf("expected image leg, got %v", snap)
	}
	if _, ok := snap["export/Vacation/live.mov"]; !ok {
		t.Errorf("expected video leg, got %v", snap)
	}
}

func TestExportLivePhotoRollsBackImageLegOnVideoFailure(t *testing.T) {
	t.Parallel()
	root := "export"
	gw := newFakeGatewayWithRoot(t, root)
	j := openTestJournal(t, gw, root)

	m := New(gw, j, &fakeDownloader{payload: []byte("blob")}, passthroughExif{}, &fakeLivePhotoDecoder{}, observer.Noop{})

	gw.FailOn["save_stream:export/Vacation/live.mov"] = errors.New("disk full")

	collections := map[int64]model.Collection{1: {ID: 1, UserFacingName: "Vacation"}}
	files := []model.File{{ID: 10, CollectionID: 1, UpdationTime: 100, FileType: model.FileTypeLivePhoto}}

	c, err := m.exportFilesPhase(context.Background(), root, files, collections)
	if err != nil {
		t.Fatalf("exportFilesPhase() error: %v", err)
	}
	if c.Failed != 1 {
		t.Fatalf("counters = %+v, want Failed:1", c)
	}

	snap := gw.Snapshot()
	if _, ok := snap["export/Vacation/live.jpg"]; ok {
		t.Errorf("image leg should have been deleted after the video leg failed, got %v", snap)
	}
	if _, ok := j.FileExportName(files[0].UID()); ok {
		t.Error("journal entry should be rolled back after a failed live-photo export")
	}
}
