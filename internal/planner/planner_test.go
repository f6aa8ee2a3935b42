package planner

import (
	"testing"

	"github.com/jra3/photosync/internal/journal"
	"github.com/jra3/photosync/internal/model"
)

const currentUser = int64(1)

func newFile(id, collectionID, updationTime int64) model.File {
	return model.File{ID: id, CollectionID: collectionID, UpdationTime: updationTime, OwnerID: currentUser}
}

func TestPlanFilesToExportFindsNewPersonalFiles(t *testing.T) {
	t.Parallel()
	inv := model.Inventory{
		Collections: []model.Collection{{ID: 1, OwnerID: currentUser, UserFacingName: "Vacation"}},
		Files:       []model.File{newFile(10, 1, 100)},
	}
	rec := journal.Empty()

	p := Plan(inv, rec, currentUser, nil)

	if len(p.FilesToExport) != 1 {
		t.Fatalf("FilesToExport = %d files, want 1", len(p.FilesToExport))
	}
	if p.FilesToExport[0].UID() != newFile(10, 1, 100).UID() {
		t.Errorf("FilesToExport[0] = %+v, want the new file", p.FilesToExport[0])
	}
}

func TestPlanSkipsFilesInOtherUsersCollections(t *testing.T) {
	t.Parallel()
	inv := model.Inventory{
		Collections: []model.Collection{{ID: 1, OwnerID: 999, UserFacingName: "Someone Else"}},
		Files:       []model.File{{ID: 10, CollectionID: 1, UpdationTime: 100, OwnerID: 999}},
	}
	rec := journal.Empty()

	p := Plan(inv, rec, currentUser, nil)

	if len(p.FilesToExport) != 0 {
		t.Errorf("FilesToExport = %d, want 0 (not the current user's collection)", len(p.FilesToExport))
	}
}

func TestPlanAlreadyExportedFileIsNotReExported(t *testing.T) {
	t.Parallel()
	f := newFile(10, 1, 100)
	inv := model.Inventory{
		Collections: []model.Collection{{ID: 1, OwnerID: currentUser, UserFacingName: "Vacation"}},
		Files:       []model.File{f},
	}
	rec := journal.Empty()
	rec.FileExportNames[f.UID()] = model.ExportName{Kind: model.ExportNamePlain, Name: "beach.jpg"}

	p := Plan(inv, rec, currentUser, nil)

	if len(p.FilesToExport) != 0 {
		t.Errorf("FilesToExport = %d, want 0 (already recorded)", len(p.FilesToExport))
	}
}

func TestPlanRemovedFileUIDs(t *testing.T) {
	t.Parallel()
	inv := model.Inventory{Collections: []model.Collection{{ID: 1, OwnerID: currentUser, UserFacingName: "Vacation"}}}
	rec := journal.Empty()
	rec.FileExportNames["10_1_100"] = model.ExportName{Kind: model.ExportNamePlain, Name: "beach.jpg"}

	p := Plan(inv, rec, currentUser, nil)

	if len(p.RemovedFileUIDs) != 1 || p.RemovedFileUIDs[0] != "10_1_100" {
		t.Errorf("RemovedFileUIDs = %v, want [10_1_100]", p.RemovedFileUIDs)
	}
}

func TestPlanRenamedCollection(t *testing.T) {
	t.Parallel()
	inv := model.Inventory{
		Collections: []model.Collection{{ID: 1, OwnerID: currentUser, UserFacingName: "Italy 2024"}},
		Files:       []model.File{newFile(10, 1, 100)},
	}
	rec := journal.Empty()
	rec.FileExportNames["10_1_100"] = model.ExportName{Kind: model.ExportNamePlain, Name: "beach.jpg"}
	rec.CollectionExportNames["1"] = "Italy"

	p := Plan(inv, rec, currentUser, nil)

	if len(p.RenamedCollections) != 1 {
		t.Fatalf("RenamedCollections = %d, want 1", len(p.RenamedCollections))
	}
	if p.RenamedCollections[0].OldDirName != "Italy" {
		t.Errorf("OldDirName = %q, want %q", p.RenamedCollections[0].OldDirName, "Italy")
	}
}

func TestPlanRenamedCollectionIgnoresSuffixViaStripFunc(t *testing.T) {
	t.Parallel()
	inv := model.Inventory{
		Collections: []model.Collection{{ID: 1, OwnerID: currentUser, UserFacingName: "Italy"}},
		Files:       []model.File{newFile(10, 1, 100)},
	}
	rec := journal.Empty()
	rec.FileExportNames["10_1_100"] = model.ExportName{Kind: model.ExportNamePlain, Name: "beach.jpg"}
	rec.CollectionExportNames["1"] = "Italy(2)"

	stripSuffix := func(name string) string {
		if name == "Italy(2)" {
			return "Italy"
		}
		return name
	}

	p := Plan(inv, rec, currentUser, stripSuffix)

	if len(p.RenamedCollections) != 0 {
		t.Errorf("RenamedCollections = %v, want none once the suffix is stripped", p.RenamedCollections)
	}
}

func TestPlanDeletedExportedCollection(t *testing.T) {
	t.Parallel()
	inv := model.Inventory{} // collection no longer present at all
	rec := journal.Empty()
	rec.CollectionExportNames["1"] = "Italy"

	p := Plan(inv, rec, currentUser, nil)

	if len(p.DeletedExportedCollections) != 1 || p.DeletedExportedCollections[0] != 1 {
		t.Errorf("DeletedExportedCollections = %v, want [1]", p.DeletedExportedCollections)
	}
}

func TestPlanCollectionEmptiedOfPersonalFilesCountsAsDeleted(t *testing.T) {
	t.Parallel()
	// Collection still exists remotely, but every file in it now belongs to
	// someone else (e.g. ownership changed) -- from this user's perspective
	// it has nothing left to export, so its exported directory should go.
	inv := model.Inventory{
		Collections: []model.Collection{{ID: 1, OwnerID: 999, UserFacingName: "Italy"}},
	}
	rec := journal.Empty()
	rec.CollectionExportNames["1"] = "Italy"

	p := Plan(inv, rec, currentUser, nil)

	if len(p.DeletedExportedCollections) != 1 {
		t.Errorf("DeletedExportedCollections = %v, want [1]", p.DeletedExportedCollections)
	}
}

func TestPlanFilesToExportOrderedByCollectionThenID(t *testing.T) {
	t.Parallel()
	inv := model.Inventory{
		Collections: []model.Collection{
			{ID: 2, OwnerID: currentUser, UserFacingName: "B"},
			{ID: 1, OwnerID: currentUser, UserFacingName: "A"},
		},
		Files: []model.File{
			newFile(5, 2, 100),
			newFile(3, 1, 100),
			newFile(1, 1, 100),
		},
	}
	rec := journal.Empty()

	p := Plan(inv, rec, currentUser, nil)

	if len(p.FilesToExport) != 3 {
		t.Fatalf("FilesToExport = %d, want 3", len(p.FilesToExport))
	}
	wantOrder := []struct{ collectionID, id int64 }{{1, 1}, {1, 3}, {2, 5}}
	for i, want := range wantOrder {
		got := p.FilesToExport[i]
		if got.CollectionID != want.collectionID || got.ID != want.id {
			t.Errorf("FilesToExport[%d] = (collection=%d, id=%d), want (collection=%d, id=%d)",
				i, got.CollectionID, got.ID, want.collectionID, want.id)
		}
	}
}
