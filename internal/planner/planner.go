// Package planner implements the reconciliation planner: diffing the
// current remote inventory against the journal to compute the work set
// (spec.md section 4.4). The planner is pure: no I/O, no journal writes.
package planner

import (
	"sort"

	"github.com/jra3/photosync/internal/journal"
	"github.com/jra3/photosync/internal/model"
)

// RenamedCollection is a collection whose recorded on-disk name no longer
// matches its current remote name (after stripping a trailing "(k)"
// rename-collision suffix).
type RenamedCollection struct {
	Collection model.Collection
	OldDirName string
}

// Plan is the four ordered work lists produced by one planning pass,
// always computed together from the same inventory+journal snapshot.
type Plan struct {
	RenamedCollections         []RenamedCollection
	RemovedFileUIDs            []string
	FilesToExport              []model.File
	DeletedExportedCollections []int64
}

// stripSuffix strips a trailing "(k)" suffix before comparing names, so a
// collection whose user_facing_name did not change does not appear in
// RenamedCollections merely because its recorded name carries a rename
// collision suffix (spec.md section 4.2, testable property 6).
type stripSuffixFunc func(string) string

// Plan computes the four work lists for one reconciliation pass.
// currentUserID is used for the "personal" ownership filter (spec.md
// section 4.4): a file is personal iff its owning collection's owner
// equals currentUserID.
func Plan(inv model.Inventory, rec journal.Record, currentUserID int64, stripSuffix stripSuffixFunc) Plan {
	collByID := make(map[int64]model.Collection, len(inv.Collections))
	for _, c := range inv.Collections {
		collByID[c.ID] = c
	}

	// personalFileCountByCollection counts personal files per collection in
	// the current snapshot, used to derive "non-empty personal collection".
	personalFileCountByCollection := make(map[int64]int)
	currentUIDs := make(map[string]model.File, len(inv.Files))
	for _, f := range inv.Files {
		if !isPersonal(f, collByID, currentUserID) {
			continue
		}
		personalFileCountByCollection[f.CollectionID]++
		currentUIDs[f.UID()] = f
	}

	return Plan{
		RenamedCollections:         renamedCollections(inv, rec, personalFileCountByCollection, stripSuffix),
		RemovedFileUIDs:            removedFileUIDs(rec, currentUIDs),
		FilesToExport:              filesToExport(rec, currentUIDs),
		DeletedExportedCollections: deletedExportedCollections(rec, personalFileCountByCollection),
	}
}

func isPersonal(f model.File, collByID map[int64]model.Collection, currentUserID int64) bool {
	c, ok := collByID[f.CollectionID]
	if !ok {
		return false
	}
	return c.OwnerID == currentUserID
}

// renamedCollections finds collections the journal has a recorded name for
// whose current user_facing_name (after stripping a trailing rename-
// collision suffix from the recorded name) differs. Only collections that
// are still present for export (non-empty personal collections) are
// considered, since a collection with no exported files has nothing to
// rename on disk.
func renamedCollections(inv model.Inventory, rec journal.Record, nonEmpty map[int64]int, stripSuffix stripSuffixFunc) []RenamedCollection {
	var out []RenamedCollection
	for _, c := range inv.Collections {
		if nonEmpty[c.ID] == 0 {
			continue
		}
		recordedName, ok := rec.CollectionExportNames[collectionKey(c.ID)]
		if !ok {
			continue
		}
		comparable := recordedName
		if stripSuffix != nil {
			comparable = stripSuffix(recordedName)
		}
		if comparable != c.UserFacingName {
			out = append(out, RenamedCollection{Collection: c, OldDirName: recordedName})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Collection.ID < out[j].Collection.ID })
	return out
}

// removedFileUIDs finds UIDs present in the journal but absent from the
// current personal-file UID set.
func removedFileUIDs(rec journal.Record, currentUIDs map[string]model.File) []string {
	var out []string
	for uid := range rec.FileExportNames {
		if _, ok := currentUIDs[uid]; !ok {
			out = append(out, uid)
		}
	}
	sort.Strings(out)
	return out
}

// filesToExport finds current personal files whose UID is not yet in the
// journal, stably ordered by (collection_id, id) per spec.md section 4.4.
func filesToExport(rec journal.Record, currentUIDs map[string]model.File) []model.File {
	var out []model.File
	for uid, f := range currentUIDs {
		if _, ok := rec.FileExportNames[uid]; !ok {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CollectionID != out[j].CollectionID {
			return out[i].CollectionID < out[j].CollectionID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// deletedExportedCollections finds collection IDs present in the journal
// but absent from the current inventory's non-empty personal collections.
func deletedExportedCollections(rec journal.Record, nonEmpty map[int64]int) []int64 {
	var out []int64
	for key := range rec.CollectionExportNames {
		id := parseCollectionKey(key)
		if nonEmpty[id] == 0 {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
