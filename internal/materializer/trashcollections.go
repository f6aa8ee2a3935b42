package materializer

import (
	"context"
	"fmt"

	"github.com/jra3/photosync/internal/errs"
	"github.com/jra3/photosync/internal/model"
)

// trashCollectionsPhase removes every collection directory the planner
// found deleted (or no longer personal/non-empty), last in the phase
// order so it never races the file-trash phase's use of a collection's
// directory name (spec.md section 4.5). Per invariant 2, no file entry
// may reference a collection being removed; this is asserted rather than
// assumed, since RemovedFileUIDs and DeletedExportedCollections are
// computed from the same snapshot but applied in two separate phases.
func (m *Materializer) trashCollectionsPhase(ctx context.Context, root string, collectionIDs []int64) (Counters, error) {
	var c Counters
	for i, id := range collectionIDs {
		if err := m.verifyRoot(root); err != nil {
			return c, err
		}
		if err := checkCancelled(ctx); err != nil {
			return c, err
		}

		if err := m.trashCollectionOne(ctx, root, id); err != nil {
			if errs.IsFatalToPhase(errs.KindOf(err)) {
				return c, err
			}
			c.Failed++
			logItem("trash-collection", fmt.Sprintf("%d: %v", id, err), 0)
			m.broadcastProgress(c, len(collectionIDs)-i-1)
			continue
		}
		c.Success++
		m.broadcastProgress(c, len(collectionIDs)-i-1)
	}
	return c, nil
}

func (m *Materializer) trashCollectionOne(ctx context.Context, root string, collectionID int64) error {
	if remaining := m.countFileEntries(collectionID); remaining > 0 {
		return errs.New(errs.KindCollectionNotEmpty, fmt.Sprintf("collection %d", collectionID),
			fmt.Errorf("%d file entries still reference this collection", remaining))
	}

	dirName, ok := m.journal.CollectionExportName(collectionID)
	if !ok {
		// Nothing recorded; treat as already removed.
		return nil
	}

	if err := m.journal.RemoveCollectionName(ctx, collectionID); err != nil {
		return err
	}

	src := collectionDir(root, dirName)
	exists, err := m.gw.Exists(src)
	if err != nil {
		if restoreErr := m.journal.SetCollectionName(ctx, collectionID, dirName); restoreErr != nil {
			return restoreErr
		}
		return errs.New(errs.KindItemFailure, dirName, err)
	}
	if !exists {
		return nil
	}

	// spec.md section 4.5 Collection-removal phase deletes the directory
	// outright (unlike the File-trash phase, which moves artifacts into
	// Trash): the metadata subdir first, then the collection dir itself.
	if err := m.gw.DeleteFolder(metadataDir(root, dirName)); err != nil {
		if restoreErr := m.journal.SetCollectionName(ctx, collectionID, dirName); restoreErr != nil {
			return restoreErr
		}
		return errs.New(errs.KindItemFailure, dirName, err)
	}
	if err := m.gw.DeleteFolder(src); err != nil {
		if restoreErr := m.journal.SetCollectionName(ctx, collectionID, dirName); restoreErr != nil {
			return restoreErr
		}
		return errs.New(errs.KindItemFailure, dirName, err)
	}
	return nil
}

// countFileEntries returns how many journal file entries still carry the
// given collection ID embedded in their UID.
func (m *Materializer) countFileEntries(collectionID int64) int {
	rec := m.journal.Snapshot()
	count := 0
	for uid := range rec.FileExportNames {
		id, err := model.CollectionIDFromUID(uid)
		if err == nil && id == collectionID {
			count++
		}
	}
	return count
}
