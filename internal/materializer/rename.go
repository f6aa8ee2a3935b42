package materializer

import (
	"context"

	"github.com/jra3/photosync/internal/errs"
	"github.com/jra3/photosync/internal/planner"
)

// renamePhase applies every renamed collection: record the new directory
// name in the journal, then perform the on-disk rename. Recording first
// means a crash between the two leaves the journal pointing at a directory
// that doesn't exist yet on disk rather than a directory the journal has
// forgotten about (spec.md section 4.5, invariant 4).
func (m *Materializer) renamePhase(ctx context.Context, root string, renames []planner.RenamedCollection) (Counters, error) {
	var c Counters
	for i, rn := range renames {
		if err := m.verifyRoot(root); err != nil {
			return c, err
		}
		if err := checkCancelled(ctx); err != nil {
			return c, err
		}

		if err := m.renameOne(ctx, root, rn); err != nil {
			if errs.IsFatalToPhase(errs.KindOf(err)) {
				return c, err
			}
			c.Failed++
			logItem("rename", rn.Collection.UserFacingName+": "+err.Error(), 0)
			m.broadcastProgress(c, len(renames)-i-1)
			continue
		}
		c.Success++
		m.broadcastProgress(c, len(renames)-i-1)
	}
	return c, nil
}

func (m *Materializer) renameOne(ctx context.Context, root string, rn planner.RenamedCollection) error {
	newName, err := m.allocator.Allocate(root, rn.Collection.UserFacingName)
	if err != nil {
		return err
	}

	if err := m.journal.SetCollectionName(ctx, rn.Collection.ID, newName); err != nil {
		return err
	}

	oldPath := collectionDir(root, rn.OldDirName)
	newPath := collectionDir(root, newName)
	if err := m.gw.Rename(oldPath, newPath); err != nil {
		// Restore the journal's prior pointer so the next run retries from
		// a consistent state rather than believing the rename succeeded.
		if restoreErr := m.journal.SetCollectionName(ctx, rn.Collection.ID, rn.OldDirName); restoreErr != nil {
			return restoreErr
		}
		return err
	}
	return nil
}
