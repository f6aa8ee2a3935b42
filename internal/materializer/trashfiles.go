package materializer

import (
	"context"
	"fmt"

	"github.com/jra3/photosync/internal/errs"
	"github.com/jra3/photosync/internal/model"
)

// trashFilesPhase moves every removed file's on-disk artifacts (its file,
// its sidecar, and both legs of a live photo) into root/Trash, mirroring
// their prior relative path (spec.md section 3). The journal entry is
// removed before the move so a crash mid-move never leaves the journal
// pointing at a file that may already be gone; a failed move restores the
// entry and surfaces the error (spec.md section 4.5, invariant 4).
func (m *Materializer) trashFilesPhase(ctx context.Context, root string, uids []string) (Counters, error) {
	var c Counters
	for i, uid := range uids {
		if err := m.verifyRoot(root); err != nil {
			return c, err
		}
		if err := checkCancelled(ctx); err != nil {
			return c, err
		}

		if err := m.trashOne(ctx, root, uid); err != nil {
			if errs.IsFatalToPhase(errs.KindOf(err)) {
				return c, err
			}
			c.Failed++
			logItem("trash-file", uid+": "+err.Error(), 0)
			m.broadcastProgress(c, len(uids)-i-1)
			continue
		}
		c.Success++
		m.broadcastProgress(c, len(uids)-i-1)
	}
	return c, nil
}

func (m *Materializer) trashOne(ctx context.Context, root, uid string) error {
	name, ok := m.journal.FileExportName(uid)
	if !ok {
		// Nothing recorded; treat as already trashed.
		return nil
	}
	collectionID, err := model.CollectionIDFromUID(uid)
	if err != nil {
		return errs.New(errs.KindItemFailure, uid, err)
	}
	dirName, ok := m.journal.CollectionExportName(collectionID)
	if !ok {
		return errs.New(errs.KindItemFailure, uid, fmt.Errorf("no recorded directory for collection %d", collectionID))
	}

	if err := m.journal.RemoveFileName(ctx, uid); err != nil {
		return err
	}

	if err := m.trashName(root, dirName, name); err != nil {
		if restoreErr := m.journal.SetFileName(ctx, uid, name); restoreErr != nil {
			return restoreErr
		}
		return errs.New(errs.KindItemFailure, uid, err)
	}
	return nil
}

// trashName moves every basename implied by name (one file+sidecar for a
// plain export, two for a live photo) into Trash, tolerating legs that are
// already missing.
func (m *Materializer) trashName(root, dirName string, name model.ExportName) error {
	basenames := []string{name.Name}
	if name.Kind == model.ExportNameLivePhoto {
		basenames = []string{name.Image, name.Video}
	}

	for _, base := range basenames {
		if base == "" {
			continue
		}
		if err := m.trashArtifact(root, dirName, base); err != nil {
			return err
		}
	}
	return nil
}

// trashArtifact moves a file and its sidecar into the Trash subtree that
// mirrors their collection's directory. Each destination basename is
// allocated through m.allocator rather than taken verbatim, since a
// plain mirrored path would let a later trashed file silently clobber an
// earlier one sharing the same basename (spec.md section 4.5 File-trash
// phase step 4: "trashed_path = allocate_in(root/Trash, relative(file_path))").
func (m *Materializer) trashArtifact(root, dirName, base string) error {
	trashDir := join(trashRoot(root), dirName)

	src := filePath(root, dirName, base)
	if exists, err := m.gw.Exists(src); err != nil {
		return err
	} else if exists {
		name, err := m.allocator.Allocate(trashDir, base)
		if err != nil {
			return err
		}
		if err := m.gw.MoveFile(src, join(trashDir, name)); err != nil {
			return err
		}
	}

	sidecarSrc := metadataPath(root, dirName, base)
	if exists, err := m.gw.Exists(sidecarSrc); err != nil {
		return err
	} else if exists {
		sidecarDir := join(trashDir, MetadataDirName)
		sidecarName, err := m.allocator.Allocate(sidecarDir, base+".json")
		if err != nil {
			return err
		}
		if err := m.gw.MoveFile(sidecarSrc, join(sidecarDir, sidecarName)); err != nil {
			return err
		}
	}
	return nil
}
