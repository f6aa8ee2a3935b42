package materializer

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/jra3/photosync/internal/errs"
	"github.com/jra3/photosync/internal/fsgateway"
	"github.com/jra3/photosync/internal/model"
)

// exportFilesPhase downloads and writes every file the planner found
// missing from the journal, in (collection_id, file_id) order (spec.md
// section 4.4). Each file's containing collection directory is created
// (and recorded) the first time it's needed, before any bytes are
// written for a file inside it.
func (m *Materializer) exportFilesPhase(ctx context.Context, root string, files []model.File, collections map[int64]model.Collection) (Counters, error) {
	var c Counters
	for i, f := range files {
		if err := m.verifyRoot(root); err != nil {
			return c, err
		}
		if err := checkCancelled(ctx); err != nil {
			return c, err
		}

		if err := m.exportOne(ctx, root, f, collections); err != nil {
			if errs.IsFatalToPhase(errs.KindOf(err)) {
				return c, err
			}
			c.Failed++
			logItem("export-file", fmt.Sprintf("%s: %v", f.UID(), err), 0)
			m.broadcastProgress(c, len(files)-i-1)
			continue
		}
		c.Success++
		m.broadcastProgress(c, len(files)-i-1)
	}
	return c, nil
}

func (m *Materializer) exportOne(ctx context.Context, root string, f model.File, collections map[int64]model.Collection) error {
	dirName, err := m.ensureCollectionDir(ctx, root, f.CollectionID, collections)
	if err != nil {
		return err
	}

	stream, err := m.downloader.GetFile(ctx, f)
	if err != nil {
		return errs.New(errs.KindItemFailure, f.UID(), err)
	}
	stream, err = m.exif.UpdateExif(ctx, f, stream)
	if err != nil {
		return errs.New(errs.KindItemFailure, f.UID(), err)
	}

	if f.FileType == model.FileTypeLivePhoto {
		return m.exportLivePhoto(ctx, root, dirName, f, stream)
	}
	return m.exportPlain(ctx, root, dirName, f, stream)
}

// ensureCollectionDir returns the recorded directory name for
// collectionID, recording the journal entry and then creating the
// directory (record-then-create, spec.md section 4.5 invariant 4) the first
// time a file lands in a collection the journal has not seen before.
func (m *Materializer) ensureCollectionDir(ctx context.Context, root string, collectionID int64, collections map[int64]model.Collection) (string, error) {
	if dirName, ok := m.journal.CollectionExportName(collectionID); ok {
		return dirName, nil
	}

	coll, ok := collections[collectionID]
	if !ok {
		return "", errs.New(errs.KindItemFailure, fmt.Sprintf("collection %d", collectionID), fmt.Errorf("collection not present in inventory"))
	}

	dirName, err := m.allocator.Allocate(root, coll.UserFacingName)
	if err != nil {
		return "", err
	}
	if err := m.journal.SetCollectionName(ctx, collectionID, dirName); err != nil {
		return "", err
	}
	if err := m.gw.CheckExistsAndCreateDir(collectionDir(root, dirName)); err != nil {
		return "", err
	}
	if err := m.gw.CheckExistsAndCreateDir(metadataDir(root, dirName)); err != nil {
		return "", err
	}
	return dirName, nil
}

// exportPlain writes a single image/video file and its sidecar, recording
// the journal entry before either is written to disk, and rolling the
// entry back if the write fails (spec.md section 4.5 invariant 4).
func (m *Materializer) exportPlain(ctx context.Context, root, dirName string, f model.File, stream fsgateway.Stream) error {
	name, err := m.allocator.Allocate(collectionDir(root, dirName), f.Metadata.Title)
	if err != nil {
		return errs.New(errs.KindItemFailure, f.UID(), err)
	}

	exportName := model.ExportName{Kind: model.ExportNamePlain, Name: name}
	if err := m.journal.SetFileName(ctx, f.UID(), exportName); err != nil {
		return err
	}

	if err := m.writeSidecar(root, dirName, name, f.PublicCaption, f.Metadata); err != nil {
		m.rollbackFileName(ctx, f.UID())
		return errs.New(errs.KindItemFailure, f.UID(), err)
	}
	if err := m.gw.SaveStreamToDisk(filePath(root, dirName, name), stream); err != nil {
		m.rollbackFileName(ctx, f.UID())
		return errs.New(errs.KindItemFailure, f.UID(), err)
	}
	return nil
}

// exportLivePhoto materializes the live-photo blob, decodes it into its
// image and video constituents, then writes the image leg followed by the
// video leg. If the video leg fails, the image leg already on disk is
// deleted and the journal entry rolled back so the file does not survive
// as a partial, image-only export (spec.md section 4.5, live-photo
// atomicity).
func (m *Materializer) exportLivePhoto(ctx context.Context, root, dirName string, f model.File, stream fsgateway.Stream) error {
	blob, err := io.ReadAll(stream)
	if err != nil {
		return errs.New(errs.KindItemFailure, f.UID(), err)
	}

	parts, err := m.livePhoto.Decode(ctx, f, blob)
	if err != nil {
		return errs.New(errs.KindItemFailure, f.UID(), err)
	}

	imageName, err := m.allocator.Allocate(collectionDir(root, dirName), parts.ImageTitle)
	if err != nil {
		return errs.New(errs.KindItemFailure, f.UID(), err)
	}
	videoName, err := m.allocator.Allocate(collectionDir(root, dirName), parts.VideoTitle)
	if err != nil {
		return errs.New(errs.KindItemFailure, f.UID(), err)
	}

	exportName := model.ExportName{Kind: model.ExportNameLivePhoto, Image: imageName, Video: videoName}
	if err := m.journal.SetFileName(ctx, f.UID(), exportName); err != nil {
		return err
	}

	if err := m.writeSidecar(root, dirName, imageName, f.PublicCaption, f.Metadata); err != nil {
		m.rollbackFileName(ctx, f.UID())
		return errs.New(errs.KindItemFailure, f.UID(), err)
	}
	if err := m.gw.SaveStreamToDisk(filePath(root, dirName, imageName), bytes.NewReader(parts.ImageBytes)); err != nil {
		m.rollbackFileName(ctx, f.UID())
		return errs.New(errs.KindItemFailure, f.UID(), err)
	}

	if err := m.writeSidecar(root, dirName, videoName, f.PublicCaption, f.Metadata); err != nil {
		m.gw.DeleteFile(filePath(root, dirName, imageName))
		m.rollbackFileName(ctx, f.UID())
		return errs.New(errs.KindItemFailure, f.UID(), err)
	}
	if err := m.gw.SaveStreamToDisk(filePath(root, dirName, videoName), bytes.NewReader(parts.VideoBytes)); err != nil {
		m.gw.DeleteFile(filePath(root, dirName, imageName))
		m.rollbackFileName(ctx, f.UID())
		return errs.New(errs.KindItemFailure, f.UID(), err)
	}
	return nil
}

func (m *Materializer) writeSidecar(root, dirName, basename string, caption *string, meta model.Metadata) error {
	sc := buildSidecar(basename, caption, meta)
	text, err := marshalSidecar(sc)
	if err != nil {
		return err
	}
	return m.gw.SaveFileToDisk(metadataPath(root, dirName, basename), text)
}

// rollbackFileName restores the journal to "no entry for this UID" after a
// write failure. Errors here are logged, not returned: the write failure
// is already the error being reported for this item. A failed rollback
// leaves the UID's entry in the journal.
func (m *Materializer) rollbackFileName(ctx context.Context, uid string) {
	if err := m.journal.RemoveFileName(ctx, uid); err != nil {
		logItem("export-file", fmt.Sprintf("%s: rollback failed: %v", uid, err), 0)
	}
}
