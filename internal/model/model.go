// Package model defines the remote inventory and journal data types
// shared by the planner, materializer, journal, and scheduler (spec.md
// section 3).
package model

import (
	"encoding/json"
	"fmt"
)

// FileType is the kind of a remote file.
type FileType string

// File types as carried on File.FileType.
const (
	FileTypeImage     FileType = "image"
	FileTypeVideo     FileType = "video"
	FileTypeLivePhoto FileType = "live_photo"
)

// Metadata is the subset of a remote file's metadata needed to export it.
type Metadata struct {
	Title              string
	CreationTimeUs     int64
	ModificationTimeUs *int64
	Latitude           *float64
	Longitude          *float64
}

// File is a remote file as seen in an inventory snapshot (spec.md section 3).
// Immutable within a single reconciliation run.
type File struct {
	ID             int64
	CollectionID   int64
	UpdationTime   int64
	OwnerID        int64
	FileType       FileType
	Metadata       Metadata
	PublicCaption  *string
}

// UID derives the stable File UID: "{file.id}_{collection_id}_{updation_time}".
// Any remote mutation that changes content or containment alters the UID;
// the mirror treats a changed UID as a new file and the old UID as deleted.
func (f File) UID() string {
	return fmt.Sprintf("%d_%d_%d", f.ID, f.CollectionID, f.UpdationTime)
}

// Collection is a remote collection as seen in an inventory snapshot.
type Collection struct {
	ID             int64
	OwnerID        int64
	UserFacingName string
}

// CollectionIDFromUID extracts the collection ID embedded in a File UID,
// the inverse of File.UID for the middle field. Property: for all files f,
// CollectionIDFromUID(f.UID()) == f.CollectionID (spec.md section 8, test 3).
func CollectionIDFromUID(uid string) (int64, error) {
	var fileID, collectionID, updationTime int64
	n, err := fmt.Sscanf(uid, "%d_%d_%d", &fileID, &collectionID, &updationTime)
	if err != nil || n != 3 {
		return 0, fmt.Errorf("malformed file uid %q: %w", uid, err)
	}
	return collectionID, nil
}

// Inventory is a full snapshot of the remote library as seen by the planner:
// every file and collection the inventory providers returned for the
// current user (spec.md section 4.4). Ownership filtering (which files are
// "personal") happens in the planner, not here.
type Inventory struct {
	Files       []File
	Collections []Collection
}

// ExportStage is the recorded stage of an export run (spec.md section 3).
// The phase stages are not set in declaration order; see Materializer.Run.
type ExportStage int

const (
	StageInit ExportStage = iota
	StageMigration
	StageStarting
	StageExportingFiles
	StageTrashingDeletedFiles
	StageRenamingCollectionFolders
	StageTrashingDeletedCollections
	StageFinished
)

func (s ExportStage) String() string {
	switch s {
	case StageInit:
		return "INIT"
	case StageMigration:
		return "MIGRATION"
	case StageStarting:
		return "STARTING"
	case StageExportingFiles:
		return "EXPORTING_FILES"
	case StageTrashingDeletedFiles:
		return "TRASHING_DELETED_FILES"
	case StageRenamingCollectionFolders:
		return "RENAMING_COLLECTION_FOLDERS"
	case StageTrashingDeletedCollections:
		return "TRASHING_DELETED_COLLECTIONS"
	case StageFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// InProgress reports whether the stage represents a run that started but
// has not reached FINISHED: INIT < stage < FINISHED.
func (s ExportStage) InProgress() bool {
	return s > StageInit && s < StageFinished
}

// ExportNameKind discriminates a journal entry's export name shape. This
// closes spec.md's Open Question (b): rather than sniffing whether the
// recorded name happens to be JSON-parseable (which would misclassify a
// non-live export whose name is valid JSON), the journal records the kind
// explicitly alongside the name.
type ExportNameKind int

const (
	ExportNamePlain ExportNameKind = iota
	ExportNameLivePhoto
)

// ExportName is a journal entry's recorded on-disk name for one file UID.
// For a plain file, Name holds the basename. For a live photo, Image and
// Video hold the two constituent basenames and Name is unused.
type ExportName struct {
	Kind  ExportNameKind
	Name  string
	Image string
	Video string
}

// MarshalJSON renders the stage as its name (e.g. "EXPORTING_FILES") so
// export_status.json stays human-readable.
func (s ExportStage) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a stage name back into its ExportStage value.
func (s *ExportStage) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	stages := []ExportStage{
		StageInit, StageMigration, StageStarting, StageExportingFiles,
		StageTrashingDeletedFiles, StageRenamingCollectionFolders,
		StageTrashingDeletedCollections, StageFinished,
	}
	for _, st := range stages {
		if st.String() == name {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown export stage %q", name)
}

type exportNameJSON struct {
	Kind  string `json:"kind"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
	Video string `json:"video,omitempty"`
}

// MarshalJSON renders the export name with an explicit "kind" discriminator
// (spec.md Open Question b) instead of relying on the shape of the value.
func (e ExportName) MarshalJSON() ([]byte, error) {
	out := exportNameJSON{Name: e.Name, Image: e.Image, Video: e.Video}
	switch e.Kind {
	case ExportNameLivePhoto:
		out.Kind = "live_photo"
	default:
		out.Kind = "plain"
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses an export name, tolerating pre-migration documents
// that stored a bare string (plain) or a bare {"image":...,"video":...}
// object with no discriminator; MigrationRunner is responsible for
// rewriting those to the current, discriminated shape on load.
func (e *ExportName) UnmarshalJSON(data []byte) error {
	var in exportNameJSON
	if err := json.Unmarshal(data, &in); err == nil && in.Kind != "" {
		*e = ExportName{Name: in.Name, Image: in.Image, Video: in.Video}
		if in.Kind == "live_photo" {
			e.Kind = ExportNameLivePhoto
		} else {
			e.Kind = ExportNamePlain
		}
		return nil
	}

	// Legacy shapes without a discriminator.
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*e = ExportName{Kind: ExportNamePlain, Name: plain}
		return nil
	}
	var legacyLive struct {
		Image string `json:"image"`
		Video string `json:"video"`
	}
	if err := json.Unmarshal(data, &legacyLive); err == nil && (legacyLive.Image != "" || legacyLive.Video != "") {
		*e = ExportName{Kind: ExportNameLivePhoto, Image: legacyLive.Image, Video: legacyLive.Video}
		return nil
	}
	return fmt.Errorf("unrecognized export name shape: %s", string(data))
}
