package journal

import (
	"encoding/json"
	"fmt"

	"github.com/jra3/photosync/internal/model"
)

// CurrentVersion is the schema version this package reads and writes.
// MigrationRunner upgrades older journals to this version before a
// reconciliation run proceeds (spec.md section 4.7).
const CurrentVersion = 3

// Record is the persisted export_status.json document (spec.md section 3).
// For live photos, the recorded entry carries an explicit Kind
// discriminator alongside the name(s) rather than requiring callers to
// sniff whether a string happens to parse as JSON (spec.md Open Question b).
type Record struct {
	Version               int                         `json:"version"`
	LastAttemptTimestamp  *int64                      `json:"last_attempt_timestamp"`
	Stage                 model.ExportStage           `json:"stage"`
	FileExportNames       map[string]model.ExportName `json:"file_export_names"`
	CollectionExportNames map[string]string           `json:"collection_export_names"`
}

// Empty returns a freshly initialized Record at stage INIT, as created the
// first time an export root is seen (spec.md section 4.3 "Initial load").
func Empty() Record {
	return Record{
		Version:               CurrentVersion,
		Stage:                 model.StageInit,
		FileExportNames:       make(map[string]model.ExportName),
		CollectionExportNames: make(map[string]string),
	}
}

// Clone returns a deep copy of r so mutation helpers can build a modified
// copy without aliasing the caller's maps (spec.md section 4.3:
// "read current -> mutate copy -> atomically replace file").
func (r Record) Clone() Record {
	out := r
	out.FileExportNames = make(map[string]model.ExportName, len(r.FileExportNames))
	for k, v := range r.FileExportNames {
		out.FileExportNames[k] = v
	}
	out.CollectionExportNames = make(map[string]string, len(r.CollectionExportNames))
	for k, v := range r.CollectionExportNames {
		out.CollectionExportNames[k] = v
	}
	if r.LastAttemptTimestamp != nil {
		ts := *r.LastAttemptTimestamp
		out.LastAttemptTimestamp = &ts
	}
	return out
}

func marshalRecord(r Record) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal journal record: %w", err)
	}
	return string(data), nil
}

func unmarshalRecord(text string) (Record, error) {
	var r Record
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return Record{}, fmt.Errorf("parse journal record: %w", err)
	}
	if r.FileExportNames == nil {
		r.FileExportNames = make(map[string]model.ExportName)
	}
	if r.CollectionExportNames == nil {
		r.CollectionExportNames = make(map[string]string)
	}
	return r, nil
}
