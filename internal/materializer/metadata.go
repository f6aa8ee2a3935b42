package materializer

import (
	"encoding/json"
	"time"

	"github.com/ncruces/go-strftime"
	"github.com/jra3/photosync/internal/model"
)

// timeField is the {timestamp, formatted} pair used for creationTime and
// modificationTime in the metadata sidecar (spec.md section 4.5).
type timeField struct {
	Timestamp int64  `json:"timestamp"`
	Formatted string `json:"formatted"`
}

// geoData is the {latitude, longitude} pair in the metadata sidecar.
type geoData struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// sidecar is the JSON shape written to metadata/<basename>.json for every
// written file, including each leg of a live photo (spec.md section 4.5).
type sidecar struct {
	Title            string    `json:"title"`
	Caption          *string   `json:"caption"`
	CreationTime     timeField `json:"creationTime"`
	ModificationTime timeField `json:"modificationTime"`
	GeoData          geoData   `json:"geoData"`
}

// buildSidecar renders the metadata sidecar for exportName written from
// meta. Timestamps in meta are microseconds; the sidecar stores them as
// seconds (floor-divided). modificationTime defaults to creationTime when
// absent.
func buildSidecar(exportName string, caption *string, meta model.Metadata) sidecar {
	creationSec := meta.CreationTimeUs / 1_000_000
	modificationSec := creationSec
	if meta.ModificationTimeUs != nil {
		modificationSec = *meta.ModificationTimeUs / 1_000_000
	}

	return sidecar{
		Title:            exportName,
		Caption:          caption,
		CreationTime:     timeField{Timestamp: creationSec, Formatted: formatTimestamp(creationSec)},
		ModificationTime: timeField{Timestamp: modificationSec, Formatted: formatTimestamp(modificationSec)},
		GeoData:          geoData{Latitude: meta.Latitude, Longitude: meta.Longitude},
	}
}

// formatTimestamp renders a Unix-seconds timestamp as a locale-short
// string using strftime's "%c" conversion, matching the teacher's transitive
// dependency on ncruces/go-strftime (pulled in by its sqlite driver),
// promoted here to a direct, actively-used dependency for the metadata
// sidecar's "formatted" field (spec.md section 4.5).
func formatTimestamp(unixSec int64) string {
	t := time.Unix(unixSec, 0).UTC()
	formatted, err := strftime.Format("%c", t)
	if err != nil {
		return t.Format(time.RFC1123)
	}
	return formatted
}

func marshalSidecar(s sidecar) (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
