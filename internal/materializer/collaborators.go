package materializer

import (
	"context"

	"github.com/jra3/photosync/internal/fsgateway"
	"github.com/jra3/photosync/internal/model"
)

// Downloader fetches the decrypted byte stream for a remote file. It is
// out of scope per spec.md section 1 (remote API client, decryption); the
// materializer only depends on this narrow contract (spec.md section 6).
type Downloader interface {
	GetFile(ctx context.Context, file model.File) (fsgateway.Stream, error)
}

// ExifUpdater rewrites a file's EXIF data before it's written to disk. May
// be bypassed for non-image types; out of scope per spec.md section 1.
type ExifUpdater interface {
	UpdateExif(ctx context.Context, file model.File, in fsgateway.Stream) (fsgateway.Stream, error)
}

// LivePhotoParts is the result of decoding a live photo blob into its two
// constituent files.
type LivePhotoParts struct {
	ImageBytes []byte
	ImageTitle string
	VideoBytes []byte
	VideoTitle string
}

// LivePhotoDecoder splits a materialized live-photo blob into its image and
// video constituents; out of scope per spec.md section 1.
type LivePhotoDecoder interface {
	Decode(ctx context.Context, file model.File, blob []byte) (LivePhotoParts, error)
}
