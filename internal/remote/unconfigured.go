// Package remote holds the placeholder implementations of the
// collaborator contracts that spec.md section 1 explicitly puts out of
// scope: the remote API client, authentication, decryption, and the
// live-photo codec. photosync defines and exercises the interfaces
// (scheduler.InventoryProvider, scheduler.CurrentUserProvider,
// materializer.Downloader, materializer.ExifUpdater,
// materializer.LivePhotoDecoder); wiring a concrete client against a real
// remote library is left to the embedding application (spec.md section 6).
//
// Unconfigured satisfies every one of those contracts and fails loudly,
// so a misconfigured deployment errors at the first call instead of
// silently exporting nothing.
package remote

import (
	"context"
	"fmt"

	"github.com/jra3/photosync/internal/fsgateway"
	"github.com/jra3/photosync/internal/materializer"
	"github.com/jra3/photosync/internal/model"
)

// Unconfigured is a zero-value collaborator stand-in for every out-of-
// scope dependency. Every method except UpdateExif returns an error naming
// the missing wiring; UpdateExif returns its input stream unchanged.
type Unconfigured struct{}

func (Unconfigured) GetInventory(ctx context.Context) (model.Inventory, error) {
	return model.Inventory{}, fmt.Errorf("no inventory provider configured: wire a remote API client")
}

func (Unconfigured) CurrentUserID(ctx context.Context) (int64, error) {
	return 0, fmt.Errorf("no current-user provider configured: wire an authenticated session")
}

func (Unconfigured) GetFile(ctx context.Context, file model.File) (fsgateway.Stream, error) {
	return nil, fmt.Errorf("no downloader configured for file %s: wire a remote API client", file.UID())
}

func (Unconfigured) UpdateExif(ctx context.Context, file model.File, in fsgateway.Stream) (fsgateway.Stream, error) {
	return in, nil
}

func (Unconfigured) Decode(ctx context.Context, file model.File, blob []byte) (materializer.LivePhotoParts, error) {
	return materializer.LivePhotoParts{}, fmt.Errorf("no live-photo decoder configured for file %s", file.UID())
}
