package manager

import (
	"context"
	"path"
	"strings"

	"github.com/Dusk-Labs/dim-sub002/pkg/matcher"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/model"
)

// AssetQueue schedules a download ahead of the background backlog
type AssetQueue interface {
	EnqueueImmediate(url, outfile string)
}

// RequestAsset queues an immediate download of the image stored under name in the asset dir.
// Unknown images, and images without a remote source, are reported as storage.ErrNotFound.
func (m *MediaManager) RequestAsset(ctx context.Context, name string) error {
	local := path.Join(matcher.AssetDir, path.Clean("/"+name))
	if strings.TrimSuffix(local, "/") == matcher.AssetDir {
		return storage.ErrNotFound
	}

	var asset *model.Assets
	err := m.readTx(ctx, func(tx storage.Tx) error {
		var err error
		asset, err = tx.GetAssetByLocalPath(ctx, local)
		return err
	})
	if err != nil {
		return err
	}
	if asset.RemoteURL == nil || *asset.RemoteURL == "" {
		return storage.ErrNotFound
	}

	if m.assets != nil {
		m.assets.EnqueueImmediate(*asset.RemoteURL, asset.LocalPath)
	}
	return nil
}
