package sync

import (
	"context"
	"fmt"

	"github.com/robert-malhotra/fmi-stac-sync/pkg/raster"
	"github.com/robert-malhotra/fmi-stac-sync/pkg/stac"
)

// Inspector reads georeferencing metadata from a raster.
type Inspector interface {
	Inspect(ctx context.Context, href string) (*raster.Metadata, error)
}

// Enrich reads the raster behind the item's first asset and records its
// resolution, CRS and transform on the item.
func Enrich(ctx context.Context, in Inspector, item *stac.Item) error {
	key, asset := item.FirstAsset()
	if asset == nil {
		return fmt.Errorf("item %s has no assets", item.Id)
	}
	md, err := in.Inspect(ctx, asset.Href)
	if err != nil {
		return fmt.Errorf("reading raster %q of item %s: %w", key, item.Id, err)
	}
	md.Apply(item)
	return nil
}
