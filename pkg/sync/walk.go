package sync

import (
	"context"
	"fmt"

	"github.com/robert-malhotra/fmi-stac-sync/pkg/logging"
	"github.com/robert-malhotra/fmi-stac-sync/pkg/stac"
)

// Source reads documents from a static STAC catalog. Both methods return the
// absolute URL the document was read from.
type Source interface {
	FetchCollection(ctx context.Context, href string) (*stac.Collection, string, error)
	FetchItem(ctx context.Context, href string) (*stac.Item, string, error)
}

// Harvest is a source catalog together with the item links found one level
// below it.
type Harvest struct {
	Collection *stac.Collection
	URL        string
	ItemHrefs  []string
}

// Walk fetches the catalog at href and each of its child collections, and
// collects the absolute hrefs of their item links. Duplicates are dropped,
// the first occurrence keeps its place.
func Walk(ctx context.Context, src Source, href string) (*Harvest, error) {
	log := logging.FromContext(ctx)

	col, colURL, err := src.FetchCollection(ctx, href)
	if err != nil {
		return nil, fmt.Errorf("fetching source catalog %s: %w", href, err)
	}

	h := &Harvest{Collection: col, URL: colURL}
	seen := make(map[string]bool)

	children := col.ChildLinks()
	for _, link := range children {
		childHref, err := link.Resolve(colURL)
		if err != nil {
			return nil, err
		}
		sub, subURL, err := src.FetchCollection(ctx, childHref)
		if err != nil {
			return nil, fmt.Errorf("fetching sub-collection %s: %w", childHref, err)
		}
		for _, il := range sub.ItemLinks() {
			itemHref, err := il.Resolve(subURL)
			if err != nil {
				return nil, err
			}
			if seen[itemHref] {
				continue
			}
			seen[itemHref] = true
			h.ItemHrefs = append(h.ItemHrefs, itemHref)
		}
	}

	log.Debug().
		Str("catalog", col.Id).
		Int("sub_collections", len(children)).
		Int("item_links", len(h.ItemHrefs)).
		Msg("Walked source catalog")
	return h, nil
}
