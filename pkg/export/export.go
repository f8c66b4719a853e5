// Package export writes the FMI catalogs as a self-contained static STAC
// tree and publishes collections from such a tree to GeoServer.
//
// The tree layout is
//
//	catalog.json
//	<collection>/collection.json
//	<collection>/<item>/<item>.json
//
// with relative links throughout.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robert-malhotra/fmi-stac-sync/pkg/catalog"
	"github.com/robert-malhotra/fmi-stac-sync/pkg/logging"
	"github.com/robert-malhotra/fmi-stac-sync/pkg/stac"
	stacsync "github.com/robert-malhotra/fmi-stac-sync/pkg/sync"
)

const (
	// RootID is the ID of the exported root catalog.
	RootID = "FMI"

	catalogFile    = "catalog.json"
	collectionFile = "collection.json"
	stacVersion    = "1.0.0"
	jsonType       = "application/json"
)

// Option configures an Exporter.
type Option func(*Exporter)

// WithRetryPause sets the pause between item retry passes.
func WithRetryPause(d time.Duration) Option {
	return func(e *Exporter) { e.pause = d }
}

// WithCollections limits the export to the given published collection IDs.
func WithCollections(ids ...string) Option {
	return func(e *Exporter) { e.only = ids }
}

// Exporter builds the static tree from the FMI source catalogs.
type Exporter struct {
	source    stacsync.Source
	inspector stacsync.Inspector
	table     *catalog.Table
	pause     time.Duration
	only      []string
}

// NewExporter returns an Exporter over the collections of table.
func NewExporter(source stacsync.Source, inspector stacsync.Inspector, table *catalog.Table, opts ...Option) *Exporter {
	e := &Exporter{source: source, inspector: inspector, table: table}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Export walks every exportable table entry and writes the tree under dir.
// It returns the number of items written per collection.
func (e *Exporter) Export(ctx context.Context, dir string) (map[string]int, error) {
	log := logging.FromContext(ctx)

	entries, err := e.entries()
	if err != nil {
		return nil, err
	}

	root := &stac.Catalog{
		Version:     stacVersion,
		ID:          RootID,
		Description: "",
		Links:       []*stac.Link{{Rel: stac.RelRoot, Href: "./" + catalogFile, Type: jsonType}},
	}
	counts := make(map[string]int)

	for _, entry := range entries {
		if entry.SkipExport {
			log.Warn().Str("collection", entry.ID).Msg("Skipping collection marked skip_export")
			continue
		}
		ctx := logging.WithField(ctx, "collection", entry.ID)

		n, err := e.exportCollection(ctx, dir, entry)
		if err != nil {
			return counts, fmt.Errorf("exporting %s: %w", entry.ID, err)
		}
		counts[entry.ID] = n
		root.Links = append(root.Links, &stac.Link{
			Rel:  stac.RelChild,
			Href: "./" + entry.ID + "/" + collectionFile,
			Type: jsonType,
		})
	}

	if err := writeJSON(filepath.Join(dir, catalogFile), root); err != nil {
		return counts, err
	}
	log.Info().Str("dir", dir).Int("collections", len(counts)).Msg("Catalog normalized and saved")
	return counts, nil
}

func (e *Exporter) entries() ([]*catalog.Entry, error) {
	if len(e.only) == 0 {
		return e.table.Entries(), nil
	}
	out := make([]*catalog.Entry, 0, len(e.only))
	for _, id := range e.only {
		entry, err := e.table.ByID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

func (e *Exporter) exportCollection(ctx context.Context, dir string, entry *catalog.Entry) (int, error) {
	log := logging.FromContext(ctx)

	h, err := stacsync.Walk(ctx, e.source, entry.OriginalHref)
	if err != nil {
		return 0, err
	}
	col := h.Collection
	if _, err := e.table.Normalize(col); err != nil {
		return 0, err
	}
	log.Info().Int("item_links", len(h.ItemHrefs)).Msg("Walked source catalog")

	items, err := stacsync.ResolveItems(ctx, e.source, h.ItemHrefs, e.pause)
	if err != nil {
		return 0, err
	}

	colDir := filepath.Join(dir, col.Id)
	col.Links = relink(col.Links, stac.RelItem)
	col.Links = append(col.Links,
		&stac.Link{Rel: stac.RelRoot, Href: "../" + catalogFile, Type: jsonType},
		&stac.Link{Rel: stac.RelParent, Href: "../" + catalogFile, Type: jsonType},
	)

	for i, item := range items {
		item.Collection = col.Id
		if err := stacsync.Enrich(ctx, e.inspector, item); err != nil {
			return 0, err
		}
		catalog.PrepareItem(item)

		item.Links = relink(item.Links)
		item.Links = append(item.Links,
			&stac.Link{Rel: stac.RelRoot, Href: "../../" + catalogFile, Type: jsonType},
			&stac.Link{Rel: stac.RelParent, Href: "../" + collectionFile, Type: jsonType},
			&stac.Link{Rel: stac.RelCollection, Href: "../" + collectionFile, Type: jsonType},
		)
		name := item.Id + ".json"
		if err := writeJSON(filepath.Join(colDir, item.Id, name), item); err != nil {
			return 0, err
		}
		col.Links = append(col.Links, &stac.Link{
			Rel:  stac.RelItem,
			Href: "./" + item.Id + "/" + name,
			Type: "application/geo+json",
		})
		log.Debug().Int("n", i).Str("item", item.Id).Msg("Item added")
	}

	if err := writeJSON(filepath.Join(colDir, collectionFile), col); err != nil {
		return 0, err
	}
	return len(items), nil
}

// relink drops the structural links that are rewritten for the exported
// tree, plus any extra rels given.
func relink(links []*stac.Link, extra ...string) []*stac.Link {
	for _, rel := range append([]string{stac.RelSelf, stac.RelRoot, stac.RelParent, stac.RelCollection}, extra...) {
		links = stac.RemoveLinks(links, rel)
	}
	return links
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
