package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/robert-malhotra/fmi-stac-sync/pkg/logging"
	"github.com/robert-malhotra/fmi-stac-sync/pkg/oseo"
	"github.com/robert-malhotra/fmi-stac-sync/pkg/stac"
	stacsync "github.com/robert-malhotra/fmi-stac-sync/pkg/sync"
	"github.com/robert-malhotra/fmi-stac-sync/pkg/translate"
)

// Upserter is the write side of the OSEO REST API.
type Upserter interface {
	CreateCollection(ctx context.Context, f *oseo.Feature) error
	UpdateCollection(ctx context.Context, collectionID string, f *oseo.Feature) error
	CreateProduct(ctx context.Context, collectionID string, f *oseo.Feature) error
	UpdateProduct(ctx context.Context, collectionID, productID string, f *oseo.Feature) error
}

// PublishReport summarizes a publish run.
type PublishReport struct {
	Collection        string
	CollectionCreated bool
	Created           int
	Updated           int
}

// Publish upserts the collection stored under dir/<collectionID> and then
// each of its items: existing ones are replaced with PUT, new ones created
// with POST. Existence is checked against the target STAC API, which hides
// disabled collections and products, so a POST answered with 409 Conflict
// falls back to PUT.
func Publish(ctx context.Context, dir, collectionID string, target stacsync.Target, api Upserter) (*PublishReport, error) {
	log := logging.FromContext(ctx).With().Str("collection", collectionID).Logger()
	report := &PublishReport{Collection: collectionID}

	colPath := filepath.Join(dir, collectionID, collectionFile)
	var col stac.Collection
	if err := readJSON(colPath, &col); err != nil {
		return report, err
	}

	feature, err := translate.FromCollection(&col)
	if err != nil {
		return report, fmt.Errorf("translating collection %s: %w", col.Id, err)
	}

	exists, err := hasCollection(ctx, target, col.Id)
	if err != nil {
		return report, err
	}
	if exists {
		if err := api.UpdateCollection(ctx, col.Id, feature); err != nil {
			return report, err
		}
		log.Info().Msg("Updated collection")
	} else {
		created, err := upsert(
			func() error { return api.CreateCollection(ctx, feature) },
			func() error { return api.UpdateCollection(ctx, col.Id, feature) },
		)
		if err != nil {
			return report, err
		}
		report.CollectionCreated = created
		if created {
			log.Info().Msg("Added new collection")
		} else {
			log.Info().Msg("Updated hidden collection")
		}
	}

	posted, err := target.ItemIDs(ctx, col.Id)
	if err != nil {
		return report, fmt.Errorf("listing target items: %w", err)
	}
	present := make(map[string]bool, len(posted))
	for _, id := range posted {
		present[id] = true
	}
	log.Info().Int("posted", len(posted)).Msg("Items already in target")

	colDir := filepath.Dir(colPath)
	for _, link := range col.ItemLinks() {
		var item stac.Item
		if err := readJSON(filepath.Join(colDir, filepath.FromSlash(link.Href)), &item); err != nil {
			return report, err
		}
		f, err := translate.FromItem(&item)
		if err != nil {
			return report, fmt.Errorf("translating item %s: %w", item.Id, err)
		}

		if present[item.Id] {
			if err := api.UpdateProduct(ctx, col.Id, item.Id, f); err != nil {
				return report, err
			}
			report.Updated++
		} else {
			created, err := upsert(
				func() error { return api.CreateProduct(ctx, col.Id, f) },
				func() error { return api.UpdateProduct(ctx, col.Id, item.Id, f) },
			)
			if err != nil {
				return report, err
			}
			present[item.Id] = true
			if created {
				report.Created++
			} else {
				report.Updated++
			}
		}
		log.Debug().Str("item", item.Id).Msg("Published item")
	}

	log.Info().Int("created", report.Created).Int("updated", report.Updated).Msg("Published collection")
	return report, nil
}

// upsert runs create and, when the resource turns out to exist already,
// update. It reports whether create succeeded.
func upsert(create, update func() error) (bool, error) {
	err := create()
	var apiErr *oseo.APIError
	if errors.As(err, &apiErr) && apiErr.Conflict() {
		return false, update()
	}
	return err == nil, err
}

func hasCollection(ctx context.Context, target stacsync.Target, id string) (bool, error) {
	for col, err := range target.GetCollections(ctx) {
		if err != nil {
			return false, fmt.Errorf("listing target collections: %w", err)
		}
		if col.Id == id {
			return true, nil
		}
	}
	return false, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
