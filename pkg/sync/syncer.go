package sync

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/robert-malhotra/fmi-stac-sync/pkg/catalog"
	"github.com/robert-malhotra/fmi-stac-sync/pkg/logging"
	"github.com/robert-malhotra/fmi-stac-sync/pkg/oseo"
	"github.com/robert-malhotra/fmi-stac-sync/pkg/stac"
	"github.com/robert-malhotra/fmi-stac-sync/pkg/translate"
)

// DefaultSuffix selects the target collections that mirror FMI catalogs.
const DefaultSuffix = "at_fmi"

// Target is the read side of the GeoServer STAC API.
type Target interface {
	GetCollections(ctx context.Context) iter.Seq2[*stac.Collection, error]
	ItemIDs(ctx context.Context, collectionID string) ([]string, error)
}

// Publisher creates products through the OSEO REST API.
type Publisher interface {
	CreateProduct(ctx context.Context, collectionID string, f *oseo.Feature) error
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithSuffix sets the collection ID suffix that selects target collections.
func WithSuffix(suffix string) Option {
	return func(s *Syncer) { s.suffix = suffix }
}

// WithRetryPause sets the pause between item retry passes.
func WithRetryPause(d time.Duration) Option {
	return func(s *Syncer) { s.pause = d }
}

// WithTable sets the lookup table used when a target collection has no
// derived_from reference.
func WithTable(t *catalog.Table) Option {
	return func(s *Syncer) { s.table = t }
}

// Syncer pushes the items missing from the target collections.
type Syncer struct {
	source    Source
	target    Target
	publisher Publisher
	inspector Inspector
	table     *catalog.Table
	suffix    string
	pause     time.Duration
}

// CollectionReport counts what happened to one collection.
type CollectionReport struct {
	ID     string
	Source int
	Target int
	Pushed int
}

// Report summarizes a run.
type Report struct {
	Collections []CollectionReport
}

// Pushed returns the total number of products created.
func (r *Report) Pushed() int {
	n := 0
	for _, c := range r.Collections {
		n += c.Pushed
	}
	return n
}

// New returns a Syncer.
func New(source Source, target Target, publisher Publisher, inspector Inspector, opts ...Option) *Syncer {
	s := &Syncer{
		source:    source,
		target:    target,
		publisher: publisher,
		inspector: inspector,
		suffix:    DefaultSuffix,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run syncs every target collection whose ID ends with the suffix. The first
// failure stops the run; the report then covers the work done so far.
func (s *Syncer) Run(ctx context.Context) (*Report, error) {
	log := logging.FromContext(ctx)
	report := &Report{}

	var cols []*stac.Collection
	for col, err := range s.target.GetCollections(ctx) {
		if err != nil {
			return report, fmt.Errorf("listing target collections: %w", err)
		}
		if strings.HasSuffix(col.Id, s.suffix) {
			cols = append(cols, col)
		}
	}
	log.Info().Int("collections", len(cols)).Str("suffix", s.suffix).Msg("Found target collections")

	for _, col := range cols {
		cr, err := s.syncCollection(logging.WithField(ctx, "collection", col.Id), col)
		report.Collections = append(report.Collections, cr)
		if err != nil {
			return report, fmt.Errorf("collection %s: %w", col.Id, err)
		}
	}
	return report, nil
}

func (s *Syncer) syncCollection(ctx context.Context, col *stac.Collection) (CollectionReport, error) {
	log := logging.FromContext(ctx)
	cr := CollectionReport{ID: col.Id}

	href, err := s.sourceHref(col)
	if err != nil {
		return cr, err
	}
	log.Info().Str("source", href).Msg("Checking collection")

	h, err := Walk(ctx, s.source, href)
	if err != nil {
		return cr, err
	}

	targetIDs, err := s.target.ItemIDs(ctx, col.Id)
	if err != nil {
		return cr, fmt.Errorf("listing target items: %w", err)
	}
	cr.Target = len(targetIDs)

	items, err := ResolveItems(ctx, s.source, h.ItemHrefs, s.pause)
	if err != nil {
		return cr, err
	}
	cr.Source = len(items)
	log.Info().Int("target", cr.Target).Int("source", cr.Source).Msg("Items in target and source")

	for _, item := range Diff(items, targetIDs) {
		item.Collection = col.Id
		if err := Enrich(ctx, s.inspector, item); err != nil {
			return cr, err
		}
		catalog.PrepareItem(item)

		f, err := translate.FromItem(item)
		if err != nil {
			return cr, fmt.Errorf("translating item %s: %w", item.Id, err)
		}
		if err := s.publisher.CreateProduct(ctx, col.Id, f); err != nil {
			return cr, fmt.Errorf("pushing item %s: %w", item.Id, err)
		}
		cr.Pushed++
		log.Info().Str("item", item.Id).Msg("Added item")
	}

	log.Info().Int("pushed", cr.Pushed).Msg("All items present")
	return cr, nil
}

// sourceHref finds the FMI catalog a target collection mirrors.
func (s *Syncer) sourceHref(col *stac.Collection) (string, error) {
	if href := col.DerivedFrom(); href != "" {
		return href, nil
	}
	if s.table != nil {
		if e, err := s.table.ByID(col.Id); err == nil && e.OriginalHref != "" {
			return e.OriginalHref, nil
		}
	}
	return "", fmt.Errorf("no derived_from reference for %s", col.Id)
}
