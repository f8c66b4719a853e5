// Package catalog holds the fixed mapping between the FMI source catalogs and
// the GeoServer collections they are published as, and rewrites source
// documents into their published form.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/robert-malhotra/fmi-stac-sync/pkg/stac"
)

//go:embed collections.yaml
var collectionsYAML []byte

// ErrUnknownCollection is returned for IDs missing from the lookup table.
var ErrUnknownCollection = errors.New("unknown collection")

// Provider is a collection provider as listed in the table.
type Provider struct {
	Name  string   `yaml:"name"`
	URL   string   `yaml:"url"`
	Roles []string `yaml:"roles"`
}

// Entry describes one published collection.
type Entry struct {
	SourceID     string     `yaml:"source_id"`
	ID           string     `yaml:"id"`
	Title        string     `yaml:"title"`
	Description  string     `yaml:"description"`
	Metadata     string     `yaml:"metadata"`
	LicenseURL   string     `yaml:"license_url"`
	OriginalHref string     `yaml:"original_href"`
	License      string     `yaml:"license"`
	Providers    []Provider `yaml:"providers"`

	// SkipExport marks source catalogs whose children cannot be walked.
	SkipExport bool `yaml:"skip_export"`
}

// Table is the lookup table, indexed both ways.
type Table struct {
	entries  []*Entry
	bySource map[string]*Entry
	byID     map[string]*Entry
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// Default returns the embedded table.
func Default() (*Table, error) {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = Parse(collectionsYAML)
	})
	return defaultTable, defaultErr
}

// Parse decodes a table from YAML.
func Parse(data []byte) (*Table, error) {
	var doc struct {
		Collections []*Entry `yaml:"collections"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding collection table: %w", err)
	}

	t := &Table{
		entries:  doc.Collections,
		bySource: make(map[string]*Entry, len(doc.Collections)),
		byID:     make(map[string]*Entry, len(doc.Collections)),
	}
	for _, e := range doc.Collections {
		if e.SourceID == "" || e.ID == "" {
			return nil, fmt.Errorf("collection table entry missing source_id or id: %+v", e)
		}
		if _, dup := t.bySource[e.SourceID]; dup {
			return nil, fmt.Errorf("duplicate source_id %q in collection table", e.SourceID)
		}
		if _, dup := t.byID[e.ID]; dup {
			return nil, fmt.Errorf("duplicate id %q in collection table", e.ID)
		}
		t.bySource[e.SourceID] = e
		t.byID[e.ID] = e
	}
	return t, nil
}

// Entries returns the entries in table order.
func (t *Table) Entries() []*Entry {
	return t.entries
}

// BySource looks an entry up by the FMI catalog ID.
func (t *Table) BySource(sourceID string) (*Entry, error) {
	e, ok := t.bySource[sourceID]
	if !ok {
		return nil, fmt.Errorf("%w: source %q", ErrUnknownCollection, sourceID)
	}
	return e, nil
}

// ByID looks an entry up by the published collection ID.
func (t *Table) ByID(id string) (*Entry, error) {
	e, ok := t.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, id)
	}
	return e, nil
}

// Normalize rewrites a source catalog into its published collection: the ID,
// title, description, providers and license come from the table, provenance
// is recorded in "derived_from", child and license links are dropped and
// metadata and license links are added where the table has URLs.
func (t *Table) Normalize(col *stac.Collection) (*Entry, error) {
	e, err := t.BySource(col.Id)
	if err != nil {
		return nil, err
	}

	col.Id = e.ID
	col.Title = e.Title
	col.Description = e.Description
	col.License = e.License
	col.Providers = make([]*stac.Provider, 0, len(e.Providers))
	for _, p := range e.Providers {
		col.Providers = append(col.Providers, &stac.Provider{
			Name:  p.Name,
			Url:   p.URL,
			Roles: append([]string(nil), p.Roles...),
		})
	}
	col.SetField("derived_from", e.OriginalHref)

	col.RemoveLinks(stac.RelChild)
	col.RemoveLinks(stac.RelLicense)

	if e.Metadata != "" {
		col.AddLink(&stac.Link{Href: e.Metadata, Rel: stac.RelMetadata, Title: "Metadata"})
		col.AddAsset("metadata", &stac.Asset{
			Href:  e.Metadata,
			Title: "Metadata",
			Roles: []string{"metadata"},
		})
	}
	if e.LicenseURL != "" {
		col.AddLink(&stac.Link{Href: e.LicenseURL, Rel: stac.RelLicense, Title: "License"})
	}
	return e, nil
}

// PrepareItem strips the "license" foreign member and license links from an
// item. Asset roles need no work here: they are lists once decoded.
func PrepareItem(item *stac.Item) {
	item.DeleteField("license")
	item.RemoveLinks(stac.RelLicense)
}
