// Package translate maps STAC documents onto the GeoServer OSEO schema.
//
// Translation works on the decoded JSON dictionary of a STAC document, so it
// sees exactly what a catalog publishes, foreign members included. It is a
// pure function of its input and fails on the first missing required key.
package translate

import (
	"encoding/json"
	"fmt"

	"github.com/robert-malhotra/fmi-stac-sync/pkg/oseo"
	"github.com/robert-malhotra/fmi-stac-sync/pkg/stac"
)

// Translate dispatches on the document's "type": "Collection" or "Feature".
func Translate(doc map[string]any) (*oseo.Feature, error) {
	kind, err := getString(doc, "type")
	if err != nil {
		return nil, err
	}
	switch kind {
	case stac.CollectionType:
		return Collection(doc)
	case stac.ItemType:
		return Item(doc)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, kind)
}

// Collection translates a STAC collection into an OSEO collection feature.
// The footprint is the first bbox as a closed ring starting at the
// south-east corner and running counter-clockwise.
func Collection(doc map[string]any) (*oseo.Feature, error) {
	var bbox [4]float64
	for i := range bbox {
		v, err := getFloat(doc, "extent", "spatial", "bbox", 0, i)
		if err != nil {
			return nil, fmt.Errorf("translate collection: %w", err)
		}
		bbox[i] = v
	}
	minx, miny, maxx, maxy := bbox[0], bbox[1], bbox[2], bbox[3]

	f := oseo.NewFeature(oseo.Polygon{
		Type: "Polygon",
		Coordinates: [][][2]float64{{
			{maxx, miny},
			{maxx, maxy},
			{minx, maxy},
			{minx, miny},
			{maxx, miny},
		}},
	})

	fields := []struct {
		prop string
		path []any
	}{
		{"name", []any{"id"}},
		{"title", []any{"title"}},
		{"eo:identifier", []any{"id"}},
		{"description", []any{"description"}},
		{"timeStart", []any{"extent", "temporal", "interval", 0, 0}},
		{"timeEnd", []any{"extent", "temporal", "interval", 0, 1}},
		{"license", []any{"license"}},
		{"providers", []any{"providers"}},
	}
	for _, fd := range fields {
		v, err := get(doc, fd.path...)
		if err != nil {
			return nil, fmt.Errorf("translate collection: %w", err)
		}
		f.Properties[fd.prop] = v
	}
	f.Properties["primary"] = true

	derived, err := get(doc, "derived_from")
	if err != nil {
		return nil, fmt.Errorf("translate collection: %w", err)
	}
	f.Properties["derivedFrom"] = map[string]any{
		"href": derived,
		"rel":  stac.RelDerivedFrom,
		"type": "application/json",
	}
	f.Properties["queryables"] = []any{"eo:identifier"}

	if assets, ok := doc["assets"]; ok {
		f.Properties["assets"] = assets
	}

	rawLinks, err := get(doc, "links")
	if err != nil {
		return nil, fmt.Errorf("translate collection: %w", err)
	}
	links, ok := rawLinks.([]any)
	if !ok {
		return nil, fmt.Errorf("translate collection: %w", &FieldTypeError{Path: "links", Want: "array", Got: rawLinks})
	}
	for i := range links {
		rel, err := get(doc, "links", i, "rel")
		if err != nil {
			return nil, fmt.Errorf("translate collection: %w", err)
		}
		if rel != stac.RelLicense {
			continue
		}
		href, err := get(doc, "links", i, "href")
		if err != nil {
			return nil, fmt.Errorf("translate collection: %w", err)
		}
		f.Properties["licenseLink"] = map[string]any{
			"href": href,
			"rel":  stac.RelLicense,
			"type": "application/json",
		}
	}

	return f, nil
}

// Item translates a STAC item into an OSEO product feature. When neither
// start_datetime nor end_datetime is set, both time bounds take the value of
// "datetime".
func Item(doc map[string]any) (*oseo.Feature, error) {
	geometry, err := get(doc, "geometry")
	if err != nil {
		return nil, fmt.Errorf("translate item: %w", err)
	}
	f := oseo.NewFeature(geometry)

	fields := []struct {
		prop string
		path []any
	}{
		{"eop:identifier", []any{"id"}},
		{"eop:parentIdentifier", []any{"collection"}},
		{"eop:resolution", []any{"gsd"}},
		{"crs", []any{"proj:epsg"}},
		{"projTransform", []any{"proj:transform"}},
		{"assets", []any{"assets"}},
	}
	for _, fd := range fields {
		v, err := get(doc, fd.path...)
		if err != nil {
			return nil, fmt.Errorf("translate item: %w", err)
		}
		f.Properties[fd.prop] = v
	}

	if _, err := get(doc, "properties"); err != nil {
		return nil, fmt.Errorf("translate item: %w", err)
	}
	start, err := optional(doc, "properties", "start_datetime")
	if err != nil {
		return nil, fmt.Errorf("translate item: %w", err)
	}
	end, err := optional(doc, "properties", "end_datetime")
	if err != nil {
		return nil, fmt.Errorf("translate item: %w", err)
	}
	if start == nil && end == nil {
		dt, err := optional(doc, "properties", "datetime")
		if err != nil {
			return nil, fmt.Errorf("translate item: %w", err)
		}
		if dt != nil {
			start, end = dt, dt
		}
	}
	f.Properties["timeStart"] = start
	f.Properties["timeEnd"] = end

	return f, nil
}

// FromCollection translates a decoded collection.
func FromCollection(col *stac.Collection) (*oseo.Feature, error) {
	doc, err := toDict(col)
	if err != nil {
		return nil, err
	}
	return Collection(doc)
}

// FromItem translates a decoded item.
func FromItem(item *stac.Item) (*oseo.Feature, error) {
	doc, err := toDict(item)
	if err != nil {
		return nil, err
	}
	return Item(doc)
}

func toDict(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}
