package translate

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/robert-malhotra/fmi-stac-sync/pkg/oseo"
	"github.com/robert-malhotra/fmi-stac-sync/pkg/stac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const collectionJSON = `{
	"type": "Collection",
	"stac_version": "1.0.0",
	"id": "sentinel_2_annual_mosaics_at_fmi",
	"title": "Sentinel-2 annual surface reflectance mosaics.",
	"description": "Resolution: 10m. Covered area: Finland.",
	"license": "CC-BY-4.0",
	"providers": [{"name": "FMI", "url": "https://en.ilmatieteenlaitos.fi/", "roles": ["host"]}],
	"derived_from": "https://pta.data.lit.fmi.fi/stac/catalog/Sentinel-2_global_mosaic_vuosi/Sentinel-2_global_mosaic_vuosi.json",
	"extent": {
		"spatial": {"bbox": [[19.0, 59.5, 31.6, 70.1]]},
		"temporal": {"interval": [["2017-01-01T00:00:00Z", "2023-12-31T00:00:00Z"]]}
	},
	"links": [
		{"rel": "self", "href": "https://example.com/collection.json"},
		{"rel": "license", "href": "https://ckan.ymparisto.fi/dataset/s2gm", "title": "License"}
	]
}`

const itemJSON = `{
	"type": "Feature",
	"stac_version": "1.0.0",
	"id": "Sentinel-2_global_mosaic_vuosi_2021",
	"collection": "sentinel_2_annual_mosaics_at_fmi",
	"geometry": {"type": "Polygon", "coordinates": [[[19, 59], [32, 59], [32, 71], [19, 71], [19, 59]]]},
	"properties": {
		"datetime": null,
		"start_datetime": "2021-06-01T00:00:00Z",
		"end_datetime": "2021-08-31T00:00:00Z"
	},
	"gsd": 10.0,
	"proj:epsg": "EPSG:3067",
	"proj:transform": [10, 0, 50000, 0, -10, 7800000, 0, 0, 1],
	"assets": {"b04": {"href": "https://example.com/b04.tif", "roles": ["data"]}},
	"links": []
}`

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &doc))
	return doc
}

func TestCollectionPolygonWinding(t *testing.T) {
	f, err := Collection(decode(t, collectionJSON))
	require.NoError(t, err)

	poly, ok := f.Geometry.(oseo.Polygon)
	require.True(t, ok)
	assert.Equal(t, "Polygon", poly.Type)
	require.Len(t, poly.Coordinates, 1)
	assert.Equal(t, [][2]float64{
		{31.6, 59.5},
		{31.6, 70.1},
		{19.0, 70.1},
		{19.0, 59.5},
		{31.6, 59.5},
	}, poly.Coordinates[0])
}

func TestCollectionProperties(t *testing.T) {
	f, err := Collection(decode(t, collectionJSON))
	require.NoError(t, err)

	p := f.Properties
	assert.Equal(t, "Feature", f.Type)
	assert.Equal(t, "sentinel_2_annual_mosaics_at_fmi", p["name"])
	assert.Equal(t, "sentinel_2_annual_mosaics_at_fmi", p["eo:identifier"])
	assert.Equal(t, "Sentinel-2 annual surface reflectance mosaics.", p["title"])
	assert.Equal(t, "2017-01-01T00:00:00Z", p["timeStart"])
	assert.Equal(t, "2023-12-31T00:00:00Z", p["timeEnd"])
	assert.Equal(t, true, p["primary"])
	assert.Equal(t, "CC-BY-4.0", p["license"])
	assert.Len(t, p["providers"], 1)
	assert.Equal(t, []any{"eo:identifier"}, p["queryables"])
	assert.Equal(t, map[string]any{
		"href": "https://pta.data.lit.fmi.fi/stac/catalog/Sentinel-2_global_mosaic_vuosi/Sentinel-2_global_mosaic_vuosi.json",
		"rel":  "derived_from",
		"type": "application/json",
	}, p["derivedFrom"])
	assert.Equal(t, map[string]any{
		"href": "https://ckan.ymparisto.fi/dataset/s2gm",
		"rel":  "license",
		"type": "application/json",
	}, p["licenseLink"])
	assert.NotContains(t, p, "assets")
}

func TestCollectionOptionalParts(t *testing.T) {
	doc := decode(t, collectionJSON)
	doc["links"] = []any{}
	doc["assets"] = map[string]any{"metadata": map[string]any{"href": "https://example.com/meta", "roles": []any{"metadata"}}}

	f, err := Collection(doc)
	require.NoError(t, err)
	assert.NotContains(t, f.Properties, "licenseLink")
	assert.Contains(t, f.Properties, "assets")
}

func TestItemKeepsStartEnd(t *testing.T) {
	f, err := Item(decode(t, itemJSON))
	require.NoError(t, err)

	p := f.Properties
	assert.Equal(t, "2021-06-01T00:00:00Z", p["timeStart"])
	assert.Equal(t, "2021-08-31T00:00:00Z", p["timeEnd"])
	assert.Equal(t, "Sentinel-2_global_mosaic_vuosi_2021", p["eop:identifier"])
	assert.Equal(t, "sentinel_2_annual_mosaics_at_fmi", p["eop:parentIdentifier"])
	assert.Equal(t, 10.0, p["eop:resolution"])
	assert.Equal(t, "EPSG:3067", p["crs"])
	assert.Len(t, p["projTransform"], 9)
	assert.Contains(t, p["assets"], "b04")
	assert.Equal(t, "Polygon", f.Geometry.(map[string]any)["type"])
}

func TestItemFallsBackToDatetime(t *testing.T) {
	tests := []struct {
		name       string
		properties map[string]any
		wantStart  any
		wantEnd    any
	}{
		{
			name:       "null start and end",
			properties: map[string]any{"datetime": "2021-07-01T00:00:00Z", "start_datetime": nil, "end_datetime": nil},
			wantStart:  "2021-07-01T00:00:00Z",
			wantEnd:    "2021-07-01T00:00:00Z",
		},
		{
			name:       "absent start and end",
			properties: map[string]any{"datetime": "2021-07-01T00:00:00Z"},
			wantStart:  "2021-07-01T00:00:00Z",
			wantEnd:    "2021-07-01T00:00:00Z",
		},
		{
			name:       "only start set",
			properties: map[string]any{"datetime": "2021-07-01T00:00:00Z", "start_datetime": "2021-01-01T00:00:00Z"},
			wantStart:  "2021-01-01T00:00:00Z",
			wantEnd:    nil,
		},
		{
			name:       "nothing set",
			properties: map[string]any{"datetime": nil},
			wantStart:  nil,
			wantEnd:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := decode(t, itemJSON)
			doc["properties"] = tt.properties

			f, err := Item(doc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, f.Properties["timeStart"])
			assert.Equal(t, tt.wantEnd, f.Properties["timeEnd"])
		})
	}
}

func TestMissingFieldsFailLoudly(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		remove func(map[string]any)
		path   string
	}{
		{"collection bbox", collectionJSON, func(d map[string]any) {
			d["extent"].(map[string]any)["spatial"] = map[string]any{}
		}, "extent.spatial.bbox"},
		{"collection short bbox", collectionJSON, func(d map[string]any) {
			d["extent"].(map[string]any)["spatial"] = map[string]any{"bbox": []any{[]any{1.0, 2.0}}}
		}, "extent.spatial.bbox[0][2]"},
		{"collection derived_from", collectionJSON, func(d map[string]any) { delete(d, "derived_from") }, "derived_from"},
		{"collection providers", collectionJSON, func(d map[string]any) { delete(d, "providers") }, "providers"},
		{"collection links", collectionJSON, func(d map[string]any) { delete(d, "links") }, "links"},
		{"item gsd", itemJSON, func(d map[string]any) { delete(d, "gsd") }, "gsd"},
		{"item proj:epsg", itemJSON, func(d map[string]any) { delete(d, "proj:epsg") }, "proj:epsg"},
		{"item collection", itemJSON, func(d map[string]any) { delete(d, "collection") }, "collection"},
		{"item properties", itemJSON, func(d map[string]any) { delete(d, "properties") }, "properties"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := decode(t, tt.src)
			tt.remove(doc)

			f, err := Translate(doc)
			require.Error(t, err)
			assert.Nil(t, f)
			assert.True(t, errors.Is(err, ErrMissingField))

			var mf *MissingFieldError
			require.True(t, errors.As(err, &mf))
			assert.Equal(t, tt.path, mf.Path)
		})
	}
}

func TestMalformedFields(t *testing.T) {
	doc := decode(t, collectionJSON)
	doc["extent"].(map[string]any)["spatial"] = map[string]any{"bbox": []any{[]any{"a", 1.0, 2.0, 3.0}}}

	_, err := Collection(doc)
	assert.True(t, errors.Is(err, ErrInvalidField))

	doc = decode(t, itemJSON)
	doc["properties"] = "not an object"
	_, err = Item(doc)
	assert.True(t, errors.Is(err, ErrInvalidField))
}

func TestTranslateDispatch(t *testing.T) {
	f, err := Translate(decode(t, collectionJSON))
	require.NoError(t, err)
	assert.Contains(t, f.Properties, "eo:identifier")

	f, err = Translate(decode(t, itemJSON))
	require.NoError(t, err)
	assert.Contains(t, f.Properties, "eop:identifier")

	_, err = Translate(map[string]any{"type": "Catalog"})
	assert.True(t, errors.Is(err, ErrUnknownType))

	_, err = Translate(map[string]any{})
	assert.True(t, errors.Is(err, ErrMissingField))
}

func TestTranslationIsDeterministic(t *testing.T) {
	for _, src := range []string{collectionJSON, itemJSON} {
		doc := decode(t, src)

		first, err := Translate(doc)
		require.NoError(t, err)
		second, err := Translate(doc)
		require.NoError(t, err)

		a, err := json.Marshal(first)
		require.NoError(t, err)
		b, err := json.Marshal(second)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))
		assert.Equal(t, decode(t, src), doc, "input must not be mutated")
	}
}

func TestFromTypedDocuments(t *testing.T) {
	var col stac.Collection
	require.NoError(t, json.Unmarshal([]byte(collectionJSON), &col))
	f, err := FromCollection(&col)
	require.NoError(t, err)
	assert.Equal(t, "sentinel_2_annual_mosaics_at_fmi", f.Properties["name"])

	var item stac.Item
	require.NoError(t, json.Unmarshal([]byte(itemJSON), &item))
	f, err = FromItem(&item)
	require.NoError(t, err)
	assert.Equal(t, "EPSG:3067", f.Properties["crs"])
	assert.Equal(t, "2021-06-01T00:00:00Z", f.Properties["timeStart"])
}
