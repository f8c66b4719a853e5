// Package stac provides types for working with SpatioTemporal Asset Catalog (STAC) data.
//
// This package implements STAC Catalog, Collection, Item, Link and Asset types with
// support for "foreign members": additional JSON fields not defined in the STAC
// specification, preserved in the AdditionalFields map.
//
// Decoding is lenient about two quirks found in static catalogs: a temporal
// interval published flat (["start","end"]) is stored nested, and asset roles
// published as a bare string are stored as a one-element list.
//
//	var item stac.Item
//	json.Unmarshal(data, &item)
//
//	key, asset := item.FirstAsset()
//	gsd := item.AdditionalFields["gsd"]
package stac
