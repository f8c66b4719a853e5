package stac

import (
	"encoding/json"
	"sort"
)

// ItemType is the GeoJSON type of a STAC Item.
const ItemType = "Feature"

// Item represents a STAC Item (GeoJSON Feature) with support for foreign members.
type Item struct {
	Type       string            `json:"type,omitempty"`
	Version    string            `json:"stac_version"`
	Extensions []string          `json:"stac_extensions,omitempty"`
	Id         string            `json:"id"`
	Geometry   any               `json:"geometry"`
	Bbox       []float64         `json:"bbox,omitempty"`
	Properties map[string]any    `json:"properties"`
	Links      []*Link           `json:"links"`
	Assets     map[string]*Asset `json:"assets"`
	Collection string            `json:"collection,omitempty"`

	// AdditionalFields holds foreign members not defined in the STAC spec.
	AdditionalFields map[string]any `json:"-"`

	// assetKeys records the asset order of the decoded document.
	assetKeys []string
}

var knownItemFields = map[string]bool{
	"type": true, "stac_version": true, "stac_extensions": true,
	"id": true, "geometry": true, "bbox": true, "properties": true,
	"links": true, "assets": true, "collection": true,
}

// UnmarshalJSON implements custom unmarshaling to capture foreign members.
func (item *Item) UnmarshalJSON(data []byte) error {
	type itemAlias Item
	var aux itemAlias
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*item = Item(aux)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	keys, err := objectKeys(raw["assets"])
	if err != nil {
		return err
	}
	item.assetKeys = keys

	item.AdditionalFields = make(map[string]any)
	for key, val := range raw {
		if !knownItemFields[key] {
			var decoded any
			if err := json.Unmarshal(val, &decoded); err != nil {
				continue
			}
			item.AdditionalFields[key] = decoded
		}
	}

	return nil
}

// MarshalJSON implements custom marshaling to include foreign members.
func (item Item) MarshalJSON() ([]byte, error) {
	type itemAlias Item
	return marshalWithForeign(itemAlias(item), item.AdditionalFields)
}

// AssetKeys returns the asset keys in document order. Keys added after
// decoding, or on items built in code, follow in lexical order.
func (item *Item) AssetKeys() []string {
	seen := make(map[string]bool, len(item.Assets))
	keys := make([]string, 0, len(item.Assets))
	for _, k := range item.assetKeys {
		if _, ok := item.Assets[k]; ok && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	var rest []string
	for k := range item.Assets {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// FirstAsset returns the first asset of the item, or nil when it has none.
func (item *Item) FirstAsset() (string, *Asset) {
	keys := item.AssetKeys()
	if len(keys) == 0 {
		return "", nil
	}
	return keys[0], item.Assets[keys[0]]
}

// SetField sets a foreign member.
func (item *Item) SetField(key string, value any) {
	if item.AdditionalFields == nil {
		item.AdditionalFields = make(map[string]any)
	}
	item.AdditionalFields[key] = value
}

// DeleteField removes a foreign member.
func (item *Item) DeleteField(key string) {
	delete(item.AdditionalFields, key)
}

// RemoveLinks drops every link with the given rel.
func (item *Item) RemoveLinks(rel string) {
	item.Links = RemoveLinks(item.Links, rel)
}
