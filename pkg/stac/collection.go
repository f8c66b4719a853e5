package stac

import "encoding/json"

// CollectionType is the STAC type for Collections.
const CollectionType = "Collection"

// Collection represents a STAC Collection with support for foreign members.
type Collection struct {
	Type        string            `json:"type,omitempty"`
	Version     string            `json:"stac_version"`
	Extensions  []string          `json:"stac_extensions,omitempty"`
	Id          string            `json:"id"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description"`
	Keywords    []string          `json:"keywords,omitempty"`
	License     string            `json:"license"`
	Providers   []*Provider       `json:"providers,omitempty"`
	Extent      *Extent           `json:"extent"`
	Summaries   map[string]any    `json:"summaries,omitempty"`
	Links       []*Link           `json:"links"`
	Assets      map[string]*Asset `json:"assets,omitempty"`

	// AdditionalFields holds foreign members not defined in the STAC spec.
	AdditionalFields map[string]any `json:"-"`
}

var knownCollectionFields = map[string]bool{
	"type": true, "stac_version": true, "stac_extensions": true,
	"id": true, "title": true, "description": true, "keywords": true,
	"license": true, "providers": true, "extent": true, "summaries": true,
	"links": true, "assets": true,
}

// UnmarshalJSON implements custom unmarshaling to capture foreign members.
func (col *Collection) UnmarshalJSON(data []byte) error {
	type collectionAlias Collection
	var aux collectionAlias
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*col = Collection(aux)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	col.AdditionalFields = make(map[string]any)
	for key, val := range raw {
		if !knownCollectionFields[key] {
			var decoded any
			if err := json.Unmarshal(val, &decoded); err != nil {
				continue
			}
			col.AdditionalFields[key] = decoded
		}
	}

	return nil
}

// MarshalJSON implements custom marshaling to include foreign members.
func (col Collection) MarshalJSON() ([]byte, error) {
	type collectionAlias Collection
	return marshalWithForeign(collectionAlias(col), col.AdditionalFields)
}

// ChildLinks returns the links to sub-catalogs and sub-collections.
func (col *Collection) ChildLinks() []*Link {
	return FilterLinks(col.Links, RelChild)
}

// ItemLinks returns the links to the collection's items.
func (col *Collection) ItemLinks() []*Link {
	return FilterLinks(col.Links, RelItem)
}

// RemoveLinks drops every link with the given rel.
func (col *Collection) RemoveLinks(rel string) {
	col.Links = RemoveLinks(col.Links, rel)
}

// AddLink appends a link.
func (col *Collection) AddLink(link *Link) {
	col.Links = append(col.Links, link)
}

// AddAsset sets an asset under key.
func (col *Collection) AddAsset(key string, asset *Asset) {
	if col.Assets == nil {
		col.Assets = make(map[string]*Asset)
	}
	col.Assets[key] = asset
}

// SetField sets a foreign member.
func (col *Collection) SetField(key string, value any) {
	if col.AdditionalFields == nil {
		col.AdditionalFields = make(map[string]any)
	}
	col.AdditionalFields[key] = value
}

// DerivedFrom returns the href of the collection's provenance: the
// "derived_from" link when present, else the "derived_from" foreign member.
func (col *Collection) DerivedFrom() string {
	if l := FindLink(col.Links, RelDerivedFrom); l != nil && l.Href != "" {
		return l.Href
	}
	if s, ok := col.AdditionalFields["derived_from"].(string); ok {
		return s
	}
	return ""
}
