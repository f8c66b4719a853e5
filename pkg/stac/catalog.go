package stac

import (
	"encoding/json"
	"fmt"
)

// CatalogType is the STAC type for Catalogs (always "Catalog").
const CatalogType = "Catalog"

// Catalog represents a STAC Catalog with support for foreign members.
// The Type field is implicit and always "Catalog" per the STAC specification.
type Catalog struct {
	Version     string   `json:"stac_version"`
	Extensions  []string `json:"stac_extensions,omitempty"`
	ID          string   `json:"id"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description"`
	Links       []*Link  `json:"links"`
	ConformsTo  []string `json:"conformsTo,omitempty"`

	// AdditionalFields holds foreign members not defined in the STAC spec.
	AdditionalFields map[string]any `json:"-"`
}

var knownCatalogFields = map[string]bool{
	"type": true, "stac_version": true, "stac_extensions": true,
	"id": true, "title": true, "description": true, "links": true,
	"conformsTo": true,
}

// UnmarshalJSON implements custom unmarshaling to capture foreign members.
func (cat *Catalog) UnmarshalJSON(data []byte) error {
	type catalogAlias Catalog
	var aux catalogAlias
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*cat = Catalog(aux)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if typeVal, ok := raw["type"]; ok {
		var t string
		if err := json.Unmarshal(typeVal, &t); err == nil && t != "" && t != CatalogType {
			return fmt.Errorf("invalid catalog type: expected %q, got %q", CatalogType, t)
		}
	}

	cat.AdditionalFields = make(map[string]any)
	for key, val := range raw {
		if !knownCatalogFields[key] {
			var decoded any
			if err := json.Unmarshal(val, &decoded); err != nil {
				continue
			}
			cat.AdditionalFields[key] = decoded
		}
	}

	return nil
}

// MarshalJSON implements custom marshaling to include foreign members.
// The type field is always set to "Catalog".
func (cat Catalog) MarshalJSON() ([]byte, error) {
	type catalogAlias Catalog
	aux := struct {
		Type string `json:"type"`
		catalogAlias
	}{CatalogType, catalogAlias(cat)}
	return marshalWithForeign(aux, cat.AdditionalFields)
}
