package stac

import (
	"encoding/json"
	"fmt"
)

// Asset represents a STAC Asset with support for additional fields.
type Asset struct {
	Type        string   `json:"type,omitempty"`
	Href        string   `json:"href"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Created     string   `json:"created,omitempty"`
	Roles       []string `json:"roles,omitempty"`

	// AdditionalFields holds foreign members from extensions (e.g., "eo:bands").
	AdditionalFields map[string]any `json:"-"`
}

var knownAssetFields = map[string]bool{
	"type": true, "href": true, "title": true, "description": true,
	"created": true, "roles": true,
}

// UnmarshalJSON implements custom unmarshaling to capture foreign members.
// Some catalogs publish "roles" as a bare string; it is read as a
// one-element list.
func (asset *Asset) UnmarshalJSON(data []byte) error {
	type assetAlias Asset
	var aux struct {
		assetAlias
		Roles json.RawMessage `json:"roles,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*asset = Asset(aux.assetAlias)

	roles, err := decodeRoles(aux.Roles)
	if err != nil {
		return err
	}
	asset.Roles = roles

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	asset.AdditionalFields = make(map[string]any)
	for key, val := range raw {
		if !knownAssetFields[key] {
			var decoded any
			if err := json.Unmarshal(val, &decoded); err != nil {
				continue
			}
			asset.AdditionalFields[key] = decoded
		}
	}

	return nil
}

func decodeRoles(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return nil, nil
		}
		return []string{single}, nil
	}

	var list []*string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("invalid asset roles %s: %w", raw, err)
	}
	roles := make([]string, 0, len(list))
	for _, r := range list {
		if r != nil && *r != "" {
			roles = append(roles, *r)
		}
	}
	return roles, nil
}

// MarshalJSON implements custom marshaling to include foreign members.
func (asset Asset) MarshalJSON() ([]byte, error) {
	type assetAlias Asset
	return marshalWithForeign(assetAlias(asset), asset.AdditionalFields)
}
