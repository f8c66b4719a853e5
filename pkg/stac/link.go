package stac

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// Common link relation types.
const (
	RelSelf        = "self"
	RelRoot        = "root"
	RelParent      = "parent"
	RelChild       = "child"
	RelItem        = "item"
	RelNext        = "next"
	RelLicense     = "license"
	RelMetadata    = "metadata"
	RelCollection  = "collection"
	RelDerivedFrom = "derived_from"
)

// Link represents a STAC Link with support for additional fields.
type Link struct {
	Href  string `json:"href"`
	Rel   string `json:"rel"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`

	// AdditionalFields holds foreign members (e.g., "method", "body" for POST links).
	AdditionalFields map[string]any `json:"-"`
}

var knownLinkFields = map[string]bool{
	"href": true, "rel": true, "type": true, "title": true,
}

// UnmarshalJSON implements custom unmarshaling to capture foreign members.
func (link *Link) UnmarshalJSON(data []byte) error {
	type linkAlias Link
	var aux linkAlias
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*link = Link(aux)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	link.AdditionalFields = make(map[string]any)
	for key, val := range raw {
		if !knownLinkFields[key] {
			var decoded any
			if err := json.Unmarshal(val, &decoded); err != nil {
				continue
			}
			link.AdditionalFields[key] = decoded
		}
	}

	return nil
}

// MarshalJSON implements custom marshaling to include foreign members.
func (link Link) MarshalJSON() ([]byte, error) {
	type linkAlias Link
	return marshalWithForeign(linkAlias(link), link.AdditionalFields)
}

// Resolve returns the link target as an absolute URL, resolving a relative
// href against base (the URL of the document that carried the link).
func (link *Link) Resolve(base string) (string, error) {
	return ResolveHref(base, link.Href)
}

// ResolveHref resolves href against base. An absolute href is returned as is;
// a relative href with an empty base is an error.
func ResolveHref(base, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid href %q: %w", href, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	if base == "" {
		return "", fmt.Errorf("cannot resolve relative href %q without a base", href)
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base %q: %w", base, err)
	}
	return b.ResolveReference(ref).String(), nil
}

// FindLink returns the first link with the given rel, or nil.
func FindLink(links []*Link, rel string) *Link {
	for _, l := range links {
		if l != nil && l.Rel == rel {
			return l
		}
	}
	return nil
}

// FilterLinks returns every link with the given rel, in order.
func FilterLinks(links []*Link, rel string) []*Link {
	var out []*Link
	for _, l := range links {
		if l != nil && l.Rel == rel {
			out = append(out, l)
		}
	}
	return out
}

// RemoveLinks returns links without any link of the given rel.
func RemoveLinks(links []*Link, rel string) []*Link {
	out := make([]*Link, 0, len(links))
	for _, l := range links {
		if l != nil && l.Rel != rel {
			out = append(out, l)
		}
	}
	return out
}
