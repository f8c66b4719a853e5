package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"

	"github.com/robert-malhotra/fmi-stac-sync/pkg/stac"
)

// GetCollection fetches a single collection document by ID.
func (c *Client) GetCollection(ctx context.Context, collectionID string) (*stac.Collection, error) {
	if collectionID == "" {
		return nil, fmt.Errorf("collection ID cannot be empty")
	}

	u := c.baseURL.JoinPath("collections", collectionID)

	var col stac.Collection
	if err := c.getJSON(ctx, u.String(), &col); err != nil {
		return nil, err
	}
	return &col, nil
}

// GetCollections iterates over every collection exposed by the STAC API
// referenced by the client. It transparently follows rel="next" links.
// The iteration stops when the consumer returns false or
// when there are no further pages.
func (c *Client) GetCollections(ctx context.Context) iter.Seq2[*stac.Collection, error] {
	return iteratePages[stac.Collection](ctx, c, "collections",
		func(r io.Reader) ([]*stac.Collection, []*stac.Link, error) {
			var page stac.CollectionsList
			err := json.NewDecoder(r).Decode(&page)
			return page.Collections, page.Links, err
		})
}

// FetchCollection fetches a collection document from a static catalog. href
// may be absolute or relative to the client's base URL. The returned string
// is the absolute URL the document was read from, which relative links inside
// it resolve against.
func (c *Client) FetchCollection(ctx context.Context, href string) (*stac.Collection, string, error) {
	u, err := c.resolve(href)
	if err != nil {
		return nil, "", err
	}

	var col stac.Collection
	if err := c.getJSON(ctx, u, &col); err != nil {
		return nil, "", err
	}
	return &col, u, nil
}
