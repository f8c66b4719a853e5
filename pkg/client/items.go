package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/url"

	"github.com/robert-malhotra/fmi-stac-sync/pkg/stac"
)

// GetItem fetches an individual item from a collection.
func (c *Client) GetItem(ctx context.Context, collectionID, itemID string) (*stac.Item, error) {
	if collectionID == "" {
		return nil, fmt.Errorf("collection ID cannot be empty")
	}
	if itemID == "" {
		return nil, fmt.Errorf("item ID cannot be empty")
	}

	u := c.baseURL.JoinPath("collections", collectionID, "items", itemID)

	var item stac.Item
	if err := c.getJSON(ctx, u.String(), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItems iterates over every item of a collection, following pagination.
func (c *Client) GetItems(ctx context.Context, collectionID string) iter.Seq2[*stac.Item, error] {
	if collectionID == "" {
		return func(y func(*stac.Item, error) bool) {
			y(nil, fmt.Errorf("collection ID cannot be empty"))
		}
	}

	start := fmt.Sprintf("collections/%s/items", url.PathEscape(collectionID))

	return iteratePages[stac.Item](ctx, c, start,
		func(r io.Reader) ([]*stac.Item, []*stac.Link, error) {
			var page stac.ItemsList
			err := json.NewDecoder(r).Decode(&page)
			return page.Features, page.Links, err
		})
}

// ItemIDs collects the identifiers of every item in a collection.
func (c *Client) ItemIDs(ctx context.Context, collectionID string) ([]string, error) {
	var ids []string
	for item, err := range c.GetItems(ctx, collectionID) {
		if err != nil {
			return nil, err
		}
		ids = append(ids, item.Id)
	}
	return ids, nil
}

// FetchItem fetches an item document from a static catalog. href may be
// absolute or relative to the client's base URL. The returned string is the
// absolute URL the document was read from.
func (c *Client) FetchItem(ctx context.Context, href string) (*stac.Item, string, error) {
	u, err := c.resolve(href)
	if err != nil {
		return nil, "", err
	}

	var item stac.Item
	if err := c.getJSON(ctx, u, &item); err != nil {
		return nil, "", err
	}
	return &item, u, nil
}
