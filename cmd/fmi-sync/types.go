package main

import "github.com/robert-malhotra/fmi-stac-sync/pkg/stac"

type collectionSummary struct {
	Id          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	DerivedFrom string       `json:"derived_from,omitempty"`
	Extent      *stac.Extent `json:"extent"`
	Links       []*stac.Link `json:"links"`
}

func newCollectionSummary(collection *stac.Collection) *collectionSummary {
	return &collectionSummary{
		Id:          collection.Id,
		Title:       collection.Title,
		Description: collection.Description,
		DerivedFrom: collection.DerivedFrom(),
		Extent:      collection.Extent,
		Links:       collection.Links,
	}
}
