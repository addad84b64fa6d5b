package search

import (
	"listing-catalog/internal/models"

	"github.com/meilisearch/meilisearch-go"
)

type Client struct {
	client *meilisearch.Client
	index  string
}

func NewClient(host, apiKey string) *Client {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &Client{
		client: client,
		index:  "listings",
	}
}

// InitIndex initializes the Meilisearch index
func (c *Client) InitIndex() error {
	_, err := c.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        c.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && err.Error() != "index already exists" {
		return err
	}

	_, err = c.client.Index(c.index).UpdateSearchableAttributes(&[]string{
		"title",
		"description",
		"address",
		"property_type",
	})
	if err != nil {
		return err
	}

	_, err = c.client.Index(c.index).UpdateFilterableAttributes(&[]string{
		"id",
		"owner_id",
		"status",
		"archived",
		"price",
		"bedrooms",
		"property_type",
	})
	if err != nil {
		return err
	}

	_, err = c.client.Index(c.index).UpdateSortableAttributes(&[]string{
		"price",
		"square_footage",
		"created_at",
	})
	return err
}

// IndexListing indexes a single listing
func (c *Client) IndexListing(l *models.Listing) error {
	_, err := c.client.Index(c.index).AddDocuments([]models.Listing{*l})
	return err
}

// IndexListings indexes multiple listings (used by full reindex)
func (c *Client) IndexListings(listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	_, err := c.client.Index(c.index).AddDocuments(listings)
	return err
}

// RemoveListing deletes a listing document from the index
func (c *Client) RemoveListing(id string) error {
	_, err := c.client.Index(c.index).DeleteDocument(id)
	return err
}
