package domain

import "context"

// CatalogClient: Network operations against the remote image catalog.
// Implementations hold no state beyond their configuration.
type CatalogClient interface {
	// ListPage returns one page of items in service order
	ListPage(ctx context.Context, limit, offset int) ([]Item, error)

	// GetByID returns one item; a missing item fails with ErrItemNotFound
	GetByID(ctx context.Context, id string) (*Item, error)
}
