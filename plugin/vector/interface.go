// Package vector defines the vector index contract used by the retrieval layer.
// The index holds one collection per catalog; each point carries the product
// payload written by the ingestion jobs.
package vector

import "context"

// Payload is the product payload stored alongside each vector.
type Payload struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Brand       string  `json:"brand,omitempty"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url,omitempty"`
	URL         string  `json:"url,omitempty"`
}

// Point is a single similarity-search hit.
type Point struct {
	ID      string
	Score   float32
	Payload Payload
}

// SearchOptions controls a similarity search. Price bounds are always
// materialized: an unset minimum is 0 and an unset maximum is MaxPrice.
type SearchOptions struct {
	Limit      int
	PriceMin   float64
	PriceMax   float64
	ExcludeIDs []string
}

// MaxPrice is the upper bound applied when no maximum is requested.
const MaxPrice = 1_000_000

// Index is an approximate-nearest-neighbor index with named collections.
type Index interface {
	// Search runs a filtered similarity search against a collection.
	Search(ctx context.Context, collection string, vector []float32, opts SearchOptions) ([]Point, error)

	// CollectionExists reports whether a collection is searchable.
	CollectionExists(ctx context.Context, collection string) (bool, error)

	// Upsert writes points into a collection.
	Upsert(ctx context.Context, collection string, points []UpsertPoint) error

	// Scroll reads points in bulk without a query vector.
	Scroll(ctx context.Context, collection string, limit int) ([]Point, error)
}

// UpsertPoint is a point to be written into the index.
type UpsertPoint struct {
	ID      string
	Vector  []float32
	Payload Payload
}
