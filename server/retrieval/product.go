// Package retrieval implements the multi-source product search behind a chat
// turn: query embedding, filtered vector search with catalog fallback, a
// brand-diversity merge over the candidate pool, and a secondary provider
// queried alongside the primary catalog.
package retrieval

import (
	"github.com/phantomdelux3/ai-product-reccomendation/plugin/vector"
)

// Source tags identifying where a product came from.
const (
	SourceCatalog = "catalog"
	SourceToastd  = "toastd"
)

// Product is one recommendation as rendered to the client.
type Product struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	URL         string  `json:"url"`
	Brand       string  `json:"brand,omitempty"`
	Description string  `json:"description,omitempty"`
	Score       float32 `json:"score"`
	Source      string  `json:"source"`
}

func fromPoint(p vector.Point) Product {
	return Product{
		ID:          p.ID,
		Title:       p.Payload.Title,
		Price:       p.Payload.Price,
		Image:       p.Payload.ImageURL,
		URL:         p.Payload.URL,
		Brand:       p.Payload.Brand,
		Description: p.Payload.Description,
		Score:       p.Score,
		Source:      SourceCatalog,
	}
}
