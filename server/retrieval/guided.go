package retrieval

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/phantomdelux3/ai-product-reccomendation/plugin/vector"
)

const guidedLimit = 20

// fallbackQuery is searched when the caller gave neither aesthetics nor
// product types.
const fallbackQuery = "thoughtful gift"

// budgetRanges maps the discrete budget buckets exposed by the guided flow to
// price filter bounds. The table is a fixed policy, not extensible by input.
var budgetRanges = map[string][2]float64{
	"under_1000": {0, 1000},
	"1000_3000":  {1000, 3000},
	"3000_8000":  {3000, 8000},
	"8000_plus":  {8000, vector.MaxPrice},
}

// recipientCollections routes well-known recipients to their catalogs.
// Unknown recipients fall through to their lowercased name.
var recipientCollections = map[string]string{
	"girlfriend": "girlfriend",
	"boyfriend":  "boyfriend",
	"mother":     "mother",
	"mom":        "mother",
	"father":     "father",
	"dad":        "father",
	"friend":     "friend",
}

// GuidedRequest is the structured alternative to free-text intent extraction.
type GuidedRequest struct {
	Recipient    string
	ProductTypes []string
	Aesthetics   []string
	BudgetBucket string
}

// GuidedRetrieve runs a single catalog search from structured inputs. It
// skips intent extraction and the diversity merge: results come back in raw
// similarity order. A recipient whose catalog does not exist yields an empty
// list, not an error.
func (r *Retriever) GuidedRetrieve(ctx context.Context, req GuidedRequest) ([]Product, error) {
	collection := resolveCollection(req.Recipient)
	exists, err := r.index.CollectionExists(ctx, collection)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check collection %s", collection)
	}
	if !exists {
		return []Product{}, nil
	}

	query := strings.TrimSpace(strings.Join(append(append([]string{}, req.Aesthetics...), req.ProductTypes...), " "))
	if query == "" {
		query = fallbackQuery
	}

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed query")
	}

	priceMin, priceMax := 0.0, float64(vector.MaxPrice)
	if bounds, ok := budgetRanges[req.BudgetBucket]; ok {
		priceMin, priceMax = bounds[0], bounds[1]
	}

	points, err := r.index.Search(ctx, collection, embedding, vector.SearchOptions{
		Limit:    guidedLimit,
		PriceMin: priceMin,
		PriceMax: priceMax,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to search collection %s", collection)
	}

	products := make([]Product, 0, len(points))
	for _, p := range points {
		products = append(products, fromPoint(p))
	}
	return products, nil
}

func resolveCollection(recipient string) string {
	key := strings.ToLower(strings.TrimSpace(recipient))
	if collection, ok := recipientCollections[key]; ok {
		return collection
	}
	return key
}
