package retrieval

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/phantomdelux3/ai-product-reccomendation/plugin/ai"
	"github.com/phantomdelux3/ai-product-reccomendation/plugin/ai/intent"
	"github.com/phantomdelux3/ai-product-reccomendation/plugin/vector"
)

const (
	// displayLimit is the number of primary products returned per turn.
	displayLimit = 10
	// oversample pads the search pool so the diversity merge has material.
	oversample = 6
	// secondaryLimit caps the secondary provider's result set.
	secondaryLimit = 5
)

// Request carries one retrieval call's inputs beyond the extracted intent.
type Request struct {
	Intent     intent.Intent
	ExcludeIDs []string
	SeenBrands []string
	IsReload   bool
}

// Result holds both retrieval sources' outputs.
type Result struct {
	Primary   []Product
	Secondary []Product
}

// Retriever runs the multi-source search for a turn.
type Retriever struct {
	embedder          ai.EmbeddingService
	index             vector.Index
	secondary         SecondarySearcher
	genericCollection string
}

func NewRetriever(embedder ai.EmbeddingService, index vector.Index, secondary SecondarySearcher, genericCollection string) *Retriever {
	return &Retriever{
		embedder:          embedder,
		index:             index,
		secondary:         secondary,
		genericCollection: genericCollection,
	}
}

// Retrieve embeds the refined query, searches the target catalog (falling
// back to the generic catalog on zero hits), diversifies the pool, and
// queries the secondary provider concurrently. A secondary failure degrades
// to primary-only results; embedding or primary-search failures are fatal to
// the turn.
func (r *Retriever) Retrieve(ctx context.Context, req Request) (Result, error) {
	embedding, err := r.embedder.Embed(ctx, req.Intent.RefinedQuery)
	if err != nil {
		return Result{}, errors.Wrap(err, "failed to embed query")
	}

	priceMin, priceMax := priceBounds(req.Intent)
	opts := vector.SearchOptions{
		Limit:      displayLimit * oversample,
		PriceMin:   priceMin,
		PriceMax:   priceMax,
		ExcludeIDs: req.ExcludeIDs,
	}

	var pool []vector.Point
	var secondary []Product

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		points, err := r.index.Search(groupCtx, req.Intent.TargetCollection, embedding, opts)
		if err != nil {
			return errors.Wrapf(err, "failed to search collection %s", req.Intent.TargetCollection)
		}
		if len(points) == 0 && req.Intent.TargetCollection != r.genericCollection {
			points, err = r.index.Search(groupCtx, r.genericCollection, embedding, opts)
			if err != nil {
				return errors.Wrapf(err, "failed to search collection %s", r.genericCollection)
			}
		}
		pool = points
		return nil
	})
	group.Go(func() error {
		if r.secondary == nil {
			return nil
		}
		products, err := r.secondary.Search(groupCtx, req.Intent.RefinedQuery, secondaryLimit, priceMin, priceMax)
		if err != nil {
			// Secondary results are a bonus, never a turn failure.
			slog.Warn("secondary provider search failed", slog.String("error", err.Error()))
			return nil
		}
		secondary = products
		return nil
	})
	if err := group.Wait(); err != nil {
		return Result{}, err
	}

	candidates := make([]Product, 0, len(pool))
	for _, p := range pool {
		candidates = append(candidates, fromPoint(p))
	}

	return Result{
		Primary:   Diversify(candidates, req.SeenBrands, displayLimit),
		Secondary: secondary,
	}, nil
}

// priceBounds materializes the intent's optional bounds into the filter range.
func priceBounds(it intent.Intent) (float64, float64) {
	min, max := 0.0, float64(vector.MaxPrice)
	if it.PriceMin != nil && *it.PriceMin > 0 {
		min = *it.PriceMin
	}
	if it.PriceMax != nil && *it.PriceMax > 0 {
		max = *it.PriceMax
	}
	return min, max
}
