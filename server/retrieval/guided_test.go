package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phantomdelux3/ai-product-reccomendation/plugin/ai"
	"github.com/phantomdelux3/ai-product-reccomendation/plugin/vector"
)

func TestGuidedRetrieve(t *testing.T) {
	index := vector.NewMockIndex()
	index.Seed("mother", []vector.UpsertPoint{
		{ID: "m1", Payload: vector.Payload{Title: "Silk scarf", Brand: "Acme", Price: 2200}},
		{ID: "m2", Payload: vector.Payload{Title: "Tea sampler", Brand: "Bolt", Price: 900}},
	})
	embedder := ai.NewMockEmbeddingService(4)
	retriever := NewRetriever(embedder, index, nil, "products")

	products, err := retriever.GuidedRetrieve(context.Background(), GuidedRequest{
		Recipient:    "Mom",
		ProductTypes: []string{"scarf"},
		Aesthetics:   []string{"elegant"},
		BudgetBucket: "1000_3000",
	})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "m1", products[0].ID)

	// Aesthetics come before product types in the query text.
	require.NotEmpty(t, embedder.Texts)
	assert.Equal(t, "elegant scarf", embedder.Texts[0])
}

func TestGuidedRetrieveUnknownCollection(t *testing.T) {
	retriever := NewRetriever(ai.NewMockEmbeddingService(4), vector.NewMockIndex(), nil, "products")

	products, err := retriever.GuidedRetrieve(context.Background(), GuidedRequest{
		Recipient: "colleague",
	})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestGuidedRetrieveFallbackQuery(t *testing.T) {
	index := vector.NewMockIndex()
	index.Seed("friend", []vector.UpsertPoint{
		{ID: "f1", Payload: vector.Payload{Title: "Board game", Price: 1800}},
	})
	embedder := ai.NewMockEmbeddingService(4)
	retriever := NewRetriever(embedder, index, nil, "products")

	products, err := retriever.GuidedRetrieve(context.Background(), GuidedRequest{
		Recipient: "friend",
	})
	require.NoError(t, err)
	assert.Len(t, products, 1)
	require.NotEmpty(t, embedder.Texts)
	assert.Equal(t, fallbackQuery, embedder.Texts[0])
}

func TestResolveCollection(t *testing.T) {
	assert.Equal(t, "mother", resolveCollection("MOM"))
	assert.Equal(t, "father", resolveCollection("dad"))
	assert.Equal(t, "girlfriend", resolveCollection(" Girlfriend "))
	assert.Equal(t, "sister", resolveCollection("Sister"))
}

func TestBudgetRanges(t *testing.T) {
	assert.Equal(t, [2]float64{0, 1000}, budgetRanges["under_1000"])
	assert.Equal(t, [2]float64{8000, vector.MaxPrice}, budgetRanges["8000_plus"])
}
