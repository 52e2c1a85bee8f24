package intent

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phantomdelux3/ai-product-reccomendation/plugin/ai"
)

func TestExtractParsesWellFormedResponse(t *testing.T) {
	completion := ai.NewMockCompletionService(`{"refined_query": "yoga mat gift", "target_collection": "girlfriend", "price_min": 500, "price_max": 3000, "missing_info": ["occasion"], "needs_clarification": false}`)
	extractor := NewExtractor(completion, "products")

	result := extractor.Extract(context.Background(), nil, "gift for girlfriend who likes yoga")
	assert.Equal(t, "yoga mat gift", result.RefinedQuery)
	assert.Equal(t, "girlfriend", result.TargetCollection)
	require.NotNil(t, result.PriceMin)
	assert.Equal(t, float64(500), *result.PriceMin)
	require.NotNil(t, result.PriceMax)
	assert.Equal(t, float64(3000), *result.PriceMax)
	assert.Equal(t, []string{"occasion"}, result.MissingInfo)
	assert.False(t, result.NeedsClarification)
}

func TestExtractToleratesCodeFences(t *testing.T) {
	completion := ai.NewMockCompletionService("```json\n{\"refined_query\": \"leather wallet\", \"target_collection\": \"Father\"}\n```")
	extractor := NewExtractor(completion, "products")

	result := extractor.Extract(context.Background(), nil, "wallet for dad")
	assert.Equal(t, "leather wallet", result.RefinedQuery)
	assert.Equal(t, "father", result.TargetCollection)
	assert.Nil(t, result.PriceMin)
	assert.Nil(t, result.PriceMax)
}

func TestExtractToleratesSurroundingProse(t *testing.T) {
	completion := ai.NewMockCompletionService(`Sure! Here is the intent: {"refined_query": "cozy blanket", "target_collection": "mother"} Hope that helps.`)
	extractor := NewExtractor(completion, "products")

	result := extractor.Extract(context.Background(), nil, "something warm for mom")
	assert.Equal(t, "cozy blanket", result.RefinedQuery)
	assert.Equal(t, "mother", result.TargetCollection)
}

func TestExtractDefaultsOnGarbage(t *testing.T) {
	for _, raw := range []string{
		"I could not determine the intent.",
		"{broken json",
		"",
	} {
		completion := ai.NewMockCompletionService(raw)
		extractor := NewExtractor(completion, "products")

		result := extractor.Extract(context.Background(), nil, "gift for my friend")
		assert.Equal(t, "gift for my friend", result.RefinedQuery, "raw=%q", raw)
		assert.Equal(t, "products", result.TargetCollection, "raw=%q", raw)
		assert.Nil(t, result.PriceMin)
		assert.Nil(t, result.PriceMax)
		assert.Empty(t, result.MissingInfo)
		assert.False(t, result.NeedsClarification)
	}
}

func TestExtractDefaultsOnProviderFailure(t *testing.T) {
	completion := &ai.MockCompletionService{Err: errors.New("connection refused")}
	extractor := NewExtractor(completion, "products")

	result := extractor.Extract(context.Background(), nil, "birthday gift")
	assert.Equal(t, "birthday gift", result.RefinedQuery)
	assert.Equal(t, "products", result.TargetCollection)
}

func TestExtractDefaultsPartialFields(t *testing.T) {
	completion := ai.NewMockCompletionService(`{"price_max": 5000, "needs_clarification": true}`)
	extractor := NewExtractor(completion, "products")

	result := extractor.Extract(context.Background(), nil, "my budget is 5000")
	assert.Equal(t, "my budget is 5000", result.RefinedQuery)
	assert.Equal(t, "products", result.TargetCollection)
	require.NotNil(t, result.PriceMax)
	assert.Equal(t, float64(5000), *result.PriceMax)
	assert.True(t, result.NeedsClarification)
}

func TestExtractSendsHistoryAsAlternatingTurns(t *testing.T) {
	completion := ai.NewMockCompletionService(`{"refined_query": "yoga accessories under 5000", "target_collection": "girlfriend", "price_max": 5000}`)
	extractor := NewExtractor(completion, "products")

	history := []Turn{
		{User: "gift for girlfriend who likes yoga", Assistant: "Here are a few ideas."},
	}
	result := extractor.Extract(context.Background(), history, "my budget is 5000")
	require.NotNil(t, result.PriceMax)
	assert.Equal(t, float64(5000), *result.PriceMax)
	assert.Equal(t, "girlfriend", result.TargetCollection)

	require.Len(t, completion.Calls, 1)
	sent := completion.Calls[0]
	require.Len(t, sent, 4)
	assert.Equal(t, "system", sent[0].Role)
	assert.Equal(t, "gift for girlfriend who likes yoga", sent[1].Content)
	assert.Equal(t, "assistant", sent[2].Role)
	assert.Equal(t, "my budget is 5000", sent[3].Content)
}
