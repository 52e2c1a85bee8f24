package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phantomdelux3/ai-product-reccomendation/plugin/vector"
)

func TestSearchBuildsFilterAndParsesPayload(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/girlfriend/points/search", r.URL.Path)
		require.Equal(t, "secret", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{
					"id":    "p1",
					"score": 0.92,
					"payload": map[string]any{
						"title":     "Cork Yoga Mat",
						"brand":     "asana",
						"price":     1499.0,
						"image_url": "https://cdn.example/mat.jpg",
						"url":       "https://shop.example/mat",
					},
				},
				{
					"id":    "p2",
					"score": 0.88,
					"payload": map[string]any{
						"name":              "Scented Candle",
						"short_description": "lavender",
						"price_numeric":     899.0,
						"main_image":        "https://cdn.example/candle.jpg",
						"product_url":       "https://shop.example/candle",
					},
				},
			},
		})
	}))
	defer server.Close()

	idx := New(Config{URL: server.URL, APIKey: "secret"})
	points, err := idx.Search(context.Background(), "girlfriend", []float32{0.1, 0.2}, vector.SearchOptions{
		Limit:      60,
		PriceMin:   500,
		PriceMax:   5000,
		ExcludeIDs: []string{"old1", "old2"},
	})
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "p1", points[0].ID)
	assert.Equal(t, "Cork Yoga Mat", points[0].Payload.Title)
	assert.Equal(t, "asana", points[0].Payload.Brand)
	assert.InDelta(t, 1499, points[0].Payload.Price, 0.01)

	// Old-generation payload fields resolve too.
	assert.Equal(t, "Scented Candle", points[1].Payload.Title)
	assert.Equal(t, "lavender", points[1].Payload.Description)
	assert.Equal(t, "https://cdn.example/candle.jpg", points[1].Payload.ImageURL)
	assert.InDelta(t, 899, points[1].Payload.Price, 0.01)

	// Filter wire format.
	filter := captured["filter"].(map[string]any)
	must := filter["must"].([]any)
	require.Len(t, must, 1)
	rng := must[0].(map[string]any)["range"].(map[string]any)
	assert.InDelta(t, 500, rng["gte"], 0.01)
	assert.InDelta(t, 5000, rng["lte"], 0.01)

	mustNot := filter["must_not"].([]any)
	require.Len(t, mustNot, 1)
	assert.ElementsMatch(t, []any{"old1", "old2"}, mustNot[0].(map[string]any)["has_id"])
}

func TestSearchDecodesStringAndNumericIDs(t *testing.T) {
	// The ingestion jobs mint UUID string ids; older collections hold plain
	// unsigned integers. Both must decode.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"result": [
			{"id": "a81bc81b-dead-4e5d-abff-90865d1e13b1", "score": 0.92, "payload": {"title": "Cork Yoga Mat", "price": 1499}},
			{"id": 42, "score": 0.88, "payload": {"title": "Scented Candle", "price": 899}}
		]}`))
	}))
	defer server.Close()

	idx := New(Config{URL: server.URL})
	points, err := idx.Search(context.Background(), "products", []float32{0.1}, vector.SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "a81bc81b-dead-4e5d-abff-90865d1e13b1", points[0].ID)
	assert.Equal(t, "42", points[1].ID)
}

func TestSearchRejectsMalformedID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"result": [{"id": {"uuid": "nested"}, "score": 0.5, "payload": {}}]}`))
	}))
	defer server.Close()

	idx := New(Config{URL: server.URL})
	_, err := idx.Search(context.Background(), "products", []float32{0.1}, vector.SearchOptions{Limit: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "point id")
}

func TestSearchDefaultsPriceBounds(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{"result": []any{}})
	}))
	defer server.Close()

	idx := New(Config{URL: server.URL})
	_, err := idx.Search(context.Background(), "products", []float32{0.1}, vector.SearchOptions{Limit: 10})
	require.NoError(t, err)

	rng := captured["filter"].(map[string]any)["must"].([]any)[0].(map[string]any)["range"].(map[string]any)
	assert.InDelta(t, 0, rng["gte"], 0.01)
	assert.InDelta(t, vector.MaxPrice, rng["lte"], 0.01)
	_, hasMustNot := captured["filter"].(map[string]any)["must_not"]
	assert.False(t, hasMustNot)
}

func TestCollectionExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/collections/products" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	idx := New(Config{URL: server.URL})

	exists, err := idx.CollectionExists(context.Background(), "products")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = idx.CollectionExists(context.Background(), "grandmother")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "backing store full", http.StatusInternalServerError)
	}))
	defer server.Close()

	idx := New(Config{URL: server.URL})
	_, err := idx.Search(context.Background(), "products", []float32{0.1}, vector.SearchOptions{Limit: 10})
	require.Error(t, err)
}
