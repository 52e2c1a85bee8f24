package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToastdSearch(t *testing.T) {
	var got toastdSearchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"results": [
			{"id": "t1", "title": "Scented candle set", "description": "Three candles", "price": 1299, "imageUrl": "https://cdn/img1.jpg", "productUrl": "https://shop/t1", "score": 0.91},
			{"title": "Pottery class voucher", "price": 2500, "productUrl": "https://shop/t2", "score": 0.84}
		]}`))
	}))
	defer server.Close()

	client := NewToastdClient(server.URL)
	products, err := client.Search(context.Background(), "cozy gift", 5, 0, 3000)
	require.NoError(t, err)

	assert.Equal(t, "cozy gift", got.Query)
	assert.Equal(t, 5, got.Limit)
	assert.Equal(t, float64(3000), got.PriceMax)

	require.Len(t, products, 2)
	assert.Equal(t, "t1", products[0].ID)
	assert.Equal(t, "Scented candle set", products[0].Title)
	assert.Equal(t, float32(0.91), products[0].Score)
	assert.Equal(t, SourceToastd, products[0].Source)
	// Missing ids get a stable synthetic one.
	assert.Equal(t, "toastd-1", products[1].ID)
}

func TestToastdSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewToastdClient(server.URL)
	_, err := client.Search(context.Background(), "gift", 5, 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestToastdSearchEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	client := NewToastdClient(server.URL)
	products, err := client.Search(context.Background(), "gift", 5, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, products)
}
