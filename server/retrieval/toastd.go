package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// SecondarySearcher is the external provider queried alongside the primary
// catalog. It ranks its own results.
type SecondarySearcher interface {
	Search(ctx context.Context, query string, limit int, priceMin, priceMax float64) ([]Product, error)
}

// ToastdClient talks to the toastd gifting provider over its REST search API.
type ToastdClient struct {
	baseURL string
	client  *http.Client
}

func NewToastdClient(baseURL string) *ToastdClient {
	return &ToastdClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type toastdSearchRequest struct {
	Query    string  `json:"query"`
	Limit    int     `json:"limit"`
	PriceMin float64 `json:"priceMin"`
	PriceMax float64 `json:"priceMax"`
}

type toastdSearchResponse struct {
	Results []struct {
		ID          string  `json:"id"`
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		ImageURL    string  `json:"imageUrl"`
		ProductURL  string  `json:"productUrl"`
		Score       float64 `json:"score"`
	} `json:"results"`
}

func (c *ToastdClient) Search(ctx context.Context, query string, limit int, priceMin, priceMax float64) ([]Product, error) {
	body, err := json.Marshal(toastdSearchRequest{
		Query:    query,
		Limit:    limit,
		PriceMin: priceMin,
		PriceMax: priceMax,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build search request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "toastd request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("toastd returned %d: %s", resp.StatusCode, string(raw))
	}

	var parsed toastdSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, "failed to decode toastd response")
	}

	products := make([]Product, 0, len(parsed.Results))
	for i, r := range parsed.Results {
		id := r.ID
		if id == "" {
			id = fmt.Sprintf("toastd-%d", i)
		}
		products = append(products, Product{
			ID:          id,
			Title:       r.Title,
			Description: r.Description,
			Price:       r.Price,
			Image:       r.ImageURL,
			URL:         r.ProductURL,
			Score:       float32(r.Score),
			Source:      SourceToastd,
		})
	}
	return products, nil
}
