// Package qdrant is a minimal REST client to Qdrant, covering the search,
// scroll and upsert surface the retrieval layer needs.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/phantomdelux3/ai-product-reccomendation/plugin/vector"
)

// Config holds the Qdrant connection configuration.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Index implements vector.Index over the Qdrant HTTP API.
type Index struct {
	url    string
	apiKey string
	client *http.Client
}

func New(cfg Config) *Index {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Index{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}
}

// filter models the Qdrant scalar filter: a mandatory price range plus an
// optional negative id filter for reload exclusion.
type filter struct {
	Must    []condition `json:"must,omitempty"`
	MustNot []condition `json:"must_not,omitempty"`
}

type condition struct {
	Key   string      `json:"key,omitempty"`
	Range *priceRange `json:"range,omitempty"`
	HasID []string    `json:"has_id,omitempty"`
}

type priceRange struct {
	Gte float64 `json:"gte"`
	Lte float64 `json:"lte"`
}

func buildFilter(opts vector.SearchOptions) *filter {
	max := opts.PriceMax
	if max <= 0 {
		max = vector.MaxPrice
	}
	f := &filter{
		Must: []condition{{
			Key:   "price",
			Range: &priceRange{Gte: opts.PriceMin, Lte: max},
		}},
	}
	if len(opts.ExcludeIDs) > 0 {
		f.MustNot = []condition{{HasID: opts.ExcludeIDs}}
	}
	return f
}

func (q *Index) Search(ctx context.Context, collection string, queryVector []float32, opts vector.SearchOptions) ([]vector.Point, error) {
	req := map[string]any{
		"vector":       queryVector,
		"limit":        opts.Limit,
		"with_payload": true,
		"filter":       buildFilter(opts),
	}

	var resp struct {
		Result []searchHit `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", q.url, collection)
	if err := q.postJSON(ctx, url, req, &resp); err != nil {
		return nil, errors.Wrapf(err, "search collection %s", collection)
	}

	points := make([]vector.Point, 0, len(resp.Result))
	for _, hit := range resp.Result {
		points = append(points, hit.toPoint())
	}
	return points, nil
}

func (q *Index) CollectionExists(ctx context.Context, collection string) (bool, error) {
	url := fmt.Sprintf("%s/collections/%s", q.url, collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	q.setHeaders(req)

	resp, err := q.client.Do(req)
	if err != nil {
		return false, errors.Wrap(err, "qdrant unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, errors.Errorf("qdrant GET %s failed: %s", url, resp.Status)
	}
}

func (q *Index) Upsert(ctx context.Context, collection string, points []vector.UpsertPoint) error {
	body := make([]map[string]any, len(points))
	for i, p := range points {
		body[i] = map[string]any{
			"id":      p.ID,
			"vector":  p.Vector,
			"payload": p.Payload,
		}
	}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", q.url, collection)
	return q.putJSON(ctx, url, map[string]any{"points": body})
}

func (q *Index) Scroll(ctx context.Context, collection string, limit int) ([]vector.Point, error) {
	req := map[string]any{
		"limit":        limit,
		"with_payload": true,
	}

	var resp struct {
		Result struct {
			Points []searchHit `json:"points"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/scroll", q.url, collection)
	if err := q.postJSON(ctx, url, req, &resp); err != nil {
		return nil, errors.Wrapf(err, "scroll collection %s", collection)
	}

	points := make([]vector.Point, 0, len(resp.Result.Points))
	for _, hit := range resp.Result.Points {
		points = append(points, hit.toPoint())
	}
	return points, nil
}

// pointID decodes a Qdrant point id. The ingestion jobs minted UUID strings,
// while older collections carry unsigned integers; both wire shapes map to a
// plain string here.
type pointID string

func (id *pointID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = pointID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Errorf("point id is neither string nor number: %s", string(data))
	}
	*id = pointID(n.String())
	return nil
}

// searchHit decodes a raw Qdrant point. Payload is kept loose because the
// ingestion jobs wrote two generations of field names (price vs price_numeric,
// image_url vs main_image, title vs name).
type searchHit struct {
	ID      pointID        `json:"id"`
	Score   float32        `json:"score"`
	Payload map[string]any `json:"payload"`
}

func (h searchHit) toPoint() vector.Point {
	p := vector.Point{
		ID:    string(h.ID),
		Score: h.Score,
	}
	p.Payload.Title = stringField(h.Payload, "title", "name")
	p.Payload.Description = stringField(h.Payload, "description", "short_description")
	p.Payload.Brand = stringField(h.Payload, "brand")
	p.Payload.ImageURL = stringField(h.Payload, "image_url", "main_image")
	p.Payload.URL = stringField(h.Payload, "url", "product_url")
	p.Payload.Price = numberField(h.Payload, "price_numeric", "price")
	return p
}

func stringField(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := payload[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func numberField(payload map[string]any, keys ...string) float64 {
	for _, key := range keys {
		switch v := payload[key].(type) {
		case float64:
			if v != 0 {
				return v
			}
		case json.Number:
			if f, err := v.Float64(); err == nil && f != 0 {
				return f
			}
		}
	}
	return 0
}

func (q *Index) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
}

func (q *Index) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	q.setHeaders(req)

	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (q *Index) putJSON(ctx context.Context, url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	q.setHeaders(req)

	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}
