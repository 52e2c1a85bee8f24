package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// EmbeddingService is the vector embedding service interface.
type EmbeddingService interface {
	// Embed generates a vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the vector dimension.
	Dimensions() int
}

// EmbeddingConfig holds the embedding provider configuration.
type EmbeddingConfig struct {
	// Provider is "openai" or "encoder".
	Provider   string
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	// EncodeServerURL is the base URL of the local encode server when
	// Provider is "encoder".
	EncodeServerURL string
}

// NewEmbeddingService creates an EmbeddingService for the configured provider.
func NewEmbeddingService(cfg *EmbeddingConfig) (EmbeddingService, error) {
	if cfg == nil {
		return nil, errors.New("embedding config is nil")
	}

	switch cfg.Provider {
	case "openai":
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
		return &openaiEmbedding{
			client:     openai.NewClientWithConfig(clientConfig),
			model:      cfg.Model,
			dimensions: cfg.Dimensions,
		}, nil

	case "encoder":
		return &encoderEmbedding{
			baseURL:    cfg.EncodeServerURL,
			dimensions: cfg.Dimensions,
			client:     &http.Client{Timeout: 30 * time.Second},
		}, nil

	default:
		return nil, errors.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

type openaiEmbedding struct {
	client     *openai.Client
	model      string
	dimensions int
}

func (s *openaiEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(s.model),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create embeddings failed")
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("empty embedding response")
	}
	return resp.Data[0].Embedding, nil
}

func (s *openaiEmbedding) Dimensions() int {
	return s.dimensions
}

// encoderEmbedding calls the local sentence-transformer encode server.
type encoderEmbedding struct {
	baseURL    string
	dimensions int
	client     *http.Client
}

func (s *encoderEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, errors.Wrap(err, "marshal encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/encode", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build encode request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "encode server unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("encode server returned %s", resp.Status)
	}

	var result struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "decode encode response")
	}
	if len(result.Embedding) == 0 {
		return nil, errors.New("empty embedding response")
	}

	return result.Embedding, nil
}

func (s *encoderEmbedding) Dimensions() int {
	return s.dimensions
}
