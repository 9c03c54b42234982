package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/sashabaranov/go-openai"

	"github.com/timmy/cinematch/internal/config"
)

const (
	jinaEndpoint = "https://api.jina.ai/v1/embeddings"

	ProviderJina             = "jina"
	ProviderOpenAICompatible = "openai-compatible"
)

// embedFunc embeds one chunk; the result must be in input order.
type embedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// EmbeddingVectorizer sends feature strings to a remote embedding model in fixed-size
// chunks and checks every returned vector against the configured dimension.
type EmbeddingVectorizer struct {
	provider   string
	model      string
	dimensions int
	batchSize  int
	embed      embedFunc
}

// NewEmbeddingVectorizer creates the vectorizer for cfg.Provider.
func NewEmbeddingVectorizer(cfg *config.EmbeddingConfig) (*EmbeddingVectorizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	v := &EmbeddingVectorizer{
		provider:   cfg.Provider,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		batchSize:  cfg.BatchSize,
	}
	switch cfg.Provider {
	case ProviderJina:
		endpoint := jinaEndpoint
		if cfg.BaseURL != "" {
			endpoint = cfg.BaseURL
		}
		v.embed = newJinaClient(cfg.APIKey, endpoint, cfg.Model, cfg.Dimensions).embedBatch
	case ProviderOpenAICompatible:
		v.embed = newOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Dimensions).embedBatch
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	return v, nil
}

func (v *EmbeddingVectorizer) Name() string { return v.provider + "/" + v.model }

func (v *EmbeddingVectorizer) Version() string { return "1/dim" + strconv.Itoa(v.dimensions) }

// Vectorize embeds texts chunk by chunk, in order.
func (v *EmbeddingVectorizer) Vectorize(ctx context.Context, texts []string) ([][]float32, error) {
	rows := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += v.batchSize {
		end := start + v.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		chunk, err := v.embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed rows %d-%d: %w", start, end-1, err)
		}
		if len(chunk) != end-start {
			return nil, fmt.Errorf("embed rows %d-%d: got %d vectors", start, end-1, len(chunk))
		}
		for i, vec := range chunk {
			if len(vec) != v.dimensions {
				return nil, fmt.Errorf("embed row %d: dimension %d, expected %d", start+i, len(vec), v.dimensions)
			}
		}
		rows = append(rows, chunk...)
	}
	return rows, nil
}

type jinaClient struct {
	client     *resty.Client
	endpoint   string
	model      string
	dimensions int
}

func newJinaClient(apiKey, endpoint, model string, dimensions int) *jinaClient {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+apiKey)
	client.SetHeader("Content-Type", "application/json")

	return &jinaClient{
		client:     client,
		endpoint:   endpoint,
		model:      model,
		dimensions: dimensions,
	}
}

// Jina API request/response structures
type jinaRequest struct {
	Model         string   `json:"model"`
	Task          string   `json:"task,omitempty"`
	Dimensions    int      `json:"dimensions,omitempty"`
	Input         []string `json:"input"`
	EmbeddingType string   `json:"embedding_type,omitempty"`
}

type jinaResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Detail string `json:"detail,omitempty"`
}

func (c *jinaClient) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	req := jinaRequest{
		Model: c.model,
		// Every movie is compared against every other one, never against a query text.
		Task:          "text-matching",
		Dimensions:    c.dimensions,
		Input:         texts,
		EmbeddingType: "float",
	}

	var resp jinaResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to call Jina API: %w", err)
	}

	if httpResp.StatusCode() != 200 {
		if resp.Detail != "" {
			return nil, fmt.Errorf("Jina API error: %s", resp.Detail)
		}
		return nil, fmt.Errorf("Jina API error: status %d", httpResp.StatusCode())
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("unexpected number of embeddings: got %d, expected %d", len(resp.Data), len(texts))
	}

	// Sort by index to ensure correct order
	embeddings := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(embeddings) || embeddings[item.Index] != nil {
			return nil, fmt.Errorf("unexpected embedding index %d", item.Index)
		}
		embeddings[item.Index] = item.Embedding
	}
	return embeddings, nil
}

type openAIClient struct {
	client     *openai.Client
	model      string
	dimensions int
}

func newOpenAIClient(apiKey, baseURL, model string, dimensions int) *openAIClient {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	return &openAIClient{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      model,
		dimensions: dimensions,
	}
}

func (c *openAIClient) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("no texts provided for embedding")
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(c.model),
		Dimensions: c.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("unexpected number of embeddings: got %d, expected %d", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(vectors) || vectors[data.Index] != nil {
			return nil, fmt.Errorf("unexpected embedding index %d", data.Index)
		}
		vectors[data.Index] = data.Embedding
	}
	return vectors, nil
}
