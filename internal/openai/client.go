package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fyreone/firekb/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
	// MaxInputChars is the character budget applied to every input before it
	// is submitted to the provider.
	MaxInputChars = 1500
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrEmptyBatch is returned when a batch contains no texts
	ErrEmptyBatch = errors.New("batch cannot be empty")
	// ErrNoAPIKey is returned when OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
)

// EmbeddingAPI defines the provider interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Client generates fixed-dimension embeddings through an external provider.
// Provider failures are not retried here; they propagate to the caller as a
// PROVIDER_ERROR and surface on the owning job.
// TODO: wrap the provider call with bounded retry and exponential backoff
// before this runs against production rate limits.
type Client struct {
	api EmbeddingAPI
}

type OpenAIAdapter struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIAdapter(apiKey string, model openai.EmbeddingModel) *OpenAIAdapter {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &OpenAIAdapter{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// CreateEmbeddings calls the OpenAI API to create embeddings, one round trip
// for the whole batch.
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: a.model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("provider returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

// NewClient creates a new embedding client using the default model.
func NewClient(apiKey string) *Client {
	return &Client{api: NewOpenAIAdapter(apiKey, DefaultEmbeddingModel)}
}

// NewClientWithAPI creates a client over an explicit provider API (for tests).
func NewClientWithAPI(api EmbeddingAPI) *Client {
	return &Client{api: api}
}

// NewClientFromEnv creates a new embedding client using the OPENAI_API_KEY
// environment variable.
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// Embed generates an embedding for a single text.
func (c *Client) Embed(ctx context.Context, text string) (domain.Embedding, error) {
	if text == "" {
		return domain.Embedding{}, ErrEmptyText
	}

	embeddings, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return domain.Embedding{}, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for all texts in one provider round trip.
// Each input is truncated to MaxInputChars before submission.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyBatch
	}

	inputs := make([]string, len(texts))
	for i, text := range texts {
		if text == "" {
			return nil, ErrEmptyText
		}
		inputs[i] = truncate(text, MaxInputChars)
	}

	vectors, err := c.api.CreateEmbeddings(ctx, inputs)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeProvider, "failed to create embeddings", err)
	}

	out := make([]domain.Embedding, len(vectors))
	for i, v := range vectors {
		embedding, err := domain.EmbeddingFromSlice(v)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeProvider, "provider returned malformed embedding", err)
		}
		out[i] = embedding
	}
	return out, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
