package embedding

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/stackscout/pkg/domain/interfaces"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
)

// client implements interfaces.Embedder on top of a gollem LLM client
type client struct {
	llmClient gollem.LLMClient
	dimension int
}

var _ interfaces.Embedder = &client{}

// Option is a functional option for client configuration
type Option func(*client)

// WithDimension sets the requested embedding dimension
func WithDimension(dim int) Option {
	return func(c *client) {
		c.dimension = dim
	}
}

// New creates an Embedder with the provided LLM client
func New(llmClient gollem.LLMClient, opts ...Option) (interfaces.Embedder, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &client{
		llmClient: llmClient,
		dimension: model.DefaultEmbeddingDimension,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.dimension <= 0 {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "embedding dimension must be positive",
			goerr.V("dimension", c.dimension))
	}

	return c, nil
}

// Embed generates an embedding vector for text. A failed call or an empty
// vector is reported as model.ErrEmbeddingFailure.
func (c *client) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.llmClient.GenerateEmbedding(ctx, c.dimension, []string{text})
	if err != nil {
		return nil, goerr.Wrap(model.ErrEmbeddingFailure, "failed to generate embedding",
			goerr.V("error", err.Error()),
			goerr.V("text_length", len(text)))
	}

	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, goerr.Wrap(model.ErrEmbeddingFailure, "no embedding returned",
			goerr.V("text_length", len(text)))
	}

	// Convert float64 to float32
	result := make([]float32, len(embeddings[0]))
	for i, v := range embeddings[0] {
		result[i] = float32(v)
	}

	return result, nil
}
