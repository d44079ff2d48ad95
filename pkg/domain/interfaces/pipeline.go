package interfaces

import (
	"context"

	"github.com/secmon-lab/stackscout/pkg/domain/model"
)

// Embedder turns text into a vector. An error or an empty vector means the
// unit of work should be skipped.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RowSource yields warehouse call records
type RowSource interface {
	FetchCalls(ctx context.Context, limit int) ([]*model.CallRow, error)
}

// EventPublisher announces pipeline milestones to other systems
type EventPublisher interface {
	Publish(ctx context.Context, subject string, event any) error
}

// TranscriptRetriever returns transcript chunks of one opportunity ranked by
// similarity to the query
type TranscriptRetriever interface {
	Retrieve(ctx context.Context, input model.RetrieveInput) ([]*model.QueryResult, error)
}
