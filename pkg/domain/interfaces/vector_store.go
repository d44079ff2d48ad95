package interfaces

import (
	"context"

	"github.com/secmon-lab/stackscout/pkg/domain/model"
)

// VectorStore persists documents per namespace and answers filtered nearest
// neighbor queries by cosine distance. Upsert is idempotent by document id.
type VectorStore interface {
	Upsert(ctx context.Context, namespace string, cols *model.UpsertColumns) error
	Query(ctx context.Context, namespace string, query *model.VectorQuery) ([]*model.QueryResult, error)
	DeleteNamespace(ctx context.Context, namespace string) error
	Close() error
}
