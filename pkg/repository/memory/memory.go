package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/domain/interfaces"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
)

// Memory is an in-process vector store. Namespaces are independent maps of
// documents keyed by id.
type Memory struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]*model.Document
}

var _ interfaces.VectorStore = &Memory{}

func New() *Memory {
	return &Memory{
		namespaces: make(map[string]map[string]*model.Document),
	}
}

// copyDocument creates a deep copy of a document
func copyDocument(d *model.Document) *model.Document {
	copied := &model.Document{
		ID:         d.ID,
		Attributes: d.Attributes.Copy(),
	}
	if d.Vector != nil {
		copied.Vector = make([]float32, len(d.Vector))
		copy(copied.Vector, d.Vector)
	}
	return copied
}

func (m *Memory) Upsert(ctx context.Context, namespace string, cols *model.UpsertColumns) error {
	if namespace == "" {
		return goerr.Wrap(model.ErrInvalidArgument, "namespace is required")
	}
	if err := cols.Validate(); err != nil {
		return goerr.Wrap(err, "invalid upsert columns", goerr.V(model.NamespaceKey, namespace))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	docs, ok := m.namespaces[namespace]
	if !ok {
		docs = make(map[string]*model.Document)
		m.namespaces[namespace] = docs
	}

	for i := 0; i < cols.Len(); i++ {
		doc := copyDocument(cols.Document(i))
		docs[doc.ID] = doc
	}

	return nil
}

func (m *Memory) Query(ctx context.Context, namespace string, query *model.VectorQuery) ([]*model.QueryResult, error) {
	if query.TopK <= 0 {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "top_k must be positive", goerr.V("top_k", query.TopK))
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := m.namespaces[namespace]

	type scored struct {
		doc      *model.Document
		distance float64
	}
	candidates := make([]scored, 0, len(docs))
	for _, d := range docs {
		if !query.MatchAll(d.Attributes) {
			continue
		}
		var distance float64
		if query.Vector != nil {
			distance = model.CosineDistance(query.Vector, d.Vector)
		}
		candidates = append(candidates, scored{doc: d, distance: distance})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].doc.ID < candidates[j].doc.ID
	})

	limit := min(query.TopK, len(candidates))
	results := make([]*model.QueryResult, limit)
	for i := 0; i < limit; i++ {
		results[i] = &model.QueryResult{
			ID:         candidates[i].doc.ID,
			Distance:   candidates[i].distance,
			Attributes: candidates[i].doc.Attributes.Project(query.IncludeAttributes),
		}
	}

	return results, nil
}

func (m *Memory) DeleteNamespace(ctx context.Context, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.namespaces, namespace)
	return nil
}

func (m *Memory) Close() error {
	return nil
}
