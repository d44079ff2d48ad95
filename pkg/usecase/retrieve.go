package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/domain/interfaces"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/utils/logging"
)

// DefaultOpportunityListLimit is how many documents are scanned when listing opportunities
const DefaultOpportunityListLimit = 1000

// RetrieveUseCase answers opportunity-scoped similarity queries
type RetrieveUseCase struct {
	store             interfaces.VectorStore
	embedder          interfaces.Embedder
	includeAttributes []string
}

var _ interfaces.TranscriptRetriever = &RetrieveUseCase{}

func NewRetrieveUseCase(store interfaces.VectorStore, embedder interfaces.Embedder, includeAttributes []string) *RetrieveUseCase {
	if includeAttributes == nil {
		includeAttributes = model.DefaultIncludeAttributes()
	}
	return &RetrieveUseCase{
		store:             store,
		embedder:          embedder,
		includeAttributes: includeAttributes,
	}
}

// Retrieve returns up to TopK chunks of the opportunity closest to Query.
// An opportunity without documents yields an empty result.
func (uc *RetrieveUseCase) Retrieve(ctx context.Context, input model.RetrieveInput) ([]*model.QueryResult, error) {
	if input.TopK <= 0 {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "top_k must be positive", goerr.V("top_k", input.TopK))
	}
	if input.Namespace == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "namespace is required")
	}
	if input.OpportunityID == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "opportunity id is required")
	}

	vector, err := uc.embedder.Embed(ctx, input.Query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query", goerr.V(model.OpportunityIDKey, input.OpportunityID))
	}

	include := input.IncludeAttributes
	if include == nil {
		include = uc.includeAttributes
	}

	results, err := uc.store.Query(ctx, input.Namespace, &model.VectorQuery{
		Vector:            vector,
		TopK:              input.TopK,
		Filters:           []model.Filter{model.Eq(model.AttrPrimaryOpportunity, input.OpportunityID)},
		IncludeAttributes: include,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query vector store",
			goerr.V(model.NamespaceKey, input.Namespace),
			goerr.V(model.OpportunityIDKey, input.OpportunityID))
	}

	logging.From(ctx).Debug("retrieved transcript chunks",
		model.OpportunityIDKey, input.OpportunityID,
		"hits", len(results))

	if results == nil {
		results = []*model.QueryResult{}
	}
	return results, nil
}

// ListOpportunities returns the distinct opportunity ids found in the first
// limit documents of the namespace, sorted.
func (uc *RetrieveUseCase) ListOpportunities(ctx context.Context, namespace string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultOpportunityListLimit
	}

	results, err := uc.store.Query(ctx, namespace, &model.VectorQuery{
		TopK:              limit,
		IncludeAttributes: []string{model.AttrPrimaryOpportunity},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list documents", goerr.V(model.NamespaceKey, namespace))
	}

	seen := make(map[string]struct{})
	for _, r := range results {
		v, ok := r.Attributes[model.AttrPrimaryOpportunity]
		if !ok || v == nil {
			continue
		}
		id := fmt.Sprint(v)
		if id == "" {
			continue
		}
		seen[id] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// PurgeNamespace deletes every document of the namespace
func (uc *RetrieveUseCase) PurgeNamespace(ctx context.Context, namespace string) error {
	if namespace == "" {
		return goerr.Wrap(model.ErrInvalidArgument, "namespace is required")
	}
	if err := uc.store.DeleteNamespace(ctx, namespace); err != nil {
		return goerr.Wrap(err, "failed to purge namespace", goerr.V(model.NamespaceKey, namespace))
	}
	logging.From(ctx).Info("purged namespace", model.NamespaceKey, namespace)
	return nil
}

// emptyRetriever finds nothing. It drives extraction without evidence.
type emptyRetriever struct{}

func (emptyRetriever) Retrieve(ctx context.Context, input model.RetrieveInput) ([]*model.QueryResult, error) {
	if input.TopK <= 0 {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "top_k must be positive", goerr.V("top_k", input.TopK))
	}
	return []*model.QueryResult{}, nil
}
