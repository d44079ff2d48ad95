package core

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/stackscout/pkg/agent/tool"
	"github.com/secmon-lab/stackscout/pkg/domain/interfaces"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/domain/types"
)

const (
	SearchTranscriptsToolName = "core__search_transcripts"
	ListStackOptionsToolName  = "core__list_stack_options"

	defaultSearchQuery = "What is the customer's data stack?"
	defaultSearchTopK  = 3
	maxSearchTopK      = 20
)

// searchTranscriptsTool searches call transcript chunks of the bound opportunity
type searchTranscriptsTool struct {
	retriever     interfaces.TranscriptRetriever
	namespace     string
	opportunityID string
}

func (t *searchTranscriptsTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        SearchTranscriptsToolName,
		Description: "Search sales call transcripts of the current opportunity using semantic (vector) similarity",
		Parameters: map[string]*gollem.Parameter{
			"query": {
				Type:        gollem.TypeString,
				Description: fmt.Sprintf("Search query text (default: %q)", defaultSearchQuery),
				Required:    false,
			},
			"top_k": {
				Type:        gollem.TypeInteger,
				Description: fmt.Sprintf("Number of transcript chunks to return (default: %d, max: %d)", defaultSearchTopK, maxSearchTopK),
				Required:    false,
			},
		},
	}
}

func (t *searchTranscriptsTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	query, _ := args["query"].(string)
	if query == "" {
		query = defaultSearchQuery
	}

	topK := defaultSearchTopK
	if v, err := extractInt64(args, "top_k"); err == nil && v > 0 {
		topK = min(int(v), maxSearchTopK)
	}

	tool.Progressf(ctx, "Searching transcripts: %s", query)

	results, err := t.retriever.Retrieve(ctx, model.RetrieveInput{
		Namespace:     t.namespace,
		OpportunityID: t.opportunityID,
		Query:         query,
		TopK:          topK,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search transcripts",
			goerr.V(model.NamespaceKey, t.namespace),
			goerr.V(model.OpportunityIDKey, t.opportunityID),
		)
	}

	chunks := make([]map[string]any, len(results))
	for i, r := range results {
		chunks[i] = map[string]any{
			"id":         r.ID,
			"distance":   r.Distance,
			"attributes": map[string]any(r.Attributes),
		}
	}
	return map[string]any{
		"opportunity_id": t.opportunityID,
		"count":          len(chunks),
		"chunks":         chunks,
	}, nil
}

// listStackOptionsTool returns the values accepted in the extraction result
type listStackOptionsTool struct{}

func (t *listStackOptionsTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        ListStackOptionsToolName,
		Description: "List the allowed orchestration tool and cloud provider values for the answer",
		Parameters:  map[string]*gollem.Parameter{},
	}
}

func (t *listStackOptionsTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	tools := types.AllOrchestrationTools()
	toolNames := make([]string, len(tools))
	for i, v := range tools {
		toolNames[i] = v.String()
	}

	providers := types.AllCloudProviders()
	providerNames := make([]string, len(providers))
	for i, v := range providers {
		providerNames[i] = v.String()
	}

	return map[string]any{
		"orchestration_tools": toolNames,
		"cloud_providers":     providerNames,
	}, nil
}

func extractInt64(args map[string]any, key string) (int64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%s is required", key)
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%s must be an integer, got %T", key, v)
	}
}
