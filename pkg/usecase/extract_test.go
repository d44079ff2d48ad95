package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/stackscout/pkg/domain/interfaces"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/domain/types"
	"github.com/secmon-lab/stackscout/pkg/service/notify"
	"github.com/secmon-lab/stackscout/pkg/usecase"
	"github.com/secmon-lab/stackscout/pkg/utils/async"
)

func TestExtractUseCase_Extract(t *testing.T) {
	answer := map[string]any{
		"tech_stack": map[string]any{
			"primary_previous_solution":    "Home-Grown Basic Orchestration Tool",
			"secondary_previous_solutions": []string{"AWS Lambda Functions"},
			"cloud_provider":               "AWS",
		},
		"confidence_score":          0.8,
		"previous_solution_snippet": "our pipelines are cron jobs",
		"cloud_provider_snippet":    nil,
	}

	t.Run("returns validated result and publishes event", func(t *testing.T) {
		publisher := &mockPublisher{}
		uc := usecase.NewExtractUseCase(newAnsweringLLM(answer), usecase.NewRetrieveUseCase(seedStore(t), &mockEmbedder{}, nil), publisher, 0.5)

		result, err := uc.Extract(context.Background(), usecase.ExtractInput{
			Namespace:     "tay-sales-calls",
			OpportunityID: "006Rm00000QuHC6IAN",
		})
		gt.NoError(t, err).Required()
		gt.Value(t, result.TechStack.PrimaryPreviousSolution).Equal(types.OrchestrationToolHomeGrownBasic)
		gt.Value(t, result.TechStack.SecondaryPreviousSolutions).Equal([]types.OrchestrationTool{types.OrchestrationToolAWSLambdaFunctions})
		gt.Value(t, result.TechStack.CloudProvider).Equal(types.CloudProviderAWS)
		gt.Value(t, result.ConfidenceScore).Equal(0.8)
		gt.Value(t, result.PreviousSolutionSnippet).Equal("our pipelines are cron jobs")
		gt.Value(t, result.CloudProviderSnippet).Equal("")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		gt.NoError(t, async.Wait(ctx)).Required()

		events := publisher.Events()
		gt.A(t, events).Length(1)
		gt.Value(t, events[0].subject).Equal(notify.SubjectExtractCompleted)
		event := events[0].event.(usecase.ExtractEvent)
		gt.Value(t, event.OpportunityID).Equal("006Rm00000QuHC6IAN")
		gt.Bool(t, event.WithoutEvidence).False()
	})

	t.Run("rejects answer outside the enums", func(t *testing.T) {
		bad := map[string]any{
			"tech_stack":       map[string]any{"primary_previous_solution": "Jenkins"},
			"confidence_score": 0.4,
		}
		uc := usecase.NewExtractUseCase(newAnsweringLLM(bad), usecase.NewRetrieveUseCase(seedStore(t), &mockEmbedder{}, nil), nil, 0.5)

		_, err := uc.Extract(context.Background(), usecase.ExtractInput{
			Namespace:     "tay-sales-calls",
			OpportunityID: "006Rm00000QuHC6IAN",
		})
		gt.Error(t, err).Is(usecase.ErrInvalidExtraction)
	})

	t.Run("propagates session failure", func(t *testing.T) {
		errLLM := errors.New("model overloaded")
		client := &mockLLMClient{
			newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
				return nil, errLLM
			},
		}
		uc := usecase.NewExtractUseCase(client, usecase.NewRetrieveUseCase(seedStore(t), &mockEmbedder{}, nil), nil, 0.5)

		_, err := uc.Extract(context.Background(), usecase.ExtractInput{
			Namespace:     "tay-sales-calls",
			OpportunityID: "006Rm00000QuHC6IAN",
		})
		gt.Value(t, err).NotNil()
	})

	t.Run("requires opportunity id", func(t *testing.T) {
		uc := usecase.NewExtractUseCase(newAnsweringLLM(answer), usecase.NewRetrieveUseCase(seedStore(t), &mockEmbedder{}, nil), nil, 0.5)
		_, err := uc.Extract(context.Background(), usecase.ExtractInput{Namespace: "tay-sales-calls"})
		gt.Error(t, err).Is(model.ErrInvalidArgument)
	})
}

func TestExtractUseCase_RetrieverFor(t *testing.T) {
	retriever := usecase.NewRetrieveUseCase(seedStore(t), &mockEmbedder{}, nil)
	uc := usecase.NewExtractUseCase(newAnsweringLLM(map[string]any{}), retriever, nil, 0.5)

	gt.Bool(t, uc.RetrieverFor(usecase.ExtractInput{}) == interfaces.TranscriptRetriever(retriever)).True()

	empty := uc.RetrieverFor(usecase.ExtractInput{WithoutEvidence: true})
	_, isEmpty := empty.(usecase.EmptyRetriever)
	gt.Bool(t, isEmpty).True()

	results, err := empty.Retrieve(context.Background(), model.RetrieveInput{
		Namespace:     "tay-sales-calls",
		OpportunityID: "006Rm00000OG8LZIA1",
		Query:         "airflow",
		TopK:          3,
	})
	gt.NoError(t, err).Required()
	gt.A(t, results).Length(0)
}

func TestBuildExtractSystemPrompt(t *testing.T) {
	uc := usecase.NewExtractUseCase(&mockLLMClient{}, nil, nil, 0.5)

	prompt, err := usecase.BuildExtractSystemPrompt(uc, "006Rm00000OG8LZIA1")
	gt.NoError(t, err).Required()
	gt.String(t, prompt).Contains("006Rm00000OG8LZIA1")
	gt.String(t, prompt).Contains("core__search_transcripts")
	gt.String(t, prompt).Contains(`"Airflow (Astronomer)"`)
	gt.String(t, prompt).Contains(`"On-Prem"`)
	gt.String(t, prompt).Contains("0.5")
}

func TestParseExtractionResult(t *testing.T) {
	t.Run("accepts fenced JSON", func(t *testing.T) {
		result, err := usecase.ParseExtractionResult("```json\n" +
			`{"tech_stack":{"primary_previous_solution":"Dagster","cloud_provider":"GCP"},"confidence_score":0.7}` +
			"\n```")
		gt.NoError(t, err).Required()
		gt.Value(t, result.TechStack.PrimaryPreviousSolution).Equal(types.OrchestrationToolDagster)
		gt.Value(t, result.TechStack.CloudProvider).Equal(types.CloudProviderGCP)
	})

	t.Run("accepts nulls for unknown values", func(t *testing.T) {
		result, err := usecase.ParseExtractionResult(`{"tech_stack":{"primary_previous_solution":null,"secondary_previous_solutions":null,"cloud_provider":null},"confidence_score":0.1,"previous_solution_snippet":null}`)
		gt.NoError(t, err).Required()
		gt.Value(t, result.TechStack.PrimaryPreviousSolution).Equal(types.OrchestrationTool(""))
		gt.Value(t, result.ConfidenceScore).Equal(0.1)
	})

	t.Run("rejects confidence out of range", func(t *testing.T) {
		_, err := usecase.ParseExtractionResult(`{"tech_stack":{},"confidence_score":1.5}`)
		gt.Error(t, err).Is(usecase.ErrInvalidExtraction)
	})

	t.Run("rejects missing confidence", func(t *testing.T) {
		_, err := usecase.ParseExtractionResult(`{"tech_stack":{}}`)
		gt.Error(t, err).Is(usecase.ErrInvalidExtraction)
	})

	t.Run("rejects text without JSON", func(t *testing.T) {
		_, err := usecase.ParseExtractionResult("I could not find anything")
		gt.Error(t, err).Is(usecase.ErrInvalidExtraction)
	})
}
