package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/domain/types"
	"github.com/secmon-lab/stackscout/pkg/usecase"
)

func TestScore(t *testing.T) {
	t.Run("overconfident with one snippet", func(t *testing.T) {
		score := usecase.Score(&model.ExtractionResult{
			ConfidenceScore:         0.8,
			PreviousSolutionSnippet: "x",
		}, 0.5)
		gt.Number(t, score).GreaterOrEqual(-80.000001)
		gt.Number(t, score).LessOrEqual(-79.999999)
	})

	t.Run("calibrated without snippets", func(t *testing.T) {
		gt.Value(t, usecase.Score(&model.ExtractionResult{ConfidenceScore: 0.3}, 0.5)).Equal(0.0)
	})

	t.Run("both snippets at the ceiling", func(t *testing.T) {
		gt.Value(t, usecase.Score(&model.ExtractionResult{
			ConfidenceScore:         0.5,
			PreviousSolutionSnippet: "a",
			CloudProviderSnippet:    "b",
		}, 0.5)).Equal(-100.0)
	})

	t.Run("full confidence", func(t *testing.T) {
		gt.Value(t, usecase.Score(&model.ExtractionResult{ConfidenceScore: 1}, 0)).Equal(-100.0)
	})
}

var usSoccerStack = model.TechStack{
	PrimaryPreviousSolution:    types.OrchestrationToolHomeGrownBasic,
	SecondaryPreviousSolutions: []types.OrchestrationTool{types.OrchestrationToolAWSLambdaFunctions},
	CloudProvider:              types.CloudProviderAWS,
}

func TestCompare(t *testing.T) {
	t.Run("exact match", func(t *testing.T) {
		acc := usecase.Compare(&model.ExtractionResult{TechStack: usSoccerStack}, usSoccerStack)
		gt.Value(t, acc.Matched()).Equal(3)
	})

	t.Run("secondary compared as set", func(t *testing.T) {
		expected := model.TechStack{
			SecondaryPreviousSolutions: []types.OrchestrationTool{
				types.OrchestrationToolAWSLambdaFunctions,
				types.OrchestrationToolAWSStepFunctions,
			},
		}
		got := &model.ExtractionResult{TechStack: model.TechStack{
			SecondaryPreviousSolutions: []types.OrchestrationTool{
				types.OrchestrationToolAWSStepFunctions,
				types.OrchestrationToolAWSLambdaFunctions,
				types.OrchestrationToolAWSStepFunctions,
			},
		}}
		gt.Bool(t, usecase.Compare(got, expected).SecondaryPreviousSolutions).True()
	})

	t.Run("partial match", func(t *testing.T) {
		got := &model.ExtractionResult{TechStack: model.TechStack{
			PrimaryPreviousSolution: types.OrchestrationToolAirflowMWAA,
			CloudProvider:           types.CloudProviderAWS,
		}}
		acc := usecase.Compare(got, usSoccerStack)
		gt.Bool(t, acc.PrimaryPreviousSolution).False()
		gt.Bool(t, acc.SecondaryPreviousSolutions).False()
		gt.Bool(t, acc.CloudProvider).True()
		gt.Value(t, acc.Matched()).Equal(1)
	})
}

func TestEvalUseCase_Evaluate(t *testing.T) {
	answer := map[string]any{
		"tech_stack": map[string]any{
			"primary_previous_solution":    "Home-Grown Basic Orchestration Tool",
			"secondary_previous_solutions": []string{"AWS Lambda Functions"},
			"cloud_provider":               "AWS",
		},
		"confidence_score":          0.9,
		"previous_solution_snippet": "cron jobs",
	}
	extract := usecase.NewExtractUseCase(newAnsweringLLM(answer), usecase.NewRetrieveUseCase(seedStore(t), &mockEmbedder{}, nil), nil, 0.5)
	uc := usecase.NewEvalUseCase(extract, 0.5, map[string]model.TechStack{
		"006Rm00000QuHC6IAN": usSoccerStack,
	})

	t.Run("scores and measures accuracy for known opportunity", func(t *testing.T) {
		report, err := uc.Evaluate(context.Background(), "tay-sales-calls", "006Rm00000QuHC6IAN")
		gt.NoError(t, err).Required()
		gt.Number(t, report.NoEvidenceScore).LessOrEqual(-89.999999)
		gt.Number(t, report.NoEvidenceScore).GreaterOrEqual(-90.000001)
		gt.Value(t, report.Accuracy).NotNil()
		gt.Value(t, report.Accuracy.Matched()).Equal(3)
	})

	t.Run("skips accuracy without expectation", func(t *testing.T) {
		report, err := uc.Evaluate(context.Background(), "tay-sales-calls", "006Rm00000OG8LZIA1")
		gt.NoError(t, err).Required()
		gt.Value(t, report.Accuracy).Nil()
		gt.Value(t, report.WithEvidence).Nil()
	})
}
