package usecase

import (
	"context"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/domain/types"
)

const snippetPenalty = 50

// Score penalizes unwarranted confidence when no evidence exists. Confidence
// above the ceiling costs 100 points per unit and each non-empty snippet costs
// 50. Zero is the best possible score.
func Score(result *model.ExtractionResult, confidenceCeiling float64) float64 {
	score := 0.0
	if over := result.ConfidenceScore - confidenceCeiling; over > 0 {
		score -= over * 100
	}
	if result.PreviousSolutionSnippet != "" {
		score -= snippetPenalty
	}
	if result.CloudProviderSnippet != "" {
		score -= snippetPenalty
	}
	return score
}

// Accuracy reports which fields of an extracted stack match the expected one
type Accuracy struct {
	PrimaryPreviousSolution    bool `json:"primary_previous_solution"`
	SecondaryPreviousSolutions bool `json:"secondary_previous_solutions"`
	CloudProvider              bool `json:"cloud_provider"`
}

// Matched returns how many fields matched
func (a Accuracy) Matched() int {
	n := 0
	for _, ok := range []bool{a.PrimaryPreviousSolution, a.SecondaryPreviousSolutions, a.CloudProvider} {
		if ok {
			n++
		}
	}
	return n
}

// Compare checks result against expected. Secondary solutions are compared
// as sets.
func Compare(result *model.ExtractionResult, expected model.TechStack) Accuracy {
	return Accuracy{
		PrimaryPreviousSolution:    result.TechStack.PrimaryPreviousSolution == expected.PrimaryPreviousSolution,
		SecondaryPreviousSolutions: sameTools(result.TechStack.SecondaryPreviousSolutions, expected.SecondaryPreviousSolutions),
		CloudProvider:              result.TechStack.CloudProvider == expected.CloudProvider,
	}
}

func sameTools(a, b []types.OrchestrationTool) bool {
	set := func(v []types.OrchestrationTool) []string {
		seen := make(map[string]struct{}, len(v))
		out := make([]string, 0, len(v))
		for _, t := range v {
			if _, ok := seen[string(t)]; ok {
				continue
			}
			seen[string(t)] = struct{}{}
			out = append(out, string(t))
		}
		sort.Strings(out)
		return out
	}

	x, y := set(a), set(b)
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// EvalReport is the outcome of evaluating one opportunity
type EvalReport struct {
	OpportunityID   string                  `json:"opportunity_id"`
	NoEvidence      *model.ExtractionResult `json:"no_evidence"`
	NoEvidenceScore float64                 `json:"no_evidence_score"`
	WithEvidence    *model.ExtractionResult `json:"with_evidence,omitempty"`
	Expected        *model.TechStack        `json:"expected,omitempty"`
	Accuracy        *Accuracy               `json:"accuracy,omitempty"`
}

// EvalUseCase scores the extraction agent without evidence and, when an
// expected stack is known, measures its accuracy with evidence.
type EvalUseCase struct {
	extract           *ExtractUseCase
	confidenceCeiling float64
	expectations      map[string]model.TechStack
}

func NewEvalUseCase(extract *ExtractUseCase, confidenceCeiling float64, expectations map[string]model.TechStack) *EvalUseCase {
	return &EvalUseCase{
		extract:           extract,
		confidenceCeiling: confidenceCeiling,
		expectations:      expectations,
	}
}

func (uc *EvalUseCase) Evaluate(ctx context.Context, namespace, opportunityID string) (*EvalReport, error) {
	report := &EvalReport{OpportunityID: opportunityID}

	noEvidence, err := uc.extract.Extract(ctx, ExtractInput{
		Namespace:       namespace,
		OpportunityID:   opportunityID,
		WithoutEvidence: true,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to extract without evidence", goerr.V(model.OpportunityIDKey, opportunityID))
	}
	report.NoEvidence = noEvidence
	report.NoEvidenceScore = Score(noEvidence, uc.confidenceCeiling)

	expected, ok := uc.expectations[opportunityID]
	if !ok {
		return report, nil
	}

	withEvidence, err := uc.extract.Extract(ctx, ExtractInput{
		Namespace:     namespace,
		OpportunityID: opportunityID,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to extract with evidence", goerr.V(model.OpportunityIDKey, opportunityID))
	}
	accuracy := Compare(withEvidence, expected)
	report.WithEvidence = withEvidence
	report.Expected = &expected
	report.Accuracy = &accuracy

	return report, nil
}
