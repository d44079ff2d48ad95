package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/domain/types"
)

// TechStack is what the extraction agent believes an account runs today.
// Empty values mean unknown.
type TechStack struct {
	PrimaryPreviousSolution    types.OrchestrationTool   `json:"primary_previous_solution,omitempty" toml:"primary_previous_solution"`
	SecondaryPreviousSolutions []types.OrchestrationTool `json:"secondary_previous_solutions,omitempty" toml:"secondary_previous_solutions"`
	CloudProvider              types.CloudProvider       `json:"cloud_provider,omitempty" toml:"cloud_provider"`
}

// Validate checks that every non-empty value is a known enum member
func (s *TechStack) Validate() error {
	if s.PrimaryPreviousSolution != "" && !s.PrimaryPreviousSolution.IsValid() {
		return goerr.New("unknown primary previous solution", goerr.V("value", s.PrimaryPreviousSolution))
	}
	for _, v := range s.SecondaryPreviousSolutions {
		if !v.IsValid() {
			return goerr.New("unknown secondary previous solution", goerr.V("value", v))
		}
	}
	if s.CloudProvider != "" && !s.CloudProvider.IsValid() {
		return goerr.New("unknown cloud provider", goerr.V("value", s.CloudProvider))
	}
	return nil
}

// ExtractionResult is produced once per extraction and consumed by the scorer
// or printed for a user.
type ExtractionResult struct {
	TechStack               TechStack `json:"tech_stack"`
	ConfidenceScore         float64   `json:"confidence_score"`
	PreviousSolutionSnippet string    `json:"previous_solution_snippet,omitempty"`
	CloudProviderSnippet    string    `json:"cloud_provider_snippet,omitempty"`
}

func (r *ExtractionResult) Validate() error {
	if r.ConfidenceScore < 0 || r.ConfidenceScore > 1 {
		return goerr.New("confidence score out of range", goerr.V("confidence_score", r.ConfidenceScore))
	}
	if err := r.TechStack.Validate(); err != nil {
		return goerr.Wrap(err, "invalid tech stack")
	}
	return nil
}
