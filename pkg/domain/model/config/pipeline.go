package config

import (
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/domain/types"
)

const (
	DefaultNamespace         = "tay-sales-calls"
	DefaultChunkSize         = 2000
	DefaultOverlap           = 200
	DefaultBatchSize         = 50
	DefaultConcurrency       = 1
	DefaultConfidenceCeiling = 0.5
	DefaultTopK              = 3
	DefaultFetchLimit        = 100
)

// PipelineConfig holds the tunables shared by ingestion, retrieval and evaluation
type PipelineConfig struct {
	Namespace         string
	ChunkSize         int
	Overlap           int
	BatchSize         int
	Concurrency       int
	ConfidenceCeiling float64
	TopK              int
	FetchLimit        int
	AttributeKeys     []string
	AttributeKinds    map[string]types.AttributeKind
	IncludeAttributes []string

	// Expectations maps an opportunity id to the stack it is known to run
	Expectations map[string]model.TechStack
}

// DefaultPipelineConfig returns the configuration used when no file is given
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		Namespace:         DefaultNamespace,
		ChunkSize:         DefaultChunkSize,
		Overlap:           DefaultOverlap,
		BatchSize:         DefaultBatchSize,
		Concurrency:       DefaultConcurrency,
		ConfidenceCeiling: DefaultConfidenceCeiling,
		TopK:              DefaultTopK,
		FetchLimit:        DefaultFetchLimit,
		AttributeKeys:     model.DefaultAttributeKeys(),
		AttributeKinds:    map[string]types.AttributeKind{},
		IncludeAttributes: model.DefaultIncludeAttributes(),
		Expectations:      map[string]model.TechStack{},
	}
}
