package usecase

import (
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/stackscout/pkg/domain/interfaces"
	"github.com/secmon-lab/stackscout/pkg/domain/model/config"
	"github.com/secmon-lab/stackscout/pkg/service/normalizer"
	"github.com/secmon-lab/stackscout/pkg/service/notify"
)

type UseCases struct {
	store     interfaces.VectorStore
	embedder  interfaces.Embedder
	llmClient gollem.LLMClient
	source    interfaces.RowSource
	publisher interfaces.EventPublisher
	pipeline  *config.PipelineConfig

	Ingest   *IngestUseCase
	Retrieve *RetrieveUseCase
	Extract  *ExtractUseCase
	Eval     *EvalUseCase
}

type Option func(*UseCases)

func WithLLMClient(client gollem.LLMClient) Option {
	return func(uc *UseCases) {
		uc.llmClient = client
	}
}

func WithRowSource(source interfaces.RowSource) Option {
	return func(uc *UseCases) {
		uc.source = source
	}
}

func WithPublisher(publisher interfaces.EventPublisher) Option {
	return func(uc *UseCases) {
		uc.publisher = publisher
	}
}

func WithPipelineConfig(cfg *config.PipelineConfig) Option {
	return func(uc *UseCases) {
		uc.pipeline = cfg
	}
}

// New wires the use cases. Ingest is only available with a row source and
// Extract/Eval only with an LLM client.
func New(store interfaces.VectorStore, embedder interfaces.Embedder, opts ...Option) *UseCases {
	uc := &UseCases{
		store:     store,
		embedder:  embedder,
		publisher: notify.Nop{},
		pipeline:  config.DefaultPipelineConfig(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	cfg := uc.pipeline
	uc.Retrieve = NewRetrieveUseCase(store, embedder, cfg.IncludeAttributes)

	if uc.source != nil {
		normOpts := make([]normalizer.Option, 0, len(cfg.AttributeKinds))
		for key, kind := range cfg.AttributeKinds {
			normOpts = append(normOpts, normalizer.WithRule(key, kind))
		}
		processor := NewProcessor(embedder,
			WithChunking(cfg.ChunkSize, cfg.Overlap),
			WithAttributeKeys(cfg.AttributeKeys),
			WithNormalizer(normalizer.New(normOpts...)),
		)
		indexer := NewIndexer(store, WithConcurrency(cfg.Concurrency))
		uc.Ingest = NewIngestUseCase(uc.source, processor, indexer, uc.publisher)
	}

	if uc.llmClient != nil {
		uc.Extract = NewExtractUseCase(uc.llmClient, uc.Retrieve, uc.publisher, cfg.ConfidenceCeiling)
		uc.Eval = NewEvalUseCase(uc.Extract, cfg.ConfidenceCeiling, cfg.Expectations)
	}

	return uc
}

// Pipeline returns the pipeline configuration in use
func (uc *UseCases) Pipeline() *config.PipelineConfig {
	return uc.pipeline
}
