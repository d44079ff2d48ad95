package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/domain/interfaces"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/service/notify"
	"github.com/secmon-lab/stackscout/pkg/utils/async"
	"github.com/secmon-lab/stackscout/pkg/utils/logging"
)

// IngestInput selects what one ingestion run reads and where it writes
type IngestInput struct {
	Namespace string
	Limit     int
	BatchSize int
}

// IngestReport summarizes an ingestion run. It is also the payload of the
// ingest completed event.
type IngestReport struct {
	RunID      string               `json:"run_id"`
	Namespace  string               `json:"namespace"`
	Stats      model.IngestionStats `json:"stats"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
}

// IngestUseCase reads warehouse rows, processes them and indexes the result
type IngestUseCase struct {
	source    interfaces.RowSource
	processor *Processor
	indexer   *Indexer
	publisher interfaces.EventPublisher
}

func NewIngestUseCase(source interfaces.RowSource, processor *Processor, indexer *Indexer, publisher interfaces.EventPublisher) *IngestUseCase {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &IngestUseCase{
		source:    source,
		processor: processor,
		indexer:   indexer,
		publisher: publisher,
	}
}

func (uc *IngestUseCase) Run(ctx context.Context, input IngestInput) (*IngestReport, error) {
	if input.BatchSize <= 0 {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "batch size must be positive", goerr.V("batch_size", input.BatchSize))
	}

	report := &IngestReport{
		RunID:     uuid.Must(uuid.NewV7()).String(),
		Namespace: input.Namespace,
		StartedAt: time.Now().UTC(),
	}
	logger := logging.From(ctx).With("run_id", report.RunID, model.NamespaceKey, input.Namespace)
	ctx = logging.With(ctx, logger)

	rows, err := uc.source.FetchCalls(ctx, input.Limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch calls", goerr.V("limit", input.Limit))
	}
	logger.Info("fetched calls", "rows", len(rows))

	batch, err := uc.processor.Process(ctx, rows)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to process calls")
	}
	report.Stats = batch.Stats

	if batch.Len() > 0 {
		if err := uc.indexer.Index(ctx, input.Namespace, batch, input.BatchSize); err != nil {
			return report, goerr.Wrap(err, "failed to index documents")
		}
	}

	report.FinishedAt = time.Now().UTC()
	logger.Info("ingestion completed",
		"accepted_rows", report.Stats.AcceptedRows,
		"skipped_short_calls", report.Stats.SkippedShortCalls,
		"skipped_malformed", report.Stats.SkippedMalformed,
		"skipped_no_chunks", report.Stats.SkippedNoChunks,
		"chunks", report.Stats.Chunks,
		"skipped_chunks", report.Stats.SkippedChunks)

	event := *report
	async.Dispatch(ctx, func(ctx context.Context) error {
		return uc.publisher.Publish(ctx, notify.SubjectIngestCompleted, event)
	})

	return report, nil
}
