package worker

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/usecase"
	"github.com/secmon-lab/stackscout/pkg/utils/errutil"
	"github.com/secmon-lab/stackscout/pkg/utils/logging"
)

// Ingester runs one ingestion pass
type Ingester interface {
	Run(ctx context.Context, input usecase.IngestInput) (*usecase.IngestReport, error)
}

// IngestRefreshWorker re-ingests warehouse calls on a fixed interval so the
// index follows new calls. Upserts are idempotent, so a pass over calls that
// were already indexed only rewrites them.
//
// Single server instance is assumed. Several instances would ingest the same
// calls concurrently.
type IngestRefreshWorker struct {
	ingester Ingester
	input    usecase.IngestInput
	interval time.Duration
	cancel   context.CancelFunc
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewIngestRefreshWorker creates a worker that runs input every interval
func NewIngestRefreshWorker(ingester Ingester, input usecase.IngestInput, interval time.Duration) *IngestRefreshWorker {
	return &IngestRefreshWorker{
		ingester: ingester,
		input:    input,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background refresh loop. The first pass runs immediately
// in the background and does not block server startup.
func (w *IngestRefreshWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return goerr.New("refresh interval must be positive", goerr.V("interval", w.interval))
	}

	logging.Default().Info("Ingest refresh worker starting",
		"interval", w.interval.String(),
		"namespace", w.input.Namespace)

	ctx, w.cancel = context.WithCancel(ctx)
	go w.run(ctx)

	return nil
}

// Stop cancels a running pass, then waits for the loop to exit. It is a no-op
// when Start was never called.
func (w *IngestRefreshWorker) Stop() {
	if w.cancel == nil {
		return
	}
	logging.Default().Info("Ingest refresh worker stopping")
	w.cancel()
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Ingest refresh worker stopped")
}

func (w *IngestRefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.refresh(ctx)

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Ingest refresh worker context cancelled")
			return
		}
	}
}

// refresh runs one pass. Failures are reported and retried next interval.
func (w *IngestRefreshWorker) refresh(ctx context.Context) {
	startTime := time.Now()

	report, err := w.ingester.Run(ctx, w.input)
	if err != nil && ctx.Err() != nil {
		logging.Default().Info("Ingest refresh interrupted", "error", err.Error())
		return
	}
	if err != nil {
		errutil.Handle(ctx, err, "ingest refresh failed (will retry next interval)")
		return
	}

	logging.Default().Info("Ingest refresh completed",
		"run_id", report.RunID,
		"accepted_rows", report.Stats.AcceptedRows,
		"chunks", report.Stats.Chunks,
		"duration", time.Since(startTime).String())
}
