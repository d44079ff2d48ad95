package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/domain/interfaces"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// Indexer writes an IngestionBatch to a vector store in contiguous slices
type Indexer struct {
	store       interfaces.VectorStore
	concurrency int
}

type IndexerOption func(*Indexer)

// WithConcurrency sets how many slices may be in flight at once
func WithConcurrency(n int) IndexerOption {
	return func(ix *Indexer) {
		ix.concurrency = n
	}
}

func NewIndexer(store interfaces.VectorStore, opts ...IndexerOption) *Indexer {
	ix := &Indexer{store: store, concurrency: 1}
	for _, opt := range opts {
		opt(ix)
	}
	if ix.concurrency < 1 {
		ix.concurrency = 1
	}
	return ix
}

// Index upserts batch in slices of at most batchSize documents. The first
// rejected slice is returned as *model.IndexWriteError. Slices written
// before the failure stay written.
func (ix *Indexer) Index(ctx context.Context, namespace string, batch *model.IngestionBatch, batchSize int) error {
	if batchSize <= 0 {
		return goerr.Wrap(model.ErrInvalidArgument, "batch size must be positive", goerr.V("batch_size", batchSize))
	}
	if namespace == "" {
		return goerr.Wrap(model.ErrInvalidArgument, "namespace is required")
	}

	logger := logging.From(ctx)
	total := batch.Len()

	write := func(ctx context.Context, index, start, end int) error {
		slice := batch.Slice(start, end)
		if err := ix.store.Upsert(ctx, namespace, slice.Columns()); err != nil {
			ids := slice.IDs()
			return &model.IndexWriteError{
				Namespace:  namespace,
				BatchIndex: index,
				FirstID:    ids[0],
				LastID:     ids[len(ids)-1],
				Size:       len(ids),
				Err:        err,
			}
		}
		logger.Info("upserted batch",
			model.NamespaceKey, namespace,
			model.BatchIndexKey, index,
			"size", end-start,
			"progress", end,
			"total", total)
		return nil
	}

	if ix.concurrency == 1 {
		for index, start := 0, 0; start < total; index, start = index+1, start+batchSize {
			if err := write(ctx, index, start, min(start+batchSize, total)); err != nil {
				return err
			}
		}
		return nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(ix.concurrency)
	for index, start := 0, 0; start < total; index, start = index+1, start+batchSize {
		end := min(start+batchSize, total)
		eg.Go(func() error {
			return write(egCtx, index, start, end)
		})
	}
	return eg.Wait()
}
