package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/domain/interfaces"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/service/chunker"
	"github.com/secmon-lab/stackscout/pkg/service/normalizer"
	"github.com/secmon-lab/stackscout/pkg/utils/logging"
)

// Processor turns warehouse rows into embedded documents. Rows and chunks
// that cannot be used are skipped and counted; they never abort the run.
type Processor struct {
	embedder      interfaces.Embedder
	normalizer    *normalizer.Normalizer
	chunkSize     int
	overlap       int
	attributeKeys []string
}

type ProcessorOption func(*Processor)

func WithChunking(chunkSize, overlap int) ProcessorOption {
	return func(p *Processor) {
		p.chunkSize = chunkSize
		p.overlap = overlap
	}
}

func WithAttributeKeys(keys []string) ProcessorOption {
	return func(p *Processor) {
		p.attributeKeys = keys
	}
}

func WithNormalizer(n *normalizer.Normalizer) ProcessorOption {
	return func(p *Processor) {
		p.normalizer = n
	}
}

func NewProcessor(embedder interfaces.Embedder, opts ...ProcessorOption) *Processor {
	p := &Processor{
		embedder:      embedder,
		normalizer:    normalizer.New(),
		chunkSize:     chunker.DefaultChunkSize,
		overlap:       chunker.DefaultOverlap,
		attributeKeys: model.DefaultAttributeKeys(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) Process(ctx context.Context, rows []*model.CallRow) (*model.IngestionBatch, error) {
	c, err := chunker.New(chunker.WithChunkSize(p.chunkSize), chunker.WithOverlap(p.overlap))
	if err != nil {
		return nil, goerr.Wrap(err, "invalid chunk parameters")
	}

	logger := logging.From(ctx)
	batch := &model.IngestionBatch{}
	batch.Stats.Rows = len(rows)

	for _, row := range rows {
		callID := row.CallID()

		duration, ok := row.DurationSeconds()
		if !ok && row.Get(model.AttrCallDurationSec) != nil {
			logger.Warn("skipping row with invalid duration",
				"call_id", callID,
				"duration_sec", row.Get(model.AttrCallDurationSec))
			batch.Stats.SkippedMalformed++
			continue
		}
		if !ok || duration < model.MinCallDurationSeconds {
			logger.Info("skipping short call", "call_id", callID, "duration_sec", duration)
			batch.Stats.SkippedShortCalls++
			continue
		}

		transcript, err := row.Transcript()
		if err != nil {
			logger.Warn("skipping malformed transcript", "call_id", callID, "error", err.Error())
			batch.Stats.SkippedMalformed++
			continue
		}

		attrs := p.normalizer.NormalizeRow(row, p.attributeKeys)
		texts := c.Split(transcript)
		accepted := 0
		for i, text := range texts {
			chunk := &model.TranscriptChunk{CallID: callID, Index: i, Total: len(texts), Text: text}

			vector, err := p.embedder.Embed(ctx, text)
			if err == nil && len(vector) == 0 {
				err = goerr.Wrap(model.ErrEmbeddingFailure, "empty embedding")
			}
			if err != nil {
				if !errors.Is(err, model.ErrEmbeddingFailure) {
					err = goerr.Wrap(model.ErrEmbeddingFailure, err.Error())
				}
				logger.Warn("skipping chunk",
					"call_id", callID,
					"chunk", chunk.Label(),
					"error", err.Error())
				batch.Stats.SkippedChunks++
				continue
			}

			docAttrs := attrs.Copy()
			docAttrs[model.AttrChunkIndex] = chunk.Label()
			docAttrs[model.AttrTranscriptText] = chunk.Text
			batch.Documents = append(batch.Documents, &model.Document{
				ID:         chunk.ID(),
				Vector:     vector,
				Attributes: docAttrs,
			})
			accepted++
		}

		if accepted == 0 {
			logger.Warn("skipping row without indexable chunks", "call_id", callID, "chunks", len(texts))
			batch.Stats.SkippedNoChunks++
			continue
		}
		batch.Stats.AcceptedRows++
		batch.Stats.Chunks += accepted
		logger.Debug("processed call", "call_id", callID, "chunks", len(texts), "accepted", accepted)
	}

	return batch, nil
}
