package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/usecase"
)

func TestProcessor_Process(t *testing.T) {
	longText := strings.Repeat("a", 5000)

	rows := []*model.CallRow{
		model.NewCallRow(map[string]any{
			model.AttrCallID:             "call-long",
			model.AttrName:               "Kickoff",
			model.AttrCallDurationSec:    "1800.7",
			model.AttrIsPrivate:          "yes",
			model.AttrPrimaryOpportunity: "006A",
			model.AttrCombinedTranscript: transcriptJSON(longText),
		}),
		model.NewCallRow(map[string]any{
			model.AttrCallID:             "call-short",
			model.AttrCallDurationSec:    int64(5),
			model.AttrCombinedTranscript: transcriptJSON("we use airflow on aws every day"),
		}),
		model.NewCallRow(map[string]any{
			model.AttrCallID:             "call-broken",
			model.AttrCallDurationSec:    int64(600),
			model.AttrCombinedTranscript: "[{not json",
		}),
		model.NewCallRow(map[string]any{
			model.AttrCallID:             "call-tiny",
			model.AttrCallDurationSec:    int64(600),
			model.AttrCombinedTranscript: transcriptJSON("hi", "ok"),
		}),
		model.NewCallRow(map[string]any{
			model.AttrCallID:             "call-huge",
			model.AttrCallDurationSec:    "1e30",
			model.AttrCombinedTranscript: transcriptJSON("we use airflow on aws every day"),
		}),
		model.NewCallRow(map[string]any{
			model.AttrCallID:             "call-ok",
			model.AttrCallDurationSec:    int64(600),
			model.AttrPrimaryOpportunity: "006B",
			model.AttrCombinedTranscript: transcriptJSON("We run Airflow", "on AWS MWAA today"),
		}),
	}

	t.Run("skips unusable rows and chunks the rest", func(t *testing.T) {
		p := usecase.NewProcessor(&mockEmbedder{})
		batch, err := p.Process(context.Background(), rows)
		gt.NoError(t, err).Required()

		gt.Value(t, batch.Stats).Equal(model.IngestionStats{
			Rows:              6,
			AcceptedRows:      2,
			SkippedShortCalls: 1,
			SkippedMalformed:  3,
			Chunks:            4,
			SkippedChunks:     0,
		})
		gt.Value(t, batch.IDs()).Equal([]string{"call-long-0", "call-long-1", "call-long-2", "call-ok-0"})

		first := batch.Documents[0]
		gt.Value(t, first.Attributes[model.AttrChunkIndex]).Equal(any("0 of 3"))
		gt.Value(t, first.Attributes[model.AttrCallDurationSec]).Equal(any(int64(1800)))
		gt.Value(t, first.Attributes[model.AttrIsPrivate]).Equal(any(true))
		gt.Value(t, first.Attributes[model.AttrPrimaryOpportunity]).Equal(any("006A"))
		gt.Value(t, len([]rune(first.Attributes[model.AttrTranscriptText].(string)))).Equal(2000)

		last := batch.Documents[2]
		gt.Value(t, last.Attributes[model.AttrChunkIndex]).Equal(any("2 of 3"))
		gt.Value(t, len([]rune(last.Attributes[model.AttrTranscriptText].(string)))).Equal(1400)

		ok := batch.Documents[3]
		gt.Value(t, ok.Attributes[model.AttrTranscriptText]).Equal(any("We run Airflow on AWS MWAA today"))
		gt.Value(t, ok.Vector).Equal([]float32{1, 0, 0})
	})

	t.Run("documents of one row do not share attribute maps", func(t *testing.T) {
		p := usecase.NewProcessor(&mockEmbedder{})
		batch, err := p.Process(context.Background(), rows[:1])
		gt.NoError(t, err).Required()
		gt.A(t, batch.Documents).Length(3)

		batch.Documents[0].Attributes[model.AttrName] = "changed"
		gt.Value(t, batch.Documents[1].Attributes[model.AttrName]).Equal(any("Kickoff"))
	})

	t.Run("skips only the chunk whose embedding fails", func(t *testing.T) {
		calls := 0
		embedder := &mockEmbedder{
			embedFn: func(ctx context.Context, text string) ([]float32, error) {
				calls++
				switch calls {
				case 2:
					return nil, errors.New("quota exceeded")
				case 3:
					return []float32{}, nil
				}
				return []float32{0.5, 0.5, 0}, nil
			},
		}

		p := usecase.NewProcessor(embedder, usecase.WithChunking(2000, 200))
		batch, err := p.Process(context.Background(), rows[:1])
		gt.NoError(t, err).Required()
		gt.Value(t, batch.IDs()).Equal([]string{"call-long-0"})
		gt.Value(t, batch.Stats.SkippedChunks).Equal(2)
		gt.Value(t, batch.Stats.Chunks).Equal(1)
	})

	t.Run("row whose chunks all fail is not accepted", func(t *testing.T) {
		embedder := &mockEmbedder{
			embedFn: func(ctx context.Context, text string) ([]float32, error) {
				return nil, errors.New("embedding backend down")
			},
		}

		p := usecase.NewProcessor(embedder)
		batch, err := p.Process(context.Background(), rows[:1])
		gt.NoError(t, err).Required()
		gt.A(t, batch.Documents).Length(0)
		gt.Value(t, batch.Stats).Equal(model.IngestionStats{
			Rows:            1,
			SkippedNoChunks: 1,
			SkippedChunks:   3,
		})
	})

	t.Run("restricts attributes to configured keys", func(t *testing.T) {
		p := usecase.NewProcessor(&mockEmbedder{}, usecase.WithAttributeKeys([]string{model.AttrPrimaryOpportunity}))
		batch, err := p.Process(context.Background(), rows[5:])
		gt.NoError(t, err).Required()
		gt.A(t, batch.Documents).Length(1)
		gt.Value(t, batch.Documents[0].Attributes).Equal(model.Attributes{
			model.AttrPrimaryOpportunity: "006B",
			model.AttrChunkIndex:         "0 of 1",
			model.AttrTranscriptText:     "We run Airflow on AWS MWAA today",
		})
	})

	t.Run("rejects invalid chunk parameters", func(t *testing.T) {
		p := usecase.NewProcessor(&mockEmbedder{}, usecase.WithChunking(100, 100))
		_, err := p.Process(context.Background(), rows)
		gt.Error(t, err).Is(model.ErrInvalidArgument)
	})

	t.Run("empty input yields empty batch", func(t *testing.T) {
		p := usecase.NewProcessor(&mockEmbedder{})
		batch, err := p.Process(context.Background(), nil)
		gt.NoError(t, err).Required()
		gt.Value(t, batch.Len()).Equal(0)
		gt.Value(t, batch.Stats.Rows).Equal(0)
	})
}
