package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
)

func TestPrintResults(t *testing.T) {
	color.NoColor = true

	t.Run("cuts transcript to head and tail", func(t *testing.T) {
		text := strings.Repeat("a", 600) + strings.Repeat("z", 400)
		var buf bytes.Buffer
		printResults(&buf, []*model.QueryResult{
			{
				ID:       "c1-0",
				Distance: 0.12345,
				Attributes: model.Attributes{
					model.AttrTranscriptText: text,
					"gong_call_id_c":         "123",
				},
			},
		}, 500)

		out := buf.String()
		gt.String(t, out).Contains("ID: c1-0")
		gt.String(t, out).Contains("Distance: 0.1235")
		gt.String(t, out).Contains("gong_call_id_c: 123")
		gt.String(t, out).Contains("Transcript Text (500 characters)")
		gt.String(t, out).Contains(strings.Repeat("a", 500) + "...")
		gt.String(t, out).Contains(strings.Repeat("z", 400) + "\n")
		gt.String(t, out).Contains("Chunk Length: 1000")
		gt.Bool(t, strings.Contains(out, strings.Repeat("a", 501))).False()
	})

	t.Run("short transcript is printed whole", func(t *testing.T) {
		var buf bytes.Buffer
		printResults(&buf, []*model.QueryResult{
			{ID: "c2-0", Attributes: model.Attributes{model.AttrTranscriptText: "short"}},
		}, 500)
		gt.String(t, buf.String()).Contains("Transcript Text (5 characters)")
		gt.String(t, buf.String()).Contains("Chunk Length: 5")
	})

	t.Run("no results", func(t *testing.T) {
		var buf bytes.Buffer
		printResults(&buf, nil, 500)
		gt.String(t, buf.String()).Contains("No results")
	})
}
