package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
)

const tailCharacters = 400

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	keyColor    = color.New(color.FgYellow)
	goodColor   = color.New(color.FgGreen)
	badColor    = color.New(color.FgRed)
)

// printResults writes query results for a human. Transcript text is cut to
// its first headChars characters and its last 400 characters.
func printResults(w io.Writer, results []*model.QueryResult, headChars int) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results")
		return
	}

	for _, r := range results {
		headerColor.Fprintln(w, "\nResult:")
		fmt.Fprintf(w, "  ID: %s\n", r.ID)
		fmt.Fprintf(w, "  Distance: %.4f\n", r.Distance)
		fmt.Fprintln(w, "  Attributes:")

		keys := make([]string, 0, len(r.Attributes))
		for k := range r.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			v := r.Attributes[k]
			text, ok := v.(string)
			if k != model.AttrTranscriptText || !ok {
				fmt.Fprintf(w, "    %s: %v\n", keyColor.Sprint(k), v)
				continue
			}
			printTranscript(w, text, headChars)
		}
	}
}

func printTranscript(w io.Writer, text string, headChars int) {
	runes := []rune(text)
	head := min(headChars, len(runes))
	tail := min(tailCharacters, len(runes))

	fmt.Fprintln(w, "\n-----")
	fmt.Fprintf(w, "Transcript Text (%d characters):\n\n", head)
	fmt.Fprintf(w, "%s...\n\n", string(runes[:head]))
	fmt.Fprintf(w, "Last %d characters:\n\n", tailCharacters)
	fmt.Fprintf(w, "%s\n\n", string(runes[len(runes)-tail:]))
	fmt.Fprintf(w, "Chunk Length: %d\n", len(runes))
	fmt.Fprintln(w, "-----")
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to marshal output")
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func printScore(w io.Writer, label string, score float64) {
	c := goodColor
	if score < 0 {
		c = badColor
	}
	fmt.Fprintf(w, "%s: %s\n", label, c.Sprintf("%.2f", score))
}
