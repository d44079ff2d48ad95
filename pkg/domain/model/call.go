package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
)

const (
	// MinCallDurationSeconds is the shortest call that is worth indexing.
	MinCallDurationSeconds = 10

	// MinTranscriptLength is the shortest flattened transcript, in characters, that is worth indexing.
	MinTranscriptLength = 10
)

// CallRow is one transcript record read from the warehouse. It is never mutated
// after construction.
type CallRow struct {
	fields map[string]any
}

// NewCallRow wraps raw warehouse fields. The map is copied.
func NewCallRow(fields map[string]any) *CallRow {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &CallRow{fields: copied}
}

// Get returns the raw value of a field, or nil if absent.
func (r *CallRow) Get(key string) any {
	return r.fields[key]
}

// Fields returns a copy of all raw fields.
func (r *CallRow) Fields() map[string]any {
	copied := make(map[string]any, len(r.fields))
	for k, v := range r.fields {
		copied[k] = v
	}
	return copied
}

func (r *CallRow) CallID() string {
	return stringField(r.fields[AttrCallID])
}

func (r *CallRow) Title() string {
	return stringField(r.fields[AttrName])
}

func (r *CallRow) OpportunityID() string {
	return stringField(r.fields[AttrPrimaryOpportunity])
}

// DurationSeconds returns the call duration. The second value is false when the
// field is missing, not numeric or outside the int64 range.
func (r *CallRow) DurationSeconds() (int64, bool) {
	switch v := r.fields[AttrCallDurationSec].(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float32:
		return finiteInt(float64(v))
	case float64:
		return finiteInt(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return finiteInt(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return finiteInt(f)
	default:
		return 0, false
	}
}

// Transcript flattens combined_transcript into one string by joining the text
// of every sentence fragment with a single space. Missing, malformed or too
// short transcripts yield ErrMalformedRecord.
func (r *CallRow) Transcript() (string, error) {
	raw := r.fields[AttrCombinedTranscript]

	var items []any
	switch v := raw.(type) {
	case nil:
		return "", goerr.Wrap(ErrMalformedRecord, "combined transcript is empty", goerr.V(CallIDKey, r.CallID()))
	case string:
		if strings.TrimSpace(v) == "" {
			return "", goerr.Wrap(ErrMalformedRecord, "combined transcript is empty", goerr.V(CallIDKey, r.CallID()))
		}
		if err := json.Unmarshal([]byte(v), &items); err != nil {
			return "", goerr.Wrap(ErrMalformedRecord, "failed to parse combined transcript",
				goerr.V(CallIDKey, r.CallID()),
				goerr.V("error", err.Error()))
		}
	case []byte:
		if err := json.Unmarshal(v, &items); err != nil {
			return "", goerr.Wrap(ErrMalformedRecord, "failed to parse combined transcript",
				goerr.V(CallIDKey, r.CallID()),
				goerr.V("error", err.Error()))
		}
	case []any:
		items = v
	default:
		return "", goerr.Wrap(ErrMalformedRecord, "unsupported combined transcript type",
			goerr.V(CallIDKey, r.CallID()),
			goerr.V("type", fmt.Sprintf("%T", raw)))
	}

	texts := make([]string, 0, len(items))
	for i, item := range items {
		fragment, ok := item.(map[string]any)
		if !ok {
			return "", goerr.Wrap(ErrMalformedRecord, "transcript fragment is not an object",
				goerr.V(CallIDKey, r.CallID()),
				goerr.V("index", i))
		}
		text, _ := fragment["text"].(string)
		texts = append(texts, text)
	}

	joined := strings.Join(texts, " ")
	if utf8.RuneCountInString(strings.TrimSpace(joined)) < MinTranscriptLength {
		return "", goerr.Wrap(ErrMalformedRecord, "transcript text is too short",
			goerr.V(CallIDKey, r.CallID()),
			goerr.V("length", utf8.RuneCountInString(joined)))
	}

	return joined, nil
}

func stringField(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// int64Bound is 2^63. float64(math.MaxInt64) rounds up to it, so the upper
// bound must be exclusive.
const int64Bound = 1 << 63

func finiteInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= int64Bound || f < -int64Bound {
		return 0, false
	}
	return int64(f), true
}
