// Package normalizer coerces heterogeneous warehouse field values into a
// representation every vector store accepts. It never fails: a bad value
// becomes nil or passes through unchanged.
package normalizer

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/domain/types"
)

// DefaultRules returns the field kinds of the call warehouse
func DefaultRules() map[string]types.AttributeKind {
	return map[string]types.AttributeKind{
		model.AttrCallDurationSec:          types.AttributeKindInteger,
		model.AttrOppProbabilityTimeOfCall: types.AttributeKindInteger,
		model.AttrCallStart:                types.AttributeKindTimestamp,
		model.AttrOppCloseDateTimeOfCall:   types.AttributeKindTimestamp,
		model.AttrScheduled:                types.AttributeKindTimestamp,
		model.AttrIsPrivate:                types.AttributeKindBoolean,
	}
}

// Normalizer applies per-key coercion rules
type Normalizer struct {
	rules map[string]types.AttributeKind
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithRule sets or overrides the kind of one key
func WithRule(key string, kind types.AttributeKind) Option {
	return func(n *Normalizer) {
		n.rules[key] = kind
	}
}

// New creates a Normalizer with DefaultRules plus overrides
func New(opts ...Option) *Normalizer {
	n := &Normalizer{rules: DefaultRules()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// KindOf returns the rule for key. Keys without an explicit rule that contain
// "json" are JSON, everything else passes through.
func (n *Normalizer) KindOf(key string) types.AttributeKind {
	if kind, ok := n.rules[key]; ok {
		return kind
	}
	if strings.Contains(key, "json") {
		return types.AttributeKindJSON
	}
	return types.AttributeKindPassthrough
}

// Normalize returns the canonical form of value for key. nil maps to nil.
func (n *Normalizer) Normalize(key string, value any) any {
	if value == nil {
		return nil
	}

	switch n.KindOf(key) {
	case types.AttributeKindInteger:
		return toInteger(value)
	case types.AttributeKindTimestamp:
		return toTimestamp(value)
	case types.AttributeKindJSON:
		return toCanonicalJSON(value)
	case types.AttributeKindBoolean:
		return toBoolean(value)
	default:
		return value
	}
}

// NormalizeRow normalizes the listed keys of a row. Missing keys map to nil.
func (n *Normalizer) NormalizeRow(row *model.CallRow, keys []string) model.Attributes {
	attrs := make(model.Attributes, len(keys))
	for _, k := range keys {
		attrs[k] = n.Normalize(k, row.Get(k))
	}
	return attrs
}

func toInteger(value any) any {
	var f float64
	switch v := value.(type) {
	case bool:
		if v {
			return int64(1)
		}
		return int64(0)
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint:
		f = float64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		f = float64(v)
	case float32:
		f = float64(v)
	case float64:
		f = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	// 2^63 is exactly representable while float64(math.MaxInt64) rounds up to it.
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= 1<<63 || f < -(1<<63) {
		return nil
	}
	return int64(f)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999 MST",
	"2006-01-02",
}

func toTimestamp(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case *time.Time:
		if v == nil {
			return nil
		}
		return v.Format(time.RFC3339Nano)
	case civil.DateTime:
		return v.String()
	case civil.Date:
		return v.String()
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				if layout == "2006-01-02" {
					return t.Format("2006-01-02")
				}
				return t.Format(time.RFC3339Nano)
			}
		}
		return v
	default:
		return value
	}
}

func toCanonicalJSON(value any) any {
	var decoded any
	switch v := value.(type) {
	case string:
		if err := decodeJSON([]byte(v), &decoded); err != nil {
			return value
		}
	case []byte:
		if err := decodeJSON(v, &decoded); err != nil {
			return value
		}
	default:
		decoded = value
	}

	// Encoding sorts map keys, which canonicalizes ordering and whitespace.
	// HTML escaping stays off so warehouse text is stored unchanged.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(decoded); err != nil {
		return value
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// decodeJSON keeps numbers as json.Number so large ids survive re-encoding
func decodeJSON(data []byte, out *any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return err
	}
	if dec.More() {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func toBoolean(value any) any {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1":
			return true
		case "false", "no", "0":
			return false
		}
		return v != ""
	}
	return truthy(value)
}

func truthy(value any) bool {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}
