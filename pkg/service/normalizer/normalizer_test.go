package normalizer_test

import (
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/domain/types"
	"github.com/secmon-lab/stackscout/pkg/service/normalizer"
)

func TestNormalize_NilAlwaysNil(t *testing.T) {
	n := normalizer.New()
	keys := append(model.DefaultAttributeKeys(), "random_key", "some_json_field")
	for _, key := range keys {
		gt.Value(t, n.Normalize(key, nil)).Nil()
	}
}

func TestNormalize_Integer(t *testing.T) {
	n := normalizer.New()
	testCases := []struct {
		name  string
		value any
		want  any
	}{
		{name: "float string truncates", value: "12.9", want: int64(12)},
		{name: "negative float truncates toward zero", value: -3.7, want: int64(-3)},
		{name: "int passes as int64", value: 45, want: int64(45)},
		{name: "bool", value: true, want: int64(1)},
		{name: "unparsable string", value: "bad", want: nil},
		{name: "nan", value: math.NaN(), want: nil},
		{name: "unsupported type", value: []int{1}, want: nil},
		{name: "max int64 string rounds past range", value: "9223372036854775807", want: nil},
		{name: "float at 2^63", value: 9.223372036854775807e18, want: nil},
		{name: "max uint64", value: uint64(math.MaxUint64), want: nil},
		{name: "far below range", value: "-1e30", want: nil},
		{name: "lowest int64 stays", value: float64(math.MinInt64), want: int64(math.MinInt64)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Value(t, n.Normalize(model.AttrCallDurationSec, tc.value)).Equal(tc.want)
		})
	}

	gt.Value(t, n.Normalize(model.AttrOppProbabilityTimeOfCall, "80.0")).Equal(any(int64(80)))
}

func TestNormalize_Timestamp(t *testing.T) {
	n := normalizer.New()

	t.Run("time value renders as ISO-8601", func(t *testing.T) {
		ts := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
		gt.Value(t, n.Normalize(model.AttrCallStart, ts)).Equal(any("2024-03-05T14:30:00Z"))
	})

	t.Run("civil datetime from the warehouse", func(t *testing.T) {
		dt := civil.DateTime{
			Date: civil.Date{Year: 2024, Month: time.March, Day: 5},
			Time: civil.Time{Hour: 9, Minute: 15, Second: 1},
		}
		gt.Value(t, n.Normalize(model.AttrScheduled, dt)).Equal(any("2024-03-05T09:15:01"))
	})

	t.Run("space separated string is reformatted", func(t *testing.T) {
		got := n.Normalize(model.AttrCallStart, "2024-03-05 14:30:00")
		gt.Value(t, got).Equal(any("2024-03-05T14:30:00Z"))
	})

	t.Run("offset is preserved", func(t *testing.T) {
		got := n.Normalize(model.AttrOppCloseDateTimeOfCall, "2024-03-05T14:30:00+09:00")
		gt.Value(t, got).Equal(any("2024-03-05T14:30:00+09:00"))
	})

	t.Run("date only", func(t *testing.T) {
		gt.Value(t, n.Normalize(model.AttrOppCloseDateTimeOfCall, "2024-12-31")).Equal(any("2024-12-31"))
	})

	t.Run("unparsable string passes through", func(t *testing.T) {
		gt.Value(t, n.Normalize(model.AttrCallStart, "next tuesday")).Equal(any("next tuesday"))
	})
}

func TestNormalize_JSON(t *testing.T) {
	n := normalizer.New()

	t.Run("string is re-serialized regardless of key order", func(t *testing.T) {
		a := n.Normalize("some_json_field", `{"b":1,"a":2}`)
		b := n.Normalize("some_json_field", `{ "a": 2,   "b": 1 }`)
		gt.Value(t, a).Equal(any(`{"a":2,"b":1}`))
		gt.Value(t, b).Equal(a)
	})

	t.Run("large numbers keep precision", func(t *testing.T) {
		got := n.Normalize(model.AttrRelatedContactsJSON, `[{"id":12345678901234567890}]`)
		gt.Value(t, got).Equal(any(`[{"id":12345678901234567890}]`))
	})

	t.Run("structured value is serialized", func(t *testing.T) {
		got := n.Normalize(model.AttrRelatedLeadsJSON, []any{map[string]any{"z": true, "a": "x"}})
		gt.Value(t, got).Equal(any(`[{"a":"x","z":true}]`))
	})

	t.Run("markup is not escaped", func(t *testing.T) {
		got := n.Normalize(model.AttrRelatedParticipantsJSON, `{"title":"<VP> Data & AI"}`)
		gt.Value(t, got).Equal(any(`{"title":"<VP> Data & AI"}`))
	})

	t.Run("malformed string passes through", func(t *testing.T) {
		gt.Value(t, n.Normalize(model.AttrRelatedParticipantsJSON, `{"broken"`)).Equal(any(`{"broken"`))
	})

	t.Run("trailing garbage passes through", func(t *testing.T) {
		gt.Value(t, n.Normalize("x_json", `{} tail`)).Equal(any(`{} tail`))
	})

	t.Run("unserializable value passes through", func(t *testing.T) {
		ch := make(chan int)
		gt.Value(t, n.Normalize("x_json", ch)).Equal(any(ch))
	})
}

func TestNormalize_Boolean(t *testing.T) {
	n := normalizer.New()
	testCases := []struct {
		value any
		want  bool
	}{
		{"true", true},
		{"YES", true},
		{" 1 ", true},
		{"false", false},
		{"No", false},
		{"0", false},
		{"maybe", true},
		{"", false},
		{true, true},
		{int64(0), false},
		{2.5, true},
		{[]any{}, false},
	}
	for _, tc := range testCases {
		gt.Value(t, n.Normalize(model.AttrIsPrivate, tc.value)).Equal(any(tc.want))
	}
}

func TestNormalize_Passthrough(t *testing.T) {
	n := normalizer.New()
	gt.Value(t, n.Normalize(model.AttrName, "Intro call")).Equal(any("Intro call"))
	gt.Value(t, n.Normalize(model.AttrCallID, int64(7))).Equal(any(int64(7)))
}

func TestNew_WithRule(t *testing.T) {
	n := normalizer.New(
		normalizer.WithRule("meeting_minutes", types.AttributeKindInteger),
		normalizer.WithRule(model.AttrRelatedLeadsJSON, types.AttributeKindPassthrough),
	)
	gt.Value(t, n.KindOf("meeting_minutes")).Equal(types.AttributeKindInteger)
	gt.Value(t, n.Normalize("meeting_minutes", "3.2")).Equal(any(int64(3)))
	gt.Value(t, n.Normalize(model.AttrRelatedLeadsJSON, `{"b":1, "a":2}`)).Equal(any(`{"b":1, "a":2}`))
}

func TestNormalizeRow(t *testing.T) {
	n := normalizer.New()
	row := model.NewCallRow(map[string]any{
		model.AttrCallDurationSec: "61.5",
		model.AttrIsPrivate:       "no",
		model.AttrName:            "Discovery",
	})

	attrs := n.NormalizeRow(row, []string{model.AttrCallDurationSec, model.AttrIsPrivate, model.AttrName, model.AttrCallBrief})
	gt.Value(t, len(attrs)).Equal(4)
	gt.Value(t, attrs[model.AttrCallDurationSec]).Equal(any(int64(61)))
	gt.Value(t, attrs[model.AttrIsPrivate]).Equal(any(false))
	gt.Value(t, attrs[model.AttrName]).Equal(any("Discovery"))
	gt.Value(t, attrs[model.AttrCallBrief]).Nil()
}
