package sqlite_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/repository/sqlite"
)

func TestVectorEncoding(t *testing.T) {
	v := []float32{0.25, -1.5, 3}
	data := sqlite.EncodeVector(v)
	gt.A(t, data).Length(12)
	gt.Value(t, sqlite.DecodeVector(data)).Equal(v)

	gt.Value(t, sqlite.EncodeVector(nil) == nil).Equal(true)
}

func TestBuildQuery(t *testing.T) {
	t.Run("pushes the opportunity filter down", func(t *testing.T) {
		stmt, args, err := sqlite.BuildQuery("ns", []model.Filter{model.Eq(model.AttrPrimaryOpportunity, "006A")})
		gt.NoError(t, err).Required()
		gt.S(t, stmt).Contains("json_extract(attributes, '$.gong_primary_opportunity_c') = ?")
		gt.Value(t, args).Equal([]any{"ns", "006A"})
	})

	t.Run("keeps other filters in process", func(t *testing.T) {
		stmt, args, err := sqlite.BuildQuery("ns", []model.Filter{model.Eq(model.AttrIsPrivate, true)})
		gt.NoError(t, err).Required()
		gt.S(t, stmt).NotContains("json_extract")
		gt.Value(t, args).Equal([]any{"ns"})
	})

	t.Run("rejects unknown operators", func(t *testing.T) {
		_, _, err := sqlite.BuildQuery("ns", []model.Filter{{Attribute: model.AttrName, Op: "Gt", Value: 1}})
		gt.Error(t, err).Is(model.ErrInvalidArgument)
	})
}

func TestQueryUsesOpportunityIndex(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.New(ctx, filepath.Join(t.TempDir(), "vectors.db"))
	gt.NoError(t, err).Required()
	t.Cleanup(func() { _ = store.Close() })

	stmt, args, err := sqlite.BuildQuery("ns", []model.Filter{model.Eq(model.AttrPrimaryOpportunity, "006A")})
	gt.NoError(t, err).Required()

	rows, err := store.DB().QueryContext(ctx, "EXPLAIN QUERY PLAN "+stmt, args...)
	gt.NoError(t, err).Required()
	defer func() { _ = rows.Close() }()

	var plan []string
	for rows.Next() {
		var id, parent, notUsed int
		var detail string
		gt.NoError(t, rows.Scan(&id, &parent, &notUsed, &detail)).Required()
		plan = append(plan, detail)
	}
	gt.NoError(t, rows.Err())
	gt.S(t, strings.Join(plan, "\n")).Contains("documents_opportunity_idx")
}
