package postgres_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/repository/postgres"
)

func TestPgVector(t *testing.T) {
	gt.Value(t, postgres.PgVector([]float32{0.1, -2, 3.5})).Equal("[0.1,-2,3.5]")
	gt.Value(t, postgres.PgVector(nil)).Equal("[]")
}

func TestBuildQuery(t *testing.T) {
	t.Run("filtered nearest neighbor", func(t *testing.T) {
		sql, args, err := postgres.BuildQuery(`"docs"`, "ns", &model.VectorQuery{
			Vector:  []float32{1, 0},
			TopK:    3,
			Filters: []model.Filter{model.Eq(model.AttrPrimaryOpportunity, "006A")},
		})
		gt.NoError(t, err).Required()
		gt.Value(t, sql).Equal(`SELECT id, embedding <=> $2::vector AS distance, attributes FROM "docs" ` +
			`WHERE namespace = $1 AND embedding IS NOT NULL AND attributes->>$3 = $4 ORDER BY distance, id LIMIT $5`)
		gt.Value(t, args).Equal([]any{"ns", "[1,0]", model.AttrPrimaryOpportunity, "006A", 3})
	})

	t.Run("listing without vector", func(t *testing.T) {
		sql, args, err := postgres.BuildQuery(`"docs"`, "ns", &model.VectorQuery{TopK: 1000})
		gt.NoError(t, err).Required()
		gt.Value(t, sql).Equal(`SELECT id, 0::float8 AS distance, attributes FROM "docs" WHERE namespace = $1 ORDER BY id LIMIT $2`)
		gt.Value(t, args).Equal([]any{"ns", 1000})
	})

	t.Run("invalid top_k", func(t *testing.T) {
		_, _, err := postgres.BuildQuery(`"docs"`, "ns", &model.VectorQuery{TopK: 0})
		gt.Error(t, err).Is(model.ErrInvalidArgument)
	})

	t.Run("unsupported operator", func(t *testing.T) {
		_, _, err := postgres.BuildQuery(`"docs"`, "ns", &model.VectorQuery{
			TopK:    1,
			Filters: []model.Filter{{Attribute: "a", Op: "Gt", Value: 1}},
		})
		gt.Error(t, err).Is(model.ErrInvalidArgument)
	})
}
