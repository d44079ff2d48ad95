package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/domain/interfaces"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
)

// DefaultTableName is the table holding documents of every namespace
const DefaultTableName = "stackscout_documents"

// Postgres stores vectors in a pgvector column and ranks them with the
// cosine distance operator <=>.
type Postgres struct {
	pool  *pgxpool.Pool
	table string
}

var _ interfaces.VectorStore = &Postgres{}

type Option func(*Postgres)

func WithTableName(name string) Option {
	return func(p *Postgres) {
		p.table = name
	}
}

func New(ctx context.Context, databaseURL string, opts ...Option) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to database")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "failed to ping database")
	}

	p := &Postgres{pool: pool, table: DefaultTableName}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Postgres) tableIdent() string {
	return pgx.Identifier{p.table}.Sanitize()
}

// Migrate creates the pgvector extension, the documents table and the
// namespace/opportunity index. It is safe to run repeatedly.
func (p *Postgres) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			namespace  TEXT NOT NULL,
			id         TEXT NOT NULL,
			embedding  vector,
			attributes JSONB NOT NULL DEFAULT '{}'::jsonb,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (namespace, id)
		)`, p.tableIdent()),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (namespace, (attributes->>'%s'))`,
			pgx.Identifier{p.table + "_opportunity_idx"}.Sanitize(), p.tableIdent(), model.AttrPrimaryOpportunity),
	}

	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return goerr.Wrap(err, "failed to migrate postgres schema", goerr.V("statement", stmt))
		}
	}
	return nil
}

func (p *Postgres) Upsert(ctx context.Context, namespace string, cols *model.UpsertColumns) error {
	if namespace == "" {
		return goerr.Wrap(model.ErrInvalidArgument, "namespace is required")
	}
	if err := cols.Validate(); err != nil {
		return goerr.Wrap(err, "invalid upsert columns", goerr.V(model.NamespaceKey, namespace))
	}
	if cols.Len() == 0 {
		return nil
	}

	sql := fmt.Sprintf(`INSERT INTO %s (namespace, id, embedding, attributes, updated_at)
		VALUES ($1, $2, $3::vector, $4::jsonb, now())
		ON CONFLICT (namespace, id) DO UPDATE
		SET embedding = EXCLUDED.embedding, attributes = EXCLUDED.attributes, updated_at = EXCLUDED.updated_at`,
		p.tableIdent())

	batch := &pgx.Batch{}
	for i := 0; i < cols.Len(); i++ {
		doc := cols.Document(i)
		attrs, err := json.Marshal(doc.Attributes.Storable())
		if err != nil {
			return goerr.Wrap(err, "failed to marshal attributes", goerr.V("id", doc.ID))
		}

		var vec any
		if len(doc.Vector) > 0 {
			vec = pgVector(doc.Vector)
		}
		batch.Queue(sql, namespace, doc.ID, vec, string(attrs))
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < cols.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return goerr.Wrap(err, "failed to upsert document",
				goerr.V(model.NamespaceKey, namespace),
				goerr.V("id", cols.IDs[i]))
		}
	}
	if err := br.Close(); err != nil {
		return goerr.Wrap(err, "failed to close batch")
	}

	if err := tx.Commit(ctx); err != nil {
		return goerr.Wrap(err, "failed to commit upsert", goerr.V(model.NamespaceKey, namespace))
	}
	return nil
}

func (p *Postgres) Query(ctx context.Context, namespace string, query *model.VectorQuery) ([]*model.QueryResult, error) {
	sql, args, err := buildQuery(p.tableIdent(), namespace, query)
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query documents", goerr.V(model.NamespaceKey, namespace))
	}
	defer rows.Close()

	results := make([]*model.QueryResult, 0, query.TopK)
	for rows.Next() {
		var (
			id       string
			distance float64
			raw      []byte
		)
		if err := rows.Scan(&id, &distance, &raw); err != nil {
			return nil, goerr.Wrap(err, "failed to scan document")
		}

		var attrs model.Attributes
		if err := json.Unmarshal(raw, &attrs); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal attributes", goerr.V("id", id))
		}

		results = append(results, &model.QueryResult{
			ID:         id,
			Distance:   distance,
			Attributes: attrs.Project(query.IncludeAttributes),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read query rows")
	}

	return results, nil
}

// buildQuery renders the filtered nearest neighbor statement. A nil vector
// lists documents ordered by id.
func buildQuery(table, namespace string, query *model.VectorQuery) (string, []any, error) {
	if query.TopK <= 0 {
		return "", nil, goerr.Wrap(model.ErrInvalidArgument, "top_k must be positive", goerr.V("top_k", query.TopK))
	}

	args := []any{namespace}
	where := []string{"namespace = $1"}

	distance := "0::float8"
	order := "id"
	if query.Vector != nil {
		args = append(args, pgVector(query.Vector))
		distance = "embedding <=> $2::vector"
		order = "distance, id"
		where = append(where, "embedding IS NOT NULL")
	}

	for _, f := range query.Filters {
		if f.Op != model.FilterOpEq {
			return "", nil, goerr.Wrap(model.ErrInvalidArgument, "unsupported filter operator", goerr.V("op", f.Op))
		}
		args = append(args, f.Attribute, fmt.Sprint(f.Value))
		where = append(where, fmt.Sprintf("attributes->>$%d = $%d", len(args)-1, len(args)))
	}

	args = append(args, query.TopK)
	sql := fmt.Sprintf("SELECT id, %s AS distance, attributes FROM %s WHERE %s ORDER BY %s LIMIT $%d",
		distance, table, strings.Join(where, " AND "), order, len(args))

	return sql, args, nil
}

func (p *Postgres) DeleteNamespace(ctx context.Context, namespace string) error {
	sql := fmt.Sprintf("DELETE FROM %s WHERE namespace = $1", p.tableIdent())
	if _, err := p.pool.Exec(ctx, sql, namespace); err != nil {
		return goerr.Wrap(err, "failed to delete namespace", goerr.V(model.NamespaceKey, namespace))
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// pgVector formats a float32 slice as a pgvector literal, e.g. "[0.1,0.2,0.3]".
func pgVector(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
