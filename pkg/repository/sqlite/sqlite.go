package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/domain/interfaces"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	_ "modernc.org/sqlite" // SQLite driver
)

// opportunityExpr must stay textually identical in the index and in queries,
// otherwise the planner does not use documents_opportunity_idx.
const opportunityExpr = `json_extract(attributes, '$.` + model.AttrPrimaryOpportunity + `')`

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	namespace  TEXT NOT NULL,
	id         TEXT NOT NULL,
	embedding  BLOB,
	attributes TEXT NOT NULL DEFAULT '{}',
	updated_at TEXT NOT NULL,
	PRIMARY KEY (namespace, id)
);
CREATE INDEX IF NOT EXISTS documents_opportunity_idx
	ON documents (namespace, ` + opportunityExpr + `);
`

// SQLite is a single file vector store for local runs. Candidates are
// narrowed in SQL and ranked by cosine distance in process.
type SQLite struct {
	db *sql.DB
}

var _ interfaces.VectorStore = &SQLite{}

func New(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite database", goerr.V("path", path))
	}

	s := &SQLite{db: db}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the documents table when it does not exist yet
func (s *SQLite) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return goerr.Wrap(err, "failed to migrate sqlite schema")
	}
	return nil
}

func (s *SQLite) Upsert(ctx context.Context, namespace string, cols *model.UpsertColumns) error {
	if namespace == "" {
		return goerr.Wrap(model.ErrInvalidArgument, "namespace is required")
	}
	if err := cols.Validate(); err != nil {
		return goerr.Wrap(err, "invalid upsert columns", goerr.V(model.NamespaceKey, namespace))
	}
	if cols.Len() == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO documents (namespace, id, embedding, attributes, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (namespace, id) DO UPDATE
		SET embedding = excluded.embedding, attributes = excluded.attributes, updated_at = excluded.updated_at`)
	if err != nil {
		return goerr.Wrap(err, "failed to prepare upsert")
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for i := 0; i < cols.Len(); i++ {
		doc := cols.Document(i)
		attrs, err := json.Marshal(doc.Attributes.Storable())
		if err != nil {
			return goerr.Wrap(err, "failed to marshal attributes", goerr.V("id", doc.ID))
		}

		if _, err := stmt.ExecContext(ctx, namespace, doc.ID, encodeVector(doc.Vector), string(attrs), now); err != nil {
			return goerr.Wrap(err, "failed to upsert document",
				goerr.V(model.NamespaceKey, namespace),
				goerr.V("id", doc.ID))
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit upsert", goerr.V(model.NamespaceKey, namespace))
	}
	return nil
}

func (s *SQLite) Query(ctx context.Context, namespace string, query *model.VectorQuery) ([]*model.QueryResult, error) {
	if query.TopK <= 0 {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "top_k must be positive", goerr.V("top_k", query.TopK))
	}

	stmt, args, err := buildQuery(namespace, query.Filters)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query documents", goerr.V(model.NamespaceKey, namespace))
	}
	defer func() { _ = rows.Close() }()

	var results []*model.QueryResult
	for rows.Next() {
		var (
			id        string
			embedding []byte
			raw       string
		)
		if err := rows.Scan(&id, &embedding, &raw); err != nil {
			return nil, goerr.Wrap(err, "failed to scan document")
		}

		var attrs model.Attributes
		if err := json.Unmarshal([]byte(raw), &attrs); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal attributes", goerr.V("id", id))
		}
		if !matchAll(query.Filters, attrs) {
			continue
		}

		var distance float64
		if query.Vector != nil {
			if embedding == nil {
				continue
			}
			distance = model.CosineDistance(query.Vector, decodeVector(embedding))
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

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > query.TopK {
		results = results[:query.TopK]
	}
	if results == nil {
		results = []*model.QueryResult{}
	}

	return results, nil
}

func (s *SQLite) DeleteNamespace(ctx context.Context, namespace string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE namespace = ?", namespace); err != nil {
		return goerr.Wrap(err, "failed to delete namespace", goerr.V(model.NamespaceKey, namespace))
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// buildQuery narrows candidates in SQL. Only a string opportunity filter is
// pushed down, through the indexed expression. Every filter is applied again
// on decoded attributes so that comparison follows model.Filter.Match.
func buildQuery(namespace string, filters []model.Filter) (string, []any, error) {
	where := []string{"namespace = ?"}
	args := []any{namespace}
	for _, f := range filters {
		if f.Op != model.FilterOpEq {
			return "", nil, goerr.Wrap(model.ErrInvalidArgument, "unsupported filter operator", goerr.V("op", f.Op))
		}
		if v, ok := f.Value.(string); ok && f.Attribute == model.AttrPrimaryOpportunity {
			where = append(where, opportunityExpr+" = ?")
			args = append(args, v)
		}
	}

	return "SELECT id, embedding, attributes FROM documents WHERE " +
		strings.Join(where, " AND ") + " ORDER BY id", args, nil
}

func matchAll(filters []model.Filter, attrs model.Attributes) bool {
	for _, f := range filters {
		if !f.Match(attrs) {
			return false
		}
	}
	return true
}

// encodeVector packs float32 values as little endian bytes
func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
