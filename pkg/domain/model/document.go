package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// DefaultEmbeddingDimension is the vector size requested from the embedding model
const DefaultEmbeddingDimension = 768

// Attributes is the metadata stored next to a vector
type Attributes map[string]any

// Copy returns a shallow copy of the attributes
func (a Attributes) Copy() Attributes {
	if a == nil {
		return nil
	}
	copied := make(Attributes, len(a))
	for k, v := range a {
		copied[k] = v
	}
	return copied
}

// Project returns only the requested keys. A nil key list returns a copy of
// everything; keys absent from a are omitted.
func (a Attributes) Project(keys []string) Attributes {
	if keys == nil {
		return a.Copy()
	}
	projected := make(Attributes, len(keys))
	for _, k := range keys {
		if v, ok := a[k]; ok {
			projected[k] = v
		}
	}
	return projected
}

// Document is the unit stored in the vector index
type Document struct {
	ID         string
	Vector     []float32
	Attributes Attributes
}

// IngestionStats counts what happened to rows and chunks during processing
type IngestionStats struct {
	Rows              int `json:"rows"`
	AcceptedRows      int `json:"accepted_rows"`
	SkippedShortCalls int `json:"skipped_short_calls"`
	SkippedMalformed  int `json:"skipped_malformed"`
	SkippedNoChunks   int `json:"skipped_no_chunks"`
	Chunks            int `json:"chunks"`
	SkippedChunks     int `json:"skipped_chunks"`
}

// IngestionBatch is an ordered sequence of documents ready to be indexed.
// Columnar form exists only at the store boundary, see Columns.
type IngestionBatch struct {
	Documents []*Document
	Stats     IngestionStats
}

func (b *IngestionBatch) Len() int {
	return len(b.Documents)
}

// IDs returns document ids in order
func (b *IngestionBatch) IDs() []string {
	ids := make([]string, len(b.Documents))
	for i, d := range b.Documents {
		ids[i] = d.ID
	}
	return ids
}

// Slice returns documents in [start, end) as a new batch without stats
func (b *IngestionBatch) Slice(start, end int) *IngestionBatch {
	return &IngestionBatch{Documents: b.Documents[start:end]}
}

// AttributeKeys returns the union of attribute keys of all documents, sorted
func (b *IngestionBatch) AttributeKeys() []string {
	seen := make(map[string]struct{})
	for _, d := range b.Documents {
		for k := range d.Attributes {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Columns transposes the documents into parallel columns. Every attribute
// column has exactly Len() entries; a document without a key contributes nil.
func (b *IngestionBatch) Columns() *UpsertColumns {
	keys := b.AttributeKeys()
	cols := &UpsertColumns{
		IDs:        make([]string, len(b.Documents)),
		Vectors:    make([][]float32, len(b.Documents)),
		Attributes: make(map[string][]any, len(keys)),
	}
	for _, k := range keys {
		cols.Attributes[k] = make([]any, len(b.Documents))
	}

	for i, d := range b.Documents {
		cols.IDs[i] = d.ID
		cols.Vectors[i] = d.Vector
		for _, k := range keys {
			cols.Attributes[k][i] = d.Attributes[k]
		}
	}
	return cols
}

// UpsertColumns is the columnar write request accepted by vector stores
type UpsertColumns struct {
	IDs        []string
	Vectors    [][]float32
	Attributes map[string][]any
}

func (c *UpsertColumns) Len() int {
	return len(c.IDs)
}

// Validate checks that every column has the same length as IDs
func (c *UpsertColumns) Validate() error {
	if len(c.Vectors) != len(c.IDs) {
		return goerr.Wrap(ErrInvalidArgument, "vector column length mismatch",
			goerr.V("ids", len(c.IDs)),
			goerr.V("vectors", len(c.Vectors)))
	}
	for k, col := range c.Attributes {
		if len(col) != len(c.IDs) {
			return goerr.Wrap(ErrInvalidArgument, "attribute column length mismatch",
				goerr.V("attribute", k),
				goerr.V("ids", len(c.IDs)),
				goerr.V("values", len(col)))
		}
	}
	for i, id := range c.IDs {
		if id == "" {
			return goerr.Wrap(ErrInvalidArgument, "empty document id", goerr.V("row", i))
		}
	}
	return nil
}

// Document returns row i as a Document. Nil attribute values are dropped.
func (c *UpsertColumns) Document(i int) *Document {
	attrs := make(Attributes, len(c.Attributes))
	for k, col := range c.Attributes {
		if col[i] != nil {
			attrs[k] = col[i]
		}
	}
	return &Document{
		ID:         c.IDs[i],
		Vector:     c.Vectors[i],
		Attributes: attrs,
	}
}

// Storable converts values into types every backend can persist: strings,
// int64, float64, bool and nil. Anything else is rendered as a string.
func (a Attributes) Storable() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = storableValue(v)
	}
	return out
}

func storableValue(v any) any {
	switch t := v.(type) {
	case nil, string, bool, int64, float64:
		return t
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return t.String()
	default:
		if data, err := json.Marshal(t); err == nil {
			return string(data)
		}
		return fmt.Sprint(t)
	}
}
