package model

import "fmt"

// FilterOp is a comparison applied to a document attribute
type FilterOp string

const (
	FilterOpEq FilterOp = "Eq"
)

// Filter restricts a vector query to documents whose attribute matches Value
type Filter struct {
	Attribute string
	Op        FilterOp
	Value     any
}

// Eq builds an equality filter
func Eq(attribute string, value any) Filter {
	return Filter{Attribute: attribute, Op: FilterOpEq, Value: value}
}

// Match reports whether attrs satisfy the filter
func (f Filter) Match(attrs Attributes) bool {
	v, ok := attrs[f.Attribute]
	if !ok {
		return false
	}
	switch f.Op {
	case FilterOpEq:
		return fmt.Sprint(v) == fmt.Sprint(f.Value)
	default:
		return false
	}
}

// VectorQuery is a cosine-distance nearest neighbor request. A nil Vector
// lists documents without ranking.
type VectorQuery struct {
	Vector            []float32
	TopK              int
	Filters           []Filter
	IncludeAttributes []string
}

// MatchAll reports whether attrs satisfy every filter
func (q *VectorQuery) MatchAll(attrs Attributes) bool {
	for _, f := range q.Filters {
		if !f.Match(attrs) {
			return false
		}
	}
	return true
}

// QueryResult is one ranked hit. Lower distance means more relevant.
type QueryResult struct {
	ID         string     `json:"id"`
	Distance   float64    `json:"distance"`
	Attributes Attributes `json:"attributes"`
}

// RetrieveInput asks for the chunks of one opportunity closest to Query
type RetrieveInput struct {
	Namespace         string   `json:"namespace"`
	OpportunityID     string   `json:"opportunity_id"`
	Query             string   `json:"query"`
	TopK              int      `json:"top_k"`
	IncludeAttributes []string `json:"include_attributes,omitempty"`
}
