package cli

import (
	"testing"

	"github.com/m-mizutani/gt"
)

func TestGetIndexConfig(t *testing.T) {
	cfg := getIndexConfig("test_", 768)
	gt.A(t, cfg.Collections).Length(1)

	col := cfg.Collections[0]
	gt.Value(t, col.Name).Equal("test_documents")
	gt.A(t, col.Indexes).Length(2)

	filtered := col.Indexes[0]
	gt.A(t, filtered.Fields).Length(2)
	gt.Value(t, filtered.Fields[0].Path).Equal("Attributes.gong_primary_opportunity_c")
	gt.Value(t, filtered.Fields[1].Path).Equal("Embedding")
	gt.Value(t, filtered.Fields[1].Vector.Dimension).Equal(768)
}
