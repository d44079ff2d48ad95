package model

import "fmt"

// TranscriptChunk is one window of a call's flattened transcript. Only its
// embedding and attributes are persisted.
type TranscriptChunk struct {
	CallID string
	Index  int
	Total  int
	Text   string
}

// ID returns "{call_id}-{index}", unique within a namespace.
func (c *TranscriptChunk) ID() string {
	return fmt.Sprintf("%s-%d", c.CallID, c.Index)
}

// Label returns "{index} of {total}".
func (c *TranscriptChunk) Label() string {
	return fmt.Sprintf("%d of %d", c.Index, c.Total)
}
