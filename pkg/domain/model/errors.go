package model

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the ingestion and retrieval pipeline
var (
	// ErrInvalidArgument reports a bad chunk, batch or top-k parameter. Fatal to the call.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMalformedRecord reports an unparsable transcript or attribute. The record is skipped.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrEmbeddingFailure reports an embedding call that failed or returned an empty vector.
	ErrEmbeddingFailure = errors.New("embedding failure")

	// ErrIndexWrite reports a batch rejected by the vector store.
	ErrIndexWrite = errors.New("index write failed")
)

// Context keys for error values
const (
	CallIDKey        = "call_id"
	NamespaceKey     = "namespace"
	OpportunityIDKey = "opportunity_id"
	BatchIndexKey    = "batch_index"
)

// IndexWriteError identifies the batch that the vector store rejected, so that
// exactly that slice can be written again.
type IndexWriteError struct {
	Namespace  string
	BatchIndex int
	FirstID    string
	LastID     string
	Size       int
	Err        error
}

func (e *IndexWriteError) Error() string {
	return fmt.Sprintf("%s: namespace=%s batch=%d ids=[%s..%s] size=%d: %v",
		ErrIndexWrite.Error(), e.Namespace, e.BatchIndex, e.FirstID, e.LastID, e.Size, e.Err)
}

func (e *IndexWriteError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrIndexWrite) hold for any IndexWriteError.
func (e *IndexWriteError) Is(target error) bool {
	return target == ErrIndexWrite
}
