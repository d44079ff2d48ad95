// Package chunker splits transcript text into fixed-size overlapping windows.
package chunker

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 2000

// DefaultOverlap is the default number of characters shared by consecutive chunks.
const DefaultOverlap = 200

// Chunker holds a validated chunk size and overlap.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		c.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// New creates a Chunker. Invalid sizes fail with model.ErrInvalidArgument.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := validate(c.chunkSize, c.overlap); err != nil {
		return nil, err
	}
	return c, nil
}

// ChunkSize is the maximum window length in runes.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap is the number of runes shared by consecutive windows.
func (c *Chunker) Overlap() int { return c.overlap }

// Split chunks text with the configured size and overlap.
func (c *Chunker) Split(text string) []string {
	return split(text, c.chunkSize, c.overlap)
}

// Chunk splits text into the minimal ordered sequence of windows of at most
// chunkSize characters, each starting chunkSize-overlap characters after the
// previous one. Whitespace-only windows are dropped.
func Chunk(text string, chunkSize, overlap int) ([]string, error) {
	if err := validate(chunkSize, overlap); err != nil {
		return nil, err
	}
	return split(text, chunkSize, overlap), nil
}

func validate(chunkSize, overlap int) error {
	if chunkSize <= 0 {
		return goerr.Wrap(model.ErrInvalidArgument, "chunk size must be positive",
			goerr.V("chunk_size", chunkSize))
	}
	if overlap < 0 || overlap >= chunkSize {
		return goerr.Wrap(model.ErrInvalidArgument, "overlap must be in [0, chunk_size)",
			goerr.V("chunk_size", chunkSize),
			goerr.V("overlap", overlap))
	}
	return nil
}

func split(text string, chunkSize, overlap int) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	step := chunkSize - overlap
	chunks := make([]string, 0, (n+step-1)/step)
	for start := 0; ; start += step {
		end := min(start+chunkSize, n)
		piece := string(runes[start:end])
		if strings.TrimSpace(piece) != "" {
			chunks = append(chunks, piece)
		}
		if end == n {
			break
		}
	}
	return chunks
}
