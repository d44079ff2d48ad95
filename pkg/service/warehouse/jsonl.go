package warehouse

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/domain/interfaces"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/utils/logging"
	"github.com/secmon-lab/stackscout/pkg/utils/safe"
)

const (
	gcsScheme     = "gs://"
	maxLineLength = 64 * 1024 * 1024
)

// JSONL reads one call row per line from a local file or a gs://bucket/object URI.
// Exported warehouse snapshots use this format.
type JSONL struct {
	uri     string
	storage *storage.Client
}

var _ interfaces.RowSource = &JSONL{}

type JSONLOption func(*JSONL)

// WithStorageClient sets the Cloud Storage client used for gs:// URIs
func WithStorageClient(client *storage.Client) JSONLOption {
	return func(j *JSONL) {
		j.storage = client
	}
}

func NewJSONL(uri string, opts ...JSONLOption) *JSONL {
	j := &JSONL{uri: uri}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *JSONL) open(ctx context.Context) (io.ReadCloser, error) {
	if !strings.HasPrefix(j.uri, gcsScheme) {
		f, err := os.Open(j.uri)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open rows file", goerr.V("path", j.uri))
		}
		return f, nil
	}

	bucket, object, ok := strings.Cut(strings.TrimPrefix(j.uri, gcsScheme), "/")
	if !ok || bucket == "" || object == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "invalid gcs uri", goerr.V("uri", j.uri))
	}

	if j.storage == nil {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create storage client")
		}
		j.storage = client
	}

	r, err := j.storage.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read gcs object", goerr.V("bucket", bucket), goerr.V("object", object))
	}
	return r, nil
}

// FetchCalls returns up to limit rows. limit <= 0 reads the whole file.
func (j *JSONL) FetchCalls(ctx context.Context, limit int) ([]*model.CallRow, error) {
	r, err := j.open(ctx)
	if err != nil {
		return nil, err
	}
	defer safe.Close(ctx, r)

	rows, err := ReadRows(r, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read rows", goerr.V("uri", j.uri))
	}

	logging.From(ctx).Info("loaded call rows", "uri", j.uri, "rows", len(rows))
	return rows, nil
}

// ReadRows decodes JSON Lines into call rows. Numbers are kept as json.Number
// and blank lines are ignored.
func ReadRows(r io.Reader, limit int) ([]*model.CallRow, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var rows []*model.CallRow
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var fields map[string]any
		if err := dec.Decode(&fields); err != nil {
			return nil, goerr.Wrap(model.ErrMalformedRecord, "invalid json line",
				goerr.V("line", line),
				goerr.V("error", err.Error()))
		}

		rows = append(rows, model.NewCallRow(fields))
		if limit > 0 && len(rows) >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to scan rows")
	}

	return rows, nil
}

func (j *JSONL) Close() error {
	if j.storage != nil {
		return j.storage.Close()
	}
	return nil
}
