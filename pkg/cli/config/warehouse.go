package config

import (
	"context"
	"log/slog"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/domain/interfaces"
	"github.com/secmon-lab/stackscout/pkg/service/warehouse"
	"github.com/secmon-lab/stackscout/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Warehouse sources
const (
	SourceBigQuery = "bigquery"
	SourceJSONL    = "jsonl"
)

// Warehouse holds CLI flags for the call row source
type Warehouse struct {
	source          string
	projectID       string
	callTable       string
	transcriptTable string
	jsonlURI        string
}

// Flags returns CLI flags for warehouse configuration
func (w *Warehouse) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "warehouse",
			Category:    "Warehouse",
			Usage:       "Call row source (bigquery, jsonl)",
			Value:       SourceBigQuery,
			Sources:     cli.EnvVars("STACKSCOUT_WAREHOUSE"),
			Destination: &w.source,
		},
		&cli.StringFlag{
			Name:        "bigquery-project",
			Category:    "Warehouse",
			Usage:       "Google Cloud project ID that runs BigQuery jobs",
			Sources:     cli.EnvVars("STACKSCOUT_BIGQUERY_PROJECT"),
			Destination: &w.projectID,
		},
		&cli.StringFlag{
			Name:        "bigquery-call-table",
			Category:    "Warehouse",
			Usage:       "Fully qualified table of Gong calls",
			Value:       warehouse.DefaultCallTable,
			Sources:     cli.EnvVars("STACKSCOUT_BIGQUERY_CALL_TABLE"),
			Destination: &w.callTable,
		},
		&cli.StringFlag{
			Name:        "bigquery-transcript-table",
			Category:    "Warehouse",
			Usage:       "Fully qualified table of call transcripts",
			Value:       warehouse.DefaultTranscriptTable,
			Sources:     cli.EnvVars("STACKSCOUT_BIGQUERY_TRANSCRIPT_TABLE"),
			Destination: &w.transcriptTable,
		},
		&cli.StringFlag{
			Name:        "jsonl-uri",
			Category:    "Warehouse",
			Usage:       "JSONL rows file, local path or gs://bucket/object",
			Sources:     cli.EnvVars("STACKSCOUT_JSONL_URI"),
			Destination: &w.jsonlURI,
		},
	}
}

func (w Warehouse) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("source", w.source),
		slog.String("project_id", w.projectID),
		slog.String("call_table", w.callTable),
		slog.String("transcript_table", w.transcriptTable),
		slog.String("jsonl_uri", w.jsonlURI),
	)
}

// Configure creates the row source. The returned function releases its clients.
func (w *Warehouse) Configure(ctx context.Context, attributeKeys []string) (interfaces.RowSource, func(), error) {
	logger := logging.From(ctx)

	switch w.source {
	case SourceBigQuery:
		if w.projectID == "" {
			return nil, nil, goerr.Wrap(ErrMissingSetting, "bigquery-project is required when using bigquery warehouse",
				goerr.V(FlagKey, "bigquery-project"))
		}
		src, err := warehouse.NewBigQuery(ctx, w.projectID,
			warehouse.WithCallTable(w.callTable),
			warehouse.WithTranscriptTable(w.transcriptTable),
			warehouse.WithAttributeKeys(attributeKeys),
		)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize bigquery warehouse")
		}
		logger.Info("Using BigQuery warehouse", "project_id", w.projectID, "call_table", w.callTable)
		return src, func() {
			if err := src.Close(); err != nil {
				logger.Error("failed to close bigquery warehouse", "error", err.Error())
			}
		}, nil

	case SourceJSONL:
		if w.jsonlURI == "" {
			return nil, nil, goerr.Wrap(ErrMissingSetting, "jsonl-uri is required when using jsonl warehouse",
				goerr.V(FlagKey, "jsonl-uri"))
		}

		var opts []warehouse.JSONLOption
		if strings.HasPrefix(w.jsonlURI, "gs://") {
			client, err := storage.NewClient(ctx)
			if err != nil {
				return nil, nil, goerr.Wrap(err, "failed to create cloud storage client")
			}
			opts = append(opts, warehouse.WithStorageClient(client))
		}

		src := warehouse.NewJSONL(w.jsonlURI, opts...)
		logger.Info("Using JSONL warehouse", "uri", w.jsonlURI)
		return src, func() {
			if err := src.Close(); err != nil {
				logger.Error("failed to close jsonl warehouse", "error", err.Error())
			}
		}, nil

	default:
		return nil, nil, goerr.Wrap(ErrUnknownBackend, "invalid warehouse source", goerr.V(BackendKey, w.source))
	}
}
