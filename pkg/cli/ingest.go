package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/cli/config"
	"github.com/secmon-lab/stackscout/pkg/usecase"
	"github.com/urfave/cli/v3"
)

const asyncWaitTimeout = 30 * time.Second

func cmdIngest() *cli.Command {
	var rtCfg runtimeConfig
	var whCfg config.Warehouse
	var limit int
	var batchSize int

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum number of calls fetched from the warehouse (pipeline fetch_limit when 0)",
			Sources:     cli.EnvVars("STACKSCOUT_INGEST_LIMIT"),
			Destination: &limit,
		},
		&cli.IntFlag{
			Name:        "batch-size",
			Usage:       "Documents per vector store write (pipeline batch_size when 0)",
			Sources:     cli.EnvVars("STACKSCOUT_BATCH_SIZE"),
			Destination: &batchSize,
		},
	}
	flags = append(flags, rtCfg.Flags()...)
	flags = append(flags, whCfg.Flags()...)

	return &cli.Command{
		Name:    "ingest",
		Aliases: []string{"i"},
		Usage:   "Load call transcripts from the warehouse into the vector store",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := rtCfg.build(ctx, buildOptions{warehouse: &whCfg, needEmbedder: true})
			if err != nil {
				return goerr.Wrap(err, "failed to configure pipeline")
			}
			defer rt.Close()

			if limit == 0 {
				limit = rt.pipeline.FetchLimit
			}
			if batchSize == 0 {
				batchSize = rt.pipeline.BatchSize
			}

			report, err := rt.uc.Ingest.Run(ctx, usecase.IngestInput{
				Namespace: rt.pipeline.Namespace,
				Limit:     limit,
				BatchSize: batchSize,
			})
			if err != nil {
				return goerr.Wrap(err, "ingestion failed")
			}

			waitEvents(ctx)

			headerColor.Fprintf(os.Stdout, "Ingestion %s\n", report.RunID)
			fmt.Printf("  namespace:       %s\n", report.Namespace)
			fmt.Printf("  rows:            %d\n", report.Stats.Rows)
			fmt.Printf("  accepted rows:   %d\n", report.Stats.AcceptedRows)
			fmt.Printf("  short calls:     %d\n", report.Stats.SkippedShortCalls)
			fmt.Printf("  malformed rows:  %d\n", report.Stats.SkippedMalformed)
			fmt.Printf("  rows no chunks:  %d\n", report.Stats.SkippedNoChunks)
			fmt.Printf("  chunks indexed:  %d\n", report.Stats.Chunks)
			fmt.Printf("  chunks skipped:  %d\n", report.Stats.SkippedChunks)
			fmt.Printf("  elapsed:         %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
			return nil
		},
	}
}
