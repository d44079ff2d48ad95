package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/usecase"
	"github.com/urfave/cli/v3"
)

const defaultRetrieveQuery = "find me a call where data orchestration was discussed"

func cmdRetrieve() *cli.Command {
	var rtCfg runtimeConfig
	var opportunityID string
	var query string
	var topK int
	var headChars int
	var include []string
	var asJSON bool

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "opportunity",
			Aliases:     []string{"o"},
			Usage:       "Salesforce opportunity ID",
			Required:    true,
			Destination: &opportunityID,
		},
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Query text",
			Value:       defaultRetrieveQuery,
			Destination: &query,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Usage:       "Number of chunks to return (pipeline top_k when 0)",
			Destination: &topK,
		},
		&cli.IntFlag{
			Name:        "chars",
			Usage:       "Leading transcript characters to print",
			Value:       500,
			Destination: &headChars,
		},
		&cli.StringSliceFlag{
			Name:        "include",
			Usage:       "Attributes to return (pipeline include_attributes when empty)",
			Destination: &include,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print results as JSON",
			Destination: &asJSON,
		},
	}
	flags = append(flags, rtCfg.Flags()...)

	return &cli.Command{
		Name:    "retrieve",
		Aliases: []string{"r"},
		Usage:   "Query transcript chunks of one opportunity",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := rtCfg.build(ctx, buildOptions{needEmbedder: true})
			if err != nil {
				return goerr.Wrap(err, "failed to configure pipeline")
			}
			defer rt.Close()

			if topK == 0 {
				topK = rt.pipeline.TopK
			}
			input := model.RetrieveInput{
				Namespace:     rt.pipeline.Namespace,
				OpportunityID: opportunityID,
				Query:         query,
				TopK:          topK,
			}
			if len(include) > 0 {
				input.IncludeAttributes = include
			}

			results, err := rt.uc.Retrieve.Retrieve(ctx, input)
			if err != nil {
				return goerr.Wrap(err, "failed to retrieve transcripts")
			}

			if asJSON {
				return printJSON(os.Stdout, results)
			}
			printResults(os.Stdout, results, headChars)
			return nil
		},
	}
}

func cmdOpportunities() *cli.Command {
	var rtCfg runtimeConfig
	var limit int

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum number of documents scanned",
			Value:       usecase.DefaultOpportunityListLimit,
			Destination: &limit,
		},
	}
	flags = append(flags, rtCfg.Flags()...)

	return &cli.Command{
		Name:  "opportunities",
		Usage: "List opportunity IDs found in the namespace",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := rtCfg.build(ctx, buildOptions{})
			if err != nil {
				return goerr.Wrap(err, "failed to configure pipeline")
			}
			defer rt.Close()

			ids, err := rt.uc.Retrieve.ListOpportunities(ctx, rt.pipeline.Namespace, limit)
			if err != nil {
				return goerr.Wrap(err, "failed to list opportunities")
			}

			headerColor.Fprintf(os.Stdout, "%d opportunities in %s\n", len(ids), rt.pipeline.Namespace)
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}
}

func cmdPurge() *cli.Command {
	var rtCfg runtimeConfig
	var confirmed bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "yes",
			Usage:       "Confirm deletion of every document in the namespace",
			Destination: &confirmed,
		},
	}
	flags = append(flags, rtCfg.Flags()...)

	return &cli.Command{
		Name:  "purge",
		Usage: "Delete every document of the namespace",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := rtCfg.build(ctx, buildOptions{})
			if err != nil {
				return goerr.Wrap(err, "failed to configure pipeline")
			}
			defer rt.Close()

			if !confirmed {
				return goerr.New("refusing to purge without --yes", goerr.V("namespace", rt.pipeline.Namespace))
			}

			if err := rt.uc.Retrieve.PurgeNamespace(ctx, rt.pipeline.Namespace); err != nil {
				return goerr.Wrap(err, "failed to purge namespace")
			}
			goodColor.Fprintf(os.Stdout, "Purged namespace %s\n", rt.pipeline.Namespace)
			return nil
		},
	}
}
