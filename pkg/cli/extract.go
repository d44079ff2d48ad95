package cli

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/usecase"
	"github.com/secmon-lab/stackscout/pkg/utils/async"
	"github.com/secmon-lab/stackscout/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func waitEvents(ctx context.Context) {
	waitCtx, cancel := context.WithTimeout(ctx, asyncWaitTimeout)
	defer cancel()
	if err := async.Wait(waitCtx); err != nil {
		logging.From(ctx).Warn("events may not have been published", "error", err.Error())
	}
}

func cmdExtract() *cli.Command {
	var rtCfg runtimeConfig
	var opportunityID string
	var prompt string
	var withoutEvidence bool

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "opportunity",
			Aliases:     []string{"o"},
			Usage:       "Salesforce opportunity ID",
			Required:    true,
			Destination: &opportunityID,
		},
		&cli.StringFlag{
			Name:        "prompt",
			Usage:       "Instruction given to the agent",
			Value:       usecase.DefaultExtractPrompt,
			Destination: &prompt,
		},
		&cli.BoolFlag{
			Name:        "without-evidence",
			Usage:       "Hide every transcript from the agent and score the answer",
			Destination: &withoutEvidence,
		},
	}
	flags = append(flags, rtCfg.Flags()...)

	return &cli.Command{
		Name:    "extract",
		Aliases: []string{"x"},
		Usage:   "Extract the data stack of one opportunity with the agent",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := rtCfg.build(ctx, buildOptions{needEmbedder: true})
			if err != nil {
				return goerr.Wrap(err, "failed to configure pipeline")
			}
			defer rt.Close()

			result, err := rt.uc.Extract.Extract(ctx, usecase.ExtractInput{
				Namespace:       rt.pipeline.Namespace,
				OpportunityID:   opportunityID,
				Prompt:          prompt,
				WithoutEvidence: withoutEvidence,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to extract tech stack")
			}
			waitEvents(ctx)

			if err := printJSON(os.Stdout, result); err != nil {
				return err
			}
			if withoutEvidence {
				printScore(os.Stdout, "No evidence score", usecase.Score(result, rt.pipeline.ConfidenceCeiling))
			}
			return nil
		},
	}
}

func cmdEval() *cli.Command {
	var rtCfg runtimeConfig
	var opportunityIDs []string

	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "opportunity",
			Aliases:     []string{"o"},
			Usage:       "Opportunity IDs to evaluate (every expectation in the pipeline config when empty)",
			Destination: &opportunityIDs,
		},
	}
	flags = append(flags, rtCfg.Flags()...)

	return &cli.Command{
		Name:  "eval",
		Usage: "Score the agent without evidence and measure its accuracy against expected stacks",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := rtCfg.build(ctx, buildOptions{needEmbedder: true})
			if err != nil {
				return goerr.Wrap(err, "failed to configure pipeline")
			}
			defer rt.Close()

			if len(opportunityIDs) == 0 {
				for id := range rt.pipeline.Expectations {
					opportunityIDs = append(opportunityIDs, id)
				}
				sort.Strings(opportunityIDs)
			}
			if len(opportunityIDs) == 0 {
				return goerr.New("no opportunity to evaluate, set --opportunity or [expectations] in the pipeline config")
			}

			logger := logging.From(ctx)
			var total float64
			matched, fields := 0, 0
			for _, id := range opportunityIDs {
				start := time.Now()
				report, err := rt.uc.Eval.Evaluate(ctx, rt.pipeline.Namespace, id)
				if err != nil {
					return goerr.Wrap(err, "evaluation failed", goerr.V("opportunity_id", id))
				}
				logger.Info("evaluated opportunity", "opportunity_id", id, "duration", time.Since(start))

				if err := printJSON(os.Stdout, report); err != nil {
					return err
				}
				total += report.NoEvidenceScore
				if report.Accuracy != nil {
					matched += report.Accuracy.Matched()
					fields += 3
				}
			}
			waitEvents(ctx)

			headerColor.Fprintf(os.Stdout, "\nEvaluated %d opportunities\n", len(opportunityIDs))
			printScore(os.Stdout, "Mean no evidence score", total/float64(len(opportunityIDs)))
			if fields > 0 {
				keyColor.Fprintf(os.Stdout, "Accuracy: %d/%d fields\n", matched, fields)
			}
			return nil
		},
	}
}
