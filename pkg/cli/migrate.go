package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/cli/config"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/repository/firestore"
	"github.com/secmon-lab/stackscout/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var storeCfg config.VectorStore
	var llmCfg config.LLM
	var collectionPrefix string
	var dryRun bool

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "collection-prefix",
			Usage:       "Firestore collection prefix",
			Sources:     cli.EnvVars("STACKSCOUT_FIRESTORE_COLLECTION_PREFIX"),
			Destination: &collectionPrefix,
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Preview Firestore index changes without applying",
			Destination: &dryRun,
		},
	}
	flags = append(flags, storeCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Create vector store indexes and schema",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			logger.Info("Migrate configuration",
				"vector_store", storeCfg,
				"dimension", llmCfg.Dimension(),
				"dryRun", dryRun)

			if storeCfg.Backend() != config.BackendFirestore {
				migrated, err := storeCfg.MigrateSQL(ctx)
				if err != nil {
					return err
				}
				if !migrated {
					logger.Info("No migration required", "backend", storeCfg.Backend())
					return nil
				}
				logger.Info("Schema migrated", "backend", storeCfg.Backend())
				return nil
			}

			if storeCfg.FirestoreProjectID() == "" {
				return goerr.Wrap(config.ErrMissingSetting, "firestore-project-id is required for firestore migration")
			}

			indexConfig := getIndexConfig(collectionPrefix, llmCfg.Dimension())

			client, err := fireconf.NewClient(ctx, storeCfg.FirestoreProjectID(), storeCfg.FirestoreDatabaseID())
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client")
			}
			defer func() {
				if err := client.Close(); err != nil {
					logger.Error("failed to close fireconf client", "error", err.Error())
				}
			}()

			if dryRun {
				logger.Info("Dry run mode - previewing changes")
				plan, err := client.GetMigrationPlan(ctx, indexConfig)
				if err != nil {
					return goerr.Wrap(err, "failed to create migration plan")
				}

				if len(plan.Steps) == 0 {
					logger.Info("No changes required")
					return nil
				}

				for _, step := range plan.Steps {
					logger.Info("Migration step",
						"collection", step.Collection,
						"operation", step.Operation,
						"description", step.Description,
						"destructive", step.Destructive)
				}
				return nil
			}

			logger.Info("Applying migrations")
			if err := client.Migrate(ctx, indexConfig); err != nil {
				return goerr.Wrap(err, "failed to apply migrations")
			}
			logger.Info("Migrations applied successfully")
			return nil
		},
	}
}

// getIndexConfig returns the Firestore index configuration of the document
// collection group: a vector index filtered by opportunity.
func getIndexConfig(collectionPrefix string, dimension int) *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: firestore.DocumentsCollectionGroup(collectionPrefix),
				Indexes: []fireconf.Index{
					// Opportunity scoped FindNearest
					{
						Fields: []fireconf.IndexField{
							{Path: firestore.FieldAttributes + "." + model.AttrPrimaryOpportunity, Order: fireconf.OrderAscending},
							{
								Path: firestore.FieldEmbedding,
								Vector: &fireconf.VectorConfig{
									Dimension: dimension,
								},
							},
						},
					},
					// Unfiltered FindNearest
					{
						Fields: []fireconf.IndexField{
							{
								Path: firestore.FieldEmbedding,
								Vector: &fireconf.VectorConfig{
									Dimension: dimension,
								},
							},
						},
					},
				},
			},
		},
	}
}
