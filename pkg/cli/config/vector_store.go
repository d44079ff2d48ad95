package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/domain/interfaces"
	"github.com/secmon-lab/stackscout/pkg/repository/firestore"
	"github.com/secmon-lab/stackscout/pkg/repository/memory"
	"github.com/secmon-lab/stackscout/pkg/repository/postgres"
	"github.com/secmon-lab/stackscout/pkg/repository/sqlite"
	"github.com/secmon-lab/stackscout/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Vector store backends
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
)

// VectorStore holds CLI flags for vector store backend configuration
type VectorStore struct {
	backend             string
	firestoreProjectID  string
	firestoreDatabaseID string
	postgresURL         string
	postgresTable       string
	sqlitePath          string
}

// Flags returns CLI flags for vector store configuration
func (v *VectorStore) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "vector-store",
			Category:    "Vector store",
			Usage:       "Vector store backend (memory, firestore, postgres, sqlite)",
			Value:       BackendSQLite,
			Sources:     cli.EnvVars("STACKSCOUT_VECTOR_STORE"),
			Destination: &v.backend,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Category:    "Vector store",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Sources:     cli.EnvVars("STACKSCOUT_FIRESTORE_PROJECT_ID"),
			Destination: &v.firestoreProjectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Category:    "Vector store",
			Usage:       "Firestore Database ID",
			Sources:     cli.EnvVars("STACKSCOUT_FIRESTORE_DATABASE_ID"),
			Destination: &v.firestoreDatabaseID,
		},
		&cli.StringFlag{
			Name:        "postgres-url",
			Category:    "Vector store",
			Usage:       "PostgreSQL connection URL with pgvector (required when using postgres backend)",
			Sources:     cli.EnvVars("STACKSCOUT_POSTGRES_URL"),
			Destination: &v.postgresURL,
		},
		&cli.StringFlag{
			Name:        "postgres-table",
			Category:    "Vector store",
			Usage:       "PostgreSQL table name",
			Value:       postgres.DefaultTableName,
			Sources:     cli.EnvVars("STACKSCOUT_POSTGRES_TABLE"),
			Destination: &v.postgresTable,
		},
		&cli.StringFlag{
			Name:        "sqlite-path",
			Category:    "Vector store",
			Usage:       "SQLite database file",
			Value:       "stackscout.db",
			Sources:     cli.EnvVars("STACKSCOUT_SQLITE_PATH"),
			Destination: &v.sqlitePath,
		},
	}
}

func (v VectorStore) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", v.backend),
		slog.String("firestore_project_id", v.firestoreProjectID),
		slog.String("firestore_database_id", v.firestoreDatabaseID),
		slog.Bool("postgres_url_set", v.postgresURL != ""),
		slog.String("postgres_table", v.postgresTable),
		slog.String("sqlite_path", v.sqlitePath),
	)
}

// Backend returns the configured backend type
func (v *VectorStore) Backend() string {
	return v.backend
}

// FirestoreProjectID returns the Firestore project ID
func (v *VectorStore) FirestoreProjectID() string {
	return v.firestoreProjectID
}

// FirestoreDatabaseID returns the Firestore database ID
func (v *VectorStore) FirestoreDatabaseID() string {
	return v.firestoreDatabaseID
}

// Configure initializes and returns a vector store based on the configured backend.
// The caller is responsible for calling Close() on the returned store.
func (v *VectorStore) Configure(ctx context.Context) (interfaces.VectorStore, error) {
	switch v.backend {
	case BackendFirestore:
		if v.firestoreProjectID == "" {
			return nil, goerr.Wrap(ErrMissingSetting, "firestore-project-id is required when using firestore backend",
				goerr.V(FlagKey, "firestore-project-id"))
		}
		store, err := firestore.New(ctx, v.firestoreProjectID, v.firestoreDatabaseID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore vector store")
		}
		logging.Default().Info("Using Firestore vector store",
			"project_id", v.firestoreProjectID,
			"database_id", v.firestoreDatabaseID,
		)
		return store, nil

	case BackendPostgres:
		store, err := v.configurePostgres(ctx)
		if err != nil {
			return nil, err
		}
		logging.Default().Info("Using PostgreSQL vector store", "table", v.postgresTable)
		return store, nil

	case BackendSQLite:
		store, err := sqlite.New(ctx, v.sqlitePath)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize sqlite vector store")
		}
		logging.Default().Info("Using SQLite vector store", "path", v.sqlitePath)
		return store, nil

	case BackendMemory:
		logging.Default().Info("Using in-memory vector store (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrUnknownBackend, "invalid vector store backend", goerr.V(BackendKey, v.backend))
	}
}

func (v *VectorStore) configurePostgres(ctx context.Context) (*postgres.Postgres, error) {
	if v.postgresURL == "" {
		return nil, goerr.Wrap(ErrMissingSetting, "postgres-url is required when using postgres backend",
			goerr.V(FlagKey, "postgres-url"))
	}
	store, err := postgres.New(ctx, v.postgresURL, postgres.WithTableName(v.postgresTable))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize postgres vector store")
	}
	return store, nil
}

// MigrateSQL creates the schema of the SQL backends. It returns false for
// backends that are not migrated with SQL.
func (v *VectorStore) MigrateSQL(ctx context.Context) (bool, error) {
	switch v.backend {
	case BackendPostgres:
		store, err := v.configurePostgres(ctx)
		if err != nil {
			return false, err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logging.From(ctx).Error("failed to close postgres vector store", "error", err.Error())
			}
		}()
		if err := store.Migrate(ctx); err != nil {
			return false, goerr.Wrap(err, "failed to migrate postgres vector store")
		}
		return true, nil

	case BackendSQLite:
		// New migrates the schema on open
		store, err := sqlite.New(ctx, v.sqlitePath)
		if err != nil {
			return false, goerr.Wrap(err, "failed to migrate sqlite vector store")
		}
		if err := store.Close(); err != nil {
			return false, goerr.Wrap(err, "failed to close sqlite vector store")
		}
		return true, nil

	default:
		return false, nil
	}
}
