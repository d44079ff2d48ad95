package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/secmon-lab/stackscout/pkg/domain/interfaces"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/service/embedding"
	"github.com/urfave/cli/v3"
)

// LLM holds configuration for the LLM client used by the agent and embedder
type LLM struct {
	provider       string
	geminiProject  string
	geminiLocation string
	geminiModel    string
	openaiAPIKey   string
	openaiModel    string
	dimension      int
}

// Flags returns CLI flags for LLM configuration
func (l *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Category:    "LLM",
			Usage:       "LLM provider (gemini, openai)",
			Value:       "gemini",
			Sources:     cli.EnvVars("STACKSCOUT_LLM_PROVIDER"),
			Destination: &l.provider,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Category:    "LLM",
			Usage:       "Google Cloud project ID for Gemini API",
			Sources:     cli.EnvVars("STACKSCOUT_GEMINI_PROJECT"),
			Destination: &l.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Category:    "LLM",
			Usage:       "Google Cloud location for Gemini API",
			Value:       "us-central1",
			Sources:     cli.EnvVars("STACKSCOUT_GEMINI_LOCATION"),
			Destination: &l.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Category:    "LLM",
			Usage:       "Gemini model name (provider default when empty)",
			Sources:     cli.EnvVars("STACKSCOUT_GEMINI_MODEL"),
			Destination: &l.geminiModel,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Category:    "LLM",
			Usage:       "OpenAI API key",
			Sources:     cli.EnvVars("STACKSCOUT_OPENAI_API_KEY"),
			Destination: &l.openaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "openai-model",
			Category:    "LLM",
			Usage:       "OpenAI model name (provider default when empty)",
			Sources:     cli.EnvVars("STACKSCOUT_OPENAI_MODEL"),
			Destination: &l.openaiModel,
		},
		&cli.IntFlag{
			Name:        "embedding-dimension",
			Category:    "LLM",
			Usage:       "Dimension of embedding vectors",
			Value:       model.DefaultEmbeddingDimension,
			Sources:     cli.EnvVars("STACKSCOUT_EMBEDDING_DIMENSION"),
			Destination: &l.dimension,
		},
	}
}

func (l LLM) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("provider", l.provider),
		slog.String("gemini_project", l.geminiProject),
		slog.String("gemini_location", l.geminiLocation),
		slog.Bool("openai_api_key_set", l.openaiAPIKey != ""),
		slog.Int("dimension", l.dimension),
	)
}

// Dimension returns the configured embedding dimension
func (l *LLM) Dimension() int {
	return l.dimension
}

// Configure creates the LLM client for the selected provider. Returns nil
// if the provider has no credentials configured.
func (l *LLM) Configure(ctx context.Context) (gollem.LLMClient, error) {
	switch l.provider {
	case "gemini":
		if l.geminiProject == "" {
			return nil, nil
		}
		var opts []gemini.Option
		if l.geminiModel != "" {
			opts = append(opts, gemini.WithModel(l.geminiModel))
		}
		client, err := gemini.New(ctx, l.geminiProject, l.geminiLocation, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		return client, nil

	case "openai":
		if l.openaiAPIKey == "" {
			return nil, nil
		}
		var opts []openai.Option
		if l.openaiModel != "" {
			opts = append(opts, openai.WithModel(l.openaiModel))
		}
		client, err := openai.New(ctx, l.openaiAPIKey, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI client")
		}
		return client, nil

	default:
		return nil, goerr.Wrap(ErrUnknownBackend, "invalid LLM provider", goerr.V(BackendKey, l.provider))
	}
}

// ConfigureEmbedder creates the LLM client and an embedder on top of it. Both
// are required by ingestion and retrieval.
func (l *LLM) ConfigureEmbedder(ctx context.Context) (gollem.LLMClient, interfaces.Embedder, error) {
	client, err := l.Configure(ctx)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return nil, nil, goerr.Wrap(ErrMissingSetting, "LLM credentials are required for embeddings",
			goerr.V(BackendKey, l.provider))
	}

	embedder, err := embedding.New(client, embedding.WithDimension(l.dimension))
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create embedder")
	}
	return client, embedder, nil
}
