package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	domainConfig "github.com/secmon-lab/stackscout/pkg/domain/model/config"
	"github.com/secmon-lab/stackscout/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// PipelineFile is the TOML representation of the pipeline configuration
type PipelineFile struct {
	Pipeline     PipelineSection        `toml:"pipeline"`
	Attributes   map[string]string      `toml:"attributes"`
	Expectations map[string]Expectation `toml:"expectations"`
}

// PipelineSection holds the [pipeline] table. Zero values fall back to defaults.
type PipelineSection struct {
	Namespace         string   `toml:"namespace"`
	ChunkSize         int      `toml:"chunk_size"`
	Overlap           *int     `toml:"overlap"`
	BatchSize         int      `toml:"batch_size"`
	Concurrency       int      `toml:"concurrency"`
	ConfidenceCeiling *float64 `toml:"confidence_ceiling"`
	TopK              int      `toml:"top_k"`
	FetchLimit        int      `toml:"fetch_limit"`
	AttributeKeys     []string `toml:"attribute_keys"`
	IncludeAttributes []string `toml:"include_attributes"`
}

// Expectation is the stack an opportunity is known to run, used by eval
type Expectation struct {
	PrimaryPreviousSolution    string   `toml:"primary_previous_solution"`
	SecondaryPreviousSolutions []string `toml:"secondary_previous_solutions"`
	CloudProvider              string   `toml:"cloud_provider"`
}

func (e *Expectation) toDomain() model.TechStack {
	secondary := make([]types.OrchestrationTool, len(e.SecondaryPreviousSolutions))
	for i, v := range e.SecondaryPreviousSolutions {
		secondary[i] = types.OrchestrationTool(v)
	}
	return model.TechStack{
		PrimaryPreviousSolution:    types.OrchestrationTool(e.PrimaryPreviousSolution),
		SecondaryPreviousSolutions: secondary,
		CloudProvider:              types.CloudProvider(e.CloudProvider),
	}
}

// Validate checks if the PipelineFile is valid
func (p *PipelineFile) Validate() error {
	s := &p.Pipeline
	if s.ChunkSize < 0 || s.BatchSize < 0 || s.Concurrency < 0 || s.TopK < 0 || s.FetchLimit < 0 {
		return goerr.Wrap(ErrInvalidConfig, "numeric pipeline settings must not be negative")
	}

	chunkSize := s.ChunkSize
	if chunkSize == 0 {
		chunkSize = domainConfig.DefaultChunkSize
	}
	if s.Overlap != nil && (*s.Overlap < 0 || *s.Overlap >= chunkSize) {
		return goerr.Wrap(ErrInvalidConfig, "overlap must be in [0, chunk_size)",
			goerr.V("overlap", *s.Overlap), goerr.V("chunk_size", chunkSize))
	}
	if s.ConfidenceCeiling != nil && (*s.ConfidenceCeiling < 0 || *s.ConfidenceCeiling > 1) {
		return goerr.Wrap(ErrInvalidConfig, "confidence_ceiling must be in [0, 1]",
			goerr.V("confidence_ceiling", *s.ConfidenceCeiling))
	}

	for attr, kind := range p.Attributes {
		if !types.AttributeKind(kind).IsValid() {
			return goerr.Wrap(ErrInvalidAttrKind, "unknown attribute kind",
				goerr.V(AttributeKey, attr), goerr.V("kind", kind))
		}
	}

	for opp, exp := range p.Expectations {
		stack := exp.toDomain()
		if err := stack.Validate(); err != nil {
			return goerr.Wrap(ErrInvalidConfig, "invalid expectation",
				goerr.V(OpportunityIDKey, opp), goerr.V("error", err.Error()))
		}
	}

	return nil
}

// ToDomain converts the file to a domain PipelineConfig on top of the defaults
func (p *PipelineFile) ToDomain() *domainConfig.PipelineConfig {
	cfg := domainConfig.DefaultPipelineConfig()
	s := &p.Pipeline

	if s.Namespace != "" {
		cfg.Namespace = s.Namespace
	}
	if s.ChunkSize > 0 {
		cfg.ChunkSize = s.ChunkSize
	}
	if s.Overlap != nil {
		cfg.Overlap = *s.Overlap
	}
	if s.BatchSize > 0 {
		cfg.BatchSize = s.BatchSize
	}
	if s.Concurrency > 0 {
		cfg.Concurrency = s.Concurrency
	}
	if s.ConfidenceCeiling != nil {
		cfg.ConfidenceCeiling = *s.ConfidenceCeiling
	}
	if s.TopK > 0 {
		cfg.TopK = s.TopK
	}
	if s.FetchLimit > 0 {
		cfg.FetchLimit = s.FetchLimit
	}
	if len(s.AttributeKeys) > 0 {
		cfg.AttributeKeys = s.AttributeKeys
	}
	if len(s.IncludeAttributes) > 0 {
		cfg.IncludeAttributes = s.IncludeAttributes
	}

	for attr, kind := range p.Attributes {
		cfg.AttributeKinds[attr] = types.AttributeKind(kind)
	}
	for opp, exp := range p.Expectations {
		cfg.Expectations[opp] = exp.toDomain()
	}

	return cfg
}

// LoadPipelineConfiguration loads the pipeline configuration from a TOML file
func LoadPipelineConfiguration(path string) (*PipelineFile, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "pipeline config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var file PipelineFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path), goerr.V("error", err.Error()))
	}

	if err := file.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &file, nil
}

// Pipeline holds CLI flags that select the pipeline configuration
type Pipeline struct {
	path      string
	namespace string
}

// Flags returns CLI flags for pipeline configuration
func (p *Pipeline) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the pipeline TOML file",
			Sources:     cli.EnvVars("STACKSCOUT_CONFIG"),
			Destination: &p.path,
		},
		&cli.StringFlag{
			Name:        "namespace",
			Usage:       "Vector store namespace (overrides the config file)",
			Sources:     cli.EnvVars("STACKSCOUT_NAMESPACE"),
			Destination: &p.namespace,
		},
	}
}

// Configure loads the pipeline file if one is given, otherwise the defaults
func (p *Pipeline) Configure() (*domainConfig.PipelineConfig, error) {
	cfg := domainConfig.DefaultPipelineConfig()
	if p.path != "" {
		file, err := LoadPipelineConfiguration(p.path)
		if err != nil {
			return nil, err
		}
		cfg = file.ToDomain()
	}

	if p.namespace != "" {
		cfg.Namespace = p.namespace
	}
	return cfg, nil
}
