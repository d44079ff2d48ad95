package cli

import (
	"context"

	"github.com/secmon-lab/stackscout/pkg/cli/config"
	domainConfig "github.com/secmon-lab/stackscout/pkg/domain/model/config"
	"github.com/secmon-lab/stackscout/pkg/usecase"
	"github.com/secmon-lab/stackscout/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// runtimeConfig groups the flags shared by every pipeline command
type runtimeConfig struct {
	pipeline config.Pipeline
	llm      config.LLM
	store    config.VectorStore
	events   config.Events
}

func (x *runtimeConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, x.pipeline.Flags()...)
	flags = append(flags, x.llm.Flags()...)
	flags = append(flags, x.store.Flags()...)
	flags = append(flags, x.events.Flags()...)
	return flags
}

type buildOptions struct {
	warehouse    *config.Warehouse
	needEmbedder bool
}

// runtime holds the wired use cases of one command invocation
type runtime struct {
	pipeline *domainConfig.PipelineConfig
	uc       *usecase.UseCases
	closers  []func()
}

func (x *runtime) Close() {
	for i := len(x.closers) - 1; i >= 0; i-- {
		x.closers[i]()
	}
}

func (x *runtimeConfig) build(ctx context.Context, opts buildOptions) (_ *runtime, err error) {
	rt := &runtime{}
	defer func() {
		if err != nil {
			rt.Close()
		}
	}()

	pipeline, err := x.pipeline.Configure()
	if err != nil {
		return nil, err
	}
	rt.pipeline = pipeline

	store, err := x.store.Configure(ctx)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, func() {
		if err := store.Close(); err != nil {
			logging.Default().Error("failed to close vector store", "error", err.Error())
		}
	})

	ucOpts := []usecase.Option{usecase.WithPipelineConfig(rt.pipeline)}

	var uc *usecase.UseCases
	if opts.needEmbedder {
		llmClient, embedder, err := x.llm.ConfigureEmbedder(ctx)
		if err != nil {
			return nil, err
		}
		ucOpts = append(ucOpts, usecase.WithLLMClient(llmClient))

		publisher, closePublisher, err := x.events.Configure(ctx)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, closePublisher)
		ucOpts = append(ucOpts, usecase.WithPublisher(publisher))

		if opts.warehouse != nil {
			source, closeSource, err := opts.warehouse.Configure(ctx, rt.pipeline.AttributeKeys)
			if err != nil {
				return nil, err
			}
			rt.closers = append(rt.closers, closeSource)
			ucOpts = append(ucOpts, usecase.WithRowSource(source))
		}

		uc = usecase.New(store, embedder, ucOpts...)
	} else {
		uc = usecase.New(store, nil, ucOpts...)
	}
	rt.uc = uc

	logging.Default().Info("Pipeline configured",
		"namespace", rt.pipeline.Namespace,
		"llm", x.llm,
		"vector_store", x.store,
		"events", x.events,
	)

	return rt, nil
}
