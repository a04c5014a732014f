// Package app provides the paperqa ingest command.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/paperqa/cmd/paperqa-ingest/app/options"
	"github.com/kart-io/paperqa/internal/ingest"
	"github.com/kart-io/paperqa/internal/paperqa/store"
	"github.com/kart-io/paperqa/pkg/component/milvus"
	"github.com/kart-io/paperqa/pkg/component/redis"
	"github.com/kart-io/paperqa/pkg/infra/app"
	"github.com/kart-io/paperqa/pkg/llm"
	// 导入 LLM 供应商以自动注册
	_ "github.com/kart-io/paperqa/pkg/llm/ollama"
	_ "github.com/kart-io/paperqa/pkg/llm/openai"
	"github.com/kart-io/paperqa/pkg/llm/resilience"
	ingestopts "github.com/kart-io/paperqa/pkg/options/ingest"
)

// Name is the name of the application.
const Name = "paperqa-ingest"

const commandDesc = `paperqa document ingester

Reads PDF, text and markdown files from a local directory or an S3 bucket,
splits them into chunks, embeds the chunks and writes them to the Milvus
article collection. Each file is recorded in the ingestion ledger so unchanged
files are skipped on the next run. The article id is the file name without
extension.

The command runs once and exits; schedule it externally.`

// NewApp creates the ingest command.
func NewApp() *app.App {
	opts := options.NewIngestOptions()
	return app.NewApp(
		app.WithName(Name),
		app.WithShortDescription("Ingest article files into paperqa"),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)
}

func run(opts *options.IngestOptions) app.RunFunc {
	return func() error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := opts.LogOptions.Init(); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ds, err := store.Open(ctx, opts.DBOptions)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer ds.Close()

		mc, err := milvus.New(ctx, opts.MilvusOptions)
		if err != nil {
			return err
		}
		defer mc.Close(context.WithoutCancel(ctx))
		if err := mc.EnsureCollection(ctx, opts.MilvusOptions.Collection, opts.MilvusOptions.Dimension); err != nil {
			return err
		}

		embedder, closeRedis, err := newEmbedder(ctx, opts)
		if err != nil {
			return err
		}
		defer closeRedis()

		src, err := newSource(opts.IngestOptions)
		if err != nil {
			return err
		}

		report, err := ingest.NewPipeline(src, ds, embedder, mc, opts.MilvusOptions.Collection, opts.IngestOptions).Run(ctx)
		if report != nil {
			fmt.Printf("files: %d indexed: %d skipped: %d failed: %d chunks: %d (%s)\n",
				report.Total, report.Indexed, report.Skipped, report.Failed, report.Chunks, report.Elapsed)
		}
		return err
	}
}

func newSource(o *ingestopts.Options) (ingest.Source, error) {
	if o.Source == ingestopts.SourceS3 {
		return ingest.NewS3Source(o.S3)
	}
	return ingest.NewLocalSource(o.Dir), nil
}

// newEmbedder wraps the provider with retries and, when redis is enabled and
// reachable, with the shared embedding cache.
func newEmbedder(ctx context.Context, opts *options.IngestOptions) (llm.EmbeddingProvider, func(), error) {
	p, err := llm.NewEmbeddingProvider(opts.EmbeddingOptions.Provider, opts.EmbeddingOptions.ToConfigMap())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	var embedder llm.EmbeddingProvider = resilience.WrapEmbedding(p, resilience.DefaultRetryConfig(), resilience.DefaultCircuitBreakerConfig())

	if !opts.RedisOptions.Enabled {
		return embedder, func() {}, nil
	}
	var rdb *goredis.Client
	if rdb, err = redis.New(ctx, opts.RedisOptions); err != nil {
		logger.Warnw("failed to connect to redis, embedding cache is disabled", "error", err.Error())
		return embedder, func() {}, nil
	}
	return llm.NewCachedEmbeddingProvider(embedder, rdb, nil), func() { _ = rdb.Close() }, nil
}
