// Package paperqa assembles the paperqa API server.
package paperqa

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/paperqa/internal/paperqa/authz"
	"github.com/kart-io/paperqa/internal/paperqa/biz"
	"github.com/kart-io/paperqa/internal/paperqa/cache"
	"github.com/kart-io/paperqa/internal/paperqa/handler"
	"github.com/kart-io/paperqa/internal/paperqa/metrics"
	"github.com/kart-io/paperqa/internal/paperqa/retriever"
	"github.com/kart-io/paperqa/internal/paperqa/router"
	"github.com/kart-io/paperqa/internal/paperqa/store"
	"github.com/kart-io/paperqa/internal/paperqa/workflow"
	"github.com/kart-io/paperqa/pkg/component/milvus"
	"github.com/kart-io/paperqa/pkg/component/redis"
	"github.com/kart-io/paperqa/pkg/infra/tracing"
	"github.com/kart-io/paperqa/pkg/llm"
	// 导入 LLM 供应商以自动注册
	_ "github.com/kart-io/paperqa/pkg/llm/ollama"
	_ "github.com/kart-io/paperqa/pkg/llm/openai"
	"github.com/kart-io/paperqa/pkg/llm/resilience"
	dbopts "github.com/kart-io/paperqa/pkg/options/db"
	jwtopts "github.com/kart-io/paperqa/pkg/options/jwt"
	llmopts "github.com/kart-io/paperqa/pkg/options/llm"
	logopts "github.com/kart-io/paperqa/pkg/options/logger"
	milvusopts "github.com/kart-io/paperqa/pkg/options/milvus"
	redisopts "github.com/kart-io/paperqa/pkg/options/redis"
	searchopts "github.com/kart-io/paperqa/pkg/options/search"
	httpopts "github.com/kart-io/paperqa/pkg/options/server/http"
	tracingopts "github.com/kart-io/paperqa/pkg/options/tracing"
	workflowopts "github.com/kart-io/paperqa/pkg/options/workflow"
	"github.com/kart-io/paperqa/pkg/security/jwt"
)

// Name is the name of the application.
const Name = "paperqa-apiserver"

const (
	answerKeyPrefix  = "paperqa:answer:"
	revokedKeyPrefix = "paperqa:jwt:revoked:"
)

// Config contains application-related configurations.
type Config struct {
	HTTPOptions      *httpopts.Options
	LogOptions       *logopts.Options
	TracingOptions   *tracingopts.Options
	DBOptions        *dbopts.Options
	MilvusOptions    *milvusopts.Options
	RedisOptions     *redisopts.Options
	JWTOptions       *jwtopts.Options
	EmbeddingOptions *llmopts.ProviderOptions
	ChatOptions      *llmopts.ProviderOptions
	SearchOptions    *searchopts.Options
	WorkflowOptions  *workflowopts.Options
	ShutdownTimeout  time.Duration
}

// Server represents the paperqa API server.
type Server struct {
	http            *http.Server
	shutdownTimeout time.Duration
	// closers run in reverse order after the HTTP server stops.
	closers []func(ctx context.Context) error
}

// NewServer initializes every dependency and returns a ready Server. On
// failure the resources opened so far are released.
func (cfg *Config) NewServer(ctx context.Context) (_ *Server, err error) {
	printBanner(cfg)

	s := &Server{shutdownTimeout: cfg.ShutdownTimeout}
	defer func() {
		if err != nil {
			s.close(context.WithoutCancel(ctx))
		}
	}()

	// 1. 初始化日志
	if err := cfg.LogOptions.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting paperqa API server...")

	// 2. 初始化链路追踪
	tp, err := tracing.NewProvider(ctx, cfg.TracingOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	s.closers = append(s.closers, tp.Shutdown)

	// 3. 初始化数据库
	ds, err := store.Open(ctx, cfg.DBOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	s.closers = append(s.closers, func(context.Context) error { return ds.Close() })
	logger.Infow("Database initialized", "driver", cfg.DBOptions.Driver)

	// 4. 初始化 Milvus
	mc, err := milvus.New(ctx, cfg.MilvusOptions)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, mc.Close)
	for _, coll := range []string{cfg.MilvusOptions.Collection, cfg.MilvusOptions.ReportCollection} {
		if err := mc.EnsureCollection(ctx, coll, cfg.MilvusOptions.Dimension); err != nil {
			return nil, err
		}
	}
	logger.Infow("Milvus client initialized",
		"collection", cfg.MilvusOptions.Collection,
		"report_collection", cfg.MilvusOptions.ReportCollection,
	)

	// 5. 初始化 Redis（可选）
	var rdb goredis.UniversalClient
	if cfg.RedisOptions.Enabled {
		client, err := redis.New(ctx, cfg.RedisOptions)
		if err != nil {
			logger.Warnw("failed to connect to redis, caches and token revocation are disabled", "error", err.Error())
		} else {
			rdb = client
			s.closers = append(s.closers, func(context.Context) error { return client.Close() })
			logger.Infow("Redis initialized", "addr", cfg.RedisOptions.Addr())
		}
	} else {
		logger.Info("Redis is disabled")
	}

	// 6. 初始化 LLM 供应商
	embedder, chat, err := newProviders(cfg, rdb)
	if err != nil {
		return nil, err
	}

	// 7. 初始化检索器与工作流
	m := metrics.New()
	vector := retriever.NewVectorRetriever(embedder, mc, cfg.MilvusOptions.Collection, cfg.WorkflowOptions.TopK)
	wf, err := workflow.New(
		vector,
		retriever.NewArxivRetriever(cfg.SearchOptions.Arxiv),
		retriever.NewTavilyRetriever(cfg.SearchOptions.Tavily),
		workflow.NewLLMGrader(chat),
		workflow.NewLLMGenerator(chat),
		workflow.WithTracer(tp.Tracer("paperqa.workflow")),
		workflow.WithObserver(m),
	)
	if err != nil {
		return nil, err
	}

	// 8. 初始化 Biz 层
	answers := cache.New(rdb, &cache.Config{
		Enabled:   rdb != nil && cfg.WorkflowOptions.CacheTTL > 0,
		TTL:       cfg.WorkflowOptions.CacheTTL,
		KeyPrefix: answerKeyPrefix,
	})
	var revoked jwt.Store
	if rdb != nil {
		revoked = jwt.NewRedisStore(rdb, revokedKeyPrefix)
	}
	tokens, err := jwt.New(cfg.JWTOptions, revoked)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jwt: %w", err)
	}

	articleBiz := biz.NewArticleBiz(ds)
	chatBiz := biz.NewChatBiz(ds, wf, answers, cfg.WorkflowOptions.QueryTimeout, cfg.ChatOptions.Model).WithObserver(m)
	reportBiz := biz.NewReportBiz(ds, biz.NewNoteIndexer(embedder, mc, cfg.MilvusOptions.ReportCollection), answers)
	summaryBiz := biz.NewSummaryBiz(ds, vector, chat, cfg.WorkflowOptions.SummaryChunks, cfg.ChatOptions.Model)
	authBiz := biz.NewAuthBiz(ds, tokens)

	// 9. 初始化权限
	enforcer, err := authz.NewEnforcer(ds.DB())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize enforcer: %w", err)
	}

	// 10. 注册路由
	gin.SetMode(cfg.HTTPOptions.Mode)
	engine := router.New(router.Config{
		Verifier:       tokens,
		Enforcer:       enforcer,
		RequestTimeout: cfg.HTTPOptions.RequestTimeout,
		Tracer:         tp.Tracer("paperqa.http"),
		Metrics:        m,
	}, router.Handlers{
		Health:  handler.NewHealthHandler(healthChecks(ds, mc, rdb)),
		Auth:    handler.NewAuthHandler(authBiz),
		Article: handler.NewArticleHandler(articleBiz, summaryBiz),
		Chat:    handler.NewChatHandler(chatBiz),
		Report:  handler.NewReportHandler(reportBiz),
	})

	s.http = &http.Server{
		Addr:         cfg.HTTPOptions.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.HTTPOptions.ReadTimeout,
		WriteTimeout: cfg.HTTPOptions.WriteTimeout,
		IdleTimeout:  cfg.HTTPOptions.IdleTimeout,
	}

	logger.Info("paperqa API server is ready")
	return s, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully and
// releases every resource.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down paperqa API server...")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("HTTP server shutdown failed", "error", err.Error())
	}
	s.close(shutdownCtx)

	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	logger.Info("paperqa API server stopped")
	return nil
}

func (s *Server) close(ctx context.Context) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			logger.Warnw("failed to release resource", "error", err.Error())
		}
	}
	s.closers = nil
}

// newProviders builds the embedding and chat providers. Both retry with
// backoff behind a circuit breaker; embeddings are cached when redis is up.
func newProviders(cfg *Config, rdb goredis.UniversalClient) (llm.EmbeddingProvider, llm.ChatProvider, error) {
	emb, err := llm.NewEmbeddingProvider(cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.ToConfigMap())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	chat, err := llm.NewChatProvider(cfg.ChatOptions.Provider, cfg.ChatOptions.ToConfigMap())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}

	var embedder llm.EmbeddingProvider = resilience.WrapEmbedding(emb, retryConfig(cfg.EmbeddingOptions), resilience.DefaultCircuitBreakerConfig())
	if rdb != nil {
		embedder = llm.NewCachedEmbeddingProvider(embedder, rdb, nil)
	}
	logger.Infow("LLM providers initialized",
		"embedding", cfg.EmbeddingOptions.Provider+"/"+cfg.EmbeddingOptions.Model,
		"chat", cfg.ChatOptions.Provider+"/"+cfg.ChatOptions.Model,
		"embedding_cache", rdb != nil,
	)
	return embedder, resilience.WrapChat(chat, retryConfig(cfg.ChatOptions), resilience.DefaultCircuitBreakerConfig()), nil
}

func retryConfig(o *llmopts.ProviderOptions) *resilience.RetryConfig {
	rc := resilience.DefaultRetryConfig()
	if o.MaxRetries > 0 {
		rc.MaxAttempts = o.MaxRetries + 1
	}
	return rc
}

func healthChecks(ds store.Factory, mc *milvus.Client, rdb goredis.UniversalClient) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := ds.DB().DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"milvus": mc.Ping,
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return checks
}

func printBanner(cfg *Config) {
	fmt.Printf("Starting %s...\n", Name)
	fmt.Printf("  HTTP: %s\n", cfg.HTTPOptions.Addr)
	fmt.Printf("  Embedding: %s (%s)\n", cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.Model)
	fmt.Printf("  Chat: %s (%s)\n", cfg.ChatOptions.Provider, cfg.ChatOptions.Model)
	fmt.Printf("  Database: %s\n", cfg.DBOptions.Driver)
}
