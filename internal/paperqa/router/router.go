// Package router registers the paperqa HTTP routes.
package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/paperqa/internal/paperqa/authz"
	"github.com/kart-io/paperqa/internal/paperqa/handler"
	"github.com/kart-io/paperqa/internal/paperqa/metrics"
	"github.com/kart-io/paperqa/internal/pkg/httputils"
	"github.com/kart-io/paperqa/pkg/middleware"
	secmw "github.com/kart-io/paperqa/pkg/security/middleware"
	"github.com/kart-io/paperqa/pkg/utils/errors"
)

// Handlers bundles every handler the router serves.
type Handlers struct {
	Health  *handler.HealthHandler
	Auth    *handler.AuthHandler
	Article *handler.ArticleHandler
	Chat    *handler.ChatHandler
	Report  *handler.ReportHandler
}

// Config carries the cross-cutting dependencies of the routes.
type Config struct {
	Verifier       secmw.Verifier
	Enforcer       secmw.Enforcer
	RequestTimeout time.Duration
	// Tracer 为空时使用全局 TracerProvider。
	Tracer trace.Tracer
	// Metrics 为空时不暴露 /metrics。
	Metrics *metrics.Metrics
}

// New builds a gin engine with the common middleware chain and all routes.
func New(cfg Config, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Tracing(cfg.Tracer, "/healthz", "/metrics"),
		middleware.Recovery(),
		middleware.Logger("/healthz", "/metrics"),
		middleware.CORS(),
	)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.NoRoute(func(c *gin.Context) {
		httputils.WriteResponse(c, errors.ErrRouteNotFound, nil)
	})
	Register(r, cfg, h)
	return r
}

// Register registers the paperqa routes on r.
func Register(r gin.IRouter, cfg Config, h Handlers) {
	logger.Info("Registering paperqa routes...")

	r.GET("/healthz", h.Health.Healthz)
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	v1 := r.Group("/api/v1", middleware.Timeout(cfg.RequestTimeout))
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		protected := v1.Group("", secmw.Authn(cfg.Verifier))

		articles := protected.Group("/articles", secmw.Authz(cfg.Enforcer, authz.ObjArticles, authz.ActRead))
		{
			articles.GET("", h.Article.List)
			articles.GET("/:id", h.Article.Get)
			articles.POST("/:id/summary", h.Article.Summary)
		}

		chat := protected.Group("/chat", secmw.Authz(cfg.Enforcer, authz.ObjChat, authz.ActAsk))
		{
			chat.POST("/:article_id/qa", h.Chat.Ask)
		}

		reports := protected.Group("/reports")
		{
			read := secmw.Authz(cfg.Enforcer, authz.ObjReports, authz.ActRead)
			reports.GET("/:article_id", read, h.Report.List)
			reports.GET("/:article_id/export", read, h.Report.Export)
			reports.POST("/:article_id/:report_id/feedback",
				secmw.Authz(cfg.Enforcer, authz.ObjReports, authz.ActValidate), h.Report.Feedback)
		}
	}

	logger.Info("HTTP routes registered")
}
