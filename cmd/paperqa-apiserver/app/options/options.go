// Package options contains flags and options for initializing the paperqa API server.
package options

import (
	"fmt"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/paperqa/internal/paperqa"
	"github.com/kart-io/paperqa/pkg/app/cliflag"
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
)

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	HTTPOptions    *httpopts.Options    `json:"http" mapstructure:"http"`
	LogOptions     *logopts.Options     `json:"log" mapstructure:"log"`
	TracingOptions *tracingopts.Options `json:"tracing" mapstructure:"tracing"`
	DBOptions      *dbopts.Options      `json:"db" mapstructure:"db"`
	MilvusOptions  *milvusopts.Options  `json:"milvus" mapstructure:"milvus"`
	// RedisOptions backs the answer cache, the embedding cache and token revocation.
	RedisOptions *redisopts.Options `json:"redis" mapstructure:"redis"`
	JWTOptions   *jwtopts.Options   `json:"jwt" mapstructure:"jwt"`

	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`
	ChatOptions      *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`

	SearchOptions   *searchopts.Options   `json:"search" mapstructure:"search"`
	WorkflowOptions *workflowopts.Options `json:"workflow" mapstructure:"workflow"`

	// ShutdownTimeout is the timeout for graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	tracing := tracingopts.NewOptions()
	tracing.ServiceName = paperqa.Name

	return &ServerOptions{
		HTTPOptions:      httpopts.NewOptions(),
		LogOptions:       logopts.NewOptions(),
		TracingOptions:   tracing,
		DBOptions:        dbopts.NewOptions(),
		MilvusOptions:    milvusopts.NewOptions(),
		RedisOptions:     redisopts.NewOptions(),
		JWTOptions:       jwtopts.NewOptions(),
		EmbeddingOptions: llmopts.NewEmbeddingOptions(),
		ChatOptions:      llmopts.NewChatOptions(),
		SearchOptions:    searchopts.NewOptions(),
		WorkflowOptions:  workflowopts.NewOptions(),
		ShutdownTimeout:  30 * time.Second,
	}
}

// Flags returns flags for a specific server by section name.
func (o *ServerOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.HTTPOptions.AddFlags(fss.FlagSet("http"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.TracingOptions.AddFlags(fss.FlagSet("tracing"))
	o.DBOptions.AddFlags(fss.FlagSet("db"))
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.RedisOptions.AddFlags(fss.FlagSet("redis"))
	o.JWTOptions.AddFlags(fss.FlagSet("jwt"))
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"), "embedding")
	o.ChatOptions.AddFlags(fss.FlagSet("chat"), "chat")
	o.SearchOptions.AddFlags(fss.FlagSet("search"))
	o.WorkflowOptions.AddFlags(fss.FlagSet("workflow"))

	fs := fss.FlagSet("misc")
	fs.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout.")

	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	if err := o.HTTPOptions.Complete(); err != nil {
		return err
	}
	if err := o.LogOptions.Complete(); err != nil {
		return err
	}
	if err := o.TracingOptions.Complete(); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	if err := o.DBOptions.Complete(); err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if err := o.JWTOptions.Complete(); err != nil {
		return fmt.Errorf("jwt: %w", err)
	}
	if err := o.RedisOptions.Complete(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if err := o.EmbeddingOptions.Complete(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := o.ChatOptions.Complete(); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	if err := o.SearchOptions.Complete(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return nil
}

// Validate checks whether the options in ServerOptions are valid.
func (o *ServerOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.HTTPOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.TracingOptions.Validate()...)
	errs = append(errs, o.DBOptions.Validate()...)
	errs = append(errs, o.MilvusOptions.Validate()...)
	errs = append(errs, o.RedisOptions.Validate()...)
	errs = append(errs, o.JWTOptions.Validate()...)
	errs = append(errs, o.EmbeddingOptions.Validate()...)
	errs = append(errs, o.ChatOptions.Validate()...)
	errs = append(errs, o.SearchOptions.Validate()...)
	errs = append(errs, o.WorkflowOptions.Validate()...)
	if o.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown-timeout must be positive"))
	}

	return utilerrors.NewAggregate(errs)
}

// Config builds a paperqa.Config based on ServerOptions.
func (o *ServerOptions) Config() (*paperqa.Config, error) {
	return &paperqa.Config{
		HTTPOptions:      o.HTTPOptions,
		LogOptions:       o.LogOptions,
		TracingOptions:   o.TracingOptions,
		DBOptions:        o.DBOptions,
		MilvusOptions:    o.MilvusOptions,
		RedisOptions:     o.RedisOptions,
		JWTOptions:       o.JWTOptions,
		EmbeddingOptions: o.EmbeddingOptions,
		ChatOptions:      o.ChatOptions,
		SearchOptions:    o.SearchOptions,
		WorkflowOptions:  o.WorkflowOptions,
		ShutdownTimeout:  o.ShutdownTimeout,
	}, nil
}
