// Package options contains flags and options for the paperqa ingester.
package options

import (
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/paperqa/pkg/app/cliflag"
	dbopts "github.com/kart-io/paperqa/pkg/options/db"
	ingestopts "github.com/kart-io/paperqa/pkg/options/ingest"
	llmopts "github.com/kart-io/paperqa/pkg/options/llm"
	logopts "github.com/kart-io/paperqa/pkg/options/logger"
	milvusopts "github.com/kart-io/paperqa/pkg/options/milvus"
	redisopts "github.com/kart-io/paperqa/pkg/options/redis"
)

// IngestOptions contains the configuration of one ingest run.
type IngestOptions struct {
	LogOptions       *logopts.Options         `json:"log" mapstructure:"log"`
	DBOptions        *dbopts.Options          `json:"db" mapstructure:"db"`
	MilvusOptions    *milvusopts.Options      `json:"milvus" mapstructure:"milvus"`
	RedisOptions     *redisopts.Options       `json:"redis" mapstructure:"redis"`
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`
	IngestOptions    *ingestopts.Options      `json:"ingest" mapstructure:"ingest"`
}

// NewIngestOptions creates an IngestOptions instance with default values.
func NewIngestOptions() *IngestOptions {
	return &IngestOptions{
		LogOptions:       logopts.NewOptions(),
		DBOptions:        dbopts.NewOptions(),
		MilvusOptions:    milvusopts.NewOptions(),
		RedisOptions:     redisopts.NewOptions(),
		EmbeddingOptions: llmopts.NewEmbeddingOptions(),
		IngestOptions:    ingestopts.NewOptions(),
	}
}

// Flags returns flags grouped by section name.
func (o *IngestOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.DBOptions.AddFlags(fss.FlagSet("db"))
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.RedisOptions.AddFlags(fss.FlagSet("redis"))
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"), "embedding")
	o.IngestOptions.AddFlags(fss.FlagSet("ingest"))
	return fss
}

// Complete completes all the required options.
func (o *IngestOptions) Complete() error {
	if err := o.LogOptions.Complete(); err != nil {
		return err
	}
	if err := o.DBOptions.Complete(); err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if err := o.RedisOptions.Complete(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if err := o.EmbeddingOptions.Complete(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	return o.IngestOptions.Complete()
}

// Validate checks whether the options are valid.
func (o *IngestOptions) Validate() error {
	var errs []error
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.DBOptions.Validate()...)
	errs = append(errs, o.MilvusOptions.Validate()...)
	errs = append(errs, o.RedisOptions.Validate()...)
	errs = append(errs, o.EmbeddingOptions.Validate()...)
	errs = append(errs, o.IngestOptions.Validate()...)
	return utilerrors.NewAggregate(errs)
}
