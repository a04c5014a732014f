// Package workflow provides options for the question answering workflow.
package workflow

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/paperqa/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options 问答工作流配置。
type Options struct {
	// TopK 向量检索返回的片段数量。
	TopK int `json:"top-k" mapstructure:"top-k"`
	// QueryTimeout 单次问答的超时时间。
	QueryTimeout time.Duration `json:"query-timeout" mapstructure:"query-timeout"`
	// CacheTTL 答案缓存时间，需要启用 redis。
	CacheTTL time.Duration `json:"cache-ttl" mapstructure:"cache-ttl"`
	// SummaryChunks 生成摘要时读取的片段数量。
	SummaryChunks int `json:"summary-chunks" mapstructure:"summary-chunks"`
}

// NewOptions 创建默认配置。
func NewOptions() *Options {
	return &Options{
		TopK:          5,
		QueryTimeout:  90 * time.Second,
		CacheTTL:      time.Hour,
		SummaryChunks: 20,
	}
}

// AddFlags adds flags for workflow options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "workflow."
	fs.IntVar(&o.TopK, p+"top-k", o.TopK, "Number of chunks fetched by the vector search.")
	fs.DurationVar(&o.QueryTimeout, p+"query-timeout", o.QueryTimeout, "Timeout for a single question.")
	fs.DurationVar(&o.CacheTTL, p+"cache-ttl", o.CacheTTL, "Answer cache TTL (requires redis).")
	fs.IntVar(&o.SummaryChunks, p+"summary-chunks", o.SummaryChunks, "Number of chunks used to summarise an article.")
}

// Validate validates the workflow options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("workflow.top-k must be positive"))
	}
	if o.QueryTimeout <= 0 {
		errs = append(errs, fmt.Errorf("workflow.query-timeout must be positive"))
	}
	if o.SummaryChunks <= 0 {
		errs = append(errs, fmt.Errorf("workflow.summary-chunks must be positive"))
	}
	return errs
}
