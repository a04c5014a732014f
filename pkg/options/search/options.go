// Package search provides options for the external paper and web search providers.
package search

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/paperqa/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// ArxivOptions configures the arXiv paper search.
type ArxivOptions struct {
	BaseURL    string        `json:"base-url" mapstructure:"base-url"`
	MaxResults int           `json:"max-results" mapstructure:"max-results"`
	Timeout    time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxRetries int           `json:"max-retries" mapstructure:"max-retries"`
}

// TavilyOptions configures the Tavily web search.
type TavilyOptions struct {
	BaseURL    string        `json:"base-url" mapstructure:"base-url"`
	APIKey     string        `json:"-" mapstructure:"api-key"`
	MaxResults int           `json:"max-results" mapstructure:"max-results"`
	Depth      string        `json:"depth" mapstructure:"depth"`
	Timeout    time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxRetries int           `json:"max-retries" mapstructure:"max-retries"`
}

// Options groups the search providers.
type Options struct {
	Arxiv  *ArxivOptions  `json:"arxiv" mapstructure:"arxiv"`
	Tavily *TavilyOptions `json:"tavily" mapstructure:"tavily"`
}

// NewOptions returns defaults.
func NewOptions() *Options {
	return &Options{
		Arxiv: &ArxivOptions{
			BaseURL:    "https://export.arxiv.org/api/query",
			MaxResults: 3,
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		Tavily: &TavilyOptions{
			BaseURL:    "https://api.tavily.com/search",
			MaxResults: 3,
			Depth:      "basic",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
	}
}

// AddFlags adds flags for search options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "search."
	fs.StringVar(&o.Arxiv.BaseURL, p+"arxiv.base-url", o.Arxiv.BaseURL, "arXiv query API URL.")
	fs.IntVar(&o.Arxiv.MaxResults, p+"arxiv.max-results", o.Arxiv.MaxResults, "Number of arXiv abstracts per question.")
	fs.DurationVar(&o.Arxiv.Timeout, p+"arxiv.timeout", o.Arxiv.Timeout, "arXiv request timeout.")
	fs.IntVar(&o.Arxiv.MaxRetries, p+"arxiv.max-retries", o.Arxiv.MaxRetries, "arXiv request attempts.")
	fs.StringVar(&o.Tavily.BaseURL, p+"tavily.base-url", o.Tavily.BaseURL, "Tavily search API URL.")
	fs.StringVar(&o.Tavily.APIKey, p+"tavily.api-key", o.Tavily.APIKey, "Tavily API key (prefer TAVILY_API_KEY env var).")
	fs.IntVar(&o.Tavily.MaxResults, p+"tavily.max-results", o.Tavily.MaxResults, "Number of web results per question.")
	fs.StringVar(&o.Tavily.Depth, p+"tavily.depth", o.Tavily.Depth, "Tavily search depth (basic|advanced).")
	fs.DurationVar(&o.Tavily.Timeout, p+"tavily.timeout", o.Tavily.Timeout, "Tavily request timeout.")
	fs.IntVar(&o.Tavily.MaxRetries, p+"tavily.max-retries", o.Tavily.MaxRetries, "Tavily request attempts.")
}

// Complete reads TAVILY_API_KEY when no key was configured.
func (o *Options) Complete() error {
	if o.Tavily.APIKey == "" {
		o.Tavily.APIKey = os.Getenv("TAVILY_API_KEY")
	}
	return nil
}

// Validate validates the search options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Arxiv.BaseURL == "" || o.Arxiv.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("search.arxiv needs a base-url and positive max-results"))
	}
	if o.Tavily.BaseURL == "" || o.Tavily.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("search.tavily needs a base-url and positive max-results"))
	}
	if o.Tavily.APIKey == "" {
		errs = append(errs, fmt.Errorf("search.tavily.api-key is required"))
	}
	if o.Tavily.Depth != "basic" && o.Tavily.Depth != "advanced" {
		errs = append(errs, fmt.Errorf("search.tavily.depth must be basic or advanced"))
	}
	return errs
}
