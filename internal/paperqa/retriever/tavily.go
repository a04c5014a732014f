package retriever

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/kart-io/logger"
	"github.com/tidwall/gjson"

	"github.com/kart-io/paperqa/pkg/llm/resilience"
	searchopts "github.com/kart-io/paperqa/pkg/options/search"
	"github.com/kart-io/paperqa/pkg/utils/httpclient"
)

type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

// TavilyRetriever searches the web through the Tavily API. It ignores the
// article id.
type TavilyRetriever struct {
	baseURL    string
	apiKey     string
	depth      string
	maxResults int
	client     *httpclient.Client
	retry      *resilience.RetryConfig
}

// NewTavilyRetriever 创建 Web 检索器。
func NewTavilyRetriever(opts *searchopts.TavilyOptions) *TavilyRetriever {
	retry := resilience.DefaultRetryConfig()
	if opts.MaxRetries > 0 {
		retry.MaxAttempts = opts.MaxRetries
	}
	return &TavilyRetriever{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		depth:      opts.Depth,
		maxResults: opts.MaxResults,
		client:     httpclient.NewClient(opts.Timeout, 0),
		retry:      retry,
	}
}

// Search returns the content snippet of each result.
func (r *TavilyRetriever) Search(ctx context.Context, question, _ string) ([]string, error) {
	payload := tavilyRequest{
		APIKey:      r.apiKey,
		Query:       question,
		SearchDepth: r.depth,
		MaxResults:  r.maxResults,
	}

	var body []byte
	err := resilience.Do(ctx, r.retry, nil, func() error {
		req, err := httpclient.NewJSONRequest(ctx, http.MethodPost, r.baseURL, payload)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
		body, err = r.client.Do(req)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("tavily search: %w", err)
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("tavily search: malformed response")
	}
	var out []string
	gjson.GetBytes(body, "results").ForEach(func(_, result gjson.Result) bool {
		if content := strings.TrimSpace(result.Get("content").String()); content != "" {
			out = append(out, content)
		}
		return true
	})
	logger.Debugw("tavily search done", "results", len(out))
	return out, nil
}
