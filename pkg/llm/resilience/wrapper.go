package resilience

import (
	"context"
	"errors"
	"net"

	"github.com/kart-io/paperqa/pkg/llm"
	"github.com/kart-io/paperqa/pkg/utils/httpclient"
)

// EmbeddingProvider 带重试和熔断的 Embedding Provider。
type EmbeddingProvider struct {
	provider llm.EmbeddingProvider
	retry    *RetryConfig
	cb       *CircuitBreaker
}

// WrapEmbedding 包装 Embedding Provider。
func WrapEmbedding(provider llm.EmbeddingProvider, retryConfig *RetryConfig, cbConfig *CircuitBreakerConfig) *EmbeddingProvider {
	if retryConfig == nil {
		retryConfig = DefaultRetryConfig()
	}
	return &EmbeddingProvider{
		provider: provider,
		retry:    retryConfig,
		cb:       NewCircuitBreaker(provider.Name()+"-embed", cbConfig),
	}
}

func (r *EmbeddingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var result [][]float32
	err := Do(ctx, r.retry, r.cb, func() error {
		var err error
		result, err = r.provider.Embed(ctx, texts)
		return err
	})
	return result, err
}

func (r *EmbeddingProvider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	var result []float32
	err := Do(ctx, r.retry, r.cb, func() error {
		var err error
		result, err = r.provider.EmbedSingle(ctx, text)
		return err
	})
	return result, err
}

func (r *EmbeddingProvider) Name() string { return r.provider.Name() }

// CircuitBreaker 返回熔断器（用于监控）。
func (r *EmbeddingProvider) CircuitBreaker() *CircuitBreaker { return r.cb }

// ChatProvider 带重试和熔断的 Chat Provider。
type ChatProvider struct {
	provider llm.ChatProvider
	retry    *RetryConfig
	cb       *CircuitBreaker
}

// WrapChat 包装 Chat Provider。
func WrapChat(provider llm.ChatProvider, retryConfig *RetryConfig, cbConfig *CircuitBreakerConfig) *ChatProvider {
	if retryConfig == nil {
		retryConfig = DefaultRetryConfig()
	}
	return &ChatProvider{
		provider: provider,
		retry:    retryConfig,
		cb:       NewCircuitBreaker(provider.Name()+"-chat", cbConfig),
	}
}

func (r *ChatProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	var result string
	err := Do(ctx, r.retry, r.cb, func() error {
		var err error
		result, err = r.provider.Chat(ctx, messages)
		return err
	})
	return result, err
}

func (r *ChatProvider) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	var result string
	err := Do(ctx, r.retry, r.cb, func() error {
		var err error
		result, err = r.provider.Generate(ctx, prompt, systemPrompt)
		return err
	})
	return result, err
}

func (r *ChatProvider) Name() string { return r.provider.Name() }

// CircuitBreaker 返回熔断器（用于监控）。
func (r *ChatProvider) CircuitBreaker() *CircuitBreaker { return r.cb }

// IsRetryableError 判断错误是否值得重试。
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}
