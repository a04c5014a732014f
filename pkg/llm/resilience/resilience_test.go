package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/paperqa/pkg/llm"
	"github.com/kart-io/paperqa/pkg/utils/httpclient"
)

func fastRetry(attempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     attempts,
		InitialDelay:    time.Millisecond,
		MaxDelay:        2 * time.Millisecond,
		RetryableErrors: func(error) bool { return true },
	}
}

func TestCircuitBreakerOpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", &CircuitBreakerConfig{MaxFailures: 3, Timeout: time.Minute, HalfOpenMaxCalls: 1})
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return boom }), boom)
	}
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitOpen)
}

func TestCircuitBreakerHalfOpen(t *testing.T) {
	now := time.Unix(0, 0)
	cb := NewCircuitBreaker("test", &CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Second, HalfOpenMaxCalls: 1})
	cb.now = func() time.Time { return now }

	_ = cb.Execute(func() error { return errors.New("x") })
	require.Equal(t, StateOpen, cb.State())

	now = now.Add(2 * time.Second)
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())

	_ = cb.Execute(func() error { return errors.New("x") })
	now = now.Add(2 * time.Second)
	_ = cb.Execute(func() error { return errors.New("still down") })
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreakerIgnoresCancellation(t *testing.T) {
	cb := NewCircuitBreaker("test", &CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Minute})
	_ = cb.Execute(func() error { return context.Canceled })
	assert.Equal(t, StateClosed, cb.State())
	assert.Zero(t, cb.Failures())
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetry(3), nil, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	calls := 0
	cfg := fastRetry(5)
	cfg.RetryableErrors = IsRetryableError
	err := Do(context.Background(), cfg, nil, func() error {
		calls++
		return &httpclient.StatusError{StatusCode: http.StatusBadRequest}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"breaker open", ErrCircuitOpen, false},
		{"server error", &httpclient.StatusError{StatusCode: 503}, true},
		{"rate limited", &httpclient.StatusError{StatusCode: 429}, true},
		{"client error", &httpclient.StatusError{StatusCode: 404}, false},
		{"dns", &net.DNSError{Err: "no such host"}, true},
		{"plain", errors.New("bad json"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.err))
		})
	}
}

type flakyChat struct {
	failures int
	calls    int
}

func (f *flakyChat) Name() string { return "flaky" }

func (f *flakyChat) Chat(_ context.Context, _ []llm.Message) (string, error) {
	return "", nil
}

func (f *flakyChat) Generate(_ context.Context, _, _ string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", &httpclient.StatusError{StatusCode: 502}
	}
	return "yes", nil
}

func TestWrapChatRetries(t *testing.T) {
	inner := &flakyChat{failures: 2}
	cfg := fastRetry(3)
	cfg.RetryableErrors = IsRetryableError
	chat := WrapChat(inner, cfg, nil)

	out, err := chat.Generate(context.Background(), "q", "")
	require.NoError(t, err)
	assert.Equal(t, "yes", out)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, "flaky", chat.Name())
	assert.Equal(t, StateClosed, chat.CircuitBreaker().State())
}
