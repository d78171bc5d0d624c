package resilience

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:      attempts,
		InitialBackoff:   time.Millisecond,
		MaxBackoff:       5 * time.Millisecond,
		Multiplier:       1.5,
		RateLimitBackoff: 2 * time.Millisecond,
	}
}

func TestDoVal(t *testing.T) {
	t.Run("SucceedsFirstTry", func(t *testing.T) {
		calls := 0
		v, err := DoVal(context.Background(), fastRetry(3), func(ctx context.Context) (int, error) {
			calls++
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, v)
		assert.Equal(t, 1, calls)
	})

	t.Run("RetriesTransientThenSucceeds", func(t *testing.T) {
		calls := 0
		v, err := DoVal(context.Background(), fastRetry(3), func(ctx context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", NewTransientError(errors.New("throttled"), http.StatusTooManyRequests)
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
		assert.Equal(t, 3, calls)
	})

	t.Run("StopsOnNonTransient", func(t *testing.T) {
		calls := 0
		_, err := DoVal(context.Background(), fastRetry(3), func(ctx context.Context) (int, error) {
			calls++
			return 0, errors.New("bad payload")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("ExhaustsAttempts", func(t *testing.T) {
		calls := 0
		_, err := DoVal(context.Background(), fastRetry(3), func(ctx context.Context) (int, error) {
			calls++
			return 0, NewTransientError(errors.New("flaky"), http.StatusServiceUnavailable)
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("ContextCancelStops", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := DoVal(ctx, fastRetry(5), func(ctx context.Context) (int, error) {
			calls++
			cancel()
			return 0, NewTransientError(errors.New("flaky"), 0)
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("OnRetryCalled", func(t *testing.T) {
		var attempts []int
		cfg := fastRetry(3)
		cfg.OnRetry = func(attempt int, err error) {
			attempts = append(attempts, attempt)
		}
		_, _ = DoVal(context.Background(), cfg, func(ctx context.Context) (int, error) {
			return 0, NewTransientError(errors.New("flaky"), 0)
		})
		assert.Equal(t, []int{1, 2}, attempts)
	})
}

func TestBackoffFor(t *testing.T) {
	cfg := applyDefaults(RetryConfig{
		InitialBackoff:   time.Millisecond,
		MaxBackoff:       5 * time.Millisecond,
		Multiplier:       1.5,
		JitterFraction:   0,
		RateLimitBackoff: 500 * time.Millisecond,
	})

	t.Run("RateLimitedFloorsDelay", func(t *testing.T) {
		err := NewTransientError(errors.New("throttled"), http.StatusTooManyRequests)
		assert.Equal(t, 500*time.Millisecond, backoffFor(err, 0, cfg))
	})

	t.Run("OtherTransientKeepsExponential", func(t *testing.T) {
		err := NewTransientError(errors.New("flaky"), http.StatusBadGateway)
		assert.Equal(t, time.Millisecond, backoffFor(err, 0, cfg))
	})
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("parse error")))
	assert.True(t, IsTransient(NewTransientError(errors.New("x"), 500)))
	assert.True(t, IsTransient(errors.New("read tcp: i/o timeout")))
	assert.True(t, IsTransient(errors.New("dial: connection reset by peer")))
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(NewTransientError(errors.New("x"), http.StatusTooManyRequests)))
	assert.False(t, IsRateLimited(NewTransientError(errors.New("x"), http.StatusBadGateway)))
	assert.False(t, IsRateLimited(errors.New("x")))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), code)
	}
	for _, code := range []int{200, 201, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), code)
	}
}
