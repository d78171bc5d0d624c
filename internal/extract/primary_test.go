package extract

import (
	"context"
	"fmt"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/config"
	"github.com/Frankwerd/Career-Suite-AI-V6/internal/resilience"
)

func TestPrimaryClassifiesRateLimit(t *testing.T) {
	apierr := &sdk.Error{StatusCode: 429}
	client := &fakeClient{err: fmt.Errorf("call failed: %w", apierr)}

	p := NewPrimary(client, config.AnthropicConfig{Model: "test-model"}, config.ExtractConfig{
		MaxAttempts:   1,
		RatePerMinute: 100000,
	})

	_, err := p.Extract(context.Background(), "subject", "body")
	require.Error(t, err)
	assert.Equal(t, 1, client.calls)

	// The throttle surfaces as a rate-limited transient error so callers and
	// the retry loop can treat it differently from content failures.
	assert.True(t, resilience.IsRateLimited(err))
	assert.True(t, resilience.IsTransient(err))
}

func TestPrimaryContentErrorNotTransient(t *testing.T) {
	client := &fakeClient{text: "not json at all"}

	p := NewPrimary(client, config.AnthropicConfig{Model: "test-model"}, config.ExtractConfig{
		MaxAttempts:   3,
		RatePerMinute: 100000,
	})

	_, err := p.Extract(context.Background(), "subject", "body")
	require.Error(t, err)
	// Malformed content is not retried.
	assert.Equal(t, 1, client.calls)
	assert.False(t, resilience.IsRateLimited(err))
}
