package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/config"
	"github.com/Frankwerd/Career-Suite-AI-V6/internal/resilience"
	"github.com/Frankwerd/Career-Suite-AI-V6/pkg/anthropic"
)

const extractSystemText = `You are a precise email classifier for a job-application tracker. ` +
	`Given one inbound email you extract the employer name, the job title, and the application status. ` +
	`Return a single valid JSON object and nothing else. Use the string "unresolved" for any field you cannot determine with confidence.`

// Fields is the raw primary extractor output before canonicalization.
// Unresolved fields carry the "unresolved" sentinel.
type Fields struct {
	Company string `json:"company"`
	Title   string `json:"title"`
	Status  string `json:"status"`
}

// Primary calls the probabilistic extractor with a bounded request, a
// per-call timeout, rate limiting, and bounded retries on throttling.
type Primary struct {
	client       anthropic.Client
	model        string
	maxBodyChars int
	timeout      time.Duration
	retry        resilience.RetryConfig
	limiter      *rate.Limiter
}

// NewPrimary builds the primary extractor tier.
func NewPrimary(client anthropic.Client, aiCfg config.AnthropicConfig, exCfg config.ExtractConfig) *Primary {
	perMinute := exCfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 60
	}

	retry := resilience.DefaultRetryConfig()
	if exCfg.MaxAttempts > 0 {
		retry.MaxAttempts = exCfg.MaxAttempts
	}
	retry.ShouldRetry = func(err error) bool {
		return resilience.IsTransient(err) ||
			resilience.IsTransientHTTPStatus(anthropic.StatusCode(err))
	}
	retry.OnRetry = resilience.RetryLogger("anthropic", "extract")

	timeout := 30 * time.Second
	if exCfg.TimeoutSecs > 0 {
		timeout = time.Duration(exCfg.TimeoutSecs) * time.Second
	}

	maxBody := exCfg.MaxBodyChars
	if maxBody <= 0 {
		maxBody = 12000
	}

	return &Primary{
		client:       client,
		model:        aiCfg.Model,
		maxBodyChars: maxBody,
		timeout:      timeout,
		retry:        retry,
		limiter:      rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
	}
}

// Extract runs one bounded extraction request. Transport errors surface
// after retries are exhausted; malformed responses are content errors and
// surface immediately. Callers degrade to the fallback either way.
func (p *Primary) Extract(ctx context.Context, subject, body string) (Fields, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return Fields{}, eris.Wrap(err, "primary: rate limiter")
	}

	temp := 0.0
	req := anthropic.MessageRequest{
		Model:       p.model,
		MaxTokens:   256,
		System:      extractSystemText,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: buildExtractPrompt(subject, prefix(body, p.maxBodyChars))},
		},
	}

	resp, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		resp, err := p.client.CreateMessage(callCtx, req)
		if err != nil && anthropic.IsRateLimit(err) {
			// Marked so the retry loop applies its rate-limit backoff floor.
			return nil, resilience.NewTransientError(err, http.StatusTooManyRequests)
		}
		return resp, err
	})
	if err != nil {
		return Fields{}, eris.Wrap(err, "primary: extract")
	}
	resp.Usage.LogCost(p.model, "extract")

	var fields Fields
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &fields); err != nil {
		return Fields{}, eris.Wrap(err, "primary: parse response")
	}
	return fields, nil
}

func buildExtractPrompt(subject, body string) string {
	var b strings.Builder
	b.Grow(len(subject) + len(body) + 512)
	b.WriteString("Subject: ")
	b.WriteString(subject)
	b.WriteString("\n\nBody:\n")
	b.WriteString(body)
	b.WriteString("\n\nExtract from this email:\n")
	b.WriteString(`- "company": the employer (not the job board or ATS vendor)` + "\n")
	b.WriteString(`- "title": the job title applied for` + "\n")
	b.WriteString(`- "status": exactly one of "Applied", "Viewed", "Assessment", "Interview", "Offer", "Rejected", "Accepted", "Update/Other"` + "\n\n")
	b.WriteString(`Return JSON: {"company": <string>, "title": <string>, "status": <string>}`)
	return b.String()
}

// cleanJSON strips markdown fences and any prose around the outermost JSON
// object before parsing.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
