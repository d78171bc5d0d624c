// Package gmail provides a minimal client for the Gmail REST API covering
// label management, thread listing, and message retrieval.
package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the Gmail operations the pipeline needs.
type Client interface {
	// ResolveLabels maps label names to IDs, failing if any name is missing.
	ResolveLabels(ctx context.Context, names []string) (map[string]string, error)
	// EnsureLabel returns the ID for a label, creating it when absent.
	EnsureLabel(ctx context.Context, name string) (string, error)
	// ListThreads returns up to max thread IDs carrying the given label.
	ListThreads(ctx context.Context, labelID string, max int) ([]string, error)
	// GetThread fetches a thread with all its messages.
	GetThread(ctx context.Context, threadID string) (*Thread, error)
	// ModifyThreadLabels adds and removes labels on a thread atomically.
	ModifyThreadLabels(ctx context.Context, threadID string, add, remove []string) error
}

// Thread is a conversation with its messages in ascending date order.
type Thread struct {
	ID       string
	Messages []Message
}

// Message is one email with the fields extraction needs.
type Message struct {
	ID       string
	ThreadID string
	Subject  string
	From     string
	Date     time.Time
	Body     string
}

// Permalink returns the Gmail web URL for a thread.
func Permalink(threadID string) string {
	return "https://mail.google.com/mail/u/0/#all/" + threadID
}

// Option configures the Gmail client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a Gmail client authenticated with an OAuth access token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: "https://gmail.googleapis.com",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo executes an HTTP request with exponential backoff retries on
// transient failures (429, 500, 502, 503). Returns the response body and
// status code on success, or the last error after exhausting retries.
func (c *httpClient) retryDo(ctx context.Context, req *http.Request) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		retryReq := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, 0, eris.Wrap(err, "gmail: clone request body")
			}
			retryReq.Body = body
		}

		resp, err := c.http.Do(retryReq)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "gmail: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("gmail: status %d: %s", resp.StatusCode, string(body))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func (c *httpClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, eris.Wrap(err, "gmail: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	body, statusCode, err := c.retryDo(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "gmail: request failed")
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("gmail: unexpected status %d: %s", statusCode, string(body))
	}
	return body, nil
}

func (c *httpClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "gmail: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrap(err, "gmail: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, statusCode, err := c.retryDo(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "gmail: request failed")
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("gmail: unexpected status %d: %s", statusCode, string(body))
	}
	return body, nil
}

type apiLabel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type apiLabelList struct {
	Labels []apiLabel `json:"labels"`
}

func (c *httpClient) listLabels(ctx context.Context) (map[string]string, error) {
	body, err := c.get(ctx, "/gmail/v1/users/me/labels")
	if err != nil {
		return nil, err
	}

	var list apiLabelList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, eris.Wrap(err, "gmail: unmarshal labels")
	}

	byName := make(map[string]string, len(list.Labels))
	for _, l := range list.Labels {
		byName[l.Name] = l.ID
	}
	return byName, nil
}

func (c *httpClient) ResolveLabels(ctx context.Context, names []string) (map[string]string, error) {
	byName, err := c.listLabels(ctx)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]string, len(names))
	for _, name := range names {
		id, ok := byName[name]
		if !ok {
			return nil, eris.Errorf("gmail: label %q not found", name)
		}
		resolved[name] = id
	}
	return resolved, nil
}

func (c *httpClient) EnsureLabel(ctx context.Context, name string) (string, error) {
	byName, err := c.listLabels(ctx)
	if err != nil {
		return "", err
	}
	if id, ok := byName[name]; ok {
		return id, nil
	}

	body, err := c.post(ctx, "/gmail/v1/users/me/labels", map[string]string{
		"name":                  name,
		"labelListVisibility":   "labelShow",
		"messageListVisibility": "show",
	})
	if err != nil {
		return "", err
	}

	var created apiLabel
	if err := json.Unmarshal(body, &created); err != nil {
		return "", eris.Wrap(err, "gmail: unmarshal created label")
	}
	return created.ID, nil
}

type apiThreadRef struct {
	ID string `json:"id"`
}

type apiThreadList struct {
	Threads []apiThreadRef `json:"threads"`
}

func (c *httpClient) ListThreads(ctx context.Context, labelID string, max int) ([]string, error) {
	if max <= 0 {
		max = 100
	}
	path := fmt.Sprintf("/gmail/v1/users/me/threads?labelIds=%s&maxResults=%d",
		url.QueryEscape(labelID), max)

	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var list apiThreadList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, eris.Wrap(err, "gmail: unmarshal thread list")
	}

	ids := make([]string, 0, len(list.Threads))
	for _, t := range list.Threads {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

type apiHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type apiBody struct {
	Data string `json:"data"`
}

type apiPart struct {
	MimeType string      `json:"mimeType"`
	Headers  []apiHeader `json:"headers"`
	Body     apiBody     `json:"body"`
	Parts    []apiPart   `json:"parts"`
}

type apiMessage struct {
	ID           string  `json:"id"`
	ThreadID     string  `json:"threadId"`
	InternalDate string  `json:"internalDate"`
	Payload      apiPart `json:"payload"`
}

type apiThread struct {
	ID       string       `json:"id"`
	Messages []apiMessage `json:"messages"`
}

func (c *httpClient) GetThread(ctx context.Context, threadID string) (*Thread, error) {
	body, err := c.get(ctx, "/gmail/v1/users/me/threads/"+url.PathEscape(threadID)+"?format=full")
	if err != nil {
		return nil, err
	}

	var raw apiThread
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrap(err, "gmail: unmarshal thread")
	}

	thread := &Thread{ID: raw.ID}
	for _, m := range raw.Messages {
		msg, err := parseMessage(m)
		if err != nil {
			return nil, eris.Wrapf(err, "gmail: message %s", m.ID)
		}
		thread.Messages = append(thread.Messages, msg)
	}
	return thread, nil
}

func (c *httpClient) ModifyThreadLabels(ctx context.Context, threadID string, add, remove []string) error {
	payload := map[string][]string{}
	if len(add) > 0 {
		payload["addLabelIds"] = add
	}
	if len(remove) > 0 {
		payload["removeLabelIds"] = remove
	}
	if len(payload) == 0 {
		return nil
	}

	_, err := c.post(ctx, "/gmail/v1/users/me/threads/"+url.PathEscape(threadID)+"/modify", payload)
	return err
}

func parseMessage(m apiMessage) (Message, error) {
	msg := Message{ID: m.ID, ThreadID: m.ThreadID}

	for _, h := range m.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "subject":
			msg.Subject = h.Value
		case "from":
			msg.From = h.Value
		}
	}

	if m.InternalDate != "" {
		ms, err := strconv.ParseInt(m.InternalDate, 10, 64)
		if err != nil {
			return Message{}, eris.Wrap(err, "parse internalDate")
		}
		msg.Date = time.UnixMilli(ms).UTC()
	}

	msg.Body = plainTextBody(m.Payload)
	return msg, nil
}

// plainTextBody walks the MIME tree depth-first and returns the first
// text/plain part, falling back to the top-level body.
func plainTextBody(p apiPart) string {
	if strings.HasPrefix(p.MimeType, "text/plain") && p.Body.Data != "" {
		return decodeBody(p.Body.Data)
	}
	for _, part := range p.Parts {
		if body := plainTextBody(part); body != "" {
			return body
		}
	}
	if p.Body.Data != "" {
		return decodeBody(p.Body.Data)
	}
	return ""
}

func decodeBody(data string) string {
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(data)
	if err != nil {
		return ""
	}
	return string(decoded)
}
