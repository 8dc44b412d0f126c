package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultMaxRetries  = 3
	defaultBackoffBase = time.Second
)

// ErrDisabled is returned when the gateway has no upstream credentials.
// Callers treat it as "no data", not as a failure.
var ErrDisabled = errors.New("ledger gateway disabled: missing credentials")

// StatusError is a non-2xx upstream response, surfaced unchanged.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
}

// Permanent reports whether the status must not be retried.
func (e *StatusError) Permanent() bool {
	switch e.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// Config holds gateway settings. Zero retry/backoff/timeout values fall back
// to the defaults above.
type Config struct {
	BaseURL     string
	AppKey      string
	AppSecret   string
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration
}

// Client issues envelope calls against the upstream ledger API. It does not
// cache; memoization lives one layer up.
type Client struct {
	cfg   Config
	http  *http.Client
	log   *slog.Logger
	sleep func(context.Context, time.Duration) error
}

// NewClient builds a gateway client. When credentials are absent the client
// is created in disabled mode and warns loudly once, at startup; per-call
// behavior stays silent.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	c := &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		log:   logger,
		sleep: sleepCtx,
	}
	if c.Disabled() {
		logger.Warn("ledger credentials missing, gateway disabled; all aggregations will degrade to empty results")
	}
	return c
}

// Disabled reports whether the gateway lacks upstream credentials.
func (c *Client) Disabled() bool {
	return strings.TrimSpace(c.cfg.AppKey) == "" || strings.TrimSpace(c.cfg.AppSecret) == ""
}

type envelope struct {
	Call      string `json:"call"`
	AppKey    string `json:"app_key"`
	AppSecret string `json:"app_secret"`
	Param     []any  `json:"param"`
}

// Call POSTs one envelope to baseURL+endpointPath and returns the raw
// response body. Transient failures (any status outside the permanent set,
// network errors, timeouts) are retried with exponential backoff; permanent
// statuses fail immediately.
func (c *Client) Call(ctx context.Context, endpointPath, method string, params map[string]any) (json.RawMessage, error) {
	if c.Disabled() {
		return nil, ErrDisabled
	}

	body, err := json.Marshal(envelope{
		Call:      method,
		AppKey:    c.cfg.AppKey,
		AppSecret: c.cfg.AppSecret,
		Param:     []any{params},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(endpointPath, "/")

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := c.cfg.BackoffBase << (attempt - 1)
			c.log.Warn("retrying ledger call",
				"endpoint", endpointPath,
				"method", method,
				"attempt", attempt,
				"backoff", wait.String(),
				"error", lastErr)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}

		raw, err := c.post(ctx, url, body)
		if err == nil {
			return raw, nil
		}

		var se *StatusError
		if errors.As(err, &se) && se.Permanent() {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("ledger call %s/%s failed after %d retries: %w",
		endpointPath, method, c.cfg.MaxRetries, lastErr)
}

func (c *Client) post(ctx context.Context, url string, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
