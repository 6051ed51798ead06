// Package vindi is a small client for the Vindi recurring billing REST API.
package vindi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/vindisync/internal/config"
	"github.com/smallbiznis/vindisync/pkg/log/ctxlogger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrRequestFailed = errors.New("vindi_request_failed")
	ErrNotConfigured = errors.New("vindi_not_configured")
)

const userAgent = "vindisync/1.0"

// FieldError is one entry of the provider's error list.
type FieldError struct {
	ID        string `json:"id"`
	Parameter string `json:"parameter"`
	Message   string `json:"message"`
}

// APIError is returned for any non-2xx answer.
type APIError struct {
	StatusCode int
	Errors     []FieldError
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("vindi: status %d", e.StatusCode)
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		if fe.Parameter != "" {
			msgs = append(msgs, fe.Parameter+": "+fe.Message)
			continue
		}
		msgs = append(msgs, fe.Message)
	}
	return fmt.Sprintf("vindi: status %d: %s", e.StatusCode, strings.Join(msgs, "; "))
}

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
	HTTP   *http.Client `optional:"true"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(p Params) *Client {
	httpClient := p.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: p.Config.Vindi.Timeout}
	}
	baseURL := strings.TrimSpace(p.Config.Vindi.BaseURL)
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(p.Config.Vindi.APIKey),
		http:    httpClient,
		log:     p.Log.Named("vindi.client"),
	}
}

// Request sends body as JSON to path (relative to the API base URL) and
// returns the raw response body of a 2xx answer.
func (c *Client) Request(ctx context.Context, method, path string, body any) ([]byte, error) {
	if c.apiKey == "" || c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+strings.TrimPrefix(path, "/"), reader)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := ctxlogger.WithContext(ctx, c.log).With(
		zap.String("method", method),
		zap.String("path", path),
	)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("vindi request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrRequestFailed, err)
	}

	log = log.With(
		zap.Int("status", resp.StatusCode),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Errors []FieldError `json:"errors"`
		}
		if json.Unmarshal(raw, &envelope) == nil {
			apiErr.Errors = envelope.Errors
		}
		log.Warn("vindi request rejected", zap.Error(apiErr))
		return nil, apiErr
	}

	log.Debug("vindi request")
	return raw, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	raw, err := c.Request(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrRequestFailed, path, err)
	}
	return nil
}
