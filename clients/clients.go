package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 60 * time.Second

type HTTP struct{ c *http.Client }

func NewHTTP() *HTTP { return &HTTP{c: &http.Client{Timeout: defaultTimeout}} }

// NewHTTPWithTimeout is NewHTTP with a caller supplied timeout; zero keeps the default.
func NewHTTPWithTimeout(d time.Duration) *HTTP {
	if d <= 0 {
		d = defaultTimeout
	}
	return &HTTP{c: &http.Client{Timeout: d}}
}

// postJSON sends body as JSON and decodes a 200 response into out.
// op prefixes every error so callers can tell services apart.
func (h *HTTP) postJSON(ctx context.Context, op, url, token string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s encode: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return h.do(req, op, token, out)
}

func (h *HTTP) getJSON(ctx context.Context, op, url, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return h.do(req, op, token, out)
}

func (h *HTTP) do(req *http.Request, op, token string, out any) error {
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := h.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &StatusError{Op: op, Code: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s decode: %w", op, err)
	}
	return nil
}

// StatusError is returned for any non-200 response.
type StatusError struct {
	Op     string
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Status, e.Body)
}

// NotFound reports whether the service answered 404.
func (e *StatusError) NotFound() bool { return e.Code == http.StatusNotFound }

// RateLimited reports whether the service answered 429.
func (e *StatusError) RateLimited() bool { return e.Code == http.StatusTooManyRequests }
