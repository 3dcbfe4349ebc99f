package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/AngelCh415/adinsights/internal/utils"
)

var ErrEmptyURL = errors.New("empty url")

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &http.Client{Timeout: timeout}
}

// StatusError is a non-2xx answer from an upstream API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string { return fmt.Sprintf("non-2xx: %d body=%s", e.Code, e.Body) }

// retryable: errores de red y 5xx/429; un 4xx no mejora reintentando.
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func getJSON(ctx context.Context, c HTTPClient, url string, v any) error {
	if url == "" {
		return ErrEmptyURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Code: resp.StatusCode, Body: string(b)}
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// GetJSONWithRetry retries transport errors and 5xx answers with exponential
// backoff plus jitter.
func GetJSONWithRetry(ctx context.Context, c HTTPClient, b utils.Backoff, url string, dst any) error {
	var attempts int
	err := b.Do(ctx, func(i int) error {
		attempts = i + 1
		return getJSON(ctx, c, url, dst)
	}, retryable, func(i int) time.Duration {
		return time.Duration(rand.Intn(150)) * time.Millisecond
	})
	if err != nil {
		return fmt.Errorf("get %s after %d attempt(s): %w", url, attempts, err)
	}
	return nil
}
