// Package publish delivers rendered export artifacts to an external sink. The
// body is signed with HMAC-SHA256 over the raw bytes and the hex digest is sent
// in the X-Signature header.
package publish

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

var ErrNotConfigured = errors.New("sink not configured")

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Artifact is one finished export file.
type Artifact struct {
	Name        string
	ContentType string
	Body        []byte
}

// Receipt describes a delivered artifact.
type Receipt struct {
	Name      string `json:"name"`
	Bytes     int    `json:"bytes"`
	Signature string `json:"signature"`
	Status    int    `json:"status"`
}

// SinkError is a non-2xx answer from the sink.
type SinkError struct {
	Code int
	Body string
}

func (e *SinkError) Error() string { return fmt.Sprintf("sink non-2xx: %d body=%s", e.Code, e.Body) }

type Publisher struct {
	c      HTTPClient
	url    string
	secret string
	log    *slog.Logger
}

func NewPublisher(c HTTPClient, url, secret string, log *slog.Logger) *Publisher {
	return &Publisher{c: c, url: url, secret: secret, log: log}
}

func (p *Publisher) Configured() bool { return p != nil && p.url != "" && p.secret != "" }

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks sig against body in constant time.
func Verify(secret string, body []byte, sig string) bool {
	want, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}

func (p *Publisher) Publish(ctx context.Context, a Artifact) (Receipt, error) {
	if !p.Configured() {
		return Receipt{}, ErrNotConfigured
	}
	sig := Sign(p.secret, a.Body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(a.Body))
	if err != nil {
		return Receipt{}, err
	}
	ct := a.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-Signature", sig)
	if a.Name != "" {
		req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Name))
	}

	resp, err := p.c.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("publish %s: %w", a.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Receipt{}, fmt.Errorf("publish %s: %w", a.Name, &SinkError{Code: resp.StatusCode, Body: string(b)})
	}
	p.log.Info("artifact published", slog.String("name", a.Name), slog.Int("bytes", len(a.Body)), slog.Int("status", resp.StatusCode))
	return Receipt{Name: a.Name, Bytes: len(a.Body), Signature: sig, Status: resp.StatusCode}, nil
}
