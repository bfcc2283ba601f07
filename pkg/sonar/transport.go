package sonar

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 5 * time.Second

// NewHTTPClient returns a client for the engine's loopback services. The engine
// serves a self-signed certificate, so verification is disabled.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // local self-signed engine
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

type requester struct {
	client *http.Client
	logger *zap.Logger
}

func (r requester) do(ctx context.Context, method string, baseURL string, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, nil)
	if err != nil {
		return nil, &RequestError{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &RequestError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	r.logger.Debug("sonar request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Method: method, Path: path, Err: err}
	}
	return body, nil
}

// raw returns the body unmodified after checking that it is JSON.
func (r requester) raw(ctx context.Context, method string, baseURL string, path string) (json.RawMessage, error) {
	body, err := r.do(ctx, method, baseURL, path)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, &DecodeError{Path: path, Err: errors.New("body is not valid JSON")}
	}
	return json.RawMessage(body), nil
}

func (r requester) decode(ctx context.Context, method string, baseURL string, path string, out any) error {
	body, err := r.do(ctx, method, baseURL, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}
