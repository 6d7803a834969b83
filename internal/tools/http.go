package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

const (
	defaultHTTPTimeout = 15 * time.Second
	maxResponseBytes   = 1 << 20
	userAgent          = "DSPyBridge/1.0"
)

type HTTPOptions struct {
	Timeout time.Duration
}

// NewHTTPClient returns the client shared by the HTTP-backed tools.
func NewHTTPClient(opts HTTPOptions) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &http.Client{Timeout: timeout}
}

// getJSON fetches url and returns the parsed body. Non-2xx statuses are
// returned as errors together with whatever body was received.
func getJSON(ctx context.Context, client *http.Client, url string, header http.Header) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("request %s: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("read body: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("status %d: response is not valid JSON", resp.StatusCode)
	}
	result := gjson.ParseBytes(body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, fmt.Errorf("status %d", resp.StatusCode)
	}
	return result, nil
}
