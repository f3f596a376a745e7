package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

const maxBodyBytes = 8 << 20

// StatusError is returned for non-2xx responses. It carries the numeric
// status, the status text and a trimmed copy of the body.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	text := e.Status
	if text == "" {
		text = http.StatusText(e.Code)
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("http %d %s", e.Code, text)
	}
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("http %d %s: %s", e.Code, text, body)
}

// Client sends JSON requests. Deadlines come from the request context.
type Client struct {
	HTTP *http.Client
}

// NewClient wraps httpClient, falling back to http.DefaultClient.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{HTTP: httpClient}
}

// PostJSON marshals payload as JSON and sends a POST request with the given headers.
// Returns the response body, status code, and any error.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, payload any) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, headers)
}

// GetJSON sends a GET request with the given headers and returns the response body.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	return c.do(req, headers)
}

func (c *Client) do(req *http.Request, headers map[string]string) ([]byte, int, error) {
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	httpClient := http.DefaultClient
	if c != nil && c.HTTP != nil {
		httpClient = c.HTTP
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, &StatusError{
			Code:   resp.StatusCode,
			Status: statusText(resp),
			Body:   string(data),
		}
	}
	return data, resp.StatusCode, nil
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
