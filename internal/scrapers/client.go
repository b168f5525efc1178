// Package scrapers drives the external data-collection workers: it starts and
// stops them over HTTP and follows their server-sent log streams.
package scrapers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"explorer/internal/domain"
)

// TokenSource returns the bearer token sent to the scraper API. An empty token
// sends no Authorization header.
type TokenSource func(ctx context.Context) (string, error)

// Client talks to the scraper control API.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
}

// NewClient builds a client for baseURL. httpClient must not set a Timeout,
// since log streams stay open indefinitely.
func NewClient(baseURL string, httpClient *http.Client, token TokenSource) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		token:   token,
	}
}

func (c *Client) Start(ctx context.Context, worker string) error {
	return c.post(ctx, "start", worker)
}

func (c *Client) Stop(ctx context.Context, worker string) error {
	return c.post(ctx, "stop", worker)
}

func (c *Client) post(ctx context.Context, action, worker string) error {
	req, err := c.newRequest(ctx, http.MethodPost, action, worker)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrUpstream, action, worker, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s: status %d: %s", domain.ErrUpstream, action, worker, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Stream follows the worker's log stream and calls fn for every decoded line,
// in stream order. It returns nil when the server ends the stream and the
// context error when ctx is cancelled.
func (c *Client) Stream(ctx context.Context, worker string, fn func(domain.LogLine)) error {
	req, err := c.newRequest(ctx, http.MethodGet, "logs", worker)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: logs %s: %v", domain.ErrUpstream, worker, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: logs %s: status %d", domain.ErrUpstream, worker, resp.StatusCode)
	}

	err = readEvents(resp.Body, func(event, data string) {
		if event != "" && event != "message" && event != "log" {
			return
		}
		fn(decodeLine(data))
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("%w: logs %s: %v", domain.ErrUpstream, worker, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, action, worker string) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/api/scrapers/%s/%s", c.baseURL, action, url.PathEscape(worker))
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", action, err)
	}
	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return nil, fmt.Errorf("scraper api token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// readEvents splits an event stream into (event, data) pairs. A blank line
// ends an event; multi-line data is joined with newlines.
func readEvents(r io.Reader, fn func(event, data string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var event string
	var data bytes.Buffer
	flush := func() {
		if data.Len() > 0 {
			fn(event, strings.TrimSuffix(data.String(), "\n"))
		}
		event = ""
		data.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, ":"):
			// comment / keep-alive
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			v := strings.TrimPrefix(line, "data:")
			data.WriteString(strings.TrimPrefix(v, " "))
			data.WriteByte('\n')
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	flush()
	return nil
}

type wireLine struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
	Type      string `json:"type"`
}

// decodeLine turns one data payload into a log line. Payloads that are not
// JSON are kept verbatim as info lines.
func decodeLine(data string) domain.LogLine {
	var w wireLine
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return domain.LogLine{Timestamp: time.Now().UTC(), Message: data, Type: domain.LogInfo}
	}
	return domain.LogLine{
		Timestamp: parseTimestamp(w.Timestamp),
		Message:   w.Message,
		Type:      normalizeType(w.Type),
	}
}

func normalizeType(v string) domain.LogType {
	switch t := domain.LogType(strings.ToLower(strings.TrimSpace(v))); t {
	case domain.LogInfo, domain.LogSuccess, domain.LogWarning, domain.LogError:
		return t
	default:
		return domain.LogInfo
	}
}

func parseTimestamp(v string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}
