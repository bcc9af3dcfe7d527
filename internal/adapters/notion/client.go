// Package notion is a minimal Notion REST client: database query and retrieve, page create and update
package notion

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	perr "gscsync/internal/platform/errors"
	"gscsync/internal/platform/logger"
	"gscsync/internal/platform/metrics"

	json "github.com/goccy/go-json"
)

const (
	baseURLDefault = "https://api.notion.com/v1"
	// VersionDefault is the Notion-Version header sent when none is configured
	VersionDefault = "2022-06-28"
	defaultTimeout = 30 * time.Second
	maxBody        = 4 << 20
)

// Options configures the Client
type Options struct {
	Token   string
	BaseURL string
	Version string
	Timeout time.Duration

	HTTP    *http.Client
	Metrics *metrics.Sync
}

// Client issues single requests; throttling and retries belong to the caller
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
	now  func() time.Time
}

// New validates o and returns a Client
func New(o Options) (*Client, error) {
	if strings.TrimSpace(o.Token) == "" {
		return nil, perr.Configf("NOTION_TOKEN", "NOTION_TOKEN is required")
	}
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Version == "" {
		o.Version = VersionDefault
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	hc := o.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		http: hc,
		opts: o,
		log:  *logger.Named("notion"),
		now:  time.Now,
	}, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeJSON, "notion %s encode", op)
		}
		body = bytes.NewReader(b)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.opts.BaseURL+path, body)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "notion %s new request", op)
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	req.Header.Set("Notion-Version", c.opts.Version)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := c.now()
	resp, err := c.http.Do(req)
	lat := c.now().Sub(start)
	c.opts.Metrics.ObserveAPI("notion", op, lat)
	if err != nil {
		return perr.WithOp(perr.Wrapf(err, perr.ErrorCodeUnknown, "notion %s", op), op)
	}
	defer func() { _ = drainAndClose(resp.Body) }()

	c.log.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("latency", lat).
		Msg("notion http response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		tail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		ra := perr.ParseRetryAfter(resp.Header.Get("Retry-After"), c.now())
		msg, apiCode := errorMessage(tail)
		return perr.WithOp(perr.FromHTTPStatusCode("notion", resp.StatusCode, statusCode(resp.StatusCode, apiCode), msg, ra), op)
	}
	if out == nil {
		return nil
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return perr.WithOp(perr.Wrapf(err, perr.ErrorCodeUnknown, "notion %s read body", op), op)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "notion %s decode", op)
	}
	return nil
}

// errorMessage prefers "code: message" from a Notion error object over the raw body,
// and returns the Notion error code when there is one
func errorMessage(body []byte) (string, string) {
	var e struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil && e.Message != "" {
		return e.Code + ": " + e.Message, e.Code
	}
	return string(body), ""
}

// statusCode classifies a failed response. A conflict_error means the transaction
// was rolled back and the request can be sent again.
func statusCode(status int, apiCode string) perr.ErrorCode {
	if apiCode == "conflict_error" {
		return perr.ErrorCodeUnavailable
	}
	return perr.CodeForStatus(status)
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}
