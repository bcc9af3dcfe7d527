// Package searchconsole is a small client for the Search Console webmasters v3 REST API
package searchconsole

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"time"

	perr "gscsync/internal/platform/errors"
	"gscsync/internal/platform/logger"
	"gscsync/internal/platform/metrics"

	json "github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// Scope is the read-only search analytics scope
	Scope = "https://www.googleapis.com/auth/webmasters.readonly"

	baseURLDefault = "https://searchconsole.googleapis.com/webmasters/v3"
	defaultTimeout = 60 * time.Second
	defaultUA      = "gscsync"
	maxBody        = 32 << 20
)

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// Metrics receives request latencies, may be nil
	Metrics *metrics.Sync
}

// Client issues single requests; retries belong to the caller
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
	now  func() time.Time
}

// New wraps an already authorized http client
func New(hc *http.Client, o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		http: hc,
		opts: o,
		log:  *logger.Named("searchconsole"),
		now:  time.Now,
	}
}

// NewFromServiceAccount reads a service account key file and returns a client that signs
// requests with a JWT bearer token. base, when set, is the transport under the oauth2 layer.
func NewFromServiceAccount(ctx context.Context, keyFile string, base *http.Client, o Options) (*Client, error) {
	b, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, perr.Configf("GOOGLE_SERVICE_ACCOUNT_JSON", "read service account %s: %v", keyFile, err)
	}
	return NewFromJSON(ctx, b, base, o)
}

// NewFromJSON is NewFromServiceAccount for key material already in memory
func NewFromJSON(ctx context.Context, key []byte, base *http.Client, o Options) (*Client, error) {
	conf, err := google.JWTConfigFromJSON(key, Scope)
	if err != nil {
		return nil, perr.Configf("GOOGLE_SERVICE_ACCOUNT_JSON", "parse service account: %v", err)
	}
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	return New(conf.Client(ctx), o), nil
}

// do sends in as JSON (when non-nil) and decodes a 2xx body into out (when non-nil)
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeJSON, "searchconsole %s encode", op)
		}
		body = bytes.NewReader(b)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.opts.BaseURL+path, body)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "searchconsole %s new request", op)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := c.now()
	resp, err := c.http.Do(req)
	lat := c.now().Sub(start)
	c.opts.Metrics.ObserveAPI("searchconsole", op, lat)
	if err != nil {
		return perr.WithOp(perr.Wrapf(err, perr.ErrorCodeUnknown, "searchconsole %s", op), op)
	}
	defer func() {
		if cerr := drainAndClose(resp.Body); cerr != nil {
			c.log.Debug().Err(cerr).Str("op", op).Msg("searchconsole close body failed")
		}
	}()

	c.log.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("latency", lat).
		Msg("searchconsole http response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		tail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		ra := perr.ParseRetryAfter(resp.Header.Get("Retry-After"), c.now())
		return perr.WithOp(perr.FromHTTPStatus("searchconsole", resp.StatusCode, string(tail), ra), op)
	}
	if out == nil {
		return nil
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return perr.WithOp(perr.Wrapf(err, perr.ErrorCodeUnknown, "searchconsole %s read body", op), op)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "searchconsole %s decode", op)
	}
	return nil
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}
