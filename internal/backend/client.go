// Package backend is the typed client of the scoring and optimizer service.
//
// Responses are decoded into explicit types at the boundary; transport
// failures, error statuses and malformed bodies surface as distinct errors
// instead of reaching the renderers.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/seenimoa/pynvestor/internal/grid"
)

// Service endpoints.
const (
	ScreenerPath  = "/run_screener"
	WeightsPath   = "/optimizer_portfolio_weights"
	StockDataPath = "/stock_data"
)

var (
	ErrTransport         = errors.New("backend unreachable")
	ErrMalformedResponse = errors.New("malformed backend response")
)

// StatusError reports a non-2xx answer from the backend.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: backend returned %d", e.Method, e.Path, e.Code)
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	CacheTTL  time.Duration // 0 disables the screener cache
	UserAgent string
	APIToken  string
}

// Client talks to the scoring backend.
type Client struct {
	rc    *resty.Client
	cache *cache.Cache
	group singleflight.Group
	log   zerolog.Logger
}

// New creates a backend client.
func New(opts Options, log zerolog.Logger) *Client {
	rc := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")
	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.APIToken != "" {
		rc.SetAuthToken(opts.APIToken)
	}

	c := &Client{
		rc:  rc,
		log: log.With().Str("component", "backend").Logger(),
	}
	if opts.CacheTTL > 0 {
		c.cache = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return c
}

// RunScreener posts a screening request. Without a cache every call is one
// POST. With a cache, identical concurrent requests share one call and
// successful results are kept for the configured TTL.
func (c *Client) RunScreener(ctx context.Context, req ScreeningRequest) (*grid.Options, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode screening request: %w", err)
	}
	if c.cache == nil {
		return c.postGrid(ctx, ScreenerPath, body)
	}

	key := string(body)
	if cached, ok := c.cache.Get(key); ok {
		c.log.Debug().Str("period", req.Period).Msg("screener cache hit")
		return cached.(*grid.Options).Clone(), nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		return c.postGrid(ctx, ScreenerPath, body)
	})
	if err != nil {
		return nil, err
	}
	opts := v.(*grid.Options)
	c.cache.SetDefault(key, opts)

	c.log.Debug().
		Str("period", req.Period).
		Int("fields", len(req.Fields)).
		Int("rows", len(opts.RowData)).
		Bool("shared", shared).
		Msg("screener response")
	return opts.Clone(), nil
}

// PortfolioWeights posts the weights vector of a clicked portfolio.
func (c *Client) PortfolioWeights(ctx context.Context, req WeightsRequest) (*grid.Options, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode weights request: %w", err)
	}
	return c.postGrid(ctx, WeightsPath, body)
}

// StockData fetches the price history of isin.
func (c *Client) StockData(ctx context.Context, isin string) (*StockData, error) {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParam("isin", isin).
		Get(StockDataPath)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrTransport, StockDataPath, err)
	}
	if resp.IsError() {
		return nil, statusError("GET", StockDataPath, resp)
	}

	var out StockData
	if err := decode(resp.Body(), &out); err != nil {
		return nil, err
	}
	if out.ISIN == "" {
		out.ISIN = isin
	}
	return &out, nil
}

// FlushCache drops every cached screener result.
func (c *Client) FlushCache() {
	if c.cache != nil {
		c.cache.Flush()
	}
}

func (c *Client) postGrid(ctx context.Context, path string, body []byte) (*grid.Options, error) {
	start := time.Now()
	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json; charset=UTF-8").
		SetBody(body).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("%w: POST %s: %w", ErrTransport, path, err)
	}

	c.log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("backend call")

	if resp.IsError() {
		return nil, statusError("POST", path, resp)
	}
	return DecodeGrid(resp.Body())
}

// DecodeGrid decodes a grid document. The service may send the document
// itself or a JSON string holding it; both are accepted.
func DecodeGrid(body []byte) (*grid.Options, error) {
	var opts grid.Options
	if err := decode(body, &opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

func decode(body []byte, v any) error {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '"' {
		var inner string
		if err := json.Unmarshal(body, &inner); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
		body = bytes.TrimSpace([]byte(inner))
	}
	if len(body) == 0 || body[0] != '{' {
		return fmt.Errorf("%w: expected a JSON object", ErrMalformedResponse)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

func statusError(method, path string, resp *resty.Response) *StatusError {
	b := resp.String()
	if len(b) > 512 {
		b = b[:512]
	}
	return &StatusError{Method: method, Path: path, Code: resp.StatusCode(), Body: b}
}
