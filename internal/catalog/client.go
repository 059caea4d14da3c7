// Package catalog is a small client for the TMDB movie catalog. It exposes the
// two read operations the workflow needs, title search and detail lookup,
// and normalizes every failure into ErrUnavailable or ErrRecordMissing.
//
// Outbound calls are paced by a token bucket, retried with exponential
// backoff on transient failures, and guarded by a circuit breaker so a dead
// catalog fails fast instead of stalling every request.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

var (
	// ErrUnavailable covers missing credentials, network failures, non-2xx
	// responses, undecodable bodies and an open circuit breaker.
	ErrUnavailable = errors.New("catalog unavailable")

	// ErrRecordMissing is returned when the catalog has no such record or the
	// record lacks a field required to build a movie.
	ErrRecordMissing = errors.New("catalog record missing")
)

// Default endpoints.
const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"
)

// maxBodyBytes caps how much of a catalog response is read.
const maxBodyBytes = 4 << 20

// Config holds the immutable client settings.
type Config struct {
	BaseURL       string
	ImageBaseURL  string
	APIKey        string
	Authorization string

	Timeout    time.Duration
	MaxRetries int     // extra attempts after the first
	RetryBase  time.Duration
	RPS        float64 // <= 0 disables pacing

	BreakerFailures int // <= 0 disables the breaker
	BreakerCooldown time.Duration
	BreakerWindow   time.Duration
}

// Client talks to the catalog over HTTP. It is safe for concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	breaker *breaker
	sleep   func(context.Context, time.Duration) error
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default instrumented HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New builds a Client, filling defaults for unset endpoints and timings.
func New(cfg Config, opts ...Option) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(cfg.ImageBaseURL) == "" {
		cfg.ImageBaseURL = DefaultImageBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.ImageBaseURL = strings.TrimRight(cfg.ImageBaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 200 * time.Millisecond
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}
	if cfg.BreakerWindow <= 0 {
		cfg.BreakerWindow = time.Minute
	}

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}

	c := &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(limit, 1),
		breaker: newBreaker(cfg.BreakerFailures, cfg.BreakerCooldown, cfg.BreakerWindow),
		sleep:   sleepCtx,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Search looks movies up by free-text title. Zero matches yield an empty,
// non-nil slice and no error.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("include_adult", "false")

	var resp searchResponse
	if err := c.get(ctx, "search", "/search/movie", q, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		return []SearchResult{}, nil
	}
	return resp.Results, nil
}

// Details fetches one movie and normalizes it into Details. Missing title,
// poster_path or release_date yields ErrRecordMissing.
func (c *Client) Details(ctx context.Context, catalogID int64) (*Details, error) {
	if catalogID <= 0 {
		return nil, fmt.Errorf("%w: invalid id %d", ErrRecordMissing, catalogID)
	}

	var resp detailsResponse
	path := "/movie/" + strconv.FormatInt(catalogID, 10)
	if err := c.get(ctx, "details", path, url.Values{}, &resp); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(resp.OriginalTitle)
	if title == "" {
		title = strings.TrimSpace(resp.Title)
	}
	poster := strings.TrimLeft(strings.TrimSpace(resp.PosterPath), "/")
	year := yearOf(resp.ReleaseDate)

	var missing []string
	if title == "" {
		missing = append(missing, "title")
	}
	if poster == "" {
		missing = append(missing, "poster_path")
	}
	if year == "" {
		missing = append(missing, "release_date")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: movie %d lacks %s", ErrRecordMissing, catalogID, strings.Join(missing, ", "))
	}

	id := resp.ID
	if id == 0 {
		id = catalogID
	}
	return &Details{
		CatalogID: id,
		Title:     title,
		Year:      "(" + year + ")",
		Overview:  resp.Overview,
		PosterURL: c.cfg.ImageBaseURL + "/" + poster,
	}, nil
}

// get performs a paced, retried, breaker-guarded GET and decodes JSON into out.
func (c *Client) get(ctx context.Context, op, path string, q url.Values, out any) (err error) {
	start := time.Now()
	defer func() { observe(op, start, err) }()

	if c.cfg.APIKey == "" && c.cfg.Authorization == "" {
		return fmt.Errorf("%w: no credentials configured", ErrUnavailable)
	}
	if !c.breaker.allow() {
		return fmt.Errorf("%w: circuit open", ErrUnavailable)
	}
	if c.cfg.APIKey != "" && c.cfg.Authorization == "" {
		q.Set("api_key", c.cfg.APIKey)
	}
	endpoint := c.cfg.BaseURL + path + "?" + q.Encode()

	delay := c.cfg.RetryBase
	attempts := c.cfg.MaxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		var retry bool
		retry, err = c.do(ctx, path, endpoint, out)
		if err == nil || !retry {
			break
		}
		if attempt < attempts {
			log.Warn().
				Str("op", op).
				Int("attempt", attempt).
				Int("max_attempts", attempts).
				Dur("backoff", delay).
				Err(err).
				Msg("catalog request failed, retrying")
			if serr := c.sleep(ctx, delay); serr != nil {
				err = fmt.Errorf("%w: %w", ErrUnavailable, serr)
				break
			}
			delay *= 2
		}
	}

	// A caller that gave up says nothing about the catalog's health.
	if ctx.Err() != nil {
		c.breaker.release()
	} else {
		c.breaker.record(err != nil && errors.Is(err, ErrUnavailable))
	}
	return err
}

// do runs one attempt. retry reports whether the failure is transient.
func (c *Client) do(ctx context.Context, path, endpoint string, out any) (retry bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return false, fmt.Errorf("%w: %w", ErrUnavailable, cerr)
		}
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if auth := authorizationHeader(c.cfg.Authorization); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Cancelled callers are not worth retrying.
		return ctx.Err() == nil, transportErr(path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, fmt.Errorf("%w: status %d", ErrRecordMissing, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return true, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return false, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return true, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("%w: decode body: %v", ErrUnavailable, err)
	}
	return false, nil
}

// transportErr drops the request URL, whose query may hold the api_key,
// from a client error. The underlying cause stays wrapped.
func transportErr(path string, err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, ue.Op, path, ue.Err)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// authorizationHeader accepts either a full header value ("Bearer <token>")
// or a bare token.
func authorizationHeader(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.Contains(v, " ") {
		return v
	}
	return "Bearer " + v
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
