// Package binance fetches hourly klines from the Binance public REST API.
package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"PriceCast/internal/domain/models"
	pkghttp "PriceCast/pkg/http"
	applogger "PriceCast/pkg/logger"
	"PriceCast/pkg/util"
)

const (
	DefaultBaseURL = "https://api.binance.com"
	klinesPath     = "/api/v3/klines"
	// exchange cap per klines request
	maxLimit = 1000
)

// Client fetches closed and in-progress hourly bars.
type Client struct {
	baseURL        string
	http           *pkghttp.Client
	limiter        *rate.Limiter
	maxRetries     uint64
	maxElapsedTime time.Duration
	now            func() time.Time
	log            *applogger.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(h *pkghttp.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(perSec float64) Option {
	return func(c *Client) {
		if perSec > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
		}
	}
}

func WithRetries(maxRetries uint64, maxElapsed time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		if maxElapsed > 0 {
			c.maxElapsedTime = maxElapsed
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL:        DefaultBaseURL,
		limiter:        rate.NewLimiter(rate.Limit(5), 1),
		maxRetries:     3,
		maxElapsedTime: 30 * time.Second,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = pkghttp.NewClient(pkghttp.WithTimeout(10 * time.Second))
	}
	return c
}

// FetchHourly returns up to hours hourly bars ending with the current hour,
// ascending by open time.
func (c *Client) FetchHourly(ctx context.Context, symbol string, hours int) ([]models.Bar, error) {
	if hours <= 0 {
		return []models.Bar{}, nil
	}
	if hours > maxLimit {
		hours = maxLimit
	}
	from, to := util.HourWindow(c.now(), hours)

	req := &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    c.baseURL + klinesPath,
		QueryParams: map[string][]string{
			"symbol":    {strings.ToUpper(symbol)},
			"interval":  {"1h"},
			"startTime": {strconv.FormatInt(from.UnixMilli(), 10)},
			"endTime":   {strconv.FormatInt(to.Add(time.Hour-time.Millisecond).UnixMilli(), 10)},
			"limit":     {strconv.Itoa(hours)},
		},
	}

	var raw [][]json.RawMessage
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limiter: %w", err))
		}
		raw = nil
		err := c.http.SendAndParse(ctx, req, &raw)
		if err == nil {
			return nil
		}
		var se *pkghttp.StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = c.maxElapsedTime
	notify := func(err error, wait time.Duration) {
		if c.log != nil {
			c.log.Warn("binance klines retry",
				applogger.String("symbol", symbol),
				applogger.Duration("wait_ms", wait),
				applogger.Error(err),
			)
		}
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(strategy, c.maxRetries), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, fmt.Errorf("fetch klines %s: %w", symbol, err)
	}

	bars := make([]models.Bar, 0, len(raw))
	for i, k := range raw {
		b, err := parseKline(symbol, k)
		if err != nil {
			return nil, fmt.Errorf("kline %d: %w", i, err)
		}
		bars = append(bars, b)
	}
	if c.log != nil {
		c.log.Debug("binance klines fetched",
			applogger.String("symbol", symbol),
			applogger.Int("requested", hours),
			applogger.Int("received", len(bars)),
		)
	}
	return bars, nil
}

// parseKline decodes [openTime, open, high, low, close, volume, closeTime, ...].
func parseKline(symbol string, k []json.RawMessage) (models.Bar, error) {
	if len(k) < 6 {
		return models.Bar{}, fmt.Errorf("expected at least 6 fields, got %d", len(k))
	}
	var openTime int64
	if err := json.Unmarshal(k[0], &openTime); err != nil {
		return models.Bar{}, fmt.Errorf("open time: %w", err)
	}
	vals := make([]float64, 5)
	for i := range vals {
		var s string
		if err := json.Unmarshal(k[i+1], &s); err != nil {
			return models.Bar{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.Bar{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return models.Bar{
		Symbol:    strings.ToUpper(symbol),
		Timestamp: util.FromUnixMilli(openTime),
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, nil
}
