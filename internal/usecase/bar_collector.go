package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	domsvc "PriceCast/internal/domain/service"
	applogger "PriceCast/pkg/logger"
)

// KlineFetcher pulls hourly bars from the exchange.
type KlineFetcher interface {
	FetchHourly(ctx context.Context, symbol string, hours int) ([]models.Bar, error)
}

// BarCollector scrapes recent hourly bars into the BarStore.
type BarCollector struct {
	fetcher    KlineFetcher
	store      domrepo.BarStore
	symbols    []string
	fetchHours int
	metrics    domrepo.Metrics
	log        *applogger.Logger
}

var _ domsvc.BarCollector = (*BarCollector)(nil)

func NewBarCollector(fetcher KlineFetcher, store domrepo.BarStore, symbols []string, fetchHours int, metrics domrepo.Metrics, log *applogger.Logger) *BarCollector {
	return &BarCollector{
		fetcher:    fetcher,
		store:      store,
		symbols:    append([]string(nil), symbols...),
		fetchHours: fetchHours,
		metrics:    metrics,
		log:        log,
	}
}

// Collect fetches the last fetchHours bars for symbol and upserts them.
// It returns the number of bars written.
func (c *BarCollector) Collect(ctx context.Context, symbol string) (int, error) {
	start := time.Now()
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if !c.supported(s) {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedSymbol, symbol)
	}

	bars, err := c.fetcher.FetchHourly(ctx, s, c.fetchHours)
	if err != nil {
		c.recordError("collect_fetch")
		return 0, err
	}
	if err := models.ValidateSeries(bars); err != nil {
		c.recordError("collect_validate")
		return 0, fmt.Errorf("validate bars %s: %w", s, err)
	}
	if err := c.store.UpsertBars(ctx, s, bars); err != nil {
		c.recordError("collect_store")
		return 0, fmt.Errorf("store bars %s: %w", s, err)
	}

	if c.metrics != nil {
		c.metrics.RecordBarsCollected(s, len(bars))
		c.metrics.RecordLatency("collect", time.Since(start).Seconds())
		if len(bars) > 0 {
			c.metrics.RecordLastPrice(s, bars[len(bars)-1].Close)
		}
	}
	if c.log != nil {
		c.log.Info("bars collected",
			applogger.String("symbol", s),
			applogger.Int("bars", len(bars)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return len(bars), nil
}

// CollectAll runs Collect for every configured symbol and joins the failures.
func (c *BarCollector) CollectAll(ctx context.Context) error {
	var errs []error
	for _, s := range c.symbols {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := c.Collect(ctx, s); err != nil {
			if c.log != nil {
				c.log.Error("bar collection failed", applogger.String("symbol", s), applogger.Error(err))
			}
			errs = append(errs, fmt.Errorf("%s: %w", s, err))
		}
	}
	return errors.Join(errs...)
}

func (c *BarCollector) supported(symbol string) bool {
	for _, s := range c.symbols {
		if s == symbol {
			return true
		}
	}
	return false
}

func (c *BarCollector) recordError(kind string) {
	if c.metrics != nil {
		c.metrics.RecordError(kind)
	}
}
