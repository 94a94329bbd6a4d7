package usecase

import (
	"context"
	"errors"
	"fmt"

	"PriceCast/internal/services/forecast"
	applogger "PriceCast/pkg/logger"
)

// PlaceholderCreator persists an unfitted engine when no artifact exists.
type PlaceholderCreator interface {
	CreatePlaceholder(ctx context.Context, symbol string) (*forecast.Engine, bool, error)
}

// Bootstrap makes sure every configured symbol has a loadable artifact.
type Bootstrap struct {
	store   PlaceholderCreator
	symbols []string
	log     *applogger.Logger
}

func NewBootstrap(store PlaceholderCreator, symbols []string, log *applogger.Logger) *Bootstrap {
	return &Bootstrap{store: store, symbols: append([]string(nil), symbols...), log: log}
}

// BootstrapResult reports which symbols got a fresh placeholder.
type BootstrapResult struct {
	Created  []string `json:"created"`
	Existing []string `json:"existing"`
}

// Run is idempotent: existing loadable artifacts are left untouched.
func (b *Bootstrap) Run(ctx context.Context) (BootstrapResult, error) {
	var (
		res  BootstrapResult
		errs []error
	)
	for _, s := range b.symbols {
		e, created, err := b.store.CreatePlaceholder(ctx, s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s, err))
			if b.log != nil {
				b.log.Error("placeholder creation failed", applogger.String("symbol", s), applogger.Error(err))
			}
			continue
		}
		if created {
			res.Created = append(res.Created, s)
		} else {
			res.Existing = append(res.Existing, s)
		}
		if b.log != nil {
			b.log.Info("model artifact ready",
				applogger.String("symbol", s),
				applogger.Bool("created", created),
				applogger.Bool("fitted", e.IsFitted()),
			)
		}
	}
	return res, errors.Join(errs...)
}
