package usecase

import (
	"context"
	"fmt"
	"strings"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	"PriceCast/pkg/config"
)

// BarsUseCase lists stored bars for supported symbols.
type BarsUseCase struct {
	cfg   config.ForecastConfig
	store domrepo.BarStore
}

func NewBarsUseCase(cfg config.ForecastConfig, store domrepo.BarStore) *BarsUseCase {
	return &BarsUseCase{cfg: cfg, store: store}
}

type ListBarsResult struct {
	Symbol string       `json:"symbol"`
	Count  int          `json:"count"`
	Bars   []models.Bar `json:"bars"`
}

// ListBars returns up to limit bars, newest first.
func (uc *BarsUseCase) ListBars(ctx context.Context, symbol string, limit int) (*ListBarsResult, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if !uc.cfg.IsSupported(s) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSymbol, symbol)
	}
	if limit <= 0 {
		limit = 24
	}
	bars, err := uc.store.GetLatestNBars(ctx, s, limit)
	if err != nil {
		return nil, fmt.Errorf("get bars: %w", err)
	}
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return &ListBarsResult{Symbol: s, Count: len(bars), Bars: bars}, nil
}
