package modelstore

import (
	"fmt"
	"strings"
)

const artifactSuffix = "_hourly_predictor"

// quoteAssets are stripped from trading pairs, longest first.
var quoteAssets = []string{"USDT", "BUSD", "USDC", "USD"}

// BaseAsset returns the lowercase base asset of a symbol: BTCUSDT -> btc, eth -> eth.
func BaseAsset(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	for _, q := range quoteAssets {
		if len(s) > len(q) && strings.HasSuffix(s, q) {
			s = strings.TrimSuffix(s, q)
			break
		}
	}
	if s == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
		}
	}
	return strings.ToLower(s), nil
}

// ArtifactName is the storage name for a symbol's engine, e.g. btc_hourly_predictor.
func ArtifactName(symbol string) (string, error) {
	base, err := BaseAsset(symbol)
	if err != nil {
		return "", err
	}
	return base + artifactSuffix, nil
}

// CheckArtifactNames fails when a symbol is invalid or two symbols map to
// the same artifact, e.g. BTCUSDT and BTCBUSD.
func CheckArtifactNames(symbols []string) error {
	seen := make(map[string]string, len(symbols))
	for _, sym := range symbols {
		name, err := ArtifactName(sym)
		if err != nil {
			return err
		}
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("%w: %s and %s both use %s", ErrNameCollision, prev, sym, name)
		}
		seen[name] = sym
	}
	return nil
}
