package usecase

import "errors"

// ErrUnsupportedSymbol is returned for symbols outside the configured allow-list.
var ErrUnsupportedSymbol = errors.New("unsupported symbol")
