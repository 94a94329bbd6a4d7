package modelstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"PriceCast/internal/services/forecast"
	"PriceCast/pkg/logger"
)

// Store persists forecast engines keyed by symbol.
// Save is single-writer per symbol; concurrent Loads are safe.
type Store struct {
	backend Backend
	log     *logger.Logger
	now     func() time.Time

	mu     sync.RWMutex
	onSave []func(symbol string)
}

type Option func(*Store)

func WithLogger(l *logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the saved_at timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		log:     logger.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnSave registers fn to run after every successful write for a symbol.
func (s *Store) OnSave(fn func(symbol string)) {
	s.mu.Lock()
	s.onSave = append(s.onSave, fn)
	s.mu.Unlock()
}

func (s *Store) notifySaved(symbol string) {
	s.mu.RLock()
	hooks := s.onSave
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn(symbol)
	}
}

// Save serializes the engine and overwrites any prior artifact for symbol.
func (s *Store) Save(ctx context.Context, symbol string, e *forecast.Engine) error {
	if e == nil {
		return fmt.Errorf("%w: nil engine", ErrStorageWrite)
	}
	name, err := ArtifactName(symbol)
	if err != nil {
		return err
	}
	data, err := encodeEngine(symbol, e, s.now())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	if err := s.backend.Write(ctx, name, data); err != nil {
		s.log.Error("failed to write model artifact",
			logger.String("symbol", symbol),
			logger.String("location", s.backend.Location(name)),
			logger.Error(err),
		)
		return fmt.Errorf("%w: %s: %v", ErrStorageWrite, s.backend.Location(name), err)
	}
	s.log.Info("model artifact saved",
		logger.String("symbol", symbol),
		logger.String("location", s.backend.Location(name)),
		logger.Bool("fitted", e.IsFitted()),
	)
	s.notifySaved(symbol)
	return nil
}

// Load restores the engine stored for symbol.
func (s *Store) Load(ctx context.Context, symbol string) (*forecast.Engine, error) {
	name, err := ArtifactName(symbol)
	if err != nil {
		return nil, err
	}
	data, err := s.backend.Read(ctx, name)
	if err != nil {
		if errors.Is(err, errNoArtifact) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, s.backend.Location(name))
		}
		return nil, fmt.Errorf("read %s: %w", s.backend.Location(name), err)
	}
	e, _, err := decodeEngine(data)
	if err != nil {
		s.log.Warn("model artifact rejected",
			logger.String("symbol", symbol),
			logger.String("location", s.backend.Location(name)),
			logger.Error(err),
		)
		return nil, err
	}
	return e, nil
}

func (s *Store) Exists(ctx context.Context, symbol string) (bool, error) {
	name, err := ArtifactName(symbol)
	if err != nil {
		return false, err
	}
	return s.backend.Exists(ctx, name)
}

// CreatePlaceholder persists a fallback engine for symbol unless a loadable
// artifact already exists, in which case that engine is returned untouched.
// A corrupt artifact is replaced. created reports whether anything was written.
func (s *Store) CreatePlaceholder(ctx context.Context, symbol string) (e *forecast.Engine, created bool, err error) {
	name, err := ArtifactName(symbol)
	if err != nil {
		return nil, false, err
	}
	placeholder := forecast.NewEngine()
	data, err := encodeEngine(symbol, placeholder, s.now())
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}

	wrote, err := s.backend.WriteIfAbsent(ctx, name, data)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %v", ErrStorageWrite, s.backend.Location(name), err)
	}
	if wrote {
		s.log.Info("placeholder model created",
			logger.String("symbol", symbol),
			logger.String("location", s.backend.Location(name)),
		)
		s.notifySaved(symbol)
		return placeholder, true, nil
	}

	existing, err := s.Load(ctx, symbol)
	switch {
	case err == nil:
		return existing, false, nil
	case errors.Is(err, ErrCorruptArtifact):
		if err := s.Save(ctx, symbol, placeholder); err != nil {
			return nil, false, err
		}
		return placeholder, true, nil
	default:
		return nil, false, err
	}
}
