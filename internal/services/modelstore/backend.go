package modelstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"PriceCast/pkg/cache"
)

// errNoArtifact is returned by backends when nothing is stored under a name.
var errNoArtifact = errors.New("no artifact")

// Backend stores opaque artifact blobs by name.
type Backend interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	// WriteIfAbsent writes only when name is free and reports whether it wrote.
	WriteIfAbsent(ctx context.Context, name string, data []byte) (bool, error)
	Exists(ctx context.Context, name string) (bool, error)
	Location(name string) string
}

// FileBackend keeps one JSON file per artifact under Dir.
type FileBackend struct {
	Dir string
}

func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{Dir: dir}
}

func (b *FileBackend) Location(name string) string {
	return filepath.Join(b.Dir, name+".json")
}

func (b *FileBackend) Read(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(b.Location(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, errNoArtifact
	}
	return data, err
}

func (b *FileBackend) Exists(_ context.Context, name string) (bool, error) {
	_, err := os.Stat(b.Location(name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Write replaces the artifact atomically via a temp file and rename.
func (b *FileBackend) Write(_ context.Context, name string, data []byte) error {
	tmp, err := b.writeTemp(name, data)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, b.Location(name)); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// WriteIfAbsent hard-links a complete temp file into place, which fails if the target exists.
func (b *FileBackend) WriteIfAbsent(_ context.Context, name string, data []byte) (bool, error) {
	tmp, err := b.writeTemp(name, data)
	if err != nil {
		return false, err
	}
	defer os.Remove(tmp)

	if err := os.Link(tmp, b.Location(name)); err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *FileBackend) writeTemp(name string, data []byte) (string, error) {
	if err := os.MkdirAll(b.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	f, err := os.CreateTemp(b.Dir, "."+name+".*.tmp")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return tmp, nil
}

// RedisBackend keeps artifacts as plain redis strings under model:{name}.
type RedisBackend struct {
	cache cache.Service
}

func NewRedisBackend(c cache.Service) *RedisBackend {
	return &RedisBackend{cache: c}
}

func (b *RedisBackend) key(name string) string {
	return cache.GenerateKey("model", name)
}

func (b *RedisBackend) Location(name string) string {
	return "redis:" + b.key(name)
}

func (b *RedisBackend) Read(ctx context.Context, name string) ([]byte, error) {
	data, err := b.cache.GetBytes(ctx, b.key(name))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, errNoArtifact
	}
	return data, err
}

func (b *RedisBackend) Write(ctx context.Context, name string, data []byte) error {
	return b.cache.Set(ctx, b.key(name), data, 0)
}

func (b *RedisBackend) WriteIfAbsent(ctx context.Context, name string, data []byte) (bool, error) {
	return b.cache.SetNX(ctx, b.key(name), data, 0)
}

func (b *RedisBackend) Exists(ctx context.Context, name string) (bool, error) {
	return b.cache.Exists(ctx, b.key(name))
}
