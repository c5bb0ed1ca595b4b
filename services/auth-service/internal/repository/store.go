package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

var (
	ErrStoreUnavailable = errors.New("record store unavailable")
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrNotFound         = errors.New("record not found")

	// errUnchanged lets a Mutate callback skip the write when it altered nothing.
	errUnchanged = errors.New("unchanged")
)

// Kind names one record collection.
type Kind string

const (
	KindUsers    Kind = "users"
	KindSessions Kind = "sessions"
)

// Backend persists whole snapshots, one per kind.
type Backend interface {
	// Read returns the stored snapshot or ErrSnapshotNotFound.
	Read(ctx context.Context, kind Kind) ([]byte, error)
	// Write replaces the snapshot. Readers observe either the old or the new snapshot, never a mix.
	Write(ctx context.Context, kind Kind, data []byte) error
}

// Collection is the typed view of one kind. Every read-modify-write sequence runs
// under the collection mutex.
type Collection[T any] struct {
	mu      sync.Mutex
	backend Backend
	kind    Kind
	logger  *zerolog.Logger
}

func NewCollection[T any](backend Backend, kind Kind, logger *zerolog.Logger) *Collection[T] {
	return &Collection[T]{backend: backend, kind: kind, logger: logger}
}

// ReadAll returns every record. A missing snapshot is initialized empty and a corrupt
// one is logged and read as empty.
func (c *Collection[T]) ReadAll(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.readAll(ctx)
}

// WriteAll replaces the whole collection.
func (c *Collection[T]) WriteAll(ctx context.Context, records []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.writeAll(ctx, records)
}

// Find returns the first record accepted by match.
func (c *Collection[T]) Find(ctx context.Context, match func(T) bool) (T, bool, error) {
	var zero T

	records, err := c.ReadAll(ctx)
	if err != nil {
		return zero, false, err
	}

	for _, r := range records {
		if match(r) {
			return r, true, nil
		}
	}

	return zero, false, nil
}

// Mutate reads the collection, applies fn and writes the result back atomically with
// respect to other Mutate calls on the same collection.
func (c *Collection[T]) Mutate(ctx context.Context, fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.readAll(ctx)
	if err != nil {
		return err
	}

	updated, err := fn(records)
	if errors.Is(err, errUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}

	return c.writeAll(ctx, updated)
}

func (c *Collection[T]) readAll(ctx context.Context) ([]T, error) {
	data, err := c.backend.Read(ctx, c.kind)
	if errors.Is(err, ErrSnapshotNotFound) {
		records := []T{}
		if err := c.writeAll(ctx, records); err != nil {
			return nil, err
		}
		return records, nil
	}
	if err != nil {
		c.logger.Error().Err(err).Str("kind", string(c.kind)).Msg("failed to read snapshot")
		return nil, fmt.Errorf("%w: read %s: %w", ErrStoreUnavailable, c.kind, err)
	}

	records, err := decodeSnapshot[T](c.kind, data)
	if err != nil {
		c.logger.Error().Err(err).Str("kind", string(c.kind)).Msg("corrupt snapshot, using empty collection")
		return []T{}, nil
	}

	return records, nil
}

func (c *Collection[T]) writeAll(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}

	data, err := json.MarshalIndent(map[string][]T{string(c.kind): records}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrStoreUnavailable, c.kind, err)
	}

	if err := c.backend.Write(ctx, c.kind, data); err != nil {
		c.logger.Error().Err(err).Str("kind", string(c.kind)).Msg("failed to write snapshot")
		return fmt.Errorf("%w: write %s: %w", ErrStoreUnavailable, c.kind, err)
	}

	return nil
}

func decodeSnapshot[T any](kind Kind, data []byte) ([]T, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}

	records := []T{}
	raw, ok := envelope[string(kind)]
	if !ok {
		return records, nil
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []T{}
	}

	return records, nil
}

// FileBackend keeps each snapshot in <dir>/<kind>.json.
type FileBackend struct {
	dir string
}

// NewFileBackend creates the data directory if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return &FileBackend{dir: dir}, nil
}

// Dir returns the data directory.
func (b *FileBackend) Dir() string {
	return b.dir
}

func (b *FileBackend) path(kind Kind) string {
	return filepath.Join(b.dir, string(kind)+".json")
}

func (b *FileBackend) Read(ctx context.Context, kind Kind) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(b.path(kind))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSnapshotNotFound
	}

	return data, err
}

// Write stages data in a temp file next to the target and renames it into place.
func (b *FileBackend) Write(ctx context.Context, kind Kind, data []byte) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.dir, "."+string(kind)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, b.path(kind))
}
