// Package single implements a storage that keeps all of its items in one
// file at <recording>/offline_data/<file name>.
package single

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path"
	"path/filepath"
	"reflect"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/recstore/internal/core"
	"github.com/newthinker/recstore/internal/item"
	"github.com/newthinker/recstore/internal/metrics"
	"github.com/newthinker/recstore/internal/storage"
	"github.com/newthinker/recstore/internal/storage/archive"
	"github.com/newthinker/recstore/internal/storage/codec"
)

// FolderName is the folder inside a recording that holds storage files.
const FolderName = "offline_data"

// Config configures a Storage.
type Config struct {
	// RecDir is the recording directory. Required.
	RecDir string
	// FileName is the storage file name inside FolderName. Required.
	FileName string
	// Backend holds the recording's files. Defaults to a LocalFS at RecDir.
	Backend archive.Storage
	// Codec defaults to msgpack.
	Codec   codec.Codec
	Logger  *zap.Logger
	Metrics *metrics.Registry
}

// Option customizes a Storage.
type Option[T item.Item] func(*Storage[T])

// WithKey makes items with the same key interchangeable: Add replaces an item
// with an equal key in place, Delete removes by key.
func WithKey[T item.Item](key func(T) string) Option[T] {
	return func(s *Storage[T]) {
		s.key = key
	}
}

// ByUniqueID keys a storage by the items' own ids.
func ByUniqueID[T interface {
	item.Item
	item.Keyed
}]() Option[T] {
	return WithKey(func(it T) string {
		return it.UniqueID()
	})
}

// Storage saves and loads all of its items to and from a single file.
type Storage[T item.Item] struct {
	class    item.Class[T]
	recDir   string
	fileName string
	backend  archive.Storage
	envelope *storage.Envelope
	key      func(T) string
	logger   *zap.Logger
	metrics  *metrics.Registry

	mu    sync.RWMutex
	items []T
}

var _ storage.Storage[item.Item] = (*Storage[item.Item])(nil)

// New creates a Storage for items of class and, if plugin is not nil,
// subscribes it to the plugin's cleanup event. Nothing is loaded; call
// LoadFromDisk when the owner is ready.
func New[T item.Item](cfg Config, class item.Class[T], plugin storage.Observable, opts ...Option[T]) (*Storage[T], error) {
	if cfg.RecDir == "" {
		return nil, core.WrapError(core.ErrConfigMissing, errors.New("recording directory required"))
	}
	if cfg.FileName == "" {
		return nil, core.WrapError(core.ErrConfigMissing, errors.New("storage file name required"))
	}
	if class == nil {
		return nil, core.WrapError(core.ErrConfigMissing, errors.New("item class required"))
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("storage", cfg.FileName))

	backend := cfg.Backend
	if backend == nil {
		backend = archive.NewLocalFS(cfg.RecDir)
	}

	s := &Storage[T]{
		class:    class,
		recDir:   cfg.RecDir,
		fileName: cfg.FileName,
		backend:  backend,
		envelope: storage.NewEnvelope(backend, cfg.Codec, class.Version(), cfg.RecDir, logger),
		logger:   logger,
		metrics:  cfg.Metrics,
	}
	for _, opt := range opts {
		opt(s)
	}

	if plugin != nil {
		storage.Attach(plugin, s)
	}
	return s, nil
}

// FolderPath is the folder holding the storage file.
func (s *Storage[T]) FolderPath() string {
	return filepath.Join(s.recDir, FolderName)
}

// FilePath is the storage file location.
func (s *Storage[T]) FilePath() string {
	return filepath.Join(s.FolderPath(), s.fileName)
}

// RecDir is the recording directory the storage is bound to.
func (s *Storage[T]) RecDir() string {
	return s.recDir
}

// Backend returns the object backend the storage writes through.
func (s *Storage[T]) Backend() archive.Storage {
	return s.backend
}

// Envelope returns the versioned reader/writer used for the storage file.
func (s *Storage[T]) Envelope() *storage.Envelope {
	return s.envelope
}

func (s *Storage[T]) objectPath() string {
	return path.Join(FolderName, s.fileName)
}

// Add inserts it at the end, or replaces the item with the same key when the
// storage is keyed.
func (s *Storage[T]) Add(it T) {
	s.mu.Lock()
	s.addLocked(it)
	n := len(s.items)
	s.mu.Unlock()

	s.metrics.SetItems(s.fileName, n)
}

func (s *Storage[T]) addLocked(it T) {
	if s.key != nil {
		k := s.key(it)
		for i := range s.items {
			if s.key(s.items[i]) == k {
				s.items[i] = it
				return
			}
		}
	}
	s.items = append(s.items, it)
}

// Delete removes the first item matching it, by key when the storage is
// keyed and by deep equality otherwise.
func (s *Storage[T]) Delete(it T) {
	s.mu.Lock()
	idx := slices.IndexFunc(s.items, func(other T) bool {
		if s.key != nil {
			return s.key(other) == s.key(it)
		}
		return reflect.DeepEqual(other, it)
	})
	if idx >= 0 {
		s.items = slices.Delete(s.items, idx, idx+1)
	}
	n := len(s.items)
	s.mu.Unlock()

	s.metrics.SetItems(s.fileName, n)
}

// Items returns a snapshot of the collection.
func (s *Storage[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// All iterates a snapshot of the collection.
func (s *Storage[T]) All() iter.Seq[T] {
	return slices.Values(s.Items())
}

// Len returns the number of items.
func (s *Storage[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// SaveToDisk writes all items, in order, to the storage file, creating the
// storage folder if needed.
func (s *Storage[T]) SaveToDisk(ctx context.Context) error {
	start := time.Now()

	items := s.Items()
	data := make([]core.Tuple, len(items))
	for i, it := range items {
		data[i] = it.AsTuple()
	}

	err := s.envelope.Save(ctx, s.objectPath(), data)
	s.metrics.RecordSave(s.fileName, err, time.Since(start).Seconds())
	if err != nil {
		return err
	}

	s.logger.Debug("saved items",
		zap.String("path", s.FilePath()),
		zap.Int("count", len(data)),
	)
	return nil
}

// LoadFromDisk adds the items stored in the storage file. A missing file or a
// file of another version adds nothing and is not an error. A tuple that
// cannot be reconstructed fails the whole load and adds nothing.
func (s *Storage[T]) LoadFromDisk(ctx context.Context) error {
	payload, err := s.envelope.Load(ctx, s.objectPath())
	if err != nil {
		s.metrics.RecordLoad(s.fileName, "error")
		return err
	}
	if payload.Outcome != storage.Valid {
		s.metrics.RecordLoad(s.fileName, payload.Outcome.String())
		return nil
	}

	loaded := make([]T, 0, len(payload.Data))
	for i, tup := range payload.Data {
		it, err := s.class.FromTuple(tup)
		if err != nil {
			s.metrics.RecordLoad(s.fileName, "error")
			return core.WrapError(core.ErrMalformedData, fmt.Errorf("%s: item %d: %w", s.FilePath(), i, err))
		}
		loaded = append(loaded, it)
	}

	s.mu.Lock()
	for _, it := range loaded {
		s.addLocked(it)
	}
	n := len(s.items)
	s.mu.Unlock()

	s.metrics.RecordLoad(s.fileName, payload.Outcome.String())
	s.metrics.SetItems(s.fileName, n)
	s.logger.Debug("loaded items",
		zap.String("path", s.FilePath()),
		zap.Int("count", len(loaded)),
	)
	return nil
}

// Purge deletes the storage file. A missing file is not an error.
func (s *Storage[T]) Purge(ctx context.Context) error {
	_, err := s.envelope.Remove(ctx, s.objectPath())
	return err
}
