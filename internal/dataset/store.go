package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"vaxboard/pkg/contracts/domain"
)

// ErrFileNotFound indicates the configured dataset file does not exist.
// Callers distinguish it from parse failures with errors.Is.
var ErrFileNotFound = errors.New("dataset file not found")

// Store loads the vaccination dataset on demand and memoizes the parsed
// result. Concurrent callers share a single load via singleflight, and
// only successful loads are cached so a missing file can be fixed
// without restarting the server.
type Store struct {
	filePath string
	logger   *slog.Logger

	mu      sync.RWMutex
	dataset *domain.Dataset

	group singleflight.Group
}

// NewStore creates a dataset store for the given file path.
func NewStore(filePath string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		filePath: filePath,
		logger:   logger,
	}
}

// Get returns the cached dataset, loading it on first use.
func (s *Store) Get(ctx context.Context) (*domain.Dataset, error) {
	s.mu.RLock()
	cached := s.dataset
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	result, err, shared := s.group.Do("load", func() (interface{}, error) {
		return s.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.DebugContext(ctx, "dataset load shared between concurrent requests")
	}

	return result.(*domain.Dataset), nil
}

// Reload discards the cached dataset and loads it again from disk.
func (s *Store) Reload(ctx context.Context) (*domain.Dataset, error) {
	s.mu.Lock()
	s.dataset = nil
	s.mu.Unlock()

	return s.Get(ctx)
}

// Loaded reports whether a dataset is currently cached.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset != nil
}

// Path returns the configured dataset file path.
func (s *Store) Path() string {
	return s.filePath
}

func (s *Store) load(ctx context.Context) (*domain.Dataset, error) {
	start := time.Now()

	if _, err := os.Stat(s.filePath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, s.filePath)
		}
		return nil, fmt.Errorf("failed to stat dataset file: %w", err)
	}

	ds, err := ParseFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", s.filePath, err)
	}

	s.mu.Lock()
	s.dataset = ds
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "dataset loaded",
		slog.String("path", s.filePath),
		slog.Int("records", len(ds.Records)),
		slog.Int("countries", len(ds.Countries)),
		slog.String("min_date", ds.MinDate.Format("2006-01-02")),
		slog.String("max_date", ds.MaxDate.Format("2006-01-02")),
		slog.Duration("duration", time.Since(start)),
	)

	return ds, nil
}
