package dataset

import (
	"context"
	"sync"

	"sales-dashboard/errors"

	"go.uber.org/zap"
)

// Persister keeps the current dataset across process restarts.
type Persister interface {
	// Save replaces the persisted dataset.
	Save(ctx context.Context, f *Frame) error
	// Load returns the persisted dataset, or errors.ErrNotFound.
	Load(ctx context.Context) (*Frame, error)
}

// Store holds the single current dataset. Memory acts as a cache in front of
// the persister: after a restart the first Current call repopulates it.
type Store struct {
	mu        sync.RWMutex
	current   *Frame
	persister Persister
	logger    *zap.Logger
}

func NewStore(persister Persister, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{persister: persister, logger: logger}
}

// SetCurrent persists f and makes it the current dataset. The in-memory slot
// is only replaced once the write succeeded. Callers are responsible for
// clearing the conversation history; see agent.Chat.ReplaceDataset.
func (s *Store) SetCurrent(ctx context.Context, f *Frame) error {
	if f == nil {
		return errors.WrapError(errors.ErrInvalidInput, "dataset is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persister != nil {
		if err := s.persister.Save(ctx, f); err != nil {
			return errors.WrapError(errors.ErrPersistence, err.Error())
		}
	}
	s.current = f
	s.logger.Info("Current dataset replaced",
		zap.Int("rows", f.Len()),
		zap.Strings("columns", f.Columns()),
		zap.String("fingerprint", f.Fingerprint()))
	return nil
}

// Current returns the active dataset, reloading it from the persister when
// memory is empty. It fails with errors.ErrNotFound when nothing was ever
// uploaded.
func (s *Store) Current(ctx context.Context) (*Frame, error) {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()
	if current != nil {
		return current, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return s.current, nil
	}
	if s.persister == nil {
		return nil, errors.ErrNotFound
	}

	f, err := s.persister.Load(ctx)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, err
		}
		s.logger.Error("Failed to load persisted dataset", zap.Error(err))
		return nil, errors.WrapError(errors.ErrPersistence, err.Error())
	}
	s.logger.Info("Loaded dataset from persisted storage", zap.Int("rows", f.Len()))
	s.current = f
	return f, nil
}

// Reset drops the in-memory dataset without touching persisted storage, as a
// process restart would.
func (s *Store) Reset() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}
