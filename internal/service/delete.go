package service

import (
	"context"

	"go.uber.org/zap"
)

// DeleteAll empties the storage area. It is best-effort: entries that cannot be
// removed are logged and skipped, and calling it on an empty area is a no-op.
func (s *imageService) DeleteAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.store.Clear()
	if err != nil {
		return removed, err
	}

	s.invalidateCache()
	if _, err := s.mirror.Clear(ctx); err != nil {
		s.log.Warn("Failed to clear mirror", zap.Error(err))
	}

	s.log.Info("Storage area cleared", zap.Int("removed", removed))
	return removed, nil
}
