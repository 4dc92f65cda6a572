package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"trapcam/internal/domain"
	"trapcam/internal/report"
	"trapcam/internal/repository"
)

// Results returns the latest result set; no results file means an empty set.
func (s *imageService) Results(ctx context.Context) ([]domain.ResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.readResults()
}

func (s *imageService) readResults() ([]domain.ResultRecord, error) {
	if s.cacheStale {
		return s.store.ReadResults()
	}

	data, ok, err := s.cache.Get()
	if err != nil {
		s.log.Warn("Results cache unavailable", zap.Error(err))
	} else if ok {
		records, err := repository.DecodeResults(data)
		if err == nil {
			return records, nil
		}
		s.log.Warn("Discarding undecodable cached results", zap.Error(err))
	}

	return s.store.ReadResults()
}

func (s *imageService) Summary(ctx context.Context) (domain.Summary, error) {
	records, err := s.Results(ctx)
	if err != nil {
		return domain.Summary{}, err
	}
	return report.Summarize(records), nil
}

// Report renders the charts into the static directory and checks they exist.
func (s *imageService) Report(ctx context.Context) (domain.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readResults()
	if err != nil {
		return domain.Summary{}, err
	}
	summary := report.Summarize(records)

	dir := s.cfg.App.StaticDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return summary, fmt.Errorf("%w: create static dir: %v", domain.ErrIO, err)
	}
	// stale charts must not satisfy the artifact check
	for _, name := range report.Artifacts {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("Failed to remove old chart", zap.String("file", name), zap.Error(err))
		}
	}

	if err := s.charts.Render(dir, summary); err != nil {
		s.log.Error("Failed to render charts", zap.Error(err))
	}
	if err := report.VerifyArtifacts(dir); err != nil {
		return summary, err
	}

	s.log.Info("Report generated",
		zap.Int("total", summary.Total),
		zap.Int("empty", summary.Empty),
		zap.Int("non_empty", summary.NonEmpty))

	return summary, nil
}

// ExportCSV rewrites submission.csv from the current results.
func (s *imageService) ExportCSV(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readResults()
	if err != nil {
		return "", err
	}
	return s.store.WriteCSV(records)
}
