package service

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"trapcam/internal/classifier"
	"trapcam/internal/domain"
	"trapcam/internal/repository"
)

// Process labels every stored image and replaces results.json with the new set.
func (s *imageService) Process(ctx context.Context, params domain.ProcessingParams) ([]domain.ResultRecord, error) {
	if fixed, ok := s.canvas.(classifier.FixedCanvas); ok {
		canvas := domain.Canvas(fixed)
		if !canvas.Fits(params.BBoxWidth, params.BBoxHeight) {
			return nil, fmt.Errorf("%w: bbox %dx%d must fit within %dx%d",
				domain.ErrConfig, params.BBoxWidth, params.BBoxHeight, canvas.Width, canvas.Height)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	images, err := s.store.List()
	if err != nil {
		return nil, err
	}

	s.log.Info("Starting processing",
		zap.Int("images", len(images)),
		zap.Int("bbox_width", params.BBoxWidth),
		zap.Int("bbox_height", params.BBoxHeight),
		zap.Int("body_percentage", params.BodyPercentage),
		zap.Int("limb_points", params.LimbPoints))

	records := make([]domain.ResultRecord, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Processing.Workers)
	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			record, err := s.classify(gctx, img, params)
			if err != nil {
				return err
			}
			records[i] = record
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.invalidateCache()

	data, err := s.store.WriteResults(records)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.WriteCSV(records); err != nil {
		return nil, err
	}

	if err := s.cache.Set(data); err != nil {
		s.cacheStale = true
		s.log.Warn("Failed to cache results, serving results from disk", zap.Error(err))
	} else {
		s.cacheStale = false
	}
	if err := s.mirror.Upload(ctx, repository.ResultsFile, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		s.log.Warn("Failed to mirror results", zap.Error(err))
	}

	s.log.Info("Processing finished", zap.Int("records", len(records)))

	return records, nil
}

func (s *imageService) classify(ctx context.Context, img domain.StoredImage, params domain.ProcessingParams) (domain.ResultRecord, error) {
	canvas, err := s.canvas.CanvasFor(s.store.Path(img.Path))
	if err != nil {
		return domain.ResultRecord{}, fmt.Errorf("%s: %w", img.Path, err)
	}

	label, err := s.classifier.Classify(ctx, img, canvas, params)
	if err != nil {
		return domain.ResultRecord{}, err
	}

	record := domain.ResultRecord{
		Filename: img.Path,
		IsEmpty:  label.IsEmpty,
		BBox:     label.BBox,
	}
	if err := record.Validate(); err != nil {
		return domain.ResultRecord{}, fmt.Errorf("classifier returned an inconsistent label: %w", err)
	}

	return record, nil
}
