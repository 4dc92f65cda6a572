package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"trapcam/internal/classifier"
	"trapcam/internal/config"
	"trapcam/internal/domain"
	"trapcam/internal/report"
	"trapcam/internal/repository"
	"trapcam/pkg/utils"
)

type ImageService interface {
	Upload(ctx context.Context, batch domain.UploadBatch) (*domain.UploadSummary, error)
	Process(ctx context.Context, params domain.ProcessingParams) ([]domain.ResultRecord, error)
	Results(ctx context.Context) ([]domain.ResultRecord, error)
	Summary(ctx context.Context) (domain.Summary, error)
	Report(ctx context.Context) (domain.Summary, error)
	ExportCSV(ctx context.Context) (string, error)
	DeleteAll(ctx context.Context) (int, error)
	ListImages(ctx context.Context) ([]domain.StoredImage, error)
}

// imageService serialises every mutation of the storage area behind mu.
type imageService struct {
	mu sync.RWMutex
	// cacheStale is set when the cache may still hold an older result set.
	cacheStale bool

	store      *repository.LocalStore
	mirror     repository.Mirror
	cache      repository.ResultCache
	classifier classifier.ImageClassifier
	canvas     classifier.CanvasProvider
	charts     report.ChartRenderer
	cfg        *config.Config
	log        *zap.Logger
}

type Option func(*imageService)

func WithMirror(m repository.Mirror) Option {
	return func(s *imageService) { s.mirror = m }
}

func WithCache(c repository.ResultCache) Option {
	return func(s *imageService) { s.cache = c }
}

func WithClassifier(c classifier.ImageClassifier) Option {
	return func(s *imageService) { s.classifier = c }
}

func WithCanvas(c classifier.CanvasProvider) Option {
	return func(s *imageService) { s.canvas = c }
}

func WithChartRenderer(r report.ChartRenderer) Option {
	return func(s *imageService) { s.charts = r }
}

func NewImageService(cfg *config.Config, log *zap.Logger, opts ...Option) (ImageService, error) {
	s := &imageService{
		store:  repository.NewLocalStore(&cfg.App, log),
		mirror: repository.NoopMirror(),
		cache:  repository.NoopCache(),
		charts: report.NewGGRenderer(),
		cfg:    cfg,
		log:    log,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.classifier == nil {
		c, err := classifier.NewClassifier(cfg.Processing.Classifier, cfg.Processing.Seed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrConfig, err)
		}
		s.classifier = c
	}

	if s.canvas == nil {
		if cfg.Processing.Canvas == config.CanvasImage {
			s.canvas = classifier.NewImageCanvas(utils.NewImageProbe(log))
		} else {
			s.canvas = classifier.FixedCanvas{
				Width:  cfg.Processing.CanvasWidth,
				Height: cfg.Processing.CanvasHeight,
			}
		}
	}

	if err := s.store.Ensure(); err != nil {
		return nil, err
	}

	return s, nil
}

// invalidateCache empties the results cache. Callers hold mu for writing.
func (s *imageService) invalidateCache() {
	if err := s.cache.Invalidate(); err != nil {
		s.cacheStale = true
		s.log.Warn("Failed to invalidate results cache, serving results from disk", zap.Error(err))
		return
	}
	s.cacheStale = false
}

func (s *imageService) ListImages(ctx context.Context) ([]domain.StoredImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	images, err := s.store.List()
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []domain.StoredImage{}
	}
	return images, nil
}
