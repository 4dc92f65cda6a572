package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trapcam/internal/config"
	"trapcam/internal/handler"
	"trapcam/internal/repository"
	"trapcam/internal/service"
	"trapcam/web"
)

type Server struct {
	httpServer *http.Server
	cache      repository.ResultCache
	cfg        *config.Config
	log        *zap.Logger
}

// NewRouter wires the routes onto a fresh gin engine.
func NewRouter(h *handler.Handler, cfg *config.Config, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handler.RequestLogger(log))
	router.Use(handler.CORS())
	router.MaxMultipartMemory = 32 << 20

	router.SetHTMLTemplate(web.Templates())

	router.GET("/", h.GetUI)
	router.GET("/health", h.HealthCheck)
	router.POST("/upload/", h.UploadImages)
	router.GET("/complete/", h.Complete)
	router.POST("/process/", h.ProcessImages)
	router.GET("/results/", h.ResultsPage)
	router.POST("/delete_all/", h.DeleteAll)
	router.GET("/report/", h.Report)
	router.GET("/submission.csv", h.ExportCSV)

	api := router.Group("/api")
	{
		api.POST("/upload", h.APIUpload)
		api.POST("/process", h.APIProcess)
		api.GET("/results", h.APIResults)
		api.GET("/summary", h.APISummary)
		api.GET("/images", h.ListImages)
		api.DELETE("/images", h.DeleteAll)
	}

	router.Static("/static", cfg.App.StaticDir)
	router.Static("/uploaded_images", cfg.App.UploadDir)

	return router
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Server, error) {
	if cfg.Server.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	var opts []service.Option

	if cfg.S3.Enabled {
		mirror, err := repository.NewS3Repository(ctx, &cfg.S3, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 repository: %w", err)
		}
		opts = append(opts, service.WithMirror(mirror))
	}

	cache := repository.NoopCache()
	if cfg.Redis.Enabled {
		cache = repository.NewRedisCache(&cfg.Redis, log)
		opts = append(opts, service.WithCache(cache))
	}

	imageService, err := service.NewImageService(cfg, log, opts...)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("failed to create image service: %w", err)
	}

	reporter, err := handler.NewSentryReporter(cfg.Sentry.DSN)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("failed to configure sentry: %w", err)
	}

	h := handler.NewHandler(imageService, cfg, log, reporter)
	router := NewRouter(h, cfg, log)

	server := &Server{
		httpServer: &http.Server{
			Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			// uploads and processing runs can be slow
			ReadTimeout:    5 * time.Minute,
			WriteTimeout:   5 * time.Minute,
			MaxHeaderBytes: 1 << 20, // 1 MB
		},
		cache: cache,
		cfg:   cfg,
		log:   log,
	}

	log.Info("Server created successfully",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("upload_dir", cfg.App.UploadDir),
		zap.Bool("s3_mirror", cfg.S3.Enabled),
		zap.Bool("redis_cache", cfg.Redis.Enabled))

	return server, nil
}

func (s *Server) Run() error {
	s.log.Info("Server is running",
		zap.String("address", s.httpServer.Addr))

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	err := s.httpServer.Shutdown(ctx)
	if cerr := s.cache.Close(); cerr != nil {
		s.log.Warn("Failed to close results cache", zap.Error(cerr))
	}
	return err
}
