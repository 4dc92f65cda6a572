package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	CollisionRename    = "rename"
	CollisionOverwrite = "overwrite"
	CollisionReject    = "reject"

	CanvasFixed = "fixed"
	CanvasImage = "image"
)

type Config struct {
	Server     ServerConfig
	App        AppConfig
	Processing ProcessingConfig
	S3         S3Config
	Redis      RedisConfig
	Sentry     SentryConfig
}

type ServerConfig struct {
	Host        string
	Port        string
	ReleaseMode bool
	LogLevel    string
}

type AppConfig struct {
	UploadDir       string
	TempDir         string
	StaticDir       string
	MaxUploadSize   int64
	MaxFiles        int
	AllowedFormats  []string
	CollisionPolicy string
}

type ProcessingConfig struct {
	Classifier   string
	Canvas       string
	CanvasWidth  int
	CanvasHeight int
	Workers      int
	Seed         int64
}

type S3Config struct {
	Enabled         bool
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
	Region          string
	Prefix          string
}

type RedisConfig struct {
	Enabled bool
	Address string
	MaxIdle int
	TTL     time.Duration
}

type SentryConfig struct {
	DSN string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8000")
	v.SetDefault("SERVER_RELEASE_MODE", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_UPLOAD_DIR", "./uploaded_images")
	v.SetDefault("APP_TEMP_DIR", "./tmp")
	v.SetDefault("APP_STATIC_DIR", "./static")
	v.SetDefault("APP_MAX_UPLOAD_SIZE", 10*1024*1024) // 10MB
	v.SetDefault("APP_MAX_FILES", 100)
	v.SetDefault("APP_ALLOWED_FORMATS", []string{".png", ".jpg", ".jpeg", ".gif"})
	v.SetDefault("APP_COLLISION_POLICY", CollisionRename)
	v.SetDefault("PROCESSING_CLASSIFIER", "random")
	v.SetDefault("PROCESSING_CANVAS", CanvasFixed)
	v.SetDefault("PROCESSING_CANVAS_WIDTH", 800)
	v.SetDefault("PROCESSING_CANVAS_HEIGHT", 600)
	v.SetDefault("PROCESSING_WORKERS", 4)
	v.SetDefault("PROCESSING_SEED", 0)
	v.SetDefault("S3_ENABLED", false)
	v.SetDefault("S3_ENDPOINT", "http://localhost:9000")
	v.SetDefault("S3_ACCESS_KEY_ID", "minioadmin")
	v.SetDefault("S3_SECRET_ACCESS_KEY", "minioadmin")
	v.SetDefault("S3_USE_SSL", false)
	v.SetDefault("S3_BUCKET_NAME", "images")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_PREFIX", "uploaded_images/")
	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_ADDRESS", ":6379")
	v.SetDefault("REDIS_MAX_IDLE", 10)
	v.SetDefault("REDIS_TTL", time.Hour)
	v.SetDefault("SENTRY_DSN", "")
}

// Load reads the configuration from the environment and creates the working directories.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host:        v.GetString("SERVER_HOST"),
			Port:        v.GetString("SERVER_PORT"),
			ReleaseMode: v.GetBool("SERVER_RELEASE_MODE"),
			LogLevel:    v.GetString("LOG_LEVEL"),
		},
		App: AppConfig{
			UploadDir:       v.GetString("APP_UPLOAD_DIR"),
			TempDir:         v.GetString("APP_TEMP_DIR"),
			StaticDir:       v.GetString("APP_STATIC_DIR"),
			MaxUploadSize:   v.GetInt64("APP_MAX_UPLOAD_SIZE"),
			MaxFiles:        v.GetInt("APP_MAX_FILES"),
			AllowedFormats:  normalizeFormats(v.GetStringSlice("APP_ALLOWED_FORMATS")),
			CollisionPolicy: strings.ToLower(v.GetString("APP_COLLISION_POLICY")),
		},
		Processing: ProcessingConfig{
			Classifier:   v.GetString("PROCESSING_CLASSIFIER"),
			Canvas:       strings.ToLower(v.GetString("PROCESSING_CANVAS")),
			CanvasWidth:  v.GetInt("PROCESSING_CANVAS_WIDTH"),
			CanvasHeight: v.GetInt("PROCESSING_CANVAS_HEIGHT"),
			Workers:      v.GetInt("PROCESSING_WORKERS"),
			Seed:         v.GetInt64("PROCESSING_SEED"),
		},
		S3: S3Config{
			Enabled:         v.GetBool("S3_ENABLED"),
			Endpoint:        v.GetString("S3_ENDPOINT"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
			UseSSL:          v.GetBool("S3_USE_SSL"),
			BucketName:      v.GetString("S3_BUCKET_NAME"),
			Region:          v.GetString("S3_REGION"),
			Prefix:          v.GetString("S3_PREFIX"),
		},
		Redis: RedisConfig{
			Enabled: v.GetBool("REDIS_ENABLED"),
			Address: v.GetString("REDIS_ADDRESS"),
			MaxIdle: v.GetInt("REDIS_MAX_IDLE"),
			TTL:     v.GetDuration("REDIS_TTL"),
		},
		Sentry: SentryConfig{
			DSN: v.GetString("SENTRY_DSN"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := createDirs(cfg); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.App.CollisionPolicy {
	case CollisionRename, CollisionOverwrite, CollisionReject:
	default:
		return fmt.Errorf("unknown collision policy %q", c.App.CollisionPolicy)
	}

	switch c.Processing.Canvas {
	case CanvasFixed, CanvasImage:
	default:
		return fmt.Errorf("unknown canvas mode %q", c.Processing.Canvas)
	}

	if c.Processing.CanvasWidth <= 0 || c.Processing.CanvasHeight <= 0 {
		return fmt.Errorf("canvas must be positive, got %dx%d", c.Processing.CanvasWidth, c.Processing.CanvasHeight)
	}
	if c.Processing.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Processing.Workers)
	}
	if c.App.MaxUploadSize <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}
	if c.App.MaxFiles <= 0 {
		return fmt.Errorf("max files must be positive")
	}
	if len(c.App.AllowedFormats) == 0 {
		return fmt.Errorf("no allowed formats configured")
	}

	return nil
}

// MaxRequestSize bounds a whole upload request.
func (c *AppConfig) MaxRequestSize() int64 {
	return c.MaxUploadSize * int64(c.MaxFiles)
}

func normalizeFormats(formats []string) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		// viper leaves comma separated env values as a single element
		for _, part := range strings.Split(f, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			if !strings.HasPrefix(part, ".") {
				part = "." + part
			}
			out = append(out, part)
		}
	}
	return out
}

func createDirs(cfg *Config) error {
	dirs := []string{
		cfg.App.UploadDir,
		cfg.App.TempDir,
		cfg.App.StaticDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
