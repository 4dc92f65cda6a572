package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_UPLOAD_DIR", filepath.Join(dir, "uploaded_images"))
	t.Setenv("APP_TEMP_DIR", filepath.Join(dir, "tmp"))
	t.Setenv("APP_STATIC_DIR", filepath.Join(dir, "static"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Processing.CanvasWidth != 800 || cfg.Processing.CanvasHeight != 600 {
		t.Errorf("Expected 800x600 canvas, got %dx%d", cfg.Processing.CanvasWidth, cfg.Processing.CanvasHeight)
	}
	if cfg.App.CollisionPolicy != CollisionRename {
		t.Errorf("Expected rename policy by default, got %s", cfg.App.CollisionPolicy)
	}
	if cfg.S3.Enabled || cfg.Redis.Enabled {
		t.Error("Optional backends should be disabled by default")
	}
	want := []string{".png", ".jpg", ".jpeg", ".gif"}
	if !reflect.DeepEqual(cfg.App.AllowedFormats, want) {
		t.Errorf("Expected formats %v, got %v", want, cfg.App.AllowedFormats)
	}

	for _, d := range []string{cfg.App.UploadDir, cfg.App.TempDir, cfg.App.StaticDir} {
		if info, err := os.Stat(d); err != nil || !info.IsDir() {
			t.Errorf("Expected directory %s to exist", d)
		}
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_UPLOAD_DIR", filepath.Join(dir, "u"))
	t.Setenv("APP_TEMP_DIR", filepath.Join(dir, "t"))
	t.Setenv("APP_STATIC_DIR", filepath.Join(dir, "s"))
	t.Setenv("APP_COLLISION_POLICY", "Overwrite")
	t.Setenv("APP_ALLOWED_FORMATS", "png, JPG")
	t.Setenv("PROCESSING_CANVAS", "image")
	t.Setenv("PROCESSING_WORKERS", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.App.CollisionPolicy != CollisionOverwrite {
		t.Errorf("Expected overwrite policy, got %s", cfg.App.CollisionPolicy)
	}
	if !reflect.DeepEqual(cfg.App.AllowedFormats, []string{".png", ".jpg"}) {
		t.Errorf("Unexpected formats %v", cfg.App.AllowedFormats)
	}
	if cfg.Processing.Canvas != CanvasImage || cfg.Processing.Workers != 8 {
		t.Errorf("Unexpected processing config %+v", cfg.Processing)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App: AppConfig{
				MaxUploadSize:   1024,
				MaxFiles:        10,
				AllowedFormats:  []string{".png"},
				CollisionPolicy: CollisionRename,
			},
			Processing: ProcessingConfig{
				Canvas:       CanvasFixed,
				CanvasWidth:  800,
				CanvasHeight: 600,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"unknown policy", func(c *Config) { c.App.CollisionPolicy = "merge" }, true},
		{"unknown canvas", func(c *Config) { c.Processing.Canvas = "auto" }, true},
		{"zero canvas", func(c *Config) { c.Processing.CanvasWidth = 0 }, true},
		{"no formats", func(c *Config) { c.App.AllowedFormats = nil }, true},
		{"zero upload size", func(c *Config) { c.App.MaxUploadSize = 0 }, true},
		{"zero workers", func(c *Config) { c.Processing.Workers = 0 }, true},
		{"negative workers", func(c *Config) { c.Processing.Workers = -2 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
