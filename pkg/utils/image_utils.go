package utils

import (
	"fmt"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

var contentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
}

// SanitizeFilename reduces a client supplied name to its base name.
// Both slash styles count as separators. Names that reduce to nothing,
// "." or ".." are rejected.
func SanitizeFilename(name string) (string, error) {
	cleaned := strings.ReplaceAll(name, "\\", "/")
	base := path.Base(path.Clean("/" + cleaned))
	base = strings.TrimSpace(base)

	switch base {
	case "", ".", "..", "/":
		return "", fmt.Errorf("unusable file name %q", name)
	}
	if strings.ContainsRune(base, 0) {
		return "", fmt.Errorf("unusable file name %q", name)
	}

	return base, nil
}

// HasAllowedExt reports whether name ends in one of the extensions, ignoring case.
func HasAllowedExt(name string, allowed []string) bool {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

// Format returns the lower-case extension without the dot.
func Format(name string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
}

func ContentTypeFor(name string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// IsArchiveName reports whether the upload should be treated as a zip archive.
func IsArchiveName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".zip")
}

// ImageProbe reads the real dimensions of stored images.
type ImageProbe struct {
	log *zap.Logger
}

func NewImageProbe(log *zap.Logger) *ImageProbe {
	return &ImageProbe{log: log}
}

func (p *ImageProbe) Dimensions(filePath string) (int, int, error) {
	img, err := imaging.Open(filePath, imaging.AutoOrientation(true))
	if err != nil {
		return 0, 0, err
	}

	b := img.Bounds()
	p.log.Debug("Image dimensions probed",
		zap.String("file", filePath),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()))

	return b.Dx(), b.Dy(), nil
}
