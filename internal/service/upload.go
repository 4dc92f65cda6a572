package service

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trapcam/internal/domain"
	"trapcam/internal/repository"
	"trapcam/pkg/utils"
)

var errTooLarge = errors.New("file too large")

// cappedReader fails once more than remaining bytes have been read.
type cappedReader struct {
	r         io.Reader
	remaining int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		return 0, errTooLarge
	}
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return n, errTooLarge
	}
	return n, err
}

func classifyItem(item domain.UploadItem) domain.ItemKind {
	if utils.IsArchiveName(item.Filename) {
		return domain.ItemArchive
	}
	if strings.HasPrefix(strings.ToLower(item.ContentType), "image/") {
		return domain.ItemImage
	}
	return domain.ItemRejected
}

func (s *imageService) Upload(ctx context.Context, batch domain.UploadBatch) (*domain.UploadSummary, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: no files uploaded", domain.ErrInvalidInput)
	}
	if len(batch) > s.cfg.App.MaxFiles {
		return nil, fmt.Errorf("%w: too many files (%d > %d)", domain.ErrInvalidInput, len(batch), s.cfg.App.MaxFiles)
	}

	kinds := make([]domain.ItemKind, len(batch))
	usable := false
	for i, item := range batch {
		kinds[i] = classifyItem(item)
		if kinds[i] != domain.ItemRejected {
			usable = true
		}
	}
	if !usable {
		return nil, fmt.Errorf("%w: no image or zip archive among uploaded files", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Ensure(); err != nil {
		return nil, err
	}

	summary := &domain.UploadSummary{Stored: []string{}}
	for i, item := range batch {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		var err error
		switch kinds[i] {
		case domain.ItemArchive:
			err = s.extractArchive(ctx, item, summary)
		case domain.ItemImage:
			err = s.storeImage(ctx, item, summary)
		default:
			s.log.Info("Ignoring unsupported upload",
				zap.String("file", item.Filename),
				zap.String("content_type", item.ContentType))
			summary.Skip(item.Filename, "unsupported type")
		}
		if err != nil {
			return summary, err
		}
	}

	s.log.Info("Upload finished",
		zap.Int("items", len(batch)),
		zap.Int("stored", len(summary.Stored)),
		zap.Int("skipped", len(summary.Skipped)))

	return summary, nil
}

func (s *imageService) storeImage(ctx context.Context, item domain.UploadItem, summary *domain.UploadSummary) error {
	name, err := utils.SanitizeFilename(item.Filename)
	if err != nil {
		s.log.Warn("Rejecting upload with unusable name", zap.String("file", item.Filename))
		summary.Skip(item.Filename, "invalid file name")
		return nil
	}
	if !utils.HasAllowedExt(name, s.cfg.App.AllowedFormats) {
		s.log.Warn("Rejecting image with disallowed format", zap.String("file", name))
		summary.Skip(item.Filename, "disallowed image format")
		return nil
	}
	if item.Size > s.cfg.App.MaxUploadSize {
		summary.Skip(item.Filename, errTooLarge.Error())
		return nil
	}

	rc, err := item.Open()
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", domain.ErrIO, item.Filename, err)
	}
	defer rc.Close()

	return s.save(ctx, item.Filename, name, rc, summary)
}

// save stores one image and records the outcome. Only I/O failures are returned.
func (s *imageService) save(ctx context.Context, original, name string, r io.Reader, summary *domain.UploadSummary) error {
	stored, size, err := s.store.Save(name, &cappedReader{r: r, remaining: s.cfg.App.MaxUploadSize})
	switch {
	case errors.Is(err, repository.ErrFileExists):
		s.log.Warn("Rejecting upload, file exists", zap.String("file", name))
		summary.Skip(original, "file already exists")
		return nil
	case errors.Is(err, errTooLarge):
		s.log.Warn("Rejecting upload, too large",
			zap.String("file", name),
			zap.Int64("limit", s.cfg.App.MaxUploadSize))
		summary.Skip(original, errTooLarge.Error())
		return nil
	case err != nil:
		return err
	}

	summary.Stored = append(summary.Stored, stored)
	s.log.Info("Image stored",
		zap.String("original", original),
		zap.String("name", stored),
		zap.Int64("size", size))

	s.mirrorFile(ctx, stored, size)
	return nil
}

func (s *imageService) mirrorFile(ctx context.Context, name string, size int64) {
	f, err := os.Open(s.store.Path(name))
	if err != nil {
		s.log.Warn("Failed to open file for mirroring", zap.String("file", name), zap.Error(err))
		return
	}
	defer f.Close()

	if err := s.mirror.Upload(ctx, name, f, size, utils.ContentTypeFor(name)); err != nil {
		s.log.Warn("Failed to mirror file", zap.String("file", name), zap.Error(err))
	}
}

func (s *imageService) extractArchive(ctx context.Context, item domain.UploadItem, summary *domain.UploadSummary) error {
	if err := os.MkdirAll(s.cfg.App.TempDir, 0755); err != nil {
		return fmt.Errorf("%w: create temp dir: %v", domain.ErrIO, err)
	}
	tmpPath := filepath.Join(s.cfg.App.TempDir, uuid.New().String()+".zip")
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("Failed to remove temporary archive", zap.String("path", tmpPath), zap.Error(err))
		}
	}()

	if err := s.spool(item, tmpPath); err != nil {
		return err
	}

	zr, err := zip.OpenReader(tmpPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidArchive, item.Filename, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !f.Mode().IsRegular() {
			continue
		}

		// entries are flattened to their base name
		name, err := utils.SanitizeFilename(f.Name)
		if err != nil || !utils.HasAllowedExt(name, s.cfg.App.AllowedFormats) {
			s.log.Debug("Skipping archive entry",
				zap.String("archive", item.Filename),
				zap.String("entry", f.Name))
			continue
		}
		if f.UncompressedSize64 > uint64(s.cfg.App.MaxUploadSize) {
			s.log.Warn("Skipping oversized archive entry",
				zap.String("archive", item.Filename),
				zap.String("entry", f.Name),
				zap.Uint64("size", f.UncompressedSize64))
			summary.Skip(f.Name, errTooLarge.Error())
			continue
		}

		if err := s.extractEntry(ctx, f, name, summary); err != nil {
			if isZipError(err) {
				return fmt.Errorf("%w: %s: entry %s: %v", domain.ErrInvalidArchive, item.Filename, f.Name, err)
			}
			return err
		}
	}

	return nil
}

func (s *imageService) extractEntry(ctx context.Context, f *zip.File, name string, summary *domain.UploadSummary) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	return s.save(ctx, f.Name, name, rc, summary)
}

func (s *imageService) spool(item domain.UploadItem, dst string) error {
	rc, err := item.Open()
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", domain.ErrIO, item.Filename, err)
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("%w: create temporary archive: %v", domain.ErrIO, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("%w: write temporary archive: %v", domain.ErrIO, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: write temporary archive: %v", domain.ErrIO, err)
	}

	return nil
}

func isZipError(err error) bool {
	return errors.Is(err, zip.ErrFormat) ||
		errors.Is(err, zip.ErrChecksum) ||
		errors.Is(err, zip.ErrAlgorithm) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
