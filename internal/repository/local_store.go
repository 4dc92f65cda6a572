package repository

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"trapcam/internal/config"
	"trapcam/internal/domain"
	"trapcam/pkg/utils"
)

const (
	ResultsFile = "results.json"
	CSVFile     = "submission.csv"
)

// ErrFileExists is returned by Save under the reject collision policy.
var ErrFileExists = errors.New("file already exists")

// LocalStore is the on-disk storage area: uploaded images plus the results file.
type LocalStore struct {
	root    string
	policy  string
	allowed []string
	log     *zap.Logger
}

func NewLocalStore(cfg *config.AppConfig, log *zap.Logger) *LocalStore {
	return &LocalStore{
		root:    cfg.UploadDir,
		policy:  cfg.CollisionPolicy,
		allowed: cfg.AllowedFormats,
		log:     log,
	}
}

func (s *LocalStore) Root() string {
	return s.root
}

// Path resolves a relative image path inside the storage area.
func (s *LocalStore) Path(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

func (s *LocalStore) Ensure() error {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return fmt.Errorf("%w: create storage area: %v", domain.ErrIO, err)
	}
	return nil
}

// Save writes an already sanitised file name at the storage root and returns
// the name it was stored under, which differs from name only under the rename
// policy.
func (s *LocalStore) Save(name string, r io.Reader) (string, int64, error) {
	if err := s.Ensure(); err != nil {
		return "", 0, err
	}

	target, err := s.resolveCollision(name)
	if err != nil {
		return "", 0, err
	}

	n, err := utils.WriteFileAtomic(s.root, target, r)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}

	s.log.Debug("File stored",
		zap.String("name", target),
		zap.Int64("size", n))

	return target, n, nil
}

func (s *LocalStore) resolveCollision(name string) (string, error) {
	exists, err := s.exists(name)
	if err != nil || !exists {
		return name, err
	}

	switch s.policy {
	case config.CollisionOverwrite:
		return name, nil
	case config.CollisionReject:
		return "", fmt.Errorf("%s: %w", name, ErrFileExists)
	}

	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := stem + "_" + strconv.Itoa(i) + ext
		exists, err := s.exists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

func (s *LocalStore) exists(name string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.root, name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", domain.ErrIO, err)
}

// List walks the storage area and returns every accepted image, sorted by path.
func (s *LocalStore) List() ([]domain.StoredImage, error) {
	var images []domain.StoredImage

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == s.root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			// a file removed mid-walk is not fatal
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		// dot-files are regular uploads; only in-flight writes are hidden
		if d.IsDir() || strings.HasPrefix(d.Name(), utils.TempPrefix) {
			return nil
		}
		if !utils.HasAllowedExt(d.Name(), s.allowed) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.log.Warn("Skipping unreadable file", zap.String("file", p), zap.Error(err))
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}

		images = append(images, domain.StoredImage{
			Path:   filepath.ToSlash(rel),
			Name:   d.Name(),
			Size:   info.Size(),
			Format: utils.Format(d.Name()),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list storage area: %v", domain.ErrIO, err)
	}

	return images, nil
}

// Clear removes everything under the storage area and recreates it.
// Failures on individual entries are logged and skipped.
func (s *LocalStore) Clear() (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("%w: read storage area: %v", domain.ErrIO, err)
	}

	removed := 0
	for _, entry := range entries {
		p := filepath.Join(s.root, entry.Name())
		if err := os.RemoveAll(p); err != nil {
			s.log.Error("Failed to delete file",
				zap.String("file", p),
				zap.Error(err))
			continue
		}
		removed++
	}

	if err := s.Ensure(); err != nil {
		return removed, err
	}

	return removed, nil
}

// ReadResults loads results.json. A missing file means no results yet.
func (s *LocalStore) ReadResults() ([]domain.ResultRecord, error) {
	data, err := os.ReadFile(filepath.Join(s.root, ResultsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.ResultRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read results: %v", domain.ErrIO, err)
	}

	return DecodeResults(data)
}

func DecodeResults(data []byte) ([]domain.ResultRecord, error) {
	records := []domain.ResultRecord{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decode results: %v", domain.ErrIO, err)
	}
	return records, nil
}

// WriteResults replaces results.json with records and returns the encoded payload.
func (s *LocalStore) WriteResults(records []domain.ResultRecord) ([]byte, error) {
	if records == nil {
		records = []domain.ResultRecord{}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}

	if err := s.Ensure(); err != nil {
		return nil, err
	}
	if _, err := utils.WriteFileAtomic(s.root, ResultsFile, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIO, err)
	}

	return data, nil
}

// WriteCSV exports the filename list with its emptiness flag and returns the file path.
func (s *LocalStore) WriteCSV(records []domain.ResultRecord) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"filename", "is_empty"}); err != nil {
		return "", err
	}
	for _, r := range records {
		flag := "0"
		if r.IsEmpty {
			flag = "1"
		}
		if err := w.Write([]string{r.Filename, flag}); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("encode csv: %w", err)
	}

	if err := s.Ensure(); err != nil {
		return "", err
	}
	if _, err := utils.WriteFileAtomic(s.root, CSVFile, &buf); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrIO, err)
	}

	return filepath.Join(s.root, CSVFile), nil
}
