package repository

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"trapcam/internal/config"
	"trapcam/internal/domain"
)

func newStore(t *testing.T, policy string) *LocalStore {
	t.Helper()
	return NewLocalStore(&config.AppConfig{
		UploadDir:       filepath.Join(t.TempDir(), "uploaded_images"),
		AllowedFormats:  []string{".png", ".jpg", ".jpeg", ".gif"},
		CollisionPolicy: policy,
	}, zap.NewNop())
}

func read(t *testing.T, s *LocalStore, name string) string {
	t.Helper()
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

func TestSaveCollisionPolicies(t *testing.T) {
	t.Run("rename", func(t *testing.T) {
		s := newStore(t, config.CollisionRename)
		names := []string{}
		for _, body := range []string{"one", "two", "three"} {
			name, _, err := s.Save("cat.jpg", strings.NewReader(body))
			if err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			names = append(names, name)
		}
		want := []string{"cat.jpg", "cat_1.jpg", "cat_2.jpg"}
		for i := range want {
			if names[i] != want[i] {
				t.Errorf("Save #%d stored as %s, want %s", i, names[i], want[i])
			}
		}
		if read(t, s, "cat.jpg") != "one" || read(t, s, "cat_2.jpg") != "three" {
			t.Error("Renamed files have wrong content")
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		s := newStore(t, config.CollisionOverwrite)
		s.Save("cat.jpg", strings.NewReader("one"))
		name, _, err := s.Save("cat.jpg", strings.NewReader("two"))
		if err != nil || name != "cat.jpg" {
			t.Fatalf("Overwrite returned %s, %v", name, err)
		}
		if got := read(t, s, "cat.jpg"); got != "two" {
			t.Errorf("Expected last write to win, got %q", got)
		}
	})

	t.Run("reject", func(t *testing.T) {
		s := newStore(t, config.CollisionReject)
		s.Save("cat.jpg", strings.NewReader("one"))
		_, _, err := s.Save("cat.jpg", strings.NewReader("two"))
		if !errors.Is(err, ErrFileExists) {
			t.Fatalf("Expected ErrFileExists, got %v", err)
		}
		if got := read(t, s, "cat.jpg"); got != "one" {
			t.Errorf("Rejected upload modified the file: %q", got)
		}
	})
}

func TestListWalksRecursivelyAndFilters(t *testing.T) {
	s := newStore(t, config.CollisionRename)
	if err := s.Ensure(); err != nil {
		t.Fatal(err)
	}

	files := map[string]string{
		"b.png":             "x",
		"a.JPG":             "x",
		"nested/deep/c.gif": "x",
		"notes.txt":         "x",
		".tmp-123":          "x",
		".tmp-456.png":      "x",
		".hidden.png":       "x",
		ResultsFile:         "[]",
	}
	for name, body := range files {
		p := s.Path(name)
		os.MkdirAll(filepath.Dir(p), 0755)
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}

	images, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	want := []string{".hidden.png", "a.JPG", "b.png", "nested/deep/c.gif"}
	if len(images) != len(want) {
		t.Fatalf("Expected %d images, got %+v", len(want), images)
	}
	for i, img := range images {
		if img.Path != want[i] {
			t.Errorf("Image %d: got %s, want %s", i, img.Path, want[i])
		}
	}
	if images[1].Format != "jpg" || images[3].Name != "c.gif" {
		t.Errorf("Unexpected metadata: %+v", images)
	}
}

func TestListMissingRoot(t *testing.T) {
	s := newStore(t, config.CollisionRename)
	images, err := s.List()
	if err != nil || len(images) != 0 {
		t.Errorf("Expected empty listing for missing root, got %v, %v", images, err)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	s := newStore(t, config.CollisionRename)
	s.Save("a.png", strings.NewReader("x"))
	os.MkdirAll(s.Path("sub"), 0755)
	os.WriteFile(s.Path("sub/b.png"), []byte("x"), 0644)

	removed, err := s.Clear()
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 entries removed, got %d", removed)
	}

	for i := 0; i < 2; i++ {
		if _, err := s.Clear(); err != nil {
			t.Fatalf("Repeated Clear failed: %v", err)
		}
		entries, err := os.ReadDir(s.Root())
		if err != nil {
			t.Fatalf("Storage area missing after clear: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("Expected empty storage area, found %d entries", len(entries))
		}
	}
}

func TestResultsRoundTrip(t *testing.T) {
	s := newStore(t, config.CollisionRename)

	records, err := s.ReadResults()
	if err != nil {
		t.Fatalf("ReadResults without file failed: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("Expected empty non-nil set, got %#v", records)
	}

	first := []domain.ResultRecord{
		{Filename: "a.png", IsEmpty: true},
		{Filename: "b.png", BBox: &domain.BBox{X: 1, Y: 2, Width: 3, Height: 4}},
	}
	if _, err := s.WriteResults(first); err != nil {
		t.Fatalf("WriteResults failed: %v", err)
	}
	second := []domain.ResultRecord{{Filename: "c.png", IsEmpty: true}}
	if _, err := s.WriteResults(second); err != nil {
		t.Fatalf("WriteResults failed: %v", err)
	}

	got, err := s.ReadResults()
	if err != nil {
		t.Fatalf("ReadResults failed: %v", err)
	}
	if len(got) != 1 || got[0].Filename != "c.png" {
		t.Errorf("Expected results to be replaced, got %+v", got)
	}
}

func TestReadResultsCorrupt(t *testing.T) {
	s := newStore(t, config.CollisionRename)
	s.Ensure()
	os.WriteFile(filepath.Join(s.Root(), ResultsFile), []byte("{not json"), 0644)

	if _, err := s.ReadResults(); !errors.Is(err, domain.ErrIO) {
		t.Errorf("Expected ErrIO for corrupt results, got %v", err)
	}
}

func TestWriteCSV(t *testing.T) {
	s := newStore(t, config.CollisionRename)

	path, err := s.WriteCSV([]domain.ResultRecord{
		{Filename: "a.png", IsEmpty: true},
		{Filename: "dir/b.png", BBox: &domain.BBox{}},
	})
	if err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "filename,is_empty\na.png,1\ndir/b.png,0\n"
	if string(data) != want {
		t.Errorf("Unexpected CSV:\n%s", data)
	}
}
