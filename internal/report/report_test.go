package report

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"trapcam/internal/domain"
)

func records(empty, nonEmpty int) []domain.ResultRecord {
	var out []domain.ResultRecord
	for i := 0; i < empty; i++ {
		out = append(out, domain.ResultRecord{Filename: "e.png", IsEmpty: true})
	}
	for i := 0; i < nonEmpty; i++ {
		out = append(out, domain.ResultRecord{Filename: "n.png", BBox: &domain.BBox{Width: 10, Height: 10}})
	}
	return out
}

func TestSummarize(t *testing.T) {
	s := Summarize(records(3, 5))

	if s.Total != 8 || s.Empty != 3 || s.NonEmpty != 5 {
		t.Fatalf("Unexpected counts: %+v", s)
	}
	if s.Emptiness[0] != (domain.Count{Label: LabelEmpty, Count: 3}) ||
		s.Emptiness[1] != (domain.Count{Label: LabelNonEmpty, Count: 5}) {
		t.Errorf("Unexpected emptiness view: %+v", s.Emptiness)
	}
	// the quality view mirrors the emptiness counts
	for i := range s.Quality {
		if s.Quality[i].Count != s.Emptiness[i].Count {
			t.Errorf("Quality view diverges at %d: %+v vs %+v", i, s.Quality[i], s.Emptiness[i])
		}
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || len(s.Emptiness) != 2 || len(s.Quality) != 2 {
		t.Errorf("Unexpected summary for no results: %+v", s)
	}
}

func TestGGRendererWritesCharts(t *testing.T) {
	for _, tc := range []struct {
		name            string
		empty, nonEmpty int
	}{
		{"mixed", 2, 7},
		{"no results", 0, 0},
		{"only empty", 4, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := NewGGRenderer().Render(dir, Summarize(records(tc.empty, tc.nonEmpty))); err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if err := VerifyArtifacts(dir); err != nil {
				t.Fatalf("VerifyArtifacts failed: %v", err)
			}

			for _, name := range Artifacts {
				f, err := os.Open(filepath.Join(dir, name))
				if err != nil {
					t.Fatal(err)
				}
				img, err := png.Decode(f)
				f.Close()
				if err != nil {
					t.Fatalf("%s is not a PNG: %v", name, err)
				}
				if b := img.Bounds(); b.Dx() != chartWidth || b.Dy() != chartHeight {
					t.Errorf("%s has size %v", name, b)
				}
			}
		})
	}
}

func TestVerifyArtifactsMissing(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, EmptinessChart), []byte("png"), 0644)

	err := VerifyArtifacts(dir)
	if !errors.Is(err, domain.ErrMissingArtifact) {
		t.Errorf("Expected ErrMissingArtifact, got %v", err)
	}
}
