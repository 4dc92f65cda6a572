package classifier

import (
	"context"
	"errors"
	"testing"

	"trapcam/internal/domain"
)

var testImage = domain.StoredImage{Path: "cat.jpg", Name: "cat.jpg", Format: "jpg"}

func TestRandomClassifierBounds(t *testing.T) {
	c := NewRandomClassifier(7)
	canvas := domain.Canvas{Width: 800, Height: 600}

	sizes := []struct{ w, h int }{{100, 100}, {800, 600}, {0, 0}, {799, 1}, {1, 599}}
	for _, size := range sizes {
		params := domain.ProcessingParams{BBoxWidth: size.w, BBoxHeight: size.h}
		empty, nonEmpty := 0, 0

		for i := 0; i < 2000; i++ {
			label, err := c.Classify(context.Background(), testImage, canvas, params)
			if err != nil {
				t.Fatalf("Classify failed: %v", err)
			}
			if label.IsEmpty {
				empty++
				if label.BBox != nil {
					t.Fatalf("Empty label carries bbox %+v", label.BBox)
				}
				continue
			}

			nonEmpty++
			b := label.BBox
			if b == nil {
				t.Fatal("Non-empty label has no bbox")
			}
			if b.X < 0 || b.X > canvas.Width-size.w || b.Y < 0 || b.Y > canvas.Height-size.h {
				t.Fatalf("BBox %+v outside [0,%d]x[0,%d]", b, canvas.Width-size.w, canvas.Height-size.h)
			}
			if b.Width != size.w || b.Height != size.h {
				t.Fatalf("BBox size %dx%d, want %dx%d", b.Width, b.Height, size.w, size.h)
			}
		}

		if empty == 0 || nonEmpty == 0 {
			t.Errorf("Expected both outcomes for %dx%d, got empty=%d non-empty=%d", size.w, size.h, empty, nonEmpty)
		}
	}
}

func TestRandomClassifierRejectsOversizeBox(t *testing.T) {
	c := NewRandomClassifier(1)
	canvas := domain.Canvas{Width: 800, Height: 600}

	for _, params := range []domain.ProcessingParams{
		{BBoxWidth: 801, BBoxHeight: 10},
		{BBoxWidth: 10, BBoxHeight: 601},
		{BBoxWidth: -5, BBoxHeight: 10},
	} {
		_, err := c.Classify(context.Background(), testImage, canvas, params)
		if !errors.Is(err, domain.ErrConfig) {
			t.Errorf("Expected ErrConfig for %+v, got %v", params, err)
		}
	}
}

func TestRandomClassifierHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRandomClassifier(1).Classify(ctx, testImage, domain.Canvas{Width: 10, Height: 10}, domain.ProcessingParams{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRandomClassifierSeedIsDeterministic(t *testing.T) {
	a, b := NewRandomClassifier(99), NewRandomClassifier(99)
	canvas := domain.Canvas{Width: 800, Height: 600}
	params := domain.ProcessingParams{BBoxWidth: 50, BBoxHeight: 50}

	for i := 0; i < 50; i++ {
		la, _ := a.Classify(context.Background(), testImage, canvas, params)
		lb, _ := b.Classify(context.Background(), testImage, canvas, params)
		if la.IsEmpty != lb.IsEmpty || (la.BBox != nil && *la.BBox != *lb.BBox) {
			t.Fatalf("Same seed diverged at %d: %+v vs %+v", i, la, lb)
		}
	}
}

func TestClassifierRegistry(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{"random", false},
		{"", false}, // default
		{"model", true},
		{"invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			c, err := NewClassifier(tt.variant, 1)

			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				if c == nil {
					t.Error("Expected classifier, got nil")
				}
			}
		})
	}
}

type stubProbe struct {
	w, h int
	err  error
}

func (p stubProbe) Dimensions(string) (int, int, error) { return p.w, p.h, p.err }

func TestCanvasProviders(t *testing.T) {
	fixed := FixedCanvas{Width: 800, Height: 600}
	c, err := fixed.CanvasFor("anything.png")
	if err != nil || c.Width != 800 || c.Height != 600 {
		t.Errorf("FixedCanvas returned %+v, %v", c, err)
	}

	c, err = NewImageCanvas(stubProbe{w: 320, h: 240}).CanvasFor("a.png")
	if err != nil || c.Width != 320 || c.Height != 240 {
		t.Errorf("ImageCanvas returned %+v, %v", c, err)
	}

	_, err = NewImageCanvas(stubProbe{err: errors.New("corrupt")}).CanvasFor("a.png")
	if !errors.Is(err, domain.ErrIO) {
		t.Errorf("Expected ErrIO from failing probe, got %v", err)
	}
}
