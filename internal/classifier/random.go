package classifier

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"trapcam/internal/domain"
)

// RandomClassifier is a placeholder that labels images by coin flip and drops a
// box of the requested size at a uniformly random position on the canvas.
type RandomClassifier struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomClassifier seeds from the clock when seed is 0.
func NewRandomClassifier(seed int64) *RandomClassifier {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomClassifier{rng: rand.New(rand.NewSource(seed))}
}

func (c *RandomClassifier) Classify(ctx context.Context, img domain.StoredImage, canvas domain.Canvas, params domain.ProcessingParams) (Label, error) {
	if err := ctx.Err(); err != nil {
		return Label{}, err
	}

	w, h := params.BBoxWidth, params.BBoxHeight
	if !canvas.Fits(w, h) {
		return Label{}, fmt.Errorf("%w: bbox %dx%d does not fit canvas %dx%d of %s",
			domain.ErrConfig, w, h, canvas.Width, canvas.Height, img.Path)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rng.Intn(2) == 1 {
		return Label{IsEmpty: true}, nil
	}

	// bounds are inclusive: x in [0, W-w], y in [0, H-h]
	return Label{
		BBox: &domain.BBox{
			X:      c.rng.Intn(canvas.Width - w + 1),
			Y:      c.rng.Intn(canvas.Height - h + 1),
			Width:  w,
			Height: h,
		},
	}, nil
}
