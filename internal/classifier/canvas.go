package classifier

import (
	"fmt"

	"trapcam/internal/domain"
)

// CanvasProvider tells the processing step which area a box is placed on.
type CanvasProvider interface {
	CanvasFor(path string) (domain.Canvas, error)
}

// FixedCanvas ignores the image and always answers with the same dimensions.
type FixedCanvas domain.Canvas

func (c FixedCanvas) CanvasFor(string) (domain.Canvas, error) {
	return domain.Canvas(c), nil
}

type dimensionProbe interface {
	Dimensions(path string) (int, int, error)
}

// ImageCanvas uses the decoded dimensions of the image itself.
type ImageCanvas struct {
	probe dimensionProbe
}

func NewImageCanvas(probe dimensionProbe) *ImageCanvas {
	return &ImageCanvas{probe: probe}
}

func (c *ImageCanvas) CanvasFor(path string) (domain.Canvas, error) {
	w, h, err := c.probe.Dimensions(path)
	if err != nil {
		return domain.Canvas{}, fmt.Errorf("%w: read dimensions: %v", domain.ErrIO, err)
	}
	return domain.Canvas{Width: w, Height: h}, nil
}
