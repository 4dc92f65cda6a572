package classifier

import (
	"context"

	"trapcam/internal/domain"
)

// Label is the verdict for one image. BBox is nil when IsEmpty is true.
type Label struct {
	IsEmpty bool
	BBox    *domain.BBox
}

// ImageClassifier decides whether an image is empty and, if not, where the object is.
type ImageClassifier interface {
	Classify(ctx context.Context, img domain.StoredImage, canvas domain.Canvas, params domain.ProcessingParams) (Label, error)
}
