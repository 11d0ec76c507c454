package analyzer

import (
	"context"
	"image"

	"github.com/framesight/framesight/internal/models"
)

// Detector finds object candidates in a frame. Implementations may be
// slow or remote; the analyzer treats any failure as "no candidates" and
// keeps going. A nil Detector on the analyzer means zero candidates, not
// an error.
type Detector interface {
	Detect(ctx context.Context, frame image.Image, timestamp float64) ([]models.ObjectCandidate, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, frame image.Image, timestamp float64) ([]models.ObjectCandidate, error)

func (f DetectorFunc) Detect(ctx context.Context, frame image.Image, timestamp float64) ([]models.ObjectCandidate, error) {
	return f(ctx, frame, timestamp)
}
