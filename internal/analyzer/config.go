package analyzer

// Config carries the slowly-varying analysis tunables. All thresholds
// operate at analysis resolution, after downscaling.
type Config struct {
	// ResolutionScale shrinks frames before any pixel work.
	ResolutionScale float64

	// MotionThreshold is the per-pixel grayscale delta (0..255) above
	// which a pixel counts as changed.
	MotionThreshold int

	// MotionFloor is the changed-pixel fraction above which motion is
	// considered detected.
	MotionFloor float64

	// MinBlobArea is the smallest changed-pixel blob (in pixels) worth
	// reporting as a motion region.
	MinBlobArea int

	// EdgeThreshold is the gradient magnitude above which a pixel counts
	// as an edge during text-candidate detection.
	EdgeThreshold int
}

// DefaultConfig returns the tuning the pipeline ships with.
func DefaultConfig() Config {
	return Config{
		ResolutionScale: 0.5,
		MotionThreshold: 25,
		MotionFloor:     0.01,
		MinBlobArea:     100,
		EdgeThreshold:   100,
	}
}

// Text-candidate envelope at analysis resolution. Regions outside these
// bounds are not plausible text lines.
const (
	textMinWidth   = 20
	textMaxWidth   = 200
	textMinHeight  = 10
	textMaxHeight  = 50
	textMinAspect  = 1.5
	textMaxAspect  = 8.0
	textConfidence = 0.6
)
