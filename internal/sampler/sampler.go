// Package sampler decides which frames of a video get analyzed.
package sampler

// FallbackStride is used when the container reports no usable frame rate.
const FallbackStride = 15

// DefaultSamplesPerSecond matches the analysis density the pipeline was
// tuned for.
const DefaultSamplesPerSecond = 2

// Plan is a deterministic sampling schedule over frame indices.
type Plan struct {
	Stride    int
	MaxFrames int
}

// New computes the schedule. Stride is always >= 1. MaxFrames caps the
// scan at durationLimit seconds of source video; frameCount == 0 (unknown)
// leaves the duration cap in charge, and fps <= 0 falls back to a fixed
// stride with no duration cap beyond frameCount.
func New(fps float64, frameCount int, durationLimit float64, samplesPerSecond int) Plan {
	if samplesPerSecond <= 0 {
		samplesPerSecond = DefaultSamplesPerSecond
	}

	if fps <= 0 {
		return Plan{Stride: FallbackStride, MaxFrames: frameCount}
	}

	maxFrames := frameCount
	if durationLimit > 0 {
		limit := int(durationLimit * fps)
		if maxFrames == 0 || limit < maxFrames {
			maxFrames = limit
		}
	}

	stride := int(fps) / samplesPerSecond
	if stride < 1 {
		stride = 1
	}

	return Plan{Stride: stride, MaxFrames: maxFrames}
}

// Take reports whether the frame at index should be analyzed. The first
// eligible frame (index 0) is always taken.
func (p Plan) Take(index int) bool {
	if !p.InRange(index) {
		return false
	}
	return index%p.Stride == 0
}

// InRange reports whether index is still inside the scan window.
func (p Plan) InRange(index int) bool {
	if p.MaxFrames > 0 && index >= p.MaxFrames {
		return false
	}
	return true
}

// SampleBudget is the largest number of frames Take can accept.
func (p Plan) SampleBudget() int {
	if p.MaxFrames <= 0 {
		return 0
	}
	return (p.MaxFrames-1)/p.Stride + 1
}
