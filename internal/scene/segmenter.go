// Package scene decides where one scene ends and the next begins. The
// rule is a deliberately coarse tunable heuristic, not a learned model.
package scene

import (
	"fmt"

	"github.com/framesight/framesight/internal/models"
)

// Change thresholds versus the previous observation.
const (
	brightnessJump = 0.3
	motionJump     = 0.2
	indicatorsNeed = 2
)

// Segmenter tracks the last observation of the current watch. One
// segmenter serves one watch call; call Reset to reuse it.
type Segmenter struct {
	last    *models.FrameObservation
	emitted int
}

func NewSegmenter() *Segmenter {
	return &Segmenter{}
}

// Observe feeds the next observation and reports whether it starts a new
// scene. A boundary is emitted when at least two of three indicators
// hold against the previous observation: a brightness jump, the presence
// of object candidates, and a motion intensity jump. The first
// observation never emits.
func (s *Segmenter) Observe(obs models.FrameObservation) (models.SceneBoundary, bool) {
	prev := s.last
	s.last = &obs

	if prev == nil {
		return models.SceneBoundary{}, false
	}

	indicators := 0

	delta := obs.Brightness - prev.Brightness
	if delta < 0 {
		delta = -delta
	}
	if delta > brightnessJump {
		indicators++
	}

	if len(obs.Objects) > 0 {
		indicators++
	}

	if obs.Motion != nil && obs.Motion.Intensity > motionJump {
		indicators++
	}

	if indicators < indicatorsNeed {
		return models.SceneBoundary{}, false
	}

	s.emitted++
	return models.SceneBoundary{
		Timestamp:   obs.Timestamp,
		Description: obs.Description,
	}, true
}

// Reset clears the segmenter for a new watch call.
func (s *Segmenter) Reset() {
	s.last = nil
	s.emitted = 0
}

// Emitted is the number of boundaries produced since the last Reset.
func (s *Segmenter) Emitted() int { return s.emitted }

// String implements fmt.Stringer for debug logging.
func (s *Segmenter) String() string {
	return fmt.Sprintf("scene.Segmenter{emitted: %d}", s.emitted)
}
