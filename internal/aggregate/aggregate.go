// Package aggregate folds a stream of frame observations and scene
// boundaries into a single VideoComprehensionResult. Aggregate is pure:
// identical inputs always produce an identical result.
package aggregate

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/framesight/framesight/internal/models"
)

// Per-category score weights. Each category contributes a saturating
// sub-score of at most its weight; the total is normalized by the summed
// weights of categories that had at least one contributing observation so
// scores stay comparable across videos with different observation mixes.
const (
	frameWeight  = 0.2
	sceneWeight  = 0.2
	objectWeight = 0.2
	textWeight   = 0.2
	motionWeight = 0.2

	frameSaturation  = 100
	sceneSaturation  = 5
	objectSaturation = 10
	textSaturation   = 5
	motionSaturation = 20
)

// Aggregate consumes the full observation stream of one watch call.
func Aggregate(observations []models.FrameObservation, scenes []models.SceneBoundary, duration float64) models.VideoComprehensionResult {
	result := models.VideoComprehensionResult{
		Duration:       duration,
		FramesAnalyzed: len(observations),
		Scenes:         scenes,
	}

	for _, obs := range observations {
		result.ObjectsSeen = append(result.ObjectsSeen, obs.Objects...)

		if obs.TextRegions != nil {
			result.TextFound = append(result.TextFound, models.TextSighting{
				Timestamp:   obs.Timestamp,
				RegionCount: obs.TextRegions.RegionCount,
				Confidence:  obs.TextRegions.Confidence,
			})
		}

		if obs.Motion != nil && obs.Motion.Detected {
			result.MotionEvents = append(result.MotionEvents, *obs.Motion)
		}
	}

	result.VisualSummary = summarize(result)
	result.ComprehensionScore = score(result)
	return result
}

// score sums the saturating per-category sub-scores and divides by the
// weight of the categories that actually observed anything.
func score(r models.VideoComprehensionResult) float64 {
	var total, applicable float64

	if r.FramesAnalyzed > 0 {
		total += saturate(r.FramesAnalyzed, frameSaturation) * frameWeight
		applicable += frameWeight
	}
	if len(r.Scenes) > 0 {
		total += saturate(len(r.Scenes), sceneSaturation) * sceneWeight
		applicable += sceneWeight
	}
	if len(r.ObjectsSeen) > 0 {
		total += saturate(len(r.ObjectsSeen), objectSaturation) * objectWeight
		applicable += objectWeight
	}
	if len(r.TextFound) > 0 {
		total += saturate(len(r.TextFound), textSaturation) * textWeight
		applicable += textWeight
	}
	if len(r.MotionEvents) > 0 {
		total += saturate(len(r.MotionEvents), motionSaturation) * motionWeight
		applicable += motionWeight
	}

	if applicable == 0 {
		return 0
	}
	return total / applicable
}

func saturate(count, saturation int) float64 {
	v := float64(count) / float64(saturation)
	if v > 1 {
		return 1
	}
	return v
}

// summarize builds the deterministic sentence list describing what the
// watch extracted.
func summarize(r models.VideoComprehensionResult) string {
	if r.FramesAnalyzed == 0 {
		return "No frames analyzed."
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("Watched %.1f second video, analyzing %d frames", r.Duration, r.FramesAnalyzed))

	if len(r.Scenes) > 0 {
		parts = append(parts, fmt.Sprintf("Identified %d distinct scenes", len(r.Scenes)))
		for i, s := range r.Scenes {
			if i >= 3 {
				break
			}
			parts = append(parts, fmt.Sprintf("Scene %d at %.1fs: %s", i+1, s.Timestamp, s.Description))
		}
	}

	if len(r.ObjectsSeen) > 0 {
		types := objectTypeHistogram(r.ObjectsSeen)
		parts = append(parts, fmt.Sprintf("Detected %d types of objects: %s", len(types), strings.Join(types, ", ")))
	}

	if len(r.TextFound) > 0 {
		regions := 0
		for _, t := range r.TextFound {
			regions += t.RegionCount
		}
		parts = append(parts, fmt.Sprintf("Found text in %d frames (%d text regions)", len(r.TextFound), regions))
	}

	if len(r.MotionEvents) > 0 {
		intensities := make([]float64, len(r.MotionEvents))
		for i, m := range r.MotionEvents {
			intensities[i] = m.Intensity
		}
		avg := stat.Mean(intensities, nil)
		switch {
		case avg > 0.1:
			parts = append(parts, fmt.Sprintf("High motion content with average intensity %.2f", avg))
		case avg > 0.05:
			parts = append(parts, fmt.Sprintf("Moderate motion with average intensity %.2f", avg))
		default:
			parts = append(parts, fmt.Sprintf("Low motion with average intensity %.2f", avg))
		}
	}

	return strings.Join(parts, ". ") + "."
}

// objectTypeHistogram returns distinct object types in first-seen order.
func objectTypeHistogram(objects []models.ObjectCandidate) []string {
	seen := make(map[string]bool, len(objects))
	var types []string
	for _, o := range objects {
		if !seen[o.Type] {
			seen[o.Type] = true
			types = append(types, o.Type)
		}
	}
	return types
}
