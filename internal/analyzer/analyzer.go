// Package analyzer extracts structured observations from single video
// frames: brightness, dominant color, motion against the previous frame,
// text-candidate regions, and optional object detections. All heuristics
// are deterministic given the frame bytes and the config.
package analyzer

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/framesight/framesight/internal/models"
)

// Analyzer turns raw frames into FrameObservations. It is stateless
// across frames; the previous frame is passed in by the caller so motion
// work stays explicit.
type Analyzer struct {
	cfg      Config
	detector Detector
	logger   *slog.Logger
}

// New builds an analyzer. detector may be nil.
func New(cfg Config, detector Detector, logger *slog.Logger) *Analyzer {
	if cfg.ResolutionScale <= 0 || cfg.ResolutionScale > 1 {
		cfg.ResolutionScale = DefaultConfig().ResolutionScale
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{cfg: cfg, detector: detector, logger: logger}
}

// Analyze produces the observation for frame at timestamp. previous is
// the raw previous sampled frame, nil for the first frame of a video.
// Sub-analysis failures degrade to empty sub-results; Analyze itself
// never fails.
func (a *Analyzer) Analyze(ctx context.Context, frame image.Image, timestamp float64, previous image.Image) models.FrameObservation {
	r := newRaster(frame, a.cfg.ResolutionScale)

	obs := models.FrameObservation{
		Timestamp:     timestamp,
		Brightness:    r.brightness(),
		DominantColor: dominantColor(r.meanR, r.meanG, r.meanB),
	}

	if previous != nil {
		prev := newRaster(previous, a.cfg.ResolutionScale)
		motion := detectMotion(r, prev, a.cfg)
		obs.Motion = &motion
	}

	if candidates := findTextCandidates(r, a.cfg); len(candidates) > 0 {
		obs.TextRegions = &models.TextInfo{
			RegionCount: len(candidates),
			Confidence:  textConfidence,
		}
	}

	if a.detector != nil {
		objects, err := a.detector.Detect(ctx, frame, timestamp)
		if err != nil {
			// Degraded, not fatal: the observation simply carries no
			// object candidates.
			a.logger.Debug("object detection degraded", "timestamp", timestamp, "err", err)
		} else {
			obs.Objects = objects
		}
	}

	obs.Description = describe(obs)
	return obs
}

// dominantColor maps mean channel intensities onto the fixed vocabulary.
// A strictly dominant channel wins; otherwise near-saturated frames are
// white, near-dark frames black, everything else mixed.
func dominantColor(r, g, b float64) models.DominantColor {
	switch {
	case r > g && r > b:
		return models.ColorRed
	case g > r && g > b:
		return models.ColorGreen
	case b > r && b > g:
		return models.ColorBlue
	case r > 150 && g > 150 && b > 150:
		return models.ColorWhite
	case r < 50 && g < 50 && b < 50:
		return models.ColorBlack
	default:
		return models.ColorMixed
	}
}

// describe builds the deterministic frame description from qualitative
// buckets of the observation.
func describe(obs models.FrameObservation) string {
	var parts []string

	switch {
	case obs.Brightness > 0.7:
		parts = append(parts, "bright scene")
	case obs.Brightness < 0.3:
		parts = append(parts, "dark scene")
	default:
		parts = append(parts, "moderately lit scene")
	}

	if n := len(uniqueObjectTypes(obs.Objects)); n == 1 {
		parts = append(parts, fmt.Sprintf("containing %s", uniqueObjectTypes(obs.Objects)[0]))
	} else if n > 1 {
		parts = append(parts, fmt.Sprintf("containing %d different objects", n))
	}

	parts = append(parts, fmt.Sprintf("with %s tones", obs.DominantColor))

	if obs.TextRegions != nil {
		parts = append(parts, "with visible text")
	}

	if obs.Motion != nil && obs.Motion.Detected {
		if obs.Motion.Intensity > 0.1 {
			parts = append(parts, "with significant movement")
		} else {
			parts = append(parts, "with subtle movement")
		}
	}

	return strings.Join(parts, ", ")
}

// uniqueObjectTypes returns the distinct candidate types in first-seen
// order.
func uniqueObjectTypes(objects []models.ObjectCandidate) []string {
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
