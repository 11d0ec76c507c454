package analyzer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"github.com/framesight/framesight/internal/models"
)

func solidFrame(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

func testAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	return New(DefaultConfig(), nil, nil)
}

func TestBrightnessOfSolidFrames(t *testing.T) {
	a := testAnalyzer(t)
	ctx := context.Background()

	dark := a.Analyze(ctx, solidFrame(64, 48, color.RGBA{0, 0, 0, 255}), 0, nil)
	if dark.Brightness > 0.02 {
		t.Fatalf("black frame brightness = %v, want ~0", dark.Brightness)
	}

	bright := a.Analyze(ctx, solidFrame(64, 48, color.RGBA{255, 255, 255, 255}), 0, nil)
	if bright.Brightness < 0.98 {
		t.Fatalf("white frame brightness = %v, want ~1", bright.Brightness)
	}
}

func TestDominantColorVocabulary(t *testing.T) {
	a := testAnalyzer(t)
	ctx := context.Background()

	cases := []struct {
		fill color.RGBA
		want models.DominantColor
	}{
		{color.RGBA{200, 30, 30, 255}, models.ColorRed},
		{color.RGBA{30, 200, 30, 255}, models.ColorGreen},
		{color.RGBA{30, 30, 200, 255}, models.ColorBlue},
		{color.RGBA{220, 220, 220, 255}, models.ColorWhite},
		{color.RGBA{10, 10, 10, 255}, models.ColorBlack},
		{color.RGBA{100, 100, 100, 255}, models.ColorMixed},
	}

	for _, tc := range cases {
		obs := a.Analyze(ctx, solidFrame(64, 48, tc.fill), 0, nil)
		if obs.DominantColor != tc.want {
			t.Fatalf("fill %v: dominant color = %q, want %q", tc.fill, obs.DominantColor, tc.want)
		}
	}
}

func TestFirstFrameHasNoMotion(t *testing.T) {
	a := testAnalyzer(t)

	obs := a.Analyze(context.Background(), solidFrame(64, 48, color.RGBA{0, 0, 0, 255}), 0, nil)
	if obs.Motion != nil {
		t.Fatalf("first frame motion = %+v, want nil", obs.Motion)
	}
}

func TestMotionBetweenIdenticalFramesIsZero(t *testing.T) {
	a := testAnalyzer(t)
	frame := solidFrame(64, 48, color.RGBA{128, 128, 128, 255})

	obs := a.Analyze(context.Background(), frame, 0.5, frame)
	if obs.Motion == nil {
		t.Fatal("expected motion info for a non-first frame")
	}
	if obs.Motion.Detected {
		t.Fatal("identical frames must not detect motion")
	}
	if obs.Motion.Intensity != 0 {
		t.Fatalf("identical frames motion intensity = %v, want 0", obs.Motion.Intensity)
	}
}

func TestMotionHalfChangedFrame(t *testing.T) {
	a := testAnalyzer(t)

	previous := solidFrame(64, 48, color.RGBA{0, 0, 0, 255})
	current := solidFrame(64, 48, color.RGBA{0, 0, 0, 255})
	left := image.Rect(0, 0, 32, 48)
	draw.Draw(current, left, &image.Uniform{color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

	obs := a.Analyze(context.Background(), current, 0.5, previous)
	if obs.Motion == nil || !obs.Motion.Detected {
		t.Fatalf("expected motion detected, got %+v", obs.Motion)
	}
	if obs.Motion.Intensity < 0.4 || obs.Motion.Intensity > 0.6 {
		t.Fatalf("half-changed frame intensity = %v, want ~0.5", obs.Motion.Intensity)
	}
	if len(obs.Motion.Regions) == 0 {
		t.Fatal("expected at least one motion region")
	}
}

func TestTextCandidateEnvelope(t *testing.T) {
	// Scale 1 so the envelope applies at source resolution.
	cfg := DefaultConfig()
	cfg.ResolutionScale = 1
	a := New(cfg, nil, nil)

	frame := solidFrame(200, 100, color.RGBA{128, 128, 128, 255})
	bar := image.Rect(50, 40, 90, 56) // 40x16, text-shaped
	draw.Draw(frame, bar, &image.Uniform{color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

	obs := a.Analyze(context.Background(), frame, 0, nil)
	if obs.TextRegions == nil {
		t.Fatal("expected text-candidate regions for a text-shaped bar")
	}
	if obs.TextRegions.RegionCount < 1 {
		t.Fatalf("region count = %d, want >= 1", obs.TextRegions.RegionCount)
	}
	if obs.TextRegions.Confidence != textConfidence {
		t.Fatalf("confidence = %v, want %v", obs.TextRegions.Confidence, textConfidence)
	}
}

func TestUniformFrameHasNoTextCandidates(t *testing.T) {
	a := testAnalyzer(t)

	obs := a.Analyze(context.Background(), solidFrame(200, 100, color.RGBA{128, 128, 128, 255}), 0, nil)
	if obs.TextRegions != nil {
		t.Fatalf("uniform frame text regions = %+v, want nil", obs.TextRegions)
	}
}

func TestNilDetectorYieldsNoObjects(t *testing.T) {
	a := testAnalyzer(t)

	obs := a.Analyze(context.Background(), solidFrame(64, 48, color.RGBA{0, 0, 0, 255}), 0, nil)
	if len(obs.Objects) != 0 {
		t.Fatalf("objects = %v, want none without a detector", obs.Objects)
	}
}

func TestDetectorFailureDegradesToNoObjects(t *testing.T) {
	failing := DetectorFunc(func(context.Context, image.Image, float64) ([]models.ObjectCandidate, error) {
		return nil, fmt.Errorf("detector offline")
	})
	a := New(DefaultConfig(), failing, nil)

	obs := a.Analyze(context.Background(), solidFrame(64, 48, color.RGBA{0, 0, 0, 255}), 0, nil)
	if len(obs.Objects) != 0 {
		t.Fatalf("objects = %v, want none when the detector fails", obs.Objects)
	}
	if obs.Description == "" {
		t.Fatal("observation must still carry a description")
	}
}

func TestDescriptionBuckets(t *testing.T) {
	a := testAnalyzer(t)
	ctx := context.Background()

	dark := a.Analyze(ctx, solidFrame(64, 48, color.RGBA{10, 10, 10, 255}), 0, nil)
	if !strings.Contains(dark.Description, "dark scene") {
		t.Fatalf("description %q missing brightness bucket", dark.Description)
	}
	if !strings.Contains(dark.Description, "with black tones") {
		t.Fatalf("description %q missing color bucket", dark.Description)
	}

	previous := solidFrame(64, 48, color.RGBA{0, 0, 0, 255})
	moving := a.Analyze(ctx, solidFrame(64, 48, color.RGBA{255, 255, 255, 255}), 0.5, previous)
	if !strings.Contains(moving.Description, "with significant movement") {
		t.Fatalf("description %q missing motion bucket", moving.Description)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	a := testAnalyzer(t)
	ctx := context.Background()

	previous := solidFrame(64, 48, color.RGBA{0, 0, 0, 255})
	frame := solidFrame(64, 48, color.RGBA{200, 60, 30, 255})

	first := a.Analyze(ctx, frame, 1.5, previous)
	second := a.Analyze(ctx, frame, 1.5, previous)

	if first.Brightness != second.Brightness ||
		first.DominantColor != second.DominantColor ||
		first.Description != second.Description ||
		first.Motion.Intensity != second.Motion.Intensity {
		t.Fatalf("repeated analysis differs: %+v vs %+v", first, second)
	}
}
