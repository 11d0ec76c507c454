package watcher

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/framesight/framesight/internal/knowledge"
	"github.com/framesight/framesight/internal/models"
	"github.com/framesight/framesight/internal/source"
)

func solidFrame(level uint8) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{level, level, level, 255}}, image.Point{}, draw.Src)
	return img
}

// localRef creates a file on disk so the resolver accepts the reference;
// the fake opener ignores its content.
func localRef(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("fixture"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func sliceOpener(frames []image.Image, fps float64) OpenFunc {
	return func(string, *slog.Logger) (source.FrameSource, error) {
		return source.NewSliceSource(frames, fps), nil
	}
}

type captureSink struct {
	results []models.VideoComprehensionResult
}

func (c *captureSink) SaveResult(_ context.Context, r models.VideoComprehensionResult) error {
	c.results = append(c.results, r)
	return nil
}

func TestWatchAllBlackVideo(t *testing.T) {
	// 10 seconds at 10fps, sampled at 2/sec: 20 frames analyzed, no
	// scenes, and only the frame category applies to the score.
	frames := make([]image.Image, 100)
	for i := range frames {
		frames[i] = solidFrame(0)
	}

	store := knowledge.NewStore(nil, nil)
	sink := &captureSink{}
	w := New(nil, sliceOpener(frames, 10), nil, store, sink, nil)

	result, err := w.Watch(context.Background(), localRef(t), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.FramesAnalyzed != 20 {
		t.Fatalf("frames analyzed = %d, want 20", result.FramesAnalyzed)
	}
	if len(result.Scenes) != 0 {
		t.Fatalf("scenes = %v, want none", result.Scenes)
	}
	if math.Abs(result.ComprehensionScore-0.2) > 1e-9 {
		t.Fatalf("score = %v, want 0.2", result.ComprehensionScore)
	}
	if result.Duration != 10 {
		t.Fatalf("duration = %v, want 10", result.Duration)
	}
	if result.VideoID == "" {
		t.Fatal("result must carry a video id")
	}
	if len(sink.results) != 1 {
		t.Fatalf("sink received %d results, want 1", len(sink.results))
	}
}

func TestWatchUpdatesKnowledge(t *testing.T) {
	frames := make([]image.Image, 40)
	for i := range frames {
		frames[i] = solidFrame(0)
	}

	store := knowledge.NewStore(nil, nil)
	before := store.Snapshot().Skills
	w := New(nil, sliceOpener(frames, 10), nil, store, nil, nil)

	result, err := w.Watch(context.Background(), localRef(t), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := store.Snapshot()
	if snap.Videos[result.VideoID] == nil {
		t.Fatal("watch result not recorded in the knowledge store")
	}
	after := snap.Skills
	if after.FrameAnalysis <= before.FrameAnalysis {
		t.Fatal("frame analysis gauge did not move after a watch")
	}
	if after.SceneUnderstanding != before.SceneUnderstanding {
		t.Fatal("scene gauge moved without any scenes")
	}
}

func TestWatchAlternatingBrightness(t *testing.T) {
	// Frames flip between black and white every frame at 2fps with
	// 2 samples/sec, so every sampled pair alternates: each flip is a
	// brightness jump plus a motion jump, which is a scene boundary.
	frames := make([]image.Image, 10)
	for i := range frames {
		if i%2 == 0 {
			frames[i] = solidFrame(0)
		} else {
			frames[i] = solidFrame(255)
		}
	}

	w := New(nil, sliceOpener(frames, 2), nil, nil, nil, nil)
	result, err := w.Watch(context.Background(), localRef(t), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Scenes) == 0 {
		t.Fatal("expected scene boundaries at brightness alternations")
	}
	for i := 1; i < len(result.Scenes); i++ {
		if result.Scenes[i].Timestamp <= result.Scenes[i-1].Timestamp {
			t.Fatalf("scene timestamps not strictly increasing: %v", result.Scenes)
		}
	}
	if len(result.MotionEvents) == 0 {
		t.Fatal("expected motion events at brightness alternations")
	}
	for _, m := range result.MotionEvents {
		if m.Intensity <= 0 {
			t.Fatalf("motion event with zero intensity: %+v", m)
		}
	}
}

// flakySource fails to decode the frames listed in bad, like a stream
// with corrupt regions.
type flakySource struct {
	frames []image.Image
	fps    float64
	index  int
	bad    map[int]bool
}

func (s *flakySource) Next() (source.Frame, error) {
	if s.index >= len(s.frames) {
		return source.Frame{}, source.ErrEndOfStream
	}
	idx := s.index
	s.index++
	if s.bad[idx] {
		return source.Frame{}, &source.FrameDecodeError{FrameIndex: idx, Err: errors.New("corrupt frame")}
	}
	return source.Frame{Image: s.frames[idx], Index: idx, Timestamp: float64(idx) / s.fps}, nil
}

func (s *flakySource) FPS() float64      { return s.fps }
func (s *flakySource) FrameCount() int   { return len(s.frames) }
func (s *flakySource) Duration() float64 { return float64(len(s.frames)) / s.fps }
func (s *flakySource) Close() error      { return nil }

func TestWatchSkipsUndecodableFrames(t *testing.T) {
	// 40 frames at 10fps, stride 5: frames 0,5,...,35 are sampled. Frame 5
	// fails to decode, so 7 of the 8 sampled frames are analyzed and the
	// watch still completes without error.
	frames := make([]image.Image, 40)
	for i := range frames {
		frames[i] = solidFrame(0)
	}
	open := func(string, *slog.Logger) (source.FrameSource, error) {
		return &flakySource{frames: frames, fps: 10, bad: map[int]bool{5: true}}, nil
	}

	sink := &captureSink{}
	w := New(nil, open, nil, nil, sink, nil)
	result, err := w.Watch(context.Background(), localRef(t), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.FramesAnalyzed != 7 {
		t.Fatalf("frames analyzed = %d, want 7", result.FramesAnalyzed)
	}
	if result.Duration != 4 {
		t.Fatalf("duration = %v, want 4", result.Duration)
	}
	if len(sink.results) != 1 {
		t.Fatalf("sink received %d results, want 1", len(sink.results))
	}
}

func TestWatchUnreadableSource(t *testing.T) {
	open := func(string, *slog.Logger) (source.FrameSource, error) {
		return nil, source.ErrUnreadableSource
	}

	w := New(nil, open, nil, nil, nil, nil)
	result, err := w.Watch(context.Background(), localRef(t), Options{})

	if !errors.Is(err, source.ErrUnreadableSource) {
		t.Fatalf("expected ErrUnreadableSource, got %v", err)
	}
	if result.FramesAnalyzed != 0 {
		t.Fatalf("frames analyzed = %d, want 0 on failure", result.FramesAnalyzed)
	}
	if result.VisualSummary == "" {
		t.Fatal("failure result must still carry a summary")
	}
}

func TestWatchUnresolvableReference(t *testing.T) {
	w := New(nil, sliceOpener(nil, 10), nil, nil, nil, nil)

	_, err := w.Watch(context.Background(), filepath.Join(t.TempDir(), "missing"), Options{})
	if err == nil {
		t.Fatal("expected an error for an unresolvable reference")
	}
}

func TestWatchDurationLimit(t *testing.T) {
	frames := make([]image.Image, 100)
	for i := range frames {
		frames[i] = solidFrame(0)
	}

	w := New(nil, sliceOpener(frames, 10), nil, nil, nil, nil)
	result, err := w.Watch(context.Background(), localRef(t), Options{DurationLimit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 2 seconds at 10fps caps the scan at 20 frames; stride 5 samples 4.
	if result.FramesAnalyzed != 4 {
		t.Fatalf("frames analyzed = %d, want 4", result.FramesAnalyzed)
	}
}

func TestWatchHonoursCancellation(t *testing.T) {
	frames := make([]image.Image, 100)
	for i := range frames {
		frames[i] = solidFrame(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := New(nil, sliceOpener(frames, 10), nil, nil, nil, nil)
	_, err := w.Watch(ctx, localRef(t), Options{})
	if err == nil {
		t.Fatal("expected an error from a cancelled context")
	}
}

func TestWatchScoreAlwaysInUnitInterval(t *testing.T) {
	variants := [][]image.Image{
		nil,
		{solidFrame(0)},
		{solidFrame(0), solidFrame(255), solidFrame(0), solidFrame(255)},
	}

	for i, frames := range variants {
		w := New(nil, sliceOpener(frames, 2), nil, nil, nil, nil)
		result, err := w.Watch(context.Background(), localRef(t), Options{})
		if err != nil {
			t.Fatalf("variant %d: unexpected error: %v", i, err)
		}
		if result.ComprehensionScore < 0 || result.ComprehensionScore > 1 {
			t.Fatalf("variant %d: score = %v, want within [0,1]", i, result.ComprehensionScore)
		}
	}
}
