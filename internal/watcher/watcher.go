// Package watcher runs the full comprehension pipeline for one video:
// resolve, decode, sample, analyze, segment, aggregate, learn.
package watcher

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/framesight/framesight/internal/aggregate"
	"github.com/framesight/framesight/internal/analyzer"
	"github.com/framesight/framesight/internal/knowledge"
	"github.com/framesight/framesight/internal/models"
	"github.com/framesight/framesight/internal/resolver"
	"github.com/framesight/framesight/internal/sampler"
	"github.com/framesight/framesight/internal/scene"
	"github.com/framesight/framesight/internal/source"
)

// frameBuffer is the capacity of the decode-to-analysis channel. Decode
// is the slow stage; a small buffer keeps it busy without holding many
// frames in memory.
const frameBuffer = 8

// DefaultDurationLimit bounds how many seconds of source video get
// scanned.
const DefaultDurationLimit = 300.0

// Options tune one watch call. Zero values mean defaults.
type Options struct {
	DurationLimit    float64
	SamplesPerSecond int
}

func (o Options) withDefaults() Options {
	if o.DurationLimit <= 0 {
		o.DurationLimit = DefaultDurationLimit
	}
	if o.SamplesPerSecond <= 0 {
		o.SamplesPerSecond = sampler.DefaultSamplesPerSecond
	}
	return o
}

// OpenFunc opens a resolved local path as a frame source.
type OpenFunc func(path string, logger *slog.Logger) (source.FrameSource, error)

// ResultSink receives each completed watch result.
type ResultSink interface {
	SaveResult(ctx context.Context, result models.VideoComprehensionResult) error
}

// Watcher owns the pipeline wiring. It is safe for concurrent Watch
// calls; the knowledge store serializes its own mutation phase.
type Watcher struct {
	resolver *resolver.Resolver
	open     OpenFunc
	analyzer *analyzer.Analyzer
	store    *knowledge.Store
	sink     ResultSink
	logger   *slog.Logger
	now      func() time.Time
}

// New wires a watcher. open defaults to the ffmpeg source; sink may be
// nil.
func New(res *resolver.Resolver, open OpenFunc, an *analyzer.Analyzer, store *knowledge.Store, sink ResultSink, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if res == nil {
		res = resolver.New(logger)
	}
	if open == nil {
		open = func(path string, logger *slog.Logger) (source.FrameSource, error) {
			return source.OpenFFmpeg(path, logger)
		}
	}
	if an == nil {
		an = analyzer.New(analyzer.DefaultConfig(), nil, logger)
	}
	if store == nil {
		store = knowledge.NewStore(nil, logger)
	}
	return &Watcher{
		resolver: res,
		open:     open,
		analyzer: an,
		store:    store,
		sink:     sink,
		logger:   logger,
		now:      time.Now,
	}
}

type sampledFrame struct {
	img image.Image
	ts  float64
}

// Watch analyzes one video to completion and returns its result. Callers
// always get either a complete result (score possibly 0.0) or an
// explicit failure with a zero-frame result; individual bad frames are
// skipped, never surfaced.
func (w *Watcher) Watch(ctx context.Context, ref string, opts Options) (models.VideoComprehensionResult, error) {
	opts = opts.withDefaults()
	videoID := uuid.NewString()

	logger := w.logger.With("video_id", videoID, "source", ref)
	logger.Info("watching video", "duration_limit", opts.DurationLimit)

	path, cleanup, err := w.resolver.Resolve(ctx, ref)
	if err != nil {
		return w.failed(videoID, ref), err
	}
	defer cleanup()

	src, err := w.open(path, logger)
	if err != nil {
		return w.failed(videoID, ref), err
	}
	defer src.Close()

	plan := sampler.New(src.FPS(), src.FrameCount(), opts.DurationLimit, opts.SamplesPerSecond)
	logger.Debug("sampling plan",
		"fps", src.FPS(),
		"stride", plan.Stride,
		"max_frames", plan.MaxFrames)

	frames := make(chan sampledFrame, frameBuffer)
	go w.decode(ctx, src, plan, frames, logger)

	segmenter := scene.NewSegmenter()
	var observations []models.FrameObservation
	var boundaries []models.SceneBoundary
	var previous image.Image

	for f := range frames {
		obs := w.analyzer.Analyze(ctx, f.img, f.ts, previous)
		if boundary, ok := segmenter.Observe(obs); ok {
			boundaries = append(boundaries, boundary)
		}
		observations = append(observations, obs)
		previous = f.img
	}

	if err := ctx.Err(); err != nil {
		return w.failed(videoID, ref), err
	}

	result := aggregate.Aggregate(observations, boundaries, src.Duration())
	result.VideoID = videoID
	result.Source = ref
	result.WatchedAt = w.now()

	w.store.Learn(result)
	if err := w.store.Save(); err != nil {
		logger.Warn("knowledge snapshot not saved", "err", err)
	}
	if w.sink != nil {
		if err := w.sink.SaveResult(ctx, result); err != nil {
			logger.Warn("watch result not saved", "err", err)
		}
	}

	logger.Info("video watching complete",
		"frames_analyzed", result.FramesAnalyzed,
		"scenes", len(result.Scenes),
		"score", result.ComprehensionScore)

	return result, nil
}

// decode pumps sampled frames into out, in order, until the plan window
// closes, the stream ends, or the context is cancelled. Frames that fail
// to decode are skipped and counted.
func (w *Watcher) decode(ctx context.Context, src source.FrameSource, plan sampler.Plan, out chan<- sampledFrame, logger *slog.Logger) {
	defer close(out)

	skipped := 0
	for {
		frame, err := src.Next()
		if errors.Is(err, source.ErrEndOfStream) {
			break
		}
		var decodeErr *source.FrameDecodeError
		if errors.As(err, &decodeErr) {
			skipped++
			continue
		}
		if err != nil {
			logger.Warn("decode stopped early", "err", err)
			break
		}

		if !plan.InRange(frame.Index) {
			break
		}
		if !plan.Take(frame.Index) {
			continue
		}

		select {
		case out <- sampledFrame{img: frame.Image, ts: frame.Timestamp}:
		case <-ctx.Done():
			return
		}
	}

	if skipped > 0 {
		logger.Debug("skipped undecodable frames", "count", skipped)
	}
}

// failed is the zero-frame result returned alongside an explicit error.
func (w *Watcher) failed(videoID, ref string) models.VideoComprehensionResult {
	result := aggregate.Aggregate(nil, nil, 0)
	result.VideoID = videoID
	result.Source = ref
	result.WatchedAt = w.now()
	return result
}

// Store exposes the knowledge store for reporting surfaces.
func (w *Watcher) Store() *knowledge.Store { return w.store }
