// Package source provides sequential frame access to a decodable video.
// A FrameSource owns its decode cursor exclusively; it is not safe to
// share one source across concurrent consumers.
package source

import (
	"errors"
	"fmt"
	"image"
)

// ErrUnreadableSource means the handle could not be opened for decoding.
// It is fatal for the watch call; there is no retry path.
var ErrUnreadableSource = errors.New("source is not readable as video")

// ErrEndOfStream is returned by Next when the cursor is exhausted.
var ErrEndOfStream = errors.New("end of stream")

// FrameDecodeError marks a single frame that could not be decoded. The
// caller skips the frame and continues; it never aborts the watch.
type FrameDecodeError struct {
	FrameIndex int
	Err        error
}

func (e *FrameDecodeError) Error() string {
	return fmt.Sprintf("frame %d: decode failed: %v", e.FrameIndex, e.Err)
}

func (e *FrameDecodeError) Unwrap() error { return e.Err }

// Frame is one decoded still image with its position in the video.
type Frame struct {
	Image     image.Image
	Index     int
	Timestamp float64
}

// FrameSource yields frames in order until ErrEndOfStream.
type FrameSource interface {
	// Next returns the next frame. A *FrameDecodeError is recoverable:
	// the cursor has advanced past the bad frame and Next may be called
	// again.
	Next() (Frame, error)

	// FPS is the source frame rate; zero when the container metadata is
	// unusable.
	FPS() float64

	// FrameCount is the total number of frames, zero when unknown.
	FrameCount() int

	// Duration is the video length in seconds, zero when unknown.
	Duration() float64

	Close() error
}

// SliceSource serves frames from memory. It backs tests and synthetic
// pipelines.
type SliceSource struct {
	frames []image.Image
	fps    float64
	pos    int
}

// NewSliceSource wraps frames at the given frame rate.
func NewSliceSource(frames []image.Image, fps float64) *SliceSource {
	return &SliceSource{frames: frames, fps: fps}
}

func (s *SliceSource) Next() (Frame, error) {
	if s.pos >= len(s.frames) {
		return Frame{}, ErrEndOfStream
	}
	idx := s.pos
	s.pos++
	return Frame{
		Image:     s.frames[idx],
		Index:     idx,
		Timestamp: timestampFor(idx, s.fps),
	}, nil
}

func (s *SliceSource) FPS() float64 { return s.fps }

func (s *SliceSource) FrameCount() int { return len(s.frames) }

func (s *SliceSource) Duration() float64 {
	if s.fps <= 0 {
		return 0
	}
	return float64(len(s.frames)) / s.fps
}

func (s *SliceSource) Close() error { return nil }

// timestampFor maps a frame index to seconds. With corrupt fps metadata
// the index itself is used so timestamps stay strictly increasing.
func timestampFor(index int, fps float64) float64 {
	if fps <= 0 {
		return float64(index)
	}
	return float64(index) / fps
}
