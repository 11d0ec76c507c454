package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpegSource decodes a local video file through an ffmpeg MJPEG pipe.
// Metadata comes from a single ffprobe call up front.
type FFmpegSource struct {
	path   string
	logger *slog.Logger

	fps        float64
	frameCount int
	duration   float64

	cmd    *exec.Cmd
	stdout io.ReadCloser
	reader *bufio.Reader
	index  int
	closed bool
}

type probeStream struct {
	AvgFrameRate string `json:"avg_frame_rate"`
	NBFrames     string `json:"nb_frames"`
	Duration     string `json:"duration"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// OpenFFmpeg opens path for sequential decoding. It fails with
// ErrUnreadableSource when the file is missing or ffprobe cannot read a
// video stream from it.
func OpenFFmpeg(path string, logger *slog.Logger) (*FFmpegSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnreadableSource, path)
	}

	s := &FFmpegSource{path: path, logger: logger}
	if err := s.probe(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableSource, err)
	}

	cmd := exec.Command(
		"ffmpeg",
		"-i", path,
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "4",
		"-",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableSource, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg: %v", ErrUnreadableSource, err)
	}

	s.cmd = cmd
	s.stdout = stdout
	s.reader = bufio.NewReaderSize(stdout, 1<<20)

	logger.Debug("opened video source",
		"path", path,
		"fps", s.fps,
		"frames", s.frameCount,
		"duration", s.duration)

	return s, nil
}

func (s *FFmpegSource) probe() error {
	cmd := exec.Command(
		"ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=avg_frame_rate,nb_frames,duration",
		"-show_entries", "format=duration",
		"-of", "json",
		s.path,
	)
	out, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("ffprobe: %v", err)
	}

	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return fmt.Errorf("ffprobe output: %v", err)
	}
	if len(probe.Streams) == 0 {
		return fmt.Errorf("no video stream in %s", s.path)
	}

	st := probe.Streams[0]
	s.fps = parseFrameRate(st.AvgFrameRate)
	s.frameCount, _ = strconv.Atoi(st.NBFrames)

	if d, err := strconv.ParseFloat(st.Duration, 64); err == nil {
		s.duration = d
	} else if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		s.duration = d
	}

	// Some containers omit nb_frames; estimate from duration when we can.
	if s.frameCount == 0 && s.fps > 0 && s.duration > 0 {
		s.frameCount = int(s.duration * s.fps)
	}
	return nil
}

// parseFrameRate handles ffprobe's "30000/1001" rational notation.
func parseFrameRate(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if num, den, ok := strings.Cut(raw, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0
		}
		return n / d
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return f
}

// Next reads one JPEG frame off the pipe and decodes it.
func (s *FFmpegSource) Next() (Frame, error) {
	if s.closed {
		return Frame{}, ErrEndOfStream
	}

	data, err := readJPEG(s.reader)
	if err == io.EOF {
		return Frame{}, ErrEndOfStream
	}
	if err != nil {
		// The stream position still moved past one frame's worth of
		// bytes; advance so later frames keep their own timestamps.
		idx := s.index
		s.index++
		return Frame{}, &FrameDecodeError{FrameIndex: idx, Err: err}
	}

	idx := s.index
	s.index++

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return Frame{}, &FrameDecodeError{FrameIndex: idx, Err: err}
	}

	return Frame{
		Image:     img,
		Index:     idx,
		Timestamp: timestampFor(idx, s.fps),
	}, nil
}

func (s *FFmpegSource) FPS() float64 { return s.fps }

func (s *FFmpegSource) FrameCount() int { return s.frameCount }

func (s *FFmpegSource) Duration() float64 { return s.duration }

// Close stops the decoder. Safe to call after ErrEndOfStream or to abandon
// a partially read stream.
func (s *FFmpegSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.stdout.Close()
	if err := s.cmd.Wait(); err != nil {
		// ffmpeg exits non-zero when its pipe is closed early.
		s.logger.Debug("ffmpeg exited", "err", err)
	}
	return nil
}

// readJPEG scans the MJPEG byte stream for one SOI..EOI image. ffmpeg
// writes frames back to back with no framing beyond the JPEG markers.
func readJPEG(r *bufio.Reader) ([]byte, error) {
	// Seek the SOI marker.
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b != 0xFF {
			continue
		}
		next, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if next == 0xD8 {
			break
		}
		if err := r.UnreadByte(); err != nil {
			return nil, err
		}
	}

	buf := make([]byte, 0, 64*1024)
	buf = append(buf, 0xFF, 0xD8)

	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		buf = append(buf, b)
		if b != 0xFF {
			continue
		}
		next, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		buf = append(buf, next)
		if next == 0xD9 {
			return buf, nil
		}
	}
}
