package models

import "time"

// Box is a bounding box at analysis resolution, in pixels.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// DominantColor is the coarse color vocabulary used by the analyzer.
type DominantColor string

const (
	ColorRed   DominantColor = "red"
	ColorGreen DominantColor = "green"
	ColorBlue  DominantColor = "blue"
	ColorWhite DominantColor = "white"
	ColorBlack DominantColor = "black"
	ColorMixed DominantColor = "mixed"
)

// MotionInfo describes motion relative to the previously analyzed frame.
type MotionInfo struct {
	Detected  bool    `json:"detected"`
	Intensity float64 `json:"intensity"`
	Regions   []Box   `json:"regions,omitempty"`
}

// TextInfo summarizes text-candidate regions found in one frame. It is a
// coarse proxy for OCR: regions are counted, never read.
type TextInfo struct {
	RegionCount int     `json:"region_count"`
	Confidence  float64 `json:"confidence"`
}

// ObjectCandidate is a heuristically flagged region that plausibly
// contains an object of the given type.
type ObjectCandidate struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// FrameObservation is everything the analyzer extracted from one sampled
// frame. Motion is nil for the first frame of a video; TextRegions is nil
// when no text-candidate region was found. Observations are immutable once
// created.
type FrameObservation struct {
	Timestamp     float64           `json:"timestamp"`
	Brightness    float64           `json:"brightness"`
	DominantColor DominantColor     `json:"dominant_color"`
	Motion        *MotionInfo       `json:"motion,omitempty"`
	TextRegions   *TextInfo         `json:"text_regions,omitempty"`
	Objects       []ObjectCandidate `json:"objects,omitempty"`
	Description   string            `json:"description"`
}

// SceneBoundary marks a timestamp where visual content changed enough to
// start a new scene.
type SceneBoundary struct {
	Timestamp   float64 `json:"timestamp"`
	Description string  `json:"description"`
}

// TextSighting records text-candidate regions seen in one frame, with the
// frame's timestamp.
type TextSighting struct {
	Timestamp   float64 `json:"timestamp"`
	RegionCount int     `json:"region_count"`
	Confidence  float64 `json:"confidence"`
}

// VideoComprehensionResult is the single artifact produced by one watch
// call. It is read-only after aggregation.
type VideoComprehensionResult struct {
	VideoID            string            `json:"video_id"`
	Source             string            `json:"source"`
	Duration           float64           `json:"duration"`
	FramesAnalyzed     int               `json:"frames_analyzed"`
	Scenes             []SceneBoundary   `json:"scenes,omitempty"`
	ObjectsSeen        []ObjectCandidate `json:"objects_seen,omitempty"`
	TextFound          []TextSighting    `json:"text_found,omitempty"`
	MotionEvents       []MotionInfo      `json:"motion_events,omitempty"`
	VisualSummary      string            `json:"visual_summary"`
	ComprehensionScore float64           `json:"comprehension_score"`
	WatchedAt          time.Time         `json:"watched_at"`
}

// VideoSearchResult is one hit from a similarity search over watched
// videos.
type VideoSearchResult struct {
	VideoID    string
	Source     string
	Summary    string
	Similarity float64
}
