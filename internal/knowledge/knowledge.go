// Package knowledge is the long-lived store of what the system has
// learned across videos: object sighting counters, concept strengths,
// and five bounded skill gauges. The store is injected, never ambient;
// its mutation phase is single-writer locked so concurrent watch calls
// cannot lose increments.
package knowledge

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/framesight/framesight/internal/models"
)

// Skill nudge increments per watched video. Gauges only move up and are
// clamped to [0,1]; there is no decay path.
const (
	frameNudge    = 0.01
	categoryNudge = 0.02
	conceptNudge  = 0.05
)

// Skills holds the five bounded proficiency gauges.
type Skills struct {
	FrameAnalysis      float64 `json:"frame_analysis"`
	SceneUnderstanding float64 `json:"scene_understanding"`
	ObjectTracking     float64 `json:"object_tracking"`
	TextRecognition    float64 `json:"text_recognition"`
	MotionDetection    float64 `json:"motion_detection"`
}

// DefaultSkills are the starting gauge values for a fresh store.
func DefaultSkills() Skills {
	return Skills{
		FrameAnalysis:      0.3,
		SceneUnderstanding: 0.4,
		ObjectTracking:     0.2,
		TextRecognition:    0.3,
		MotionDetection:    0.2,
	}
}

// Overall is the mean of the five gauges.
func (s Skills) Overall() float64 {
	return (s.FrameAnalysis + s.SceneUnderstanding + s.ObjectTracking +
		s.TextRecognition + s.MotionDetection) / 5
}

// ObjectMemory tracks one object type across videos. TotalSightings is
// monotonically non-decreasing; VideosSeenIn is deduplicated.
type ObjectMemory struct {
	FirstSeen      time.Time `json:"first_seen"`
	TotalSightings int       `json:"total_sightings"`
	VideosSeenIn   []string  `json:"videos_seen_in"`
}

// ConceptMemory tracks a learned concept with a capped strength.
type ConceptMemory struct {
	Name      string    `json:"name"`
	Strength  float64   `json:"strength"`
	LearnedAt time.Time `json:"learned_at"`
}

// VideoMemory is the per-video record kept after a watch.
type VideoMemory struct {
	VideoID            string    `json:"video_id"`
	Source             string    `json:"source"`
	WatchedAt          time.Time `json:"watched_at"`
	Duration           float64   `json:"duration"`
	FramesAnalyzed     int       `json:"frames_analyzed"`
	ComprehensionScore float64   `json:"comprehension_score"`
	VisualSummary      string    `json:"visual_summary"`
	SceneCount         int       `json:"scene_count"`
	ObjectCount        int       `json:"object_count"`
	TextInstances      int       `json:"text_instances"`
	MotionEvents       int       `json:"motion_events"`
}

// Snapshot is the persistable state of the store.
type Snapshot struct {
	Skills   Skills                    `json:"skills"`
	Objects  map[string]*ObjectMemory  `json:"objects"`
	Concepts map[string]*ConceptMemory `json:"concepts"`
	Videos   map[string]*VideoMemory   `json:"videos"`
	SavedAt  time.Time                 `json:"saved_at"`
}

// NewSnapshot is an empty snapshot with default skills.
func NewSnapshot() Snapshot {
	return Snapshot{
		Skills:   DefaultSkills(),
		Objects:  map[string]*ObjectMemory{},
		Concepts: map[string]*ConceptMemory{},
		Videos:   map[string]*VideoMemory{},
	}
}

// Persister round-trips snapshots through some opaque backend.
type Persister interface {
	Load() (Snapshot, bool, error)
	Save(Snapshot) error
}

// Store is the process-wide knowledge state.
type Store struct {
	mu        sync.Mutex
	snap      Snapshot
	persister Persister
	logger    *slog.Logger
	now       func() time.Time
}

// NewStore builds a store. persister may be nil for an in-memory store.
func NewStore(persister Persister, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		snap:      NewSnapshot(),
		persister: persister,
		logger:    logger,
		now:       time.Now,
	}
}

// Load replaces the in-memory state with the persisted snapshot, if one
// exists. A missing snapshot leaves the defaults in place.
func (s *Store) Load() error {
	if s.persister == nil {
		return nil
	}
	snap, ok, err := s.persister.Load()
	if err != nil {
		return fmt.Errorf("loading knowledge snapshot: %w", err)
	}
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.Objects == nil {
		snap.Objects = map[string]*ObjectMemory{}
	}
	if snap.Concepts == nil {
		snap.Concepts = map[string]*ConceptMemory{}
	}
	if snap.Videos == nil {
		snap.Videos = map[string]*VideoMemory{}
	}
	s.snap = snap
	s.logger.Debug("knowledge snapshot loaded",
		"objects", len(snap.Objects),
		"concepts", len(snap.Concepts),
		"videos", len(snap.Videos))
	return nil
}

// Save persists the current snapshot.
func (s *Store) Save() error {
	if s.persister == nil {
		return nil
	}
	s.mu.Lock()
	snap := s.copySnapshot()
	s.mu.Unlock()

	if err := s.persister.Save(snap); err != nil {
		return fmt.Errorf("saving knowledge snapshot: %w", err)
	}
	return nil
}

// Learn folds one watch result into the store. The whole update is
// atomic with respect to concurrent Learn and Snapshot calls.
func (s *Store) Learn(result models.VideoComprehensionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	for _, obj := range result.ObjectsSeen {
		mem, ok := s.snap.Objects[obj.Type]
		if !ok {
			mem = &ObjectMemory{FirstSeen: now}
			s.snap.Objects[obj.Type] = mem
		}
		mem.TotalSightings++
		if !contains(mem.VideosSeenIn, result.VideoID) {
			mem.VideosSeenIn = append(mem.VideosSeenIn, result.VideoID)
		}
	}

	for _, name := range distinctTypes(result.ObjectsSeen) {
		concept, ok := s.snap.Concepts[name]
		if !ok {
			s.snap.Concepts[name] = &ConceptMemory{
				Name:      name,
				Strength:  conceptNudge,
				LearnedAt: now,
			}
			continue
		}
		concept.Strength = clamp(concept.Strength + conceptNudge)
	}

	if result.FramesAnalyzed > 0 {
		s.snap.Skills.FrameAnalysis = clamp(s.snap.Skills.FrameAnalysis + frameNudge)
	}
	if len(result.Scenes) > 0 {
		s.snap.Skills.SceneUnderstanding = clamp(s.snap.Skills.SceneUnderstanding + categoryNudge)
	}
	if len(result.ObjectsSeen) > 0 {
		s.snap.Skills.ObjectTracking = clamp(s.snap.Skills.ObjectTracking + categoryNudge)
	}
	if len(result.TextFound) > 0 {
		s.snap.Skills.TextRecognition = clamp(s.snap.Skills.TextRecognition + categoryNudge)
	}
	if len(result.MotionEvents) > 0 {
		s.snap.Skills.MotionDetection = clamp(s.snap.Skills.MotionDetection + categoryNudge)
	}

	s.snap.Videos[result.VideoID] = &VideoMemory{
		VideoID:            result.VideoID,
		Source:             result.Source,
		WatchedAt:          result.WatchedAt,
		Duration:           result.Duration,
		FramesAnalyzed:     result.FramesAnalyzed,
		ComprehensionScore: result.ComprehensionScore,
		VisualSummary:      result.VisualSummary,
		SceneCount:         len(result.Scenes),
		ObjectCount:        len(result.ObjectsSeen),
		TextInstances:      len(result.TextFound),
		MotionEvents:       len(result.MotionEvents),
	}

	s.logger.Debug("learned from video",
		"video_id", result.VideoID,
		"score", result.ComprehensionScore,
		"objects", len(result.ObjectsSeen))
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copySnapshot()
}

func (s *Store) copySnapshot() Snapshot {
	snap := Snapshot{
		Skills:   s.snap.Skills,
		Objects:  make(map[string]*ObjectMemory, len(s.snap.Objects)),
		Concepts: make(map[string]*ConceptMemory, len(s.snap.Concepts)),
		Videos:   make(map[string]*VideoMemory, len(s.snap.Videos)),
		SavedAt:  s.now(),
	}
	for k, v := range s.snap.Objects {
		cp := *v
		cp.VideosSeenIn = append([]string(nil), v.VideosSeenIn...)
		snap.Objects[k] = &cp
	}
	for k, v := range s.snap.Concepts {
		cp := *v
		snap.Concepts[k] = &cp
	}
	for k, v := range s.snap.Videos {
		cp := *v
		snap.Videos[k] = &cp
	}
	return snap
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func distinctTypes(objects []models.ObjectCandidate) []string {
	seen := make(map[string]bool, len(objects))
	var types []string
	for _, o := range objects {
		if !seen[o.Type] {
			seen[o.Type] = true
			types = append(types, o.Type)
		}
	}
	sort.Strings(types)
	return types
}
