package knowledge

import "sort"

// ObjectStat summarizes one tracked object type for reporting.
type ObjectStat struct {
	Type      string `json:"type"`
	Sightings int    `json:"sightings"`
	Videos    int    `json:"videos"`
}

// Status is a read-only view of the store for reporting surfaces.
type Status struct {
	Skills               Skills       `json:"skills"`
	Overall              float64      `json:"overall"`
	VideosWatched        int          `json:"videos_watched"`
	ObjectsTracked       int          `json:"objects_tracked"`
	ConceptsKnown        int          `json:"concepts_known"`
	MostDetectedObjects  []ObjectStat `json:"most_detected_objects"`
	AverageComprehension float64      `json:"average_comprehension"`
}

// Status builds the current report.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		Skills:               s.snap.Skills,
		Overall:              s.snap.Skills.Overall(),
		VideosWatched:        len(s.snap.Videos),
		ObjectsTracked:       len(s.snap.Objects),
		ConceptsKnown:        len(s.snap.Concepts),
		MostDetectedObjects:  s.mostDetectedLocked(5),
		AverageComprehension: s.averageComprehensionLocked(),
	}
}

// MostDetectedObjects returns the n object types with the most
// sightings, descending.
func (s *Store) MostDetectedObjects(n int) []ObjectStat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mostDetectedLocked(n)
}

func (s *Store) mostDetectedLocked(n int) []ObjectStat {
	stats := make([]ObjectStat, 0, len(s.snap.Objects))
	for typ, mem := range s.snap.Objects {
		stats = append(stats, ObjectStat{
			Type:      typ,
			Sightings: mem.TotalSightings,
			Videos:    len(mem.VideosSeenIn),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Sightings != stats[j].Sightings {
			return stats[i].Sightings > stats[j].Sightings
		}
		return stats[i].Type < stats[j].Type
	})
	if n > 0 && len(stats) > n {
		stats = stats[:n]
	}
	return stats
}

// RecentVideos returns the n most recently watched video memories.
func (s *Store) RecentVideos(n int) []VideoMemory {
	s.mu.Lock()
	defer s.mu.Unlock()

	videos := make([]VideoMemory, 0, len(s.snap.Videos))
	for _, v := range s.snap.Videos {
		videos = append(videos, *v)
	}
	sort.Slice(videos, func(i, j int) bool {
		return videos[i].WatchedAt.After(videos[j].WatchedAt)
	})
	if n > 0 && len(videos) > n {
		videos = videos[:n]
	}
	return videos
}

// AverageComprehension is the mean score over every watched video, zero
// when nothing has been watched.
func (s *Store) AverageComprehension() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.averageComprehensionLocked()
}

func (s *Store) averageComprehensionLocked() float64 {
	if len(s.snap.Videos) == 0 {
		return 0
	}
	var total float64
	for _, v := range s.snap.Videos {
		total += v.ComprehensionScore
	}
	return total / float64(len(s.snap.Videos))
}
