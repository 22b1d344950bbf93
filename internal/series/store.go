// Package series holds long-range per-entity history split into displayed
// and hidden partitions.
package series

import (
	"sort"

	"minetrack/internal/telemetry"
)

// Store keeps every known series in exactly one of two partitions.
// Moving a series between partitions never copies or rebuilds it.
type Store struct {
	displayed map[string][]telemetry.Sample
	hidden    map[string][]telemetry.Sample
}

// New returns an empty store.
func New() *Store {
	return &Store{
		displayed: make(map[string][]telemetry.Sample),
		hidden:    make(map[string][]telemetry.Sample),
	}
}

// IngestHistorySnapshot replaces all series; everything starts displayed.
func (s *Store) IngestHistorySnapshot(seriesByID map[string][]telemetry.Sample) {
	s.displayed = make(map[string][]telemetry.Sample, len(seriesByID))
	s.hidden = make(map[string][]telemetry.Sample)
	for id, samples := range seriesByID {
		s.displayed[id] = append([]telemetry.Sample(nil), samples...)
	}
}

// IngestIncrementalPoint trims the partition holding id to the window
// ending at timestamp and appends the point to id's series. It reports
// false without touching anything when duration is unset or id is unknown.
func (s *Store) IngestIncrementalPoint(id string, timestamp int64, value int, duration int64) bool {
	if duration <= 0 {
		return false
	}
	target := s.displayed
	if _, ok := target[id]; !ok {
		target = s.hidden
		if _, ok := target[id]; !ok {
			return false
		}
	}
	trimPartition(target, timestamp-duration)
	target[id] = append(target[id], telemetry.Sample{Timestamp: timestamp, Value: value})
	return true
}

// trimPartition drops samples older than cutoff from every series in p.
func trimPartition(p map[string][]telemetry.Sample, cutoff int64) {
	for id, samples := range p {
		n := 0
		for _, smp := range samples {
			if smp.Timestamp >= cutoff {
				n++
			}
		}
		if n == len(samples) {
			continue
		}
		kept := make([]telemetry.Sample, 0, n)
		for _, smp := range samples {
			if smp.Timestamp >= cutoff {
				kept = append(kept, smp)
			}
		}
		p[id] = kept
	}
}

// SetVisibility moves id into the displayed (visible) or hidden partition.
// It reports whether the series moved.
func (s *Store) SetVisibility(id string, visible bool) bool {
	from, to := s.displayed, s.hidden
	if visible {
		from, to = s.hidden, s.displayed
	}
	samples, ok := from[id]
	if !ok {
		return false
	}
	to[id] = samples
	delete(from, id)
	return true
}

// SetAllVisibility moves every series into one partition.
func (s *Store) SetAllVisibility(visible bool) {
	from, to := s.displayed, s.hidden
	if visible {
		from, to = s.hidden, s.displayed
	}
	for id, samples := range from {
		to[id] = samples
		delete(from, id)
	}
}

// Visible reports whether id is displayed. Unknown ids are not visible.
func (s *Store) Visible(id string) bool {
	_, ok := s.displayed[id]
	return ok
}

// Known reports whether id is present in either partition.
func (s *Store) Known(id string) bool {
	if _, ok := s.displayed[id]; ok {
		return true
	}
	_, ok := s.hidden[id]
	return ok
}

// Series returns a copy of id's samples from whichever partition holds it.
func (s *Store) Series(id string) ([]telemetry.Sample, bool) {
	if samples, ok := s.displayed[id]; ok {
		return append([]telemetry.Sample(nil), samples...), true
	}
	if samples, ok := s.hidden[id]; ok {
		return append([]telemetry.Sample(nil), samples...), true
	}
	return nil, false
}

// VisibleSeries returns a copy of the displayed partition.
func (s *Store) VisibleSeries() map[string][]telemetry.Sample {
	return copyPartition(s.displayed)
}

// HiddenSeries returns a copy of the hidden partition.
func (s *Store) HiddenSeries() map[string][]telemetry.Sample {
	return copyPartition(s.hidden)
}

// IDs returns every known series id sorted ascending.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.displayed)+len(s.hidden))
	for id := range s.displayed {
		ids = append(ids, id)
	}
	for id := range s.hidden {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func copyPartition(p map[string][]telemetry.Sample) map[string][]telemetry.Sample {
	out := make(map[string][]telemetry.Sample, len(p))
	for id, samples := range p {
		out[id] = append([]telemetry.Sample(nil), samples...)
	}
	return out
}
