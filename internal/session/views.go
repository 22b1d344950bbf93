package session

import (
	"time"

	"minetrack/internal/aggregate"
	"minetrack/internal/registry"
	"minetrack/internal/telemetry"
)

// EntityView is one row of the entity table.
type EntityView struct {
	Rank    int    `json:"rank"`
	ID      string `json:"id"`
	IP      string `json:"ip"`
	Type    string `json:"type"`
	Players int    `json:"players"`
	Status  string `json:"status"`
	Trend   string `json:"trend,omitempty"`
	Online  bool   `json:"online"`
	Visible bool   `json:"visible"`
}

// SeriesControl is one graph checkbox.
type SeriesControl struct {
	ID      string `json:"id"`
	Visible bool   `json:"visible"`
}

// Summary is the dashboard header.
type Summary struct {
	SessionID     string          `json:"session_id"`
	Status        string          `json:"status"`
	Level         aggregate.Level `json:"status_level"`
	Message       string          `json:"message"`
	TotalPlayers  int             `json:"total_players"`
	KnownEntities int             `json:"known_entities"`
	RankedAt      time.Time       `json:"ranked_at,omitzero"`
	HealthAt      time.Time       `json:"health_at,omitzero"`
}

// TotalPlayers sums the last known count of every entity.
func (in *Ingestor) TotalPlayers() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.sess.registry.TotalPlayers()
}

// KnownEntityCount is the number of entities with a recorded count.
func (in *Ingestor) KnownEntityCount() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.sess.registry.KnownEntityCount()
}

// Ranking returns the ranking as of the last recomputation.
func (in *Ingestor) Ranking() []aggregate.Ranked {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return append([]aggregate.Ranked(nil), in.sess.ranking...)
}

// VisibleSeries returns a copy of the displayed series.
func (in *Ingestor) VisibleSeries() map[string][]telemetry.Sample {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.sess.store.VisibleSeries()
}

// HiddenSeries returns a copy of the hidden series.
func (in *Ingestor) HiddenSeries() map[string][]telemetry.Sample {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.sess.store.HiddenSeries()
}

// Series returns one entity's history whether displayed or hidden.
func (in *Ingestor) Series(id string) (samples []telemetry.Sample, visible, ok bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	store := in.sess.store
	if !store.Known(id) {
		return nil, false, false
	}
	samples, _ = store.Series(id)
	return samples, store.Visible(id), true
}

// Health returns the last classification; ok is false until a service
// payload has been seen in this session.
func (in *Ingestor) Health() (aggregate.Health, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.sess.health, in.sess.haveServices
}

// GraphDuration returns the graph window in milliseconds, 0 if unset.
func (in *Ingestor) GraphDuration() int64 {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.sess.graphDuration
}

// SetVisibility shows or hides one series. It reports whether anything moved.
func (in *Ingestor) SetVisibility(id string, visible bool) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.sess.store.SetVisibility(id, visible)
}

// SetAllVisibility shows or hides every series.
func (in *Ingestor) SetAllVisibility(visible bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.sess.store.SetAllVisibility(visible)
}

// SeriesControls lists every series id in ascending order with its visibility.
func (in *Ingestor) SeriesControls() []SeriesControl {
	in.mu.RLock()
	defer in.mu.RUnlock()
	store := in.sess.store
	ids := store.IDs()
	out := make([]SeriesControl, len(ids))
	for i, id := range ids {
		out[i] = SeriesControl{ID: id, Visible: store.Visible(id)}
	}
	return out
}

// Entities returns table rows in ranking order. Entities registered since
// the last ranking follow in registration order without a rank.
func (in *Ingestor) Entities() []EntityView {
	in.mu.RLock()
	defer in.mu.RUnlock()
	s := in.sess
	reg := s.registry

	out := make([]EntityView, 0, reg.KnownEntityCount())
	seen := make(map[string]bool, len(s.ranking))
	add := func(id string, rank int) {
		ent, ok := reg.Entity(id)
		if !ok {
			return
		}
		seen[id] = true
		v := EntityView{
			Rank:    rank,
			ID:      id,
			IP:      ent.Info.IP,
			Type:    ent.Info.Type,
			Players: ent.Latest.Players(),
			Status:  reg.StatusText(id),
			Online:  ent.HasSnapshot() && ent.Latest.OK(),
			Visible: s.store.Visible(id),
		}
		if d, ok := reg.Trend(id); ok && ent.Latest.OK() {
			v.Trend = registry.FormatTrend(d)
		}
		out = append(out, v)
	}
	for _, r := range s.ranking {
		add(r.ID, r.Rank)
	}
	for _, c := range reg.Counts() {
		if !seen[c.ID] {
			add(c.ID, 0)
		}
	}
	return out
}

// Summary returns the header state.
func (in *Ingestor) Summary() Summary {
	in.mu.RLock()
	defer in.mu.RUnlock()
	s := in.sess
	sum := Summary{
		SessionID:     s.id,
		Status:        s.status.String(),
		TotalPlayers:  s.registry.TotalPlayers(),
		KnownEntities: s.registry.KnownEntityCount(),
		RankedAt:      s.rankedAt,
		HealthAt:      s.healthAt,
		Level:         aggregate.LevelUnknown,
	}
	switch s.status {
	case StatusLoading:
		sum.Message = LoadingMessage
	case StatusDisconnected:
		sum.Message = DisconnectedMessage
		sum.Level = aggregate.LevelOffline
	case StatusLive:
		sum.Level = s.health.Level
		sum.Message = s.health.Message
	}
	return sum
}

// Dropped returns how many events were ignored as stale or unknown.
func (in *Ingestor) Dropped() uint64 {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.dropped
}
