// Package registry keeps the latest status and a short sample window per entity.
package registry

import "minetrack/internal/telemetry"

// DefaultRecentSamples bounds each entity's recent-sample window.
const DefaultRecentSamples = 72

// Entity is the registry record for one tracked server.
type Entity struct {
	Info     telemetry.EntityInfo
	Latest   telemetry.Snapshot
	Favicon  string
	Recent   []telemetry.Sample
	hasState bool
}

// HasSnapshot reports whether any poll outcome is known for the entity.
func (e *Entity) HasSnapshot() bool { return e.hasState }

// Count is one entry of the ordered player count list.
type Count struct {
	ID      string
	Players int
}

// Registry holds entities and their last known player counts. Iteration
// order is registration order.
type Registry struct {
	maxRecent int
	order     []string
	entities  map[string]*Entity
	lastCount map[string]int
}

// New creates an empty registry capping recent samples at maxRecent.
// A non-positive maxRecent selects DefaultRecentSamples.
func New(maxRecent int) *Registry {
	if maxRecent <= 0 {
		maxRecent = DefaultRecentSamples
	}
	return &Registry{
		maxRecent: maxRecent,
		entities:  make(map[string]*Entity),
		lastCount: make(map[string]int),
	}
}

// RegisterBatch creates or replaces entities from their initial history.
func (r *Registry) RegisterBatch(batch []telemetry.EntityBatch) {
	for _, b := range batch {
		id := b.Info.Name
		ent := &Entity{Info: b.Info}
		for _, p := range b.History {
			if p.Snapshot.Kind == telemetry.SnapshotNone {
				continue
			}
			ent.Recent = append(ent.Recent, telemetry.Sample{Timestamp: p.Timestamp, Value: p.Snapshot.Players()})
		}
		if over := len(ent.Recent) - r.maxRecent; over > 0 {
			ent.Recent = append([]telemetry.Sample(nil), ent.Recent[over:]...)
		}
		if n := len(b.History); n > 0 {
			last := b.History[n-1].Snapshot
			if last.Kind != telemetry.SnapshotNone {
				ent.Latest = last
				ent.hasState = true
			}
			if last.Favicon != "" {
				ent.Favicon = last.Favicon
			}
		}
		if _, known := r.entities[id]; !known {
			r.order = append(r.order, id)
		}
		r.entities[id] = ent
		r.lastCount[id] = ent.Latest.Players()
	}
}

// ApplyUpdate records a fresh snapshot. It reports false and changes
// nothing when id has not been registered.
func (r *Registry) ApplyUpdate(id string, timestamp int64, snap telemetry.Snapshot) bool {
	ent, ok := r.entities[id]
	if !ok {
		return false
	}
	ent.Latest = snap
	ent.hasState = true
	if snap.Favicon != "" {
		ent.Favicon = snap.Favicon
	}
	if snap.OK() {
		ent.Recent = append(ent.Recent, telemetry.Sample{Timestamp: timestamp, Value: snap.PlayerCount})
		if len(ent.Recent) > r.maxRecent {
			ent.Recent = ent.Recent[1:]
		}
	}
	r.lastCount[id] = snap.Players()
	return true
}

// Entity returns a copy of the record for id.
func (r *Registry) Entity(id string) (Entity, bool) {
	ent, ok := r.entities[id]
	if !ok {
		return Entity{}, false
	}
	cp := *ent
	cp.Recent = append([]telemetry.Sample(nil), ent.Recent...)
	return cp, true
}

// Counts returns the last known player count per entity in registration order.
func (r *Registry) Counts() []Count {
	out := make([]Count, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, Count{ID: id, Players: r.lastCount[id]})
	}
	return out
}

// TotalPlayers sums the last known player count of every entity.
func (r *Registry) TotalPlayers() int {
	total := 0
	for _, n := range r.lastCount {
		total += n
	}
	return total
}

// KnownEntityCount returns the number of registered entities.
func (r *Registry) KnownEntityCount() int {
	return len(r.lastCount)
}

// StatusText is the line shown under an entity: its player count, the
// ping error message, or "Waiting" before the first poll.
func (r *Registry) StatusText(id string) string {
	ent, ok := r.entities[id]
	if !ok || !ent.hasState {
		return "Waiting"
	}
	return StatusText(ent.Latest)
}

// StatusText renders a snapshot for display.
func StatusText(s telemetry.Snapshot) string {
	switch s.Kind {
	case telemetry.SnapshotResult:
		return "Players: " + FormatCount(s.PlayerCount)
	case telemetry.SnapshotError:
		return s.Err.Message()
	default:
		return "Waiting"
	}
}

// Trend returns the difference between the newest and oldest recent sample.
func (r *Registry) Trend(id string) (int, bool) {
	ent, ok := r.entities[id]
	if !ok || len(ent.Recent) == 0 {
		return 0, false
	}
	return ent.Recent[len(ent.Recent)-1].Value - ent.Recent[0].Value, true
}
