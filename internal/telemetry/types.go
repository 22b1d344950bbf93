// Entity, sample and service status types shared by the store and ingestor
package telemetry

import (
	"encoding/json"
	"strings"
)

// FailedPingMessage is shown for an error snapshot carrying no detail.
const FailedPingMessage = "Failed to ping!"

// Sample is one player count observation. Timestamp is unix milliseconds.
type Sample struct {
	Timestamp int64
	Value     int
}

// MarshalJSON encodes a sample as a [timestamp, value] pair, the shape
// charting collaborators consume.
func (s Sample) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int64{s.Timestamp, int64(s.Value)})
}

// SnapshotKind tags which variant a Snapshot holds.
type SnapshotKind int

const (
	SnapshotNone SnapshotKind = iota
	SnapshotResult
	SnapshotError
)

func (k SnapshotKind) String() string {
	switch k {
	case SnapshotResult:
		return "result"
	case SnapshotError:
		return "error"
	default:
		return "none"
	}
}

// MarshalJSON encodes the kind by name.
func (k SnapshotKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// PingError describes a failed poll of an entity.
type PingError struct {
	Description string `json:"description,omitempty"`
	Errno       string `json:"errno,omitempty"`
}

// Message returns the description, else the errno, else FailedPingMessage.
func (e PingError) Message() string {
	if e.Description != "" {
		return e.Description
	}
	if e.Errno != "" {
		return e.Errno
	}
	return FailedPingMessage
}

// Snapshot is the outcome of one poll: a result or an error.
type Snapshot struct {
	Kind        SnapshotKind `json:"kind"`
	PlayerCount int          `json:"player_count,omitempty"`
	Favicon     string       `json:"favicon,omitempty"`
	Err         PingError    `json:"error,omitempty"`
}

// ResultSnapshot builds a successful snapshot.
func ResultSnapshot(players int, favicon string) Snapshot {
	return Snapshot{Kind: SnapshotResult, PlayerCount: players, Favicon: favicon}
}

// ErrorSnapshot builds a failed snapshot.
func ErrorSnapshot(e PingError) Snapshot {
	return Snapshot{Kind: SnapshotError, Err: e}
}

// OK reports whether the snapshot is a successful result.
func (s Snapshot) OK() bool { return s.Kind == SnapshotResult }

// Players returns the player count, zero for anything but a result.
func (s Snapshot) Players() int {
	if s.Kind != SnapshotResult {
		return 0
	}
	return s.PlayerCount
}

// EntityInfo is the static description of a tracked server.
type EntityInfo struct {
	Name string `json:"name"`
	IP   string `json:"ip"`
	Type string `json:"type"`
}

// HistoryPoint is one entry of the initial per-entity history.
type HistoryPoint struct {
	Timestamp int64
	Snapshot  Snapshot
}

// EntityBatch is one record of an `add` event.
type EntityBatch struct {
	Info    EntityInfo
	History []HistoryPoint
}

// ServiceTitle is the coarse state of an upstream service.
type ServiceTitle string

const (
	ServiceOnline   ServiceTitle = "Online"
	ServiceUnstable ServiceTitle = "Unstable"
	ServiceOffline  ServiceTitle = "Offline"
)

// Lower returns the title in lower case for status messages.
func (t ServiceTitle) Lower() string { return strings.ToLower(string(t)) }

// ServiceStatus is one entry of an `updateMojangServices` payload.
// StartTime is zero when the service reports no impairment start.
type ServiceStatus struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Title     ServiceTitle `json:"title"`
	StartTime int64        `json:"start_time,omitempty"`
}
