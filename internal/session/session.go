package session

import (
	"time"

	"github.com/google/uuid"

	"minetrack/internal/aggregate"
	"minetrack/internal/registry"
	"minetrack/internal/series"
	"minetrack/internal/telemetry"
)

// Status is the connection lifecycle state shown in the tagline.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLive
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLive:
		return "live"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "idle"
	}
}

// Tagline messages for the non-live states.
const (
	LoadingMessage      = "Loading..."
	DisconnectedMessage = "Disconnected! Refresh?"
)

// Session is all state belonging to one transport connection.
// It is discarded wholesale on disconnect.
type Session struct {
	id            string
	connected     bool
	status        Status
	registry      *registry.Registry
	store         *series.Store
	graphDuration int64
	services      []telemetry.ServiceStatus
	haveServices  bool
	health        aggregate.Health
	ranking       []aggregate.Ranked
	rankedAt      time.Time
	healthAt      time.Time
	tasks         []Task
}

func newSession(maxRecent int, status Status) *Session {
	return &Session{
		id:       uuid.New().String(),
		status:   status,
		registry: registry.New(maxRecent),
		store:    series.New(),
	}
}

func (s *Session) cancelTasks() {
	for _, t := range s.tasks {
		t.Cancel()
	}
	s.tasks = nil
}
