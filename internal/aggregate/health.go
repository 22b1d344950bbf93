package aggregate

import (
	"encoding/json"
	"strings"
	"time"

	"minetrack/internal/telemetry"
)

// OperationalMessage is the health message when every service is online.
const OperationalMessage = "All systems operational."

// Level is the overall service health classification.
type Level int

const (
	LevelOperational Level = iota
	LevelUnstable
	LevelOffline
	// LevelUnknown marks a session with no classified service health yet.
	LevelUnknown
)

func (l Level) String() string {
	switch l {
	case LevelOperational:
		return "Operational"
	case LevelUnstable:
		return "Unstable"
	case LevelUnknown:
		return "Unknown"
	default:
		return "Offline"
	}
}

// MarshalJSON encodes the level by name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// Health is the classified status of the upstream services.
type Health struct {
	Level   Level  `json:"status_level"`
	Message string `json:"message"`
}

// ClassifyServiceHealth counts entries by title and builds the status
// message. Elapsed impairment times are measured against now.
func ClassifyServiceHealth(entries []telemetry.ServiceStatus, now time.Time) Health {
	var online, unstable, offline int
	for _, e := range entries {
		switch e.Title {
		case telemetry.ServiceOnline:
			online++
		case telemetry.ServiceUnstable:
			unstable++
		case telemetry.ServiceOffline:
			offline++
		}
	}
	if online == len(entries) {
		return Health{Level: LevelOperational, Message: OperationalMessage}
	}
	h := Health{Level: LevelOffline}
	if unstable > offline {
		h.Level = LevelUnstable
	}
	nowMs := now.UnixMilli()
	var parts []string
	for _, e := range entries {
		if e.StartTime == 0 {
			continue
		}
		elapsed := time.Duration(nowMs-e.StartTime) * time.Millisecond
		parts = append(parts, e.Name+" "+e.Title.Lower()+" for "+FormatElapsed(elapsed))
	}
	h.Message = strings.Join(parts, " ")
	return h
}
