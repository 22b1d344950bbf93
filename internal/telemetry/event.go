package telemetry

// Event tags as they appear in the wire envelope.
const (
	TagConnect            = "connect"
	TagDisconnect         = "disconnect"
	TagSetGraphDuration   = "setGraphDuration"
	TagHistoryGraph       = "historyGraph"
	TagUpdateHistoryGraph = "updateHistoryGraph"
	TagAdd                = "add"
	TagUpdate             = "update"
	TagUpdateServices     = "updateMojangServices"
)

// Event is one decoded push event. The concrete types below are the only
// implementations.
type Event interface {
	Tag() string
}

// Connect marks the transport as connected.
type Connect struct{}

// Disconnect forces a full reset of client state.
type Disconnect struct{}

// SetGraphDuration sets the width of the history window in milliseconds.
type SetGraphDuration struct {
	Duration int64
}

// HistoryGraph is the full history snapshot keyed by entity.
type HistoryGraph struct {
	Series map[string][]Sample
}

// UpdateHistoryGraph appends one point to an entity's history.
type UpdateHistoryGraph struct {
	ID        string
	Timestamp int64
	Players   int
}

// Add registers a batch of entities with their recent history.
type Add struct {
	Entities []EntityBatch
}

// Update carries a fresh poll result for one entity.
type Update struct {
	ID        string
	Timestamp int64
	Snapshot  Snapshot
}

// UpdateServices replaces the upstream service status list.
type UpdateServices struct {
	Entries []ServiceStatus
}

func (Connect) Tag() string            { return TagConnect }
func (Disconnect) Tag() string         { return TagDisconnect }
func (SetGraphDuration) Tag() string   { return TagSetGraphDuration }
func (HistoryGraph) Tag() string       { return TagHistoryGraph }
func (UpdateHistoryGraph) Tag() string { return TagUpdateHistoryGraph }
func (Add) Tag() string                { return TagAdd }
func (Update) Tag() string             { return TagUpdate }
func (UpdateServices) Tag() string     { return TagUpdateServices }
