// Package session turns push events into registry and store mutations and
// serves the read accessors the dashboard renders from.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"minetrack/internal/aggregate"
	"minetrack/internal/logging"
	"minetrack/internal/registry"
	"minetrack/internal/telemetry"
)

// Default recomputation intervals.
const (
	DefaultHealthInterval  = time.Second
	DefaultRankingInterval = 10 * time.Second
)

// SampleSink receives every accepted player count sample. RecordSample is
// called while the ingestor holds its lock and must not block.
type SampleSink interface {
	RecordSample(entity string, s telemetry.Sample)
}

// Options configures an Ingestor. Zero values select defaults.
type Options struct {
	MaxRecentSamples int
	HealthInterval   time.Duration
	RankingInterval  time.Duration
	Scheduler        Scheduler
	Now              func() time.Time
	Logger           *slog.Logger
	Sink             SampleSink
}

// Ingestor applies events to the current session. Every handler and timer
// callback runs under mu, so mutations never interleave.
type Ingestor struct {
	mu        sync.RWMutex
	sess      *Session
	maxRecent int
	healthIv  time.Duration
	rankIv    time.Duration
	sched     Scheduler
	now       func() time.Time
	log       *slog.Logger
	sink      SampleSink
	dropped   uint64
}

// NewIngestor creates an ingestor with an empty, idle session.
func NewIngestor(opts Options) *Ingestor {
	in := &Ingestor{
		maxRecent: opts.MaxRecentSamples,
		healthIv:  opts.HealthInterval,
		rankIv:    opts.RankingInterval,
		sched:     opts.Scheduler,
		now:       opts.Now,
		log:       opts.Logger,
		sink:      opts.Sink,
	}
	if in.maxRecent <= 0 {
		in.maxRecent = registry.DefaultRecentSamples
	}
	if in.healthIv <= 0 {
		in.healthIv = DefaultHealthInterval
	}
	if in.rankIv <= 0 {
		in.rankIv = DefaultRankingInterval
	}
	if in.sched == nil {
		in.sched = TickerScheduler{}
	}
	if in.now == nil {
		in.now = time.Now
	}
	if in.log == nil {
		in.log = slog.Default()
	}
	in.sess = newSession(in.maxRecent, StatusIdle)
	return in
}

// HandleFrame decodes one wire frame and applies it. Frames that fail to
// decode are logged and dropped; the error is returned for the caller.
func (in *Ingestor) HandleFrame(frame []byte) error {
	ev, err := telemetry.DecodeFrame(frame)
	if err != nil {
		in.log.Warn("dropping frame", "err", err)
		return err
	}
	in.Handle(ev)
	return nil
}

// Handle applies one event to the current session.
func (in *Ingestor) Handle(ev telemetry.Event) {
	in.mu.Lock()
	defer in.mu.Unlock()

	s := in.sess
	switch e := ev.(type) {
	case telemetry.Connect:
		in.connect()
	case telemetry.Disconnect:
		in.reset()
	case telemetry.SetGraphDuration:
		s.graphDuration = e.Duration
	case telemetry.HistoryGraph:
		s.store.IngestHistorySnapshot(e.Series)
	case telemetry.UpdateHistoryGraph:
		if s.graphDuration <= 0 {
			in.drop("graph duration not set", e.ID)
			return
		}
		if !s.store.IngestIncrementalPoint(e.ID, e.Timestamp, e.Players, s.graphDuration) {
			in.drop("history point for unknown series", e.ID)
		}
	case telemetry.Add:
		s.registry.RegisterBatch(e.Entities)
		in.rank()
	case telemetry.Update:
		if !s.registry.ApplyUpdate(e.ID, e.Timestamp, e.Snapshot) {
			in.drop("update for unknown entity", e.ID)
			return
		}
		if e.Snapshot.OK() && in.sink != nil {
			in.sink.RecordSample(e.ID, telemetry.Sample{Timestamp: e.Timestamp, Value: e.Snapshot.PlayerCount})
		}
	case telemetry.UpdateServices:
		s.services = append([]telemetry.ServiceStatus(nil), e.Entries...)
		s.haveServices = true
		in.classify()
	default:
		in.log.Warn("unrecognized event", "tag", ev.Tag())
	}
}

func (in *Ingestor) drop(reason, id string) {
	in.dropped++
	in.log.Debug("dropping event", "reason", reason, "entity", id)
}

// connect starts a session. A connect on an already connected session
// tears the old one down first.
func (in *Ingestor) connect() {
	if in.sess.connected {
		in.reset()
	}
	s := in.sess
	s.id = uuid.New().String()
	s.connected = true
	s.status = StatusLoading
	s.tasks = append(s.tasks,
		in.sched.Every(in.healthIv, func() { in.tick(s, in.classify) }),
		in.sched.Every(in.rankIv, func() { in.tick(s, in.rank) }),
	)
	in.log.Info("session connected", "session", s.id)
}

// reset cancels the session's tasks and replaces it with an empty one.
// Calling it on an empty session is safe.
func (in *Ingestor) reset() {
	old := in.sess
	old.cancelTasks()
	in.sess = newSession(in.maxRecent, StatusDisconnected)
	if old.connected {
		in.log.Info("session reset", "session", old.id)
	}
}

// tick runs a periodic recomputation unless s has since been replaced.
func (in *Ingestor) tick(s *Session, fn func()) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.sess != s || !s.connected {
		return
	}
	fn()
}

func (in *Ingestor) rank() {
	s := in.sess
	s.ranking = aggregate.RankEntities(s.registry.Counts())
	s.rankedAt = in.now()
}

func (in *Ingestor) classify() {
	s := in.sess
	if !s.haveServices {
		return
	}
	s.health = aggregate.ClassifyServiceHealth(s.services, in.now())
	s.healthAt = in.now()
	if s.connected {
		s.status = StatusLive
	}
}

// Run applies events from ch until ctx is done or ch is closed, then
// cancels the session's periodic tasks.
func (in *Ingestor) Run(ctx context.Context, ch <-chan telemetry.Event) {
	log := logging.FromContext(ctx)
	defer in.Close()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				log.Info("event stream closed")
				return
			}
			in.Handle(ev)
		case <-ctx.Done():
			return
		}
	}
}

// Close cancels periodic tasks without discarding state.
func (in *Ingestor) Close() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.sess.cancelTasks()
}

// Recompute refreshes ranking and health immediately.
func (in *Ingestor) Recompute() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.rank()
	in.classify()
}
