// Package export ships accepted player count samples to external sinks.
package export

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"minetrack/internal/telemetry"
)

// Defaults for batching.
const (
	DefaultBatchSize     = 100
	DefaultFlushInterval = 5 * time.Second
	defaultBuffer        = 1024
	flushTimeout         = 10 * time.Second
)

// Row is one exported sample.
type Row struct {
	Entity    string `json:"entity"`
	Players   int    `json:"players"`
	Timestamp int64  `json:"ts"`
}

// BatchWriter persists rows.
type BatchWriter interface {
	WriteBatch(ctx context.Context, rows []Row) error
}

// Exporter buffers samples and flushes them to a BatchWriter. RecordSample
// never blocks; samples arriving while the buffer is full are dropped.
type Exporter struct {
	w             BatchWriter
	ch            chan Row
	batchSize     int
	flushInterval time.Duration
	log           *slog.Logger
	dropped       atomic.Uint64
	written       atomic.Uint64
}

// Options configures an Exporter.
type Options struct {
	BatchSize     int
	FlushInterval time.Duration
	Buffer        int
	Logger        *slog.Logger
}

// NewExporter creates an exporter writing to w.
func NewExporter(w BatchWriter, opts Options) *Exporter {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = DefaultFlushInterval
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Exporter{
		w:             w,
		ch:            make(chan Row, opts.Buffer),
		batchSize:     opts.BatchSize,
		flushInterval: opts.FlushInterval,
		log:           opts.Logger,
	}
}

// RecordSample queues one sample.
func (e *Exporter) RecordSample(entity string, s telemetry.Sample) {
	select {
	case e.ch <- Row{Entity: entity, Players: s.Value, Timestamp: s.Timestamp}:
	default:
		if e.dropped.Add(1) == 1 {
			e.log.Warn("export buffer full, dropping samples")
		}
	}
}

// Dropped returns the number of samples discarded because the buffer was full.
func (e *Exporter) Dropped() uint64 { return e.dropped.Load() }

// Written returns the number of rows successfully flushed.
func (e *Exporter) Written() uint64 { return e.written.Load() }

// Run flushes batches until ctx is cancelled, then flushes what is left.
func (e *Exporter) Run(ctx context.Context) {
	ticker := time.NewTicker(e.flushInterval)
	defer ticker.Stop()
	batch := make([]Row, 0, e.batchSize)
	for {
		select {
		case r := <-e.ch:
			batch = append(batch, r)
			if len(batch) >= e.batchSize {
				batch = e.flush(ctx, batch)
			}
		case <-ticker.C:
			batch = e.flush(ctx, batch)
		case <-ctx.Done():
		drain:
			for {
				select {
				case r := <-e.ch:
					batch = append(batch, r)
				default:
					break drain
				}
			}
			fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
			e.flush(fctx, batch)
			cancel()
			return
		}
	}
}

func (e *Exporter) flush(ctx context.Context, batch []Row) []Row {
	if len(batch) == 0 {
		return batch
	}
	if err := e.w.WriteBatch(ctx, batch); err != nil {
		e.log.Error("export batch failed", "rows", len(batch), "err", err)
	} else {
		e.written.Add(uint64(len(batch)))
	}
	return make([]Row, 0, e.batchSize)
}
