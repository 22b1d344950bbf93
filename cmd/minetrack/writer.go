package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"minetrack/internal/config"
	"minetrack/internal/export"
	"minetrack/internal/logging"
	"minetrack/internal/record"
	"minetrack/internal/session"
	"minetrack/internal/transport"
)

// defaultTUILog receives logs while the dashboard owns the terminal.
const defaultTUILog = "minetrack.log"

// loadConfig reads the config file and applies the persistent flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logJSON {
		cfg.LogJSON = true
	}
	return cfg, nil
}

// newLogger builds the process logger. In TUI mode logs go to a file so they
// do not corrupt the screen.
func newLogger(cfg *config.Config, tuiMode bool, stderr io.Writer) (*slog.Logger, func(), error) {
	path := cfg.LogFile
	if tuiMode && path == "" {
		path = defaultTUILog
	}
	if path == "" {
		return logging.NewWithOptions(stderr, cfg.LogLevel, cfg.LogJSON), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logging.NewWithOptions(f, cfg.LogLevel, cfg.LogJSON), func() { f.Close() }, nil
}

// newSampleWriter picks the export destination: stdout when printOnly,
// GreptimeDB when an endpoint is set, else a JSONL file. It returns nil when
// export is disabled.
func newSampleWriter(cfg config.ExportConfig, printOnly bool, stdout io.Writer, log *slog.Logger) (export.BatchWriter, func(), error) {
	cleanup := func() {}
	switch {
	case !printOnly && !cfg.Enabled():
		return nil, cleanup, nil
	case printOnly:
		return export.NewJSONWriter(stdout), cleanup, nil
	case cfg.Endpoint != "":
		w, err := export.NewGreptimeDBWriter(cfg.Endpoint, cfg.Database, cfg.Table, log)
		if err != nil {
			return nil, nil, err
		}
		return w, cleanup, nil
	default:
		f, err := os.Create(cfg.File)
		if err != nil {
			return nil, nil, fmt.Errorf("create sample file: %w", err)
		}
		return export.NewJSONWriter(f), func() { f.Close() }, nil
	}
}

// newExporter wraps the configured sample writer in a batching exporter.
func newExporter(cfg config.ExportConfig, printOnly bool, stdout io.Writer, log *slog.Logger) (*export.Exporter, func(), error) {
	w, cleanup, err := newSampleWriter(cfg, printOnly, stdout, log)
	if err != nil || w == nil {
		return nil, cleanup, err
	}
	e := export.NewExporter(w, export.Options{
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		Logger:        log,
	})
	return e, cleanup, nil
}

// newIngestor builds the session ingestor, exporting samples to e when set.
func newIngestor(cfg *config.Config, sched session.Scheduler, e *export.Exporter, log *slog.Logger) *session.Ingestor {
	opts := session.Options{
		MaxRecentSamples: cfg.RecentSamples,
		HealthInterval:   cfg.HealthInterval,
		RankingInterval:  cfg.RankingInterval,
		Scheduler:        sched,
		Logger:           log,
	}
	if e != nil {
		opts.Sink = e
	}
	return session.NewIngestor(opts)
}

// newFrameSink fans frames out to the recorder, when one is configured,
// and the ingestor.
func newFrameSink(recordPath string, in *session.Ingestor) (*transport.MultiSink, func(), error) {
	if recordPath == "" {
		return transport.NewMultiSink(in), func() {}, nil
	}
	fw, err := record.NewFileWriter(recordPath)
	if err != nil {
		return nil, nil, err
	}
	return transport.NewMultiSink(fw, in), func() { fw.Close() }, nil
}
