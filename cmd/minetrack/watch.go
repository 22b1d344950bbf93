package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"minetrack/internal/admin"
	"minetrack/internal/logging"
	"minetrack/internal/session"
	"minetrack/internal/transport"
	"minetrack/internal/tui"
)

var (
	watchURL       string
	watchAdminAddr string
	watchRecord    string
	watchNoTUI     bool
	watchPrintOnly bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Connect to a tracker and show the live dashboard",
	Long:  "watch connects to the tracker's WebSocket feed and renders the dashboard in the terminal, or logs summaries when stdout is not a terminal.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("url") {
			cfg.URL = watchURL
		}
		if flags.Changed("admin-addr") {
			cfg.AdminAddr = watchAdminAddr
		}
		if flags.Changed("record") {
			cfg.Record = watchRecord
		}
		if err := cfg.Check(); err != nil {
			return err
		}

		tuiMode := !watchNoTUI && !watchPrintOnly && term.IsTerminal(int(os.Stdout.Fd()))
		log, closeLog, err := newLogger(cfg, tuiMode, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer closeLog()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)

		exporter, closeExport, err := newExporter(cfg.Export, watchPrintOnly, cmd.OutOrStdout(), log)
		if err != nil {
			return err
		}
		defer closeExport()

		in := newIngestor(cfg, session.TickerScheduler{}, exporter, log)
		sink, closeSink, err := newFrameSink(cfg.Record, in)
		if err != nil {
			return err
		}
		defer closeSink()

		client := transport.NewClient(transport.Options{
			URL:                 cfg.URL,
			RequestHistoryGraph: cfg.RequestHistoryGraph,
			ReconnectDelay:      cfg.ReconnectDelay,
			ReconnectAttempts:   cfg.ReconnectAttempts,
			Logger:              log,
		}, sink)

		var workers []func(context.Context)
		if exporter != nil {
			workers = append(workers, exporter.Run)
		}
		if cfg.AdminAddr != "" {
			srv := admin.NewServer(in, log)
			workers = append(workers, func(ctx context.Context) {
				if err := srv.Start(ctx, cfg.AdminAddr); err != nil {
					log.Error("admin server failed", "err", err)
				}
			})
		}

		foreground := func(ctx context.Context, clientErr <-chan error) error {
			return logSummaries(ctx, in, cfg.RankingInterval, log, clientErr)
		}
		if tuiMode {
			foreground = func(ctx context.Context, clientErr <-chan error) error {
				return runDashboard(ctx, in, clientErr)
			}
		}
		return supervise(ctx, in, client, workers, foreground)
	},
}

type runner interface {
	Run(ctx context.Context) error
}

// supervise runs the workers and the client in the background and the
// foreground view until it returns, then stops everything. The ingestor is
// closed only after the client has exited, since a late connect would start
// fresh periodic tasks.
func supervise(ctx context.Context, in *session.Ingestor, client runner, workers []func(context.Context), foreground func(context.Context, <-chan error) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w(ctx)
		}()
	}
	clientErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		clientErr <- client.Run(ctx)
	}()

	err := foreground(ctx, clientErr)
	cancel()
	wg.Wait()
	in.Close()
	if err != nil {
		return err
	}
	select {
	case err := <-clientErr:
		return err
	default:
		return nil
	}
}

// runDashboard shows the TUI until the user quits, ctx ends or the client
// gives up, returning the client's error in the last case.
func runDashboard(ctx context.Context, in *session.Ingestor, clientErr <-chan error) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	var cerr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case cerr = <-clientErr:
			stop()
		case <-ctx.Done():
		}
	}()
	err := tui.Run(ctx, in, tui.DefaultRefresh)
	stop()
	<-done
	if err != nil {
		return err
	}
	return cerr
}

// logSummaries logs the header state every interval until ctx ends or the
// client gives up.
func logSummaries(ctx context.Context, in *session.Ingestor, interval time.Duration, log *slog.Logger, clientErr <-chan error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-clientErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		case <-ticker.C:
			sum := in.Summary()
			log.Info("summary",
				"status", sum.Status,
				"message", sum.Message,
				"players", sum.TotalPlayers,
				"servers", sum.KnownEntities,
			)
			for _, r := range in.Ranking() {
				log.Debug("rank", "entity", r.ID, "rank", r.Rank, "players", r.Players)
			}
		}
	}
}

func init() {
	watchCmd.Flags().StringVar(&watchURL, "url", "", "Tracker WebSocket URL (overrides config and MINETRACK_URL)")
	watchCmd.Flags().StringVar(&watchAdminAddr, "admin-addr", "", "Admin HTTP listen address, empty to disable")
	watchCmd.Flags().StringVar(&watchRecord, "record", "", "Record received frames to this JSONL file")
	watchCmd.Flags().BoolVar(&watchNoTUI, "no-tui", false, "Log summaries instead of drawing the dashboard")
	watchCmd.Flags().BoolVar(&watchPrintOnly, "print-only", false, "Print exported samples to STDOUT instead of writing to DB")
}
