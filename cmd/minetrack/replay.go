package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"minetrack/internal/aggregate"
	"minetrack/internal/logging"
	"minetrack/internal/record"
	"minetrack/internal/session"
	"minetrack/internal/telemetry"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
)

// replayReport is the final state printed after a replay.
type replayReport struct {
	Frames   int                           `json:"frames"`
	Summary  session.Summary               `json:"summary"`
	Ranking  []aggregate.Ranked            `json:"ranking"`
	Entities []session.EntityView          `json:"entities"`
	Series   map[string][]telemetry.Sample `json:"series"`
	Hidden   map[string][]telemetry.Sample `json:"hidden,omitempty"`
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded feed and print the resulting state",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, closeLog, err := newLogger(cfg, false, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer closeLog()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)

		// Samples go to stderr in print-only mode so the report stays parseable.
		exporter, closeExport, err := newExporter(cfg.Export, replayPrintOnly, os.Stderr, log)
		if err != nil {
			return err
		}
		defer closeExport()
		done := make(chan struct{})
		exportCtx, cancelExport := context.WithCancel(context.WithoutCancel(ctx))
		if exporter != nil {
			go func() {
				defer close(done)
				exporter.Run(exportCtx)
			}()
		} else {
			close(done)
		}

		in := newIngestor(cfg, session.NopScheduler{}, exporter, log)
		n, err := record.ReplayFile(ctx, replayInput, in, replaySpeed)
		cancelExport()
		<-done
		if err != nil {
			return err
		}
		in.Recompute()
		log.Info("replay finished", "frames", n, "dropped", in.Dropped())
		if exporter != nil {
			log.Info("samples exported", "written", exporter.Written(), "dropped", exporter.Dropped())
		}

		rep := replayReport{
			Frames:   n,
			Summary:  in.Summary(),
			Ranking:  in.Ranking(),
			Entities: in.Entities(),
			Series:   in.VisibleSeries(),
			Hidden:   in.HiddenSeries(),
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Recorded JSONL feed to replay")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 0, "Playback speed multiplier, 0 replays without delay")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print exported samples to STDERR instead of writing to DB")
	replayCmd.MarkFlagRequired("input")
}
