package record

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"minetrack/internal/logging"
	"minetrack/internal/transport"
)

// Replay delivers recorded frames from r to sink. A speed >0 keeps the
// recorded spacing divided by speed; speed <= 0 inserts no delay. Frames the
// sink rejects are logged and skipped. It returns the number of frames read.
func Replay(ctx context.Context, r io.Reader, sink transport.Sink, speed float64) (int, error) {
	log := logging.FromContext(ctx)
	dec := json.NewDecoder(r)
	var prev time.Time
	n := 0
	for {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			if err == io.EOF {
				return n, nil
			}
			return n, fmt.Errorf("replay entry %d: %w", n+1, err)
		}
		if !prev.IsZero() && speed > 0 {
			diff := e.ReceivedAt.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				t := time.NewTimer(diff)
				select {
				case <-ctx.Done():
					t.Stop()
					return n, ctx.Err()
				case <-t.C:
				}
			}
		}
		n++
		if err := sink.HandleFrame(e.Frame); err != nil {
			log.Debug("replayed frame rejected", "entry", n, "err", err)
		}
		prev = e.ReceivedAt
	}
}

// ReplayFile opens a recording and replays it.
func ReplayFile(ctx context.Context, path string, sink transport.Sink, speed float64) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()
	return Replay(ctx, f, sink, speed)
}
