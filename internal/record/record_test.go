package record

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"minetrack/internal/transport"
)

type collectSink struct{ frames []string }

func (c *collectSink) HandleFrame(frame []byte) error {
	c.frames = append(c.frames, string(frame))
	return nil
}

func TestFileWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	fw, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	clock := time.Unix(100, 0).UTC()
	fw.now = func() time.Time { return clock }

	frames := []string{
		string(transport.ConnectFrame),
		`{"event":"setGraphDuration","data":60000}`,
		`{"event":"update","data":{"info":{"name":"A","timestamp":1},"result":{"players":{"online":2}}}}`,
	}
	for _, f := range frames {
		if err := fw.HandleFrame([]byte(f)); err != nil {
			t.Fatalf("HandleFrame: %v", err)
		}
		clock = clock.Add(time.Second)
	}
	if err := fw.HandleFrame([]byte("garbage")); err == nil {
		t.Fatalf("expected invalid frame to be rejected")
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != len(frames) {
		t.Fatalf("expected %d lines, got %d", len(frames), len(lines))
	}
	if !strings.Contains(lines[0], `"received_at":"1970-01-01T00:01:40Z"`) {
		t.Fatalf("unexpected first line %s", lines[0])
	}

	sink := &collectSink{}
	n, err := ReplayFile(context.Background(), path, sink, 0)
	if err != nil {
		t.Fatalf("ReplayFile: %v", err)
	}
	if n != len(frames) {
		t.Fatalf("replayed %d frames, want %d", n, len(frames))
	}
	for i, f := range frames {
		if sink.frames[i] != f {
			t.Fatalf("frame %d = %s, want %s", i, sink.frames[i], f)
		}
	}
}

func TestReplayHonorsSpacing(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	clock := time.Unix(0, 0)
	w.now = func() time.Time { return clock }
	w.HandleFrame([]byte(`{"event":"connect"}`))
	clock = clock.Add(200 * time.Millisecond)
	w.HandleFrame([]byte(`{"event":"disconnect"}`))

	start := time.Now()
	sink := &collectSink{}
	if _, err := Replay(context.Background(), bytes.NewReader(buf.Bytes()), sink, 2); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Fatalf("replay too fast: %v", elapsed)
	}
	if len(sink.frames) != 2 || sink.frames[1] != `{"event":"disconnect"}` {
		t.Fatalf("unexpected frames %v", sink.frames)
	}
}

func TestReplayCancelled(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	clock := time.Unix(0, 0)
	w.now = func() time.Time { return clock }
	w.HandleFrame([]byte(`{"event":"connect"}`))
	clock = clock.Add(time.Hour)
	w.HandleFrame([]byte(`{"event":"disconnect"}`))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	sink := &collectSink{}
	n, err := Replay(ctx, &buf, sink, 1)
	if err == nil {
		t.Fatalf("expected context error")
	}
	if n != 1 || len(sink.frames) != 1 {
		t.Fatalf("expected only the first frame, got %d", n)
	}
}

func TestReplayBadEntry(t *testing.T) {
	_, err := Replay(context.Background(), strings.NewReader("{not json"), &collectSink{}, 0)
	if err == nil {
		t.Fatalf("expected decode error")
	}
}
