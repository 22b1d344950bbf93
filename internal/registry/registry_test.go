package registry

import (
	"testing"

	"minetrack/internal/telemetry"
)

func batch(name string, points ...telemetry.HistoryPoint) telemetry.EntityBatch {
	return telemetry.EntityBatch{Info: telemetry.EntityInfo{Name: name, IP: name + ".example", Type: "PC"}, History: points}
}

func ok(ts int64, players int) telemetry.HistoryPoint {
	return telemetry.HistoryPoint{Timestamp: ts, Snapshot: telemetry.ResultSnapshot(players, "")}
}

func failed(ts int64, desc string) telemetry.HistoryPoint {
	return telemetry.HistoryPoint{Timestamp: ts, Snapshot: telemetry.ErrorSnapshot(telemetry.PingError{Description: desc})}
}

func TestRegisterBatchSeedsState(t *testing.T) {
	r := New(0)
	r.RegisterBatch([]telemetry.EntityBatch{
		batch("alpha", ok(1, 2), ok(2, 5)),
		batch("beta", ok(1, 7), failed(2, "timeout")),
	})
	if got := r.TotalPlayers(); got != 5 {
		t.Errorf("TotalPlayers=%d, want 5", got)
	}
	if got := r.KnownEntityCount(); got != 2 {
		t.Errorf("KnownEntityCount=%d, want 2", got)
	}
	if got := r.StatusText("beta"); got != "timeout" {
		t.Errorf("StatusText(beta)=%q, want timeout", got)
	}
	if got := r.StatusText("alpha"); got != "Players: 5" {
		t.Errorf("StatusText(alpha)=%q", got)
	}
	beta, _ := r.Entity("beta")
	if len(beta.Recent) != 2 || beta.Recent[1] != (telemetry.Sample{Timestamp: 2, Value: 0}) {
		t.Errorf("errored history point should map to a zero sample: %+v", beta.Recent)
	}
}

func TestApplyUpdateUnknownIsNoop(t *testing.T) {
	r := New(0)
	if r.ApplyUpdate("ghost", 1, telemetry.ResultSnapshot(10, "")) {
		t.Fatalf("update for unknown entity should be rejected")
	}
	if r.TotalPlayers() != 0 || r.KnownEntityCount() != 0 {
		t.Fatalf("unknown update mutated state")
	}
}

func TestRecentSamplesBounded(t *testing.T) {
	r := New(0)
	r.RegisterBatch([]telemetry.EntityBatch{batch("alpha")})
	for i := 0; i < 100; i++ {
		r.ApplyUpdate("alpha", int64(i), telemetry.ResultSnapshot(i, ""))
	}
	e, _ := r.Entity("alpha")
	if len(e.Recent) != DefaultRecentSamples {
		t.Fatalf("len(Recent)=%d, want %d", len(e.Recent), DefaultRecentSamples)
	}
	if e.Recent[0].Value != 100-DefaultRecentSamples || e.Recent[len(e.Recent)-1].Value != 99 {
		t.Fatalf("expected FIFO eviction, got first=%d last=%d", e.Recent[0].Value, e.Recent[len(e.Recent)-1].Value)
	}
}

func TestSeedHistoryCapped(t *testing.T) {
	r := New(3)
	r.RegisterBatch([]telemetry.EntityBatch{batch("alpha", ok(1, 1), ok(2, 2), ok(3, 3), ok(4, 4))})
	e, _ := r.Entity("alpha")
	if len(e.Recent) != 3 || e.Recent[0].Value != 2 {
		t.Fatalf("expected oldest seed sample dropped, got %+v", e.Recent)
	}
}

func TestErrorUpdateZeroesCountWithoutSample(t *testing.T) {
	r := New(0)
	r.RegisterBatch([]telemetry.EntityBatch{batch("alpha", ok(1, 8))})
	r.ApplyUpdate("alpha", 2, telemetry.ErrorSnapshot(telemetry.PingError{}))
	if r.TotalPlayers() != 0 {
		t.Errorf("errored entity should contribute 0, total=%d", r.TotalPlayers())
	}
	e, _ := r.Entity("alpha")
	if len(e.Recent) != 1 {
		t.Errorf("error update should not append a sample: %+v", e.Recent)
	}
	if r.StatusText("alpha") != telemetry.FailedPingMessage {
		t.Errorf("expected fallback message, got %q", r.StatusText("alpha"))
	}
}

func TestTotalMatchesSumOfLatest(t *testing.T) {
	r := New(0)
	r.RegisterBatch([]telemetry.EntityBatch{batch("a", ok(1, 1)), batch("b", ok(1, 2)), batch("c", ok(1, 3))})
	r.ApplyUpdate("a", 2, telemetry.ResultSnapshot(10, ""))
	r.ApplyUpdate("b", 2, telemetry.ErrorSnapshot(telemetry.PingError{Errno: "ETIMEDOUT"}))
	r.ApplyUpdate("c", 2, telemetry.ResultSnapshot(4, ""))
	sum := 0
	for _, c := range r.Counts() {
		sum += c.Players
	}
	if sum != 14 || r.TotalPlayers() != 14 {
		t.Fatalf("sum=%d total=%d, want 14", sum, r.TotalPlayers())
	}
}

func TestReRegisterKeepsOrder(t *testing.T) {
	r := New(0)
	r.RegisterBatch([]telemetry.EntityBatch{batch("a", ok(1, 1)), batch("b", ok(1, 2))})
	r.RegisterBatch([]telemetry.EntityBatch{batch("a", ok(5, 9))})
	counts := r.Counts()
	if len(counts) != 2 || counts[0] != (Count{ID: "a", Players: 9}) || counts[1].ID != "b" {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestEmptyHistoryRegistersWaiting(t *testing.T) {
	r := New(0)
	r.RegisterBatch([]telemetry.EntityBatch{batch("a")})
	if r.KnownEntityCount() != 1 || r.StatusText("a") != "Waiting" {
		t.Fatalf("count=%d status=%q", r.KnownEntityCount(), r.StatusText("a"))
	}
	if _, ok := r.Trend("a"); ok {
		t.Fatalf("no trend expected without samples")
	}
}

func TestFaviconKeptAcrossUpdates(t *testing.T) {
	r := New(0)
	r.RegisterBatch([]telemetry.EntityBatch{{
		Info:    telemetry.EntityInfo{Name: "a"},
		History: []telemetry.HistoryPoint{{Timestamp: 1, Snapshot: telemetry.ResultSnapshot(1, "icon-1")}},
	}})
	r.ApplyUpdate("a", 2, telemetry.ResultSnapshot(2, ""))
	e, _ := r.Entity("a")
	if e.Favicon != "icon-1" {
		t.Fatalf("favicon lost: %q", e.Favicon)
	}
	r.ApplyUpdate("a", 3, telemetry.ResultSnapshot(2, "icon-2"))
	e, _ = r.Entity("a")
	if e.Favicon != "icon-2" {
		t.Fatalf("favicon not replaced: %q", e.Favicon)
	}
}

func TestTrendAndFormatting(t *testing.T) {
	r := New(0)
	r.RegisterBatch([]telemetry.EntityBatch{batch("a", ok(1, 1200), ok(2, 1000))})
	d, ok := r.Trend("a")
	if !ok || d != -200 || FormatTrend(d) != "-200" {
		t.Fatalf("trend=%d ok=%v fmt=%q", d, ok, FormatTrend(d))
	}
	if FormatTrend(0) != "+0" {
		t.Errorf("FormatTrend(0)=%q", FormatTrend(0))
	}
	cases := map[int]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -4500: "-4,500"}
	for in, want := range cases {
		if got := FormatCount(in); got != want {
			t.Errorf("FormatCount(%d)=%q, want %q", in, got, want)
		}
	}
}
