package telemetry

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeFrameAdd(t *testing.T) {
	frame := []byte(`{"event":"add","data":[
		{"info":{"name":"Alpha","ip":"alpha.example","type":"PC"},
		 "history":[
			{"timestamp":1000,"result":{"players":{"online":3}}},
			{"timestamp":2000,"result":{"players":{"online":5},"favicon":"data:img"}}]},
		{"info":{"name":"Beta","ip":"beta.example","type":"PE"},
		 "history":[{"timestamp":1500,"error":{"description":"timeout"}}]}
	]}`)
	ev, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	add, ok := ev.(Add)
	if !ok {
		t.Fatalf("expected Add, got %T", ev)
	}
	if len(add.Entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(add.Entities))
	}
	a := add.Entities[0]
	if a.Info != (EntityInfo{Name: "Alpha", IP: "alpha.example", Type: "PC"}) {
		t.Errorf("unexpected info: %+v", a.Info)
	}
	if len(a.History) != 2 || a.History[1].Snapshot.Players() != 5 || a.History[1].Snapshot.Favicon != "data:img" {
		t.Errorf("unexpected history: %+v", a.History)
	}
	b := add.Entities[1].History[0].Snapshot
	if b.Kind != SnapshotError || b.Err.Message() != "timeout" {
		t.Errorf("unexpected error snapshot: %+v", b)
	}
}

func TestDecodeAddInfoFromHistory(t *testing.T) {
	ev, err := DecodePayload(TagAdd, []byte(`[{"history":[{"info":{"name":"Old","ip":"old.example","type":"PC"},"timestamp":1,"result":{"players":{"online":1}}}]}]`))
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if got := ev.(Add).Entities[0].Info.Name; got != "Old" {
		t.Fatalf("expected info taken from history point, got %q", got)
	}
}

func TestDecodeHistoryGraph(t *testing.T) {
	ev, err := DecodePayload(TagHistoryGraph, []byte(`{"zeta":[[1,2]],"alpha":[[3,4],[5,6]],"mid":[]}`))
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	hg := ev.(HistoryGraph)
	if len(hg.Series) != 3 {
		t.Fatalf("expected 3 series, got %d", len(hg.Series))
	}
	if s := hg.Series["alpha"]; len(s) != 2 || s[1] != (Sample{Timestamp: 5, Value: 6}) {
		t.Errorf("unexpected alpha series: %+v", s)
	}
	if s, ok := hg.Series["mid"]; !ok || len(s) != 0 {
		t.Errorf("expected empty mid series, got %+v", s)
	}
}

func TestDecodeServicesPreservesOrder(t *testing.T) {
	ev, err := DecodePayload(TagUpdateServices, []byte(`{
		"session":{"name":"Session","title":"Unstable","startTime":1000},
		"auth":{"name":"Auth","title":"Online"}}`))
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	entries := ev.(UpdateServices).Entries
	if len(entries) != 2 || entries[0].ID != "session" || entries[1].ID != "auth" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if entries[0].Title != ServiceUnstable || entries[0].StartTime != 1000 {
		t.Errorf("unexpected session entry: %+v", entries[0])
	}
	if entries[1].StartTime != 0 {
		t.Errorf("expected no start time for auth, got %d", entries[1].StartTime)
	}
}

func TestDecodeUpdate(t *testing.T) {
	ev, err := DecodePayload(TagUpdate, []byte(`{"info":{"name":"Alpha","timestamp":42},"error":{"errno":"ECONNREFUSED"}}`))
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	u := ev.(Update)
	if u.ID != "Alpha" || u.Timestamp != 42 {
		t.Errorf("unexpected update: %+v", u)
	}
	if u.Snapshot.Err.Message() != "ECONNREFUSED" {
		t.Errorf("expected errno message, got %q", u.Snapshot.Err.Message())
	}
}

func TestDecodeScalarEvents(t *testing.T) {
	ev, err := DecodeFrame([]byte(`{"event":"setGraphDuration","data":86400000}`))
	if err != nil || ev.(SetGraphDuration).Duration != 86400000 {
		t.Fatalf("setGraphDuration: %v %+v", err, ev)
	}
	ev, err = DecodeFrame([]byte(`{"event":"updateHistoryGraph","data":{"ip":"alpha.example","timestamp":7,"players":9}}`))
	if err != nil {
		t.Fatalf("updateHistoryGraph: %v", err)
	}
	if p := ev.(UpdateHistoryGraph); p != (UpdateHistoryGraph{ID: "alpha.example", Timestamp: 7, Players: 9}) {
		t.Errorf("unexpected point: %+v", p)
	}
	for _, tag := range []string{TagConnect, TagDisconnect} {
		ev, err := DecodeFrame([]byte(`{"event":"` + tag + `"}`))
		if err != nil || ev.Tag() != tag {
			t.Errorf("%s: %v %+v", tag, err, ev)
		}
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"invalid json":     `{"event":`,
		"missing tag":      `{"data":1}`,
		"duration string":  `{"event":"setGraphDuration","data":"60s"}`,
		"add object":       `{"event":"add","data":{}}`,
		"add no name":      `{"event":"add","data":[{"info":{"ip":"x"},"history":[]}]}`,
		"update empty":     `{"event":"update","data":{"info":{"name":"A","timestamp":1}}}`,
		"graph bad pair":   `{"event":"historyGraph","data":{"a":[[1]]}}`,
		"graph negative":   `{"event":"historyGraph","data":{"a":[[1,-4]]}}`,
		"point missing ip": `{"event":"updateHistoryGraph","data":{"timestamp":1,"players":2}}`,
		"services array":   `{"event":"updateMojangServices","data":[]}`,
	}
	for name, frame := range cases {
		if _, err := DecodeFrame([]byte(frame)); !errors.Is(err, ErrMalformed) {
			t.Errorf("%s: expected ErrMalformed, got %v", name, err)
		}
	}
	if _, err := DecodeFrame([]byte(`{"event":"chat","data":"hi"}`)); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestErrnoRendering(t *testing.T) {
	ev, err := DecodePayload(TagUpdate, []byte(`{"info":{"name":"A"},"error":{"errno":0}}`))
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if msg := ev.(Update).Snapshot.Err.Message(); msg != FailedPingMessage {
		t.Errorf("expected fallback message, got %q", msg)
	}
	ev, _ = DecodePayload(TagUpdate, []byte(`{"info":{"name":"A"},"error":{"errno":-111}}`))
	if msg := ev.(Update).Snapshot.Err.Message(); msg != "-111" {
		t.Errorf("expected numeric errno, got %q", msg)
	}
}

func TestSampleJSONPair(t *testing.T) {
	b, err := json.Marshal(Sample{Timestamp: 10, Value: 3})
	if err != nil || string(b) != "[10,3]" {
		t.Fatalf("marshal: %s %v", b, err)
	}
}
