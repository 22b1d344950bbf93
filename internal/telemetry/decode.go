package telemetry

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	// ErrUnknownEvent is returned for an envelope whose tag is not recognized.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrMalformed is returned when a payload does not match its tag's schema.
	ErrMalformed = errors.New("malformed payload")
)

// DecodeFrame decodes one {"event": tag, "data": payload} envelope.
func DecodeFrame(frame []byte) (Event, error) {
	if !gjson.ValidBytes(frame) {
		return nil, fmt.Errorf("decode frame: %w: invalid json", ErrMalformed)
	}
	env := gjson.ParseBytes(frame)
	if !env.IsObject() {
		return nil, fmt.Errorf("decode frame: %w: envelope is not an object", ErrMalformed)
	}
	tag := env.Get("event")
	if tag.Type != gjson.String {
		return nil, fmt.Errorf("decode frame: %w: missing event tag", ErrMalformed)
	}
	return DecodePayload(tag.String(), []byte(env.Get("data").Raw))
}

// DecodePayload builds the event for tag from a raw JSON payload.
// Tags without a payload accept an empty raw value.
func DecodePayload(tag string, raw []byte) (Event, error) {
	if len(raw) > 0 && !gjson.ValidBytes(raw) {
		return nil, malformed(tag, "invalid json")
	}
	return decode(tag, gjson.ParseBytes(raw))
}

func decode(tag string, data gjson.Result) (Event, error) {
	switch tag {
	case TagConnect:
		return Connect{}, nil
	case TagDisconnect:
		return Disconnect{}, nil
	case TagSetGraphDuration:
		return decodeGraphDuration(data)
	case TagHistoryGraph:
		return decodeHistoryGraph(data)
	case TagUpdateHistoryGraph:
		return decodeHistoryPoint(data)
	case TagAdd:
		return decodeAdd(data)
	case TagUpdate:
		return decodeUpdate(data)
	case TagUpdateServices:
		return decodeServices(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, tag)
	}
}

func malformed(tag, format string, args ...any) error {
	return fmt.Errorf("decode %s: %w: %s", tag, ErrMalformed, fmt.Sprintf(format, args...))
}

func decodeGraphDuration(data gjson.Result) (Event, error) {
	if data.Type != gjson.Number {
		return nil, malformed(TagSetGraphDuration, "expected number, got %s", data.Type)
	}
	return SetGraphDuration{Duration: data.Int()}, nil
}

func decodeSamples(v gjson.Result) ([]Sample, error) {
	if !v.IsArray() {
		return nil, fmt.Errorf("expected array of [timestamp, value] pairs")
	}
	points := v.Array()
	out := make([]Sample, 0, len(points))
	for i, p := range points {
		pair := p.Array()
		if !p.IsArray() || len(pair) != 2 || pair[0].Type != gjson.Number || pair[1].Type != gjson.Number {
			return nil, fmt.Errorf("point %d: expected [timestamp, value]", i)
		}
		if pair[1].Int() < 0 {
			return nil, fmt.Errorf("point %d: negative value", i)
		}
		out = append(out, Sample{Timestamp: pair[0].Int(), Value: int(pair[1].Int())})
	}
	return out, nil
}

func decodeHistoryGraph(data gjson.Result) (Event, error) {
	if !data.IsObject() {
		return nil, malformed(TagHistoryGraph, "expected object keyed by entity")
	}
	ev := HistoryGraph{Series: make(map[string][]Sample)}
	var err error
	data.ForEach(func(key, value gjson.Result) bool {
		samples, e := decodeSamples(value)
		if e != nil {
			err = malformed(TagHistoryGraph, "%s: %v", key.String(), e)
			return false
		}
		ev.Series[key.String()] = samples
		return true
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func decodeHistoryPoint(data gjson.Result) (Event, error) {
	ip := data.Get("ip")
	if ip.Type != gjson.String || ip.String() == "" {
		return nil, malformed(TagUpdateHistoryGraph, "missing ip")
	}
	ts := data.Get("timestamp")
	players := data.Get("players")
	if ts.Type != gjson.Number || players.Type != gjson.Number {
		return nil, malformed(TagUpdateHistoryGraph, "timestamp and players must be numbers")
	}
	return UpdateHistoryGraph{ID: ip.String(), Timestamp: ts.Int(), Players: clampCount(players.Int())}, nil
}

func decodeAdd(data gjson.Result) (Event, error) {
	if !data.IsArray() {
		return nil, malformed(TagAdd, "expected array of entities")
	}
	records := data.Array()
	ev := Add{Entities: make([]EntityBatch, 0, len(records))}
	for i, rec := range records {
		history := rec.Get("history")
		if history.Exists() && !history.IsArray() {
			return nil, malformed(TagAdd, "entity %d: history is not an array", i)
		}
		points := history.Array()
		info := rec.Get("info")
		if !info.Exists() && len(points) > 0 {
			// Older servers repeat the info block on every history point.
			info = points[len(points)-1].Get("info")
		}
		name := info.Get("name")
		if name.Type != gjson.String || name.String() == "" {
			return nil, malformed(TagAdd, "entity %d: missing info.name", i)
		}
		batch := EntityBatch{
			Info: EntityInfo{
				Name: name.String(),
				IP:   info.Get("ip").String(),
				Type: info.Get("type").String(),
			},
			History: make([]HistoryPoint, 0, len(points)),
		}
		for _, p := range points {
			batch.History = append(batch.History, HistoryPoint{
				Timestamp: p.Get("timestamp").Int(),
				Snapshot:  decodeSnapshot(p),
			})
		}
		ev.Entities = append(ev.Entities, batch)
	}
	return ev, nil
}

func decodeUpdate(data gjson.Result) (Event, error) {
	name := data.Get("info.name")
	if name.Type != gjson.String || name.String() == "" {
		return nil, malformed(TagUpdate, "missing info.name")
	}
	snap := decodeSnapshot(data)
	if snap.Kind == SnapshotNone {
		return nil, malformed(TagUpdate, "%s: neither result nor error present", name.String())
	}
	return Update{ID: name.String(), Timestamp: data.Get("info.timestamp").Int(), Snapshot: snap}, nil
}

func decodeServices(data gjson.Result) (Event, error) {
	if !data.IsObject() {
		return nil, malformed(TagUpdateServices, "expected object keyed by service")
	}
	var ev UpdateServices
	var err error
	data.ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			err = malformed(TagUpdateServices, "%s: entry is not an object", key.String())
			return false
		}
		entry := ServiceStatus{
			ID:    key.String(),
			Name:  value.Get("name").String(),
			Title: ServiceTitle(value.Get("title").String()),
		}
		if st := value.Get("startTime"); st.Type == gjson.Number {
			entry.StartTime = st.Int()
		}
		ev.Entries = append(ev.Entries, entry)
		return true
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func decodeSnapshot(v gjson.Result) Snapshot {
	if r := v.Get("result"); r.IsObject() {
		return ResultSnapshot(clampCount(r.Get("players.online").Int()), r.Get("favicon").String())
	}
	if e := v.Get("error"); e.Exists() && e.Type != gjson.Null && e.Type != gjson.False {
		return ErrorSnapshot(PingError{
			Description: e.Get("description").String(),
			Errno:       errnoString(e.Get("errno")),
		})
	}
	return Snapshot{}
}

// errnoString renders errno the way the dashboard shows it; a zero, false
// or null errno counts as absent.
func errnoString(r gjson.Result) string {
	switch r.Type {
	case gjson.Number:
		if r.Num == 0 {
			return ""
		}
		return r.Raw
	case gjson.String:
		return r.String()
	default:
		return ""
	}
}

func clampCount(n int64) int {
	if n < 0 {
		return 0
	}
	return int(n)
}
