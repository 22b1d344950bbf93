// Package transport delivers push frames from the tracking server to sinks.
package transport

import "errors"

// Sink consumes raw wire frames in delivery order.
type Sink interface {
	HandleFrame(frame []byte) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(frame []byte) error

func (f SinkFunc) HandleFrame(frame []byte) error { return f(frame) }

// Frames synthesized by the client around a connection's lifetime.
var (
	ConnectFrame    = []byte(`{"event":"connect"}`)
	DisconnectFrame = []byte(`{"event":"disconnect"}`)
	requestHistory  = []byte(`{"event":"requestHistoryGraph"}`)
)

// MultiSink fans frames out to multiple sinks.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a MultiSink. Nil sinks are skipped.
func NewMultiSink(sinks ...Sink) *MultiSink {
	ms := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			ms.sinks = append(ms.sinks, s)
		}
	}
	return ms
}

// HandleFrame delivers frame to every sink, even when an earlier one
// fails, and returns the joined errors.
func (ms *MultiSink) HandleFrame(frame []byte) error {
	var errs []error
	for _, s := range ms.sinks {
		if err := s.HandleFrame(frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
