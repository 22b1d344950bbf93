// Package record persists received frames and replays them later.
package record

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Entry is one line of a recording.
type Entry struct {
	ReceivedAt time.Time       `json:"received_at"`
	Frame      json.RawMessage `json:"frame"`
}

// FileWriter appends frames as JSON lines. It is a transport sink.
type FileWriter struct {
	mu  sync.Mutex
	c   io.Closer
	enc *json.Encoder
	now func() time.Time
}

// NewFileWriter creates or truncates path.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recording: %w", err)
	}
	return NewWriter(f), nil
}

// NewWriter records to w. If w is an io.Closer, Close closes it.
func NewWriter(w io.Writer) *FileWriter {
	fw := &FileWriter{enc: json.NewEncoder(w), now: time.Now}
	if c, ok := w.(io.Closer); ok {
		fw.c = c
	}
	return fw
}

// HandleFrame records one frame with the current time.
func (f *FileWriter) HandleFrame(frame []byte) error {
	if !json.Valid(frame) {
		return fmt.Errorf("record: frame is not valid json")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enc.Encode(Entry{ReceivedAt: f.now(), Frame: frame})
}

// Close closes the underlying file.
func (f *FileWriter) Close() error {
	if f.c == nil {
		return nil
	}
	return f.c.Close()
}
