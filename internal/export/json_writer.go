package export

import (
	"context"
	"encoding/json"
	"io"
	"sync"
)

// JSONWriter prints rows as JSON lines, for print-only runs and sample files.
type JSONWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONWriter creates a JSONWriter writing to out.
func NewJSONWriter(out io.Writer) *JSONWriter {
	return &JSONWriter{enc: json.NewEncoder(out)}
}

// WriteBatch writes one line per row.
func (w *JSONWriter) WriteBatch(_ context.Context, rows []Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range rows {
		if err := w.enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
