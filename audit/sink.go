package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
)

// Sink receives mirrored or rotated audit records.
type Sink interface {
	Emit(ctx context.Context, record Record)
}

// NoOpSink drops records.
type NoOpSink struct{}

// Emit discards the record.
func (NoOpSink) Emit(context.Context, Record) {}

// ChannelSink writes records into a buffered channel, for tests and for
// consumers that drain on their own schedule.
type ChannelSink struct {
	records chan Record
}

// NewChannelSink creates a ChannelSink with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		records: make(chan Record, buffer),
	}
}

// Emit blocks until the record is buffered or ctx is done.
func (s *ChannelSink) Emit(ctx context.Context, record Record) {
	select {
	case s.records <- record:
	case <-ctx.Done():
	}
}

// Records returns the receive side of the sink.
func (s *ChannelSink) Records() <-chan Record {
	return s.records
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink creates a JSONWriterSink that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

// Emit marshals the record and appends it to the writer as a single line.
func (s *JSONWriterSink) Emit(_ context.Context, record Record) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(record)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
