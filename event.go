package vatrace

import (
	"io"
	"strconv"
	"sync"
	"time"
)

// CallEvent is emitted once per intercepted call, before it is forwarded.
type CallEvent struct {
	Seq        uint64
	EntryPoint string
	Time       time.Time
}

// Sink receives call events. Emit is called synchronously on the calling
// thread and must be safe for concurrent use.
type Sink interface {
	Emit(ev CallEvent)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev CallEvent)

// Emit calls f(ev).
func (f SinkFunc) Emit(ev CallEvent) { f(ev) }

// MultiSink fans an event out to several sinks in order.
type MultiSink []Sink

// Emit forwards ev to every sink.
func (m MultiSink) Emit(ev CallEvent) {
	for _, s := range m {
		s.Emit(ev)
	}
}

// DiscardSink drops every event.
var DiscardSink Sink = SinkFunc(func(CallEvent) {})

// WriterSink writes one line per event to an io.Writer.
//
//	vatrace: vaCreateConfig
//	vatrace: 2026-01-02T15:04:05.000000001Z #17 vaCreateConfig
type WriterSink struct {
	mu         sync.Mutex
	w          io.Writer
	timestamps bool
	buf        []byte
}

// NewWriterSink returns a sink writing to w. With timestamps set each line
// also carries the event time and sequence number.
func NewWriterSink(w io.Writer, timestamps bool) *WriterSink {
	return &WriterSink{w: w, timestamps: timestamps, buf: make([]byte, 0, 96)}
}

// Emit writes ev as a single line. Write errors are ignored; tracing must
// not change the outcome of the traced call.
func (s *WriterSink) Emit(ev CallEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := append(s.buf[:0], "vatrace: "...)
	if s.timestamps {
		b = ev.Time.UTC().AppendFormat(b, time.RFC3339Nano)
		b = append(b, " #"...)
		b = strconv.AppendUint(b, ev.Seq, 10)
		b = append(b, ' ')
	}
	b = append(b, ev.EntryPoint...)
	b = append(b, '\n')
	s.buf = b

	_, _ = s.w.Write(b)
}
