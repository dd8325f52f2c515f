package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var errExporterClosed = errors.New("file exporter is shut down")

// FileExporter appends finished runs to a JSONL file, one RunRecord per line,
// so a session can be inspected with jq.
type FileExporter struct {
	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
}

// NewFileExporter opens path for appending, creating it and its parent
// directories as needed.
func NewFileExporter(path string) (*FileExporter, error) {
	path = filepath.Clean(path)

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create trace directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) // #nosec G304 -- path is cleaned above
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	return &FileExporter{file: file, buf: bufio.NewWriter(file)}, nil
}

// ExportSpans writes one line per span and flushes once per batch.
func (e *FileExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	if len(spans) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.file == nil {
		return errExporterClosed
	}

	enc := json.NewEncoder(e.buf)
	for _, span := range spans {
		if err := enc.Encode(newRunRecord(span)); err != nil {
			return fmt.Errorf("encode span %s: %w", span.Name(), err)
		}
	}
	if err := e.buf.Flush(); err != nil {
		return fmt.Errorf("flush trace file: %w", err)
	}
	return nil
}

// Shutdown flushes and closes the file. Later exports fail.
func (e *FileExporter) Shutdown(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.file == nil {
		return nil
	}
	flushErr := e.buf.Flush()
	closeErr := e.file.Close()
	e.file = nil
	return errors.Join(flushErr, closeErr)
}

// RunRecord is the JSON shape of one exported span. Dispatcher runs carry
// their event name and run ID at the top level.
type RunRecord struct {
	TraceID    string         `json:"trace_id"`
	SpanID     string         `json:"span_id"`
	Name       string         `json:"name"`
	Event      string         `json:"event,omitempty"`
	RunID      string         `json:"run_id,omitempty"`
	Start      time.Time      `json:"start"`
	DurationMs float64        `json:"duration_ms"`
	Outcome    string         `json:"outcome"`
	Reason     string         `json:"reason,omitempty"`
	Delivered  int            `json:"delivered"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Events     []SpanEvent    `json:"events,omitempty"`
}

// SpanEvent is one recorded span event.
type SpanEvent struct {
	Name       string         `json:"name"`
	OffsetMs   float64        `json:"offset_ms"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

func newRunRecord(span sdktrace.ReadOnlySpan) RunRecord {
	sc := span.SpanContext()
	attrs := attrMap(span.Attributes())

	rec := RunRecord{
		TraceID:    sc.TraceID().String(),
		SpanID:     sc.SpanID().String(),
		Name:       span.Name(),
		Start:      span.StartTime(),
		DurationMs: millis(span.EndTime().Sub(span.StartTime())),
		Outcome:    span.Status().Code.String(),
		Reason:     span.Status().Description,
		Attributes: attrs,
	}
	if v, ok := attrs[AttrEventName].(string); ok {
		rec.Event = v
	}
	if v, ok := attrs[AttrRunID].(string); ok {
		rec.RunID = v
	}

	for _, evt := range span.Events() {
		if evt.Name == EventEnvelopeDelivered {
			rec.Delivered++
		}
		rec.Events = append(rec.Events, SpanEvent{
			Name:       evt.Name,
			OffsetMs:   millis(evt.Time.Sub(span.StartTime())),
			Attributes: attrMap(evt.Attributes),
		})
	}
	return rec
}

func attrMap(kvs []attribute.KeyValue) map[string]any {
	if len(kvs) == 0 {
		return nil
	}
	m := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}
	return m
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
