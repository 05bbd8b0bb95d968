// Package telemetry records best-effort diagnostic events. Recording never
// blocks the caller and never returns an error.
package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Event tags emitted by the game.
const (
	TagHookFailure   = "level.onEnter"
	TagLevelStart    = "level.start"
	TagLevelComplete = "level.complete"
	TagTaskComplete  = "task.complete"
	TagHoneypot      = "honeypot.triggered"
	TagLockout       = "level.lockout"
	TagStoreFailure  = "frecency.save"
)

// Sink records a tagged event with free-form context.
type Sink interface {
	Record(tag string, ctx map[string]any)
}

// Discard silently drops all events.
var Discard Sink = discardSink{}

type discardSink struct{}

func (discardSink) Record(string, map[string]any) {}

// Event is one JSONL line written by FileSink.
type Event struct {
	Seq     uint64         `json:"seq"`
	Tag     string         `json:"tag"`
	Ts      time.Time      `json:"ts"`
	Context map[string]any `json:"context,omitempty"`
}

// FileSink appends events to a JSONL file from a single writer goroutine.
// Events beyond the buffer are dropped rather than blocking the recorder.
type FileSink struct {
	events  chan Event
	done    chan struct{}
	file    *os.File
	stderr  io.Writer
	mu      sync.Mutex
	seq     uint64
	closed  bool
	dropped uint64
	now     func() time.Time
}

// NewFileSink opens (or creates) the log at path. Parent directories are
// created as needed.
func NewFileSink(path string, stderr io.Writer) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating telemetry directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening telemetry log: %w", err)
	}
	if stderr == nil {
		stderr = io.Discard
	}
	s := &FileSink{
		events: make(chan Event, 64),
		done:   make(chan struct{}),
		file:   file,
		stderr: stderr,
		now:    time.Now,
	}
	go s.drain()
	return s, nil
}

// Record queues an event. It returns immediately.
func (s *FileSink) Record(tag string, ctx map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.seq++
	e := Event{Seq: s.seq, Tag: tag, Ts: s.now(), Context: copyContext(ctx)}
	select {
	case s.events <- e:
	default:
		s.dropped++
	}
}

func (s *FileSink) drain() {
	defer close(s.done)
	w := bufio.NewWriter(s.file)
	for e := range s.events {
		data, err := json.Marshal(e)
		if err != nil {
			fmt.Fprintf(s.stderr, "telemetry: marshal: %v\n", err) //nolint:errcheck // best-effort stderr
			continue
		}
		data = append(data, '\n')
		if _, err := w.Write(data); err != nil {
			fmt.Fprintf(s.stderr, "telemetry: write: %v\n", err) //nolint:errcheck // best-effort stderr
			continue
		}
		if len(s.events) == 0 {
			if err := w.Flush(); err != nil {
				fmt.Fprintf(s.stderr, "telemetry: flush: %v\n", err) //nolint:errcheck // best-effort stderr
			}
		}
	}
	_ = w.Flush()
}

// Dropped reports how many events were discarded because the queue was full.
func (s *FileSink) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close stops accepting events, writes out the queue, and closes the file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.events)
	s.mu.Unlock()
	<-s.done
	return s.file.Close()
}

// ReadAll parses every event in a JSONL log.
func ReadAll(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, scanner.Err()
}

// Multi fans an event out to every sink.
type Multi []Sink

func (m Multi) Record(tag string, ctx map[string]any) {
	for _, s := range m {
		if s != nil {
			s.Record(tag, ctx)
		}
	}
}

// Memory keeps events in memory. Useful for tests and the in-game log.
type Memory struct {
	mu     sync.Mutex
	Events []Event
}

func (m *Memory) Record(tag string, ctx map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, Event{Seq: uint64(len(m.Events) + 1), Tag: tag, Ts: time.Now(), Context: copyContext(ctx)})
}

// Tags returns the recorded tags in order.
func (m *Memory) Tags() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Tag
	}
	return out
}

func copyContext(ctx map[string]any) map[string]any {
	if len(ctx) == 0 {
		return nil
	}
	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		out[k] = v
	}
	return out
}

func sortedKeys(ctx map[string]any) []string {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
