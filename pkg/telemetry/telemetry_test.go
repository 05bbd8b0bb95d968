package telemetry

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	otellog "go.opentelemetry.io/otel/log"
)

// Compile-time interface checks.
var (
	_ Sink = (*FileSink)(nil)
	_ Sink = (*OTelSink)(nil)
	_ Sink = (*Memory)(nil)
	_ Sink = Multi(nil)
)

func TestFileSinkWritesEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "events.jsonl")
	var stderr bytes.Buffer
	sink, err := NewFileSink(path, &stderr)
	if err != nil {
		t.Fatal(err)
	}

	sink.Record(TagHookFailure, map[string]any{"level": 5, "error": errors.New("boom")})
	sink.Record(TagLevelStart, nil)
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}
	sink.Record(TagLevelStart, nil) // after close: ignored

	if stderr.Len() > 0 {
		t.Errorf("unexpected stderr: %q", stderr.String())
	}
	events, err := ReadAll(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Seq != 1 || events[1].Seq != 2 {
		t.Errorf("Seq = %d,%d, want 1,2", events[0].Seq, events[1].Seq)
	}
	if events[0].Tag != TagHookFailure {
		t.Errorf("Tag = %q, want %q", events[0].Tag, TagHookFailure)
	}
	if got := events[0].Context["error"]; got != "boom" {
		t.Errorf("error context = %v, want boom", got)
	}
	if events[0].Ts.IsZero() {
		t.Error("Ts should be filled")
	}
}

func TestFileSinkCloseIsIdempotent(t *testing.T) {
	sink, err := NewFileSink(filepath.Join(t.TempDir(), "e.jsonl"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}
	if err := sink.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}

func TestMultiFansOut(t *testing.T) {
	a, b := &Memory{}, &Memory{}
	Multi{a, nil, b, Discard}.Record(TagHoneypot, map[string]any{"id": "x"})
	if len(a.Events) != 1 || len(b.Events) != 1 {
		t.Fatalf("got %d/%d events, want 1/1", len(a.Events), len(b.Events))
	}
	if a.Tags()[0] != TagHoneypot {
		t.Errorf("tag = %q, want %q", a.Tags()[0], TagHoneypot)
	}
}

func TestOTelSinkWithNoopProviders(_ *testing.T) {
	s := NewOTelSink()
	s.Record(TagHookFailure, map[string]any{"level": 3, "ok": true, "ratio": 0.5, "n": int64(2), "err": errors.New("x"), "other": []int{1}})
	s.Record(TagLevelComplete, nil)
}

func TestSeverityFor(t *testing.T) {
	tests := map[string]otellog.Severity{
		TagHookFailure:   otellog.SeverityError,
		TagStoreFailure:  otellog.SeverityError,
		TagHoneypot:      otellog.SeverityWarn,
		TagLevelComplete: otellog.SeverityInfo,
	}
	for tag, want := range tests {
		if got := severityFor(tag); got != want {
			t.Errorf("severityFor(%q) = %v, want %v", tag, got, want)
		}
	}
}

func TestKV(t *testing.T) {
	if got := kv("e", errors.New("bad")).Value.AsString(); got != "bad" {
		t.Errorf("kv(error) = %q, want bad", got)
	}
	if got := kv("n", 4).Value.AsInt64(); got != 4 {
		t.Errorf("kv(int) = %d, want 4", got)
	}
	if got := kv("s", []string{"a"}).Value.AsString(); got != "[a]" {
		t.Errorf("kv(slice) = %q, want [a]", got)
	}
}
