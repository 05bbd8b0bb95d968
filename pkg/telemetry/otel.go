package telemetry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName  = "github.com/mattsolo1/grove-terminus"
	loggerName = "terminus"
)

// OTelSink emits each event as an OTel log record and counts it on a single
// counter labelled by tag. It uses the global providers, so it is a no-op
// until an exporter is installed.
type OTelSink struct {
	once    sync.Once
	counter metric.Int64Counter
}

// NewOTelSink returns a sink bound to the global providers.
func NewOTelSink() *OTelSink {
	return &OTelSink{}
}

func (s *OTelSink) instruments() metric.Int64Counter {
	s.once.Do(func() {
		m := otel.GetMeterProvider().Meter(meterName)
		s.counter, _ = m.Int64Counter("terminus.events.total",
			metric.WithDescription("Total recorded game events by tag"),
		)
	})
	return s.counter
}

func (s *OTelSink) Record(tag string, ctx map[string]any) {
	bg := context.Background()
	if c := s.instruments(); c != nil {
		c.Add(bg, 1, metric.WithAttributes(attribute.String("tag", tag)))
	}
	emit(bg, tag, severityFor(tag), attrs(ctx)...)
}

func emit(ctx context.Context, body string, sev otellog.Severity, attrs ...otellog.KeyValue) {
	logger := global.GetLoggerProvider().Logger(loggerName)
	var r otellog.Record
	r.SetBody(otellog.StringValue(body))
	r.SetSeverity(sev)
	r.AddAttributes(attrs...)
	logger.Emit(ctx, r)
}

func severityFor(tag string) otellog.Severity {
	switch {
	case tag == TagHookFailure, strings.HasSuffix(tag, ".save"):
		return otellog.SeverityError
	case tag == TagHoneypot, tag == TagLockout:
		return otellog.SeverityWarn
	}
	return otellog.SeverityInfo
}

func attrs(ctx map[string]any) []otellog.KeyValue {
	out := make([]otellog.KeyValue, 0, len(ctx))
	for _, k := range sortedKeys(ctx) {
		out = append(out, kv(k, ctx[k]))
	}
	return out
}

func kv(key string, v any) otellog.KeyValue {
	switch x := v.(type) {
	case string:
		return otellog.String(key, x)
	case int:
		return otellog.Int(key, x)
	case int64:
		return otellog.Int64(key, x)
	case float64:
		return otellog.Float64(key, x)
	case bool:
		return otellog.Bool(key, x)
	case error:
		return otellog.String(key, x.Error())
	}
	return otellog.String(key, fmt.Sprint(v))
}
