package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/reflow-ui/reflow/pkg/reflow"
)

// Default tracer name for reflow schedulers.
const defaultTracerName = "reflow"

// OTelConfig configures the OpenTelemetry scheduler hooks.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "reflow").
	TracerName string

	// MinFlushDuration drops spans for flushes shorter than this.
	// Zero traces every flush.
	MinFlushDuration time.Duration

	// AttributeExtractor supplies extra attributes for each flush span.
	AttributeExtractor func() []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry scheduler hooks.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithMinFlushDuration sets the minimum flush duration worth a span.
func WithMinFlushDuration(d time.Duration) OTelOption {
	return func(c *OTelConfig) {
		c.MinFlushDuration = d
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func() []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// OTelHooks traces scheduler flushes as OpenTelemetry spans.
//
// Each flush becomes one span named "reflow.flush" carrying the run count,
// recovered effect errors, and any cycle abort. Spans use the global tracer
// provider; configure it in main() before creating schedulers:
//
//	tp := sdktrace.NewTracerProvider(
//	    sdktrace.WithBatcher(exporter),
//	    sdktrace.WithResource(resource.NewWithAttributes(
//	        semconv.SchemaURL,
//	        semconv.ServiceName("my-app"),
//	    )),
//	)
//	otel.SetTracerProvider(tp)
//
//	sched := reflow.NewScheduler(reflow.WithHooks(telemetry.NewOTelHooks()))
//
// Flushes run on whichever goroutine triggered them, so the hooks keep the
// open span in per-instance state rather than a context.Context. One
// OTelHooks instance must not be shared across schedulers that flush
// concurrently.
type OTelHooks struct {
	config OTelConfig

	mu    sync.Mutex
	span  trace.Span
	start time.Time
	errs  []error
	abort bool
}

// NewOTelHooks returns hooks that trace flushes via the global tracer
// provider.
func NewOTelHooks(opts ...OTelOption) *OTelHooks {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	return &OTelHooks{config: config}
}

// FlushStart implements reflow.Hooks.
func (h *OTelHooks) FlushStart() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.start = time.Now()
	h.errs = nil
	h.abort = false
	_, h.span = h.config.tracer.Start(
		context.Background(),
		"reflow.flush",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(h.start),
	)
}

// FlushEnd implements reflow.Hooks.
func (h *OTelHooks) FlushEnd(d time.Duration, runs int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.span == nil {
		return
	}
	span := h.span
	h.span = nil

	if d < h.config.MinFlushDuration && len(h.errs) == 0 && !h.abort {
		// Below the noise floor: end unsampled-worthy spans immediately
		// with no extra attributes.
		span.End(trace.WithTimestamp(h.start))
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Int("reflow.effect_runs", runs),
		attribute.Int("reflow.effect_errors", len(h.errs)),
	}
	if h.config.AttributeExtractor != nil {
		attrs = append(attrs, h.config.AttributeExtractor()...)
	}
	span.SetAttributes(attrs...)

	for _, err := range h.errs {
		span.RecordError(err)
	}
	switch {
	case h.abort:
		span.SetStatus(codes.Error, "flush aborted by cycle guard")
	case len(h.errs) > 0:
		span.SetStatus(codes.Error, h.errs[0].Error())
	default:
		span.SetStatus(codes.Ok, "")
	}

	span.End(trace.WithTimestamp(h.start.Add(d)))
}

// EffectRun implements reflow.Hooks.
func (h *OTelHooks) EffectRun(d time.Duration) {}

// EffectError implements reflow.Hooks.
func (h *OTelHooks) EffectError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, err)
}

// CycleAbort implements reflow.Hooks.
func (h *OTelHooks) CycleAbort(effectID uint64, runs int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.abort = true
	if h.span != nil {
		h.span.SetAttributes(
			attribute.Int64("reflow.cycle_effect_id", int64(effectID)),
			attribute.Int("reflow.cycle_runs", runs),
		)
	}
}

var _ reflow.Hooks = (*OTelHooks)(nil)
