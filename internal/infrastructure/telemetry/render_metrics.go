package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics constructor receives a nil meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// Outcome attribute values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// RenderMetrics records PDF generation counters and distributions.
type RenderMetrics struct {
	renders  *Counter
	duration *Histogram
	size     *Histogram
	archives *Counter
	active   *Gauge
}

// NewRenderMetrics registers the document render instruments on meter.
func NewRenderMetrics(meter metric.Meter) (*RenderMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	renders, err := NewCounter(meter, MetricRenders, "Number of PDF render attempts", "{render}")
	if err != nil {
		return nil, err
	}
	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        MetricRenderDuration,
		Description: "Time spent producing a PDF",
		Unit:        "s",
		Boundaries:  RenderDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	size, err := NewHistogram(meter, HistogramOpts{
		Name:        MetricPDFSize,
		Description: "Size of rendered PDFs",
		Unit:        "By",
		Boundaries:  PDFSizeBuckets,
	})
	if err != nil {
		return nil, err
	}
	archives, err := NewCounter(meter, MetricArchives, "Number of PDFs written to archive storage", "{file}")
	if err != nil {
		return nil, err
	}

	active, err := NewGauge(meter, MetricRendersActive, "Renders currently in progress", "{render}")
	if err != nil {
		return nil, err
	}

	return &RenderMetrics{
		renders:  renders,
		duration: duration,
		size:     size,
		archives: archives,
		active:   active,
	}, nil
}

// StartRender counts a render as in progress until the returned func is called
func (m *RenderMetrics) StartRender(ctx context.Context, backend string) func() {
	if m == nil {
		return func() {}
	}
	return m.active.Track(ctx, AttrBackend.String(backend))
}

// RecordRender records one render attempt. Size is only recorded on success.
func (m *RenderMetrics) RecordRender(ctx context.Context, backend, docType string, elapsed time.Duration, size int, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	attrs := []attribute.KeyValue{
		AttrBackend.String(backend),
		AttrDocType.String(docType),
	}
	m.renders.Inc(ctx, append(attrs, AttrOutcome.String(outcome))...)
	m.duration.RecordDuration(ctx, elapsed, attrs...)
	if err == nil {
		m.size.Record(ctx, float64(size), attrs...)
	}
}

// RecordArchive records one archive write.
func (m *RenderMetrics) RecordArchive(ctx context.Context, docType string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.archives.Inc(ctx, AttrDocType.String(docType), AttrOutcome.String(outcome))
}
