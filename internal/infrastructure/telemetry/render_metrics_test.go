package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func newTestRenderMetrics(t *testing.T) (*telemetry.RenderMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := telemetry.NewRenderMetrics(provider.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func TestNewRenderMetrics_NilMeter(t *testing.T) {
	m, err := telemetry.NewRenderMetrics(nil)
	assert.Nil(t, m)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func TestRenderMetrics_RecordRender(t *testing.T) {
	m, reader := newTestRenderMetrics(t)
	ctx := context.Background()

	m.RecordRender(ctx, "LAYOUT", "INVOICE", 40*time.Millisecond, 12000, nil)
	m.RecordRender(ctx, "LAYOUT", "INVOICE", 30*time.Millisecond, 9000, nil)
	m.RecordRender(ctx, "HTML", "QUOTE", 2*time.Second, 0, errors.New("timeout"))

	metrics := collect(t, reader)

	renders, ok := metrics["document_renders_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	counts := make(map[string]int64)
	for _, dp := range renders.DataPoints {
		backend, _ := dp.Attributes.Value(telemetry.AttrBackend)
		outcome, _ := dp.Attributes.Value(telemetry.AttrOutcome)
		counts[backend.AsString()+"/"+outcome.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{
		"LAYOUT/success": 2,
		"HTML/failure":   1,
	}, counts)

	sizes, ok := metrics["document_pdf_size_bytes"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, sizes.DataPoints, 1)
	assert.Equal(t, uint64(2), sizes.DataPoints[0].Count)
	assert.InDelta(t, 21000, sizes.DataPoints[0].Sum, 0.001)

	durations, ok := metrics["document_render_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, durations.DataPoints, 2)
}

func TestRenderMetrics_RecordArchive(t *testing.T) {
	m, reader := newTestRenderMetrics(t)

	m.RecordArchive(context.Background(), "INVOICE", nil)
	m.RecordArchive(context.Background(), "INVOICE", errors.New("denied"))

	archives, ok := collect(t, reader)["document_archives_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, archives.DataPoints, 2)
	for _, dp := range archives.DataPoints {
		assert.Equal(t, int64(1), dp.Value)
		docType, _ := dp.Attributes.Value(telemetry.AttrDocType)
		assert.Equal(t, "INVOICE", docType.AsString())
	}
}

func TestRenderMetrics_NilReceiver(t *testing.T) {
	var m *telemetry.RenderMetrics
	assert.NotPanics(t, func() {
		m.RecordRender(context.Background(), "LAYOUT", "INVOICE", time.Millisecond, 1, nil)
		m.RecordArchive(context.Background(), "INVOICE", nil)
		m.StartRender(context.Background(), "LAYOUT")()
	})
}

func TestRenderMetrics_StartRender(t *testing.T) {
	m, reader := newTestRenderMetrics(t)
	ctx := context.Background()

	finishLayout := m.StartRender(ctx, "LAYOUT")
	_ = m.StartRender(ctx, "HTML")
	finishLayout()

	active, ok := collect(t, reader)[telemetry.MetricRendersActive].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	inFlight := make(map[string]int64)
	for _, dp := range active.DataPoints {
		backend, _ := dp.Attributes.Value(telemetry.AttrBackend)
		inFlight[backend.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"LAYOUT": 0, "HTML": 1}, inFlight)
}

func TestHistogramViews_ApplyBuckets(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithView(telemetry.HistogramViews()...),
	)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	h, err := telemetry.NewHistogram(provider.Meter("test"), telemetry.HistogramOpts{
		Name: telemetry.MetricHTTPDuration,
		Unit: "s",
	})
	require.NoError(t, err)
	h.RecordDuration(context.Background(), 30*time.Millisecond)

	got, ok := collect(t, reader)[telemetry.MetricHTTPDuration].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, got.DataPoints, 1)
	assert.Equal(t, telemetry.HTTPDurationBuckets, got.DataPoints[0].Bounds)
}

func TestHistogram_WithoutBoundaries(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	h, err := telemetry.NewHistogram(provider.Meter("test"), telemetry.HistogramOpts{Name: "sample", Unit: "s"})
	require.NoError(t, err)
	h.Record(context.Background(), 1.5, attribute.String("k", "v"))

	sample, ok := collect(t, reader)["sample"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, sample.DataPoints, 1)
	assert.Equal(t, uint64(1), sample.DataPoints[0].Count)
}
