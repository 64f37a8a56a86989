package telemetry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// SetupConfig selects which signals are exported to the collector
type SetupConfig struct {
	Enabled           bool
	MetricsEnabled    bool
	LogsEnabled       bool
	CollectorEndpoint string
	Insecure          bool
	SamplingRatio     float64
	MetricsInterval   time.Duration
	ServiceName       string
	ServiceVersion    string
}

// Providers holds the tracer, meter and logger providers of one process
type Providers struct {
	Traces  *TracerProvider
	Metrics *MeterProvider
	Logs    *LoggerProvider
}

// Setup creates all three providers. It never fails: a provider whose
// exporter cannot be created is logged and replaced by its disabled form.
func Setup(ctx context.Context, cfg SetupConfig, log *zap.Logger) *Providers {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Providers{}
	var err error

	p.Traces, err = NewTracerProvider(ctx, TracesConfig{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		SamplingRatio:     cfg.SamplingRatio,
		ServiceName:       cfg.ServiceName,
		ServiceVersion:    cfg.ServiceVersion,
		Insecure:          cfg.Insecure,
	}, log)
	if err != nil {
		log.Warn("Tracing disabled", zap.Error(err))
		p.Traces = &TracerProvider{logger: log}
	}

	p.Metrics, err = NewMeterProvider(ctx, MetricsConfig{
		Enabled:           cfg.Enabled && cfg.MetricsEnabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		ExportInterval:    cfg.MetricsInterval,
		ServiceName:       cfg.ServiceName,
		ServiceVersion:    cfg.ServiceVersion,
		Insecure:          cfg.Insecure,
	}, log)
	if err != nil {
		log.Warn("Metrics disabled", zap.Error(err))
		p.Metrics = &MeterProvider{logger: log}
	}

	p.Logs, err = NewLoggerProvider(ctx, LogsConfig{
		Enabled:           cfg.Enabled && cfg.LogsEnabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		ServiceName:       cfg.ServiceName,
		ServiceVersion:    cfg.ServiceVersion,
		Insecure:          cfg.Insecure,
	}, log)
	if err != nil {
		log.Warn("Log export disabled", zap.Error(err))
		p.Logs = &LoggerProvider{scope: cfg.ServiceName}
	}
	return p
}

// Shutdown stops every provider and reports all failures together
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return errors.Join(p.Traces.Shutdown(ctx), p.Metrics.Shutdown(ctx), p.Logs.Shutdown(ctx))
}

// shutdownWithin bounds a provider shutdown by shutdownTimeout
func shutdownWithin(ctx context.Context, shutdown func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return shutdown(ctx)
}
