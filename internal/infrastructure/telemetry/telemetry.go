// Package telemetry wires OpenTelemetry tracing, logs and database metrics
// plus Pyroscope continuous profiling. Everything degrades to no-ops when
// disabled in configuration.
package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/wazhop/backend/internal/infrastructure/config"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// Version is reported as service.version on every signal
var Version = "dev"

func newResource(serviceName, env string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(Version),
			semconv.DeploymentEnvironmentName(env),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// Providers bundles the telemetry providers started for one process
type Providers struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
}

// Setup starts every provider enabled in cfg. Providers that are disabled
// are returned as no-op values so callers never nil-check.
func Setup(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Providers, error) {
	tcfg := cfg.Telemetry
	p := &Providers{}
	var err error

	p.Tracer, err = NewTracerProvider(ctx, Config{
		Enabled:           tcfg.Enabled,
		CollectorEndpoint: tcfg.CollectorEndpoint,
		SamplingRatio:     tcfg.SamplingRatio,
		ServiceName:       tcfg.ServiceName,
		Environment:       cfg.App.Env,
		Insecure:          tcfg.Insecure,
	}, logger)
	if err != nil {
		return nil, err
	}

	p.Meter, err = NewMeterProvider(ctx, MetricsConfig{
		Enabled:           tcfg.Enabled && tcfg.MetricsEnabled,
		CollectorEndpoint: tcfg.CollectorEndpoint,
		ExportInterval:    tcfg.MetricsInterval,
		ServiceName:       tcfg.ServiceName,
		Environment:       cfg.App.Env,
		Insecure:          tcfg.Insecure,
	}, logger)
	if err != nil {
		return nil, errors.Join(err, p.Tracer.Shutdown(ctx))
	}

	p.Logs, err = NewLoggerProvider(ctx, LogsConfig{
		Enabled:           tcfg.Enabled && tcfg.LogsEnabled,
		CollectorEndpoint: tcfg.CollectorEndpoint,
		ServiceName:       tcfg.ServiceName,
		Environment:       cfg.App.Env,
		Insecure:          tcfg.Insecure,
	}, logger)
	if err != nil {
		return nil, errors.Join(err, p.Meter.Shutdown(ctx), p.Tracer.Shutdown(ctx))
	}

	p.Profiler, err = NewProfiler(ProfilerConfig{
		Enabled:         cfg.Profiling.Enabled,
		ServerAddress:   cfg.Profiling.ServerAddress,
		ApplicationName: tcfg.ServiceName,
		AuthToken:       cfg.Profiling.AuthToken,
	}, logger)
	if err != nil {
		return nil, errors.Join(err, p.Logs.Shutdown(ctx), p.Meter.Shutdown(ctx), p.Tracer.Shutdown(ctx))
	}
	if p.Profiler.IsEnabled() {
		if err := p.Tracer.EnableSpanProfiles(); err != nil {
			logger.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}
	return p, nil
}

// Shutdown flushes and stops every provider, newest first
func (p *Providers) Shutdown(ctx context.Context) error {
	return errors.Join(
		p.Profiler.Stop(),
		p.Logs.Shutdown(ctx),
		p.Meter.Shutdown(ctx),
		p.Tracer.Shutdown(ctx),
	)
}
