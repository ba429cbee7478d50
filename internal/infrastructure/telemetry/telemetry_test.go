package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wazhop/backend/internal/infrastructure/config"
	"github.com/wazhop/backend/internal/infrastructure/persistence/models"
	"github.com/wazhop/backend/tests/testutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetup_AllDisabled(t *testing.T) {
	cfg := &config.Config{
		App:       config.AppConfig{Env: "test"},
		Telemetry: config.TelemetryConfig{ServiceName: "wazhop-api"},
	}
	p, err := Setup(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, p.Tracer.IsEnabled())
	assert.False(t, p.Meter.IsEnabled())
	assert.False(t, p.Logs.IsEnabled())
	assert.False(t, p.Profiler.IsEnabled())
	assert.NotNil(t, p.Tracer.Tracer("test"))
	assert.NotNil(t, p.Meter.Meter("test"))
	require.NoError(t, p.Shutdown(context.Background()))
	require.NoError(t, p.Profiler.Stop(), "stop twice")
}

func TestNewProfiler_Validation(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "wazhop"}, zap.NewNop())
	assert.Error(t, err)
	_, err = NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://pyroscope:4040"}, zap.NewNop())
	assert.Error(t, err)
}

func TestSplitAuth(t *testing.T) {
	user, pass, ok := splitAuth("12345:glc_token")
	assert.True(t, ok)
	assert.Equal(t, "12345", user)
	assert.Equal(t, "glc_token", pass)

	_, _, ok = splitAuth("token-only")
	assert.False(t, ok)
	_, _, ok = splitAuth(":secret")
	assert.False(t, ok)
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Equal(t, "AlwaysOffSampler", sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}

func TestLoggerProvider_BridgeDisabledReturnsSameLogger(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{}, zap.NewNop())
	require.NoError(t, err)
	logger := zap.NewNop()
	assert.Same(t, logger, lp.Bridge(logger, zapcore.InfoLevel))
}

func TestLevelFilterCore(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	filtered := &levelFilterCore{Core: core, minLevel: zapcore.WarnLevel}
	logger := zap.New(filtered).With(zap.String("component", "test"))

	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept too")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
	assert.Equal(t, "test", logs.All()[0].ContextMap()["component"])
}

func TestSpanHelpers(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, span := StartSpan(context.Background(), "order.create")
	assert.NotEmpty(t, TraceID(ctx))
	EndSpan(span, errors.New("insufficient stock"))

	_, listSpan := StartSpan(context.Background(), "order.list")
	EndSpan(listSpan, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, codes.Unset, spans[1].Status().Code)
	assert.Empty(t, TraceID(context.Background()))
}

func TestInstrumentDB_RecordsQueryDuration(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	core, logs := observer.New(zapcore.WarnLevel)
	_, err := InstrumentDB(db, mp.Meter("test"), DBConfig{SlowQueryThresh: time.Nanosecond}, zap.New(core))
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.WithContext(context.Background()).Model(&models.UserModel{}).Count(&count).Error)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["db.client.query.duration"])
	assert.True(t, names["db.client.connections.open"])
	assert.NotZero(t, logs.FilterMessage("Slow query").Len())
}

func TestTruncateSQL(t *testing.T) {
	assert.Equal(t, "SELECT * FROM shops", truncateSQL("SELECT *\n\tFROM   shops", 100))
	assert.Equal(t, "SELECT...", truncateSQL("SELECT * FROM shops", 6))
}
