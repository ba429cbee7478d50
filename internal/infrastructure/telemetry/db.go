package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBConfig configures GORM instrumentation
type DBConfig struct {
	TracingEnabled bool
	// LogFullSQL keeps bound variables in span statements
	LogFullSQL      bool
	DBSystem        string
	SlowQueryThresh time.Duration
}

type startTimeKey struct{}

// DBInstrumentation records spans, slow-query events and query duration
// for every GORM operation
type DBInstrumentation struct {
	config   DBConfig
	logger   *zap.Logger
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

// InstrumentDB installs tracing and metrics callbacks on db. The pool
// gauges are registered on meter as observable instruments.
func InstrumentDB(db *gorm.DB, meter metric.Meter, cfg DBConfig, logger *zap.Logger) (*DBInstrumentation, error) {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = db.Dialector.Name()
	}
	in := &DBInstrumentation{config: cfg, logger: logger}

	var err error
	in.duration, err = meter.Float64Histogram("db.client.query.duration",
		metric.WithDescription("Duration of database queries"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create query duration histogram: %w", err)
	}
	in.errors, err = meter.Int64Counter("db.client.query.errors",
		metric.WithDescription("Failed database queries"))
	if err != nil {
		return nil, fmt.Errorf("failed to create query error counter: %w", err)
	}

	if cfg.TracingEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
		if !cfg.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return nil, fmt.Errorf("failed to register otelgorm: %w", err)
		}
	}

	if err := in.registerCallbacks(db); err != nil {
		return nil, err
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := registerPoolGauges(meter, sqlDB); err != nil {
			return nil, err
		}
	}

	logger.Info("Database instrumentation enabled",
		zap.Bool("tracing", cfg.TracingEnabled),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh))
	return in, nil
}

func (in *DBInstrumentation) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	type pair struct {
		name   string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}
	ops := []pair{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, op := range ops {
		if err := op.before("wazhop:before_"+op.name, in.before); err != nil {
			return err
		}
		if err := op.after("wazhop:after_"+op.name, in.afterFor(op.name)); err != nil {
			return err
		}
	}
	return nil
}

func (in *DBInstrumentation) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, startTimeKey{}, time.Now())
	}
}

func (in *DBInstrumentation) afterFor(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		start, ok := ctx.Value(startTimeKey{}).(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(start)
		failed := db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound)

		attrs := metric.WithAttributes(
			attribute.String("db.operation", operation),
			attribute.String("db.sql.table", db.Statement.Table),
		)
		in.duration.Record(ctx, elapsed.Seconds(), attrs)
		if failed {
			in.errors.Add(ctx, 1, attrs)
		}

		span := trace.SpanFromContext(ctx)
		if span.IsRecording() {
			span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
			if failed {
				span.SetStatus(codes.Error, db.Error.Error())
				span.RecordError(db.Error)
			}
		}

		if elapsed > in.config.SlowQueryThresh {
			if span.IsRecording() {
				span.AddEvent("slow_query", trace.WithAttributes(
					attribute.Int64("duration_ms", elapsed.Milliseconds()),
					attribute.Int64("threshold_ms", in.config.SlowQueryThresh.Milliseconds()),
				))
			}
			in.logger.Warn("Slow query",
				zap.String("operation", operation),
				zap.String("table", db.Statement.Table),
				zap.Duration("duration", elapsed),
				zap.String("sql", truncateSQL(db.Statement.SQL.String(), 500)),
			)
		}
	}
}

func truncateSQL(sql string, n int) string {
	sql = strings.Join(strings.Fields(sql), " ")
	if len(sql) <= n {
		return sql
	}
	return sql[:n] + "..."
}

func registerPoolGauges(meter metric.Meter, sqlDB *sql.DB) error {
	open, err := meter.Int64ObservableGauge("db.client.connections.open")
	if err != nil {
		return err
	}
	inUse, err := meter.Int64ObservableGauge("db.client.connections.in_use")
	if err != nil {
		return err
	}
	waits, err := meter.Int64ObservableCounter("db.client.connections.wait_count")
	if err != nil {
		return err
	}
	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(open, int64(stats.OpenConnections))
		o.ObserveInt64(inUse, int64(stats.InUse))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, open, inUse, waits)
	return err
}
