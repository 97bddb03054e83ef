package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const startTimeKey = "telemetry:query_start"

// DBConfig controls database instrumentation
type DBConfig struct {
	// Trace registers the otelgorm plugin so every query becomes a span
	Trace bool
	// DBName is reported as db.name on spans
	DBName string
	// SlowQueryThreshold marks spans and counts queries slower than this
	SlowQueryThreshold time.Duration
}

// DefaultDBConfig returns the production defaults
func DefaultDBConfig() DBConfig {
	return DBConfig{
		DBName:             "postgresql",
		SlowQueryThreshold: 200 * time.Millisecond,
	}
}

// DBInstrumentation records query latency, slow queries and pool usage
type DBInstrumentation struct {
	cfg           DBConfig
	logger        *zap.Logger
	queryTotal    *Counter
	queryDuration *Histogram
	slowQueries   *Counter
	registration  metric.Registration
}

// InstrumentDB attaches tracing and metrics callbacks to db. The returned
// value must be closed to stop observing the connection pool.
func InstrumentDB(db *gorm.DB, meter metric.Meter, cfg DBConfig, logger *zap.Logger) (*DBInstrumentation, error) {
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = DefaultDBConfig().SlowQueryThreshold
	}
	if cfg.DBName == "" {
		cfg.DBName = DefaultDBConfig().DBName
	}

	in := &DBInstrumentation{cfg: cfg, logger: logger}
	var err error
	if in.queryTotal, err = NewCounter(meter, "db_query_total", "Database queries by operation", "{query}"); err != nil {
		return nil, err
	}
	if in.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if in.slowQueries, err = NewCounter(meter, "db_slow_query_total", "Queries slower than the slow query threshold", "{query}"); err != nil {
		return nil, err
	}

	if cfg.Trace {
		if err := db.Use(otelgorm.NewPlugin(
			otelgorm.WithDBName(cfg.DBName),
			otelgorm.WithoutQueryVariables(),
		)); err != nil {
			return nil, fmt.Errorf("failed to register otelgorm: %w", err)
		}
	}

	if err := in.registerCallbacks(db); err != nil {
		return nil, fmt.Errorf("failed to register query callbacks: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	connections, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"), metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}
	maxConnections, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections"), metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}
	in.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(connections, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(connections, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(maxConnections, int64(stats.MaxOpenConnections))
		return nil
	}, connections, maxConnections)
	if err != nil {
		return nil, err
	}

	logger.Info("Database instrumentation enabled",
		zap.Bool("trace", cfg.Trace),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThreshold))
	return in, nil
}

// Close stops pool observation
func (in *DBInstrumentation) Close() error {
	if in.registration == nil {
		return nil
	}
	return in.registration.Unregister()
}

func (in *DBInstrumentation) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("telemetry:before_create", markStart),
		cb.Create().After("gorm:create").Register("telemetry:after_create", in.after("create")),
		cb.Query().Before("gorm:query").Register("telemetry:before_query", markStart),
		cb.Query().After("gorm:query").Register("telemetry:after_query", in.after("select")),
		cb.Update().Before("gorm:update").Register("telemetry:before_update", markStart),
		cb.Update().After("gorm:update").Register("telemetry:after_update", in.after("update")),
		cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", markStart),
		cb.Delete().After("gorm:delete").Register("telemetry:after_delete", in.after("delete")),
		cb.Row().Before("gorm:row").Register("telemetry:before_row", markStart),
		cb.Row().After("gorm:row").Register("telemetry:after_row", in.after("row")),
		cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", markStart),
		cb.Raw().After("gorm:raw").Register("telemetry:after_raw", in.after("raw")),
	)
}

func markStart(db *gorm.DB) {
	db.InstanceSet(startTimeKey, time.Now())
}

func (in *DBInstrumentation) after(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		attrs := []attribute.KeyValue{AttrDBOperation.String(operation), AttrDBTable.String(db.Statement.Table)}
		in.queryTotal.Inc(ctx, attrs...)

		span := trace.SpanFromContext(ctx)
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) && span.IsRecording() {
			span.SetStatus(codes.Error, db.Error.Error())
			span.RecordError(db.Error)
		}

		v, ok := db.InstanceGet(startTimeKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(start)
		in.queryDuration.RecordDuration(ctx, elapsed, attrs...)
		if elapsed <= in.cfg.SlowQueryThreshold {
			return
		}
		in.slowQueries.Inc(ctx, attrs...)
		if span.IsRecording() {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
		in.logger.Warn("slow query",
			zap.String("operation", operation),
			zap.String("table", db.Statement.Table),
			zap.Duration("elapsed", elapsed))
	}
}
