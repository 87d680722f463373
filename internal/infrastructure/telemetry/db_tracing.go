package telemetry

import (
	"errors"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled    bool   // Enable database tracing
	LogFullSQL bool   // Include query variables in spans (dev only)
	DBSystem   string // Database name reported on spans
}

// RegisterDBTracing installs the otelgorm plugin and a callback that tags
// the current span with the table and affected rows of each statement.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := db.Callback()
	for name, register := range map[string]func(string, func(*gorm.DB)) error{
		"fatoora:trace_create": cb.Create().After("gorm:create").Register,
		"fatoora:trace_query":  cb.Query().After("gorm:query").Register,
		"fatoora:trace_update": cb.Update().After("gorm:update").Register,
		"fatoora:trace_delete": cb.Delete().After("gorm:delete").Register,
		"fatoora:trace_row":    cb.Row().After("gorm:row").Register,
		"fatoora:trace_raw":    cb.Raw().After("gorm:raw").Register,
	} {
		if err := register(name, annotateSpan); err != nil {
			return err
		}
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.String("db_system", cfg.DBSystem),
	)
	return nil
}

func annotateSpan(db *gorm.DB) {
	if db.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(db.Statement.Context)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		RecordError(span, db.Error)
	}
}
