package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"QCast/internal/domain/models"
	pkgch "QCast/pkg/clickhouse"
	"QCast/pkg/logger"
)

// ForecastAudit records issued forecasts for later inspection.
type ForecastAudit interface {
	Record(ctx context.Context, f *models.Forecast) error
}

// NopAudit discards every record.
type NopAudit struct{}

func (NopAudit) Record(context.Context, *models.Forecast) error { return nil }

var _ ForecastAudit = (*CHForecastAudit)(nil)

// CHForecastAudit persists forecasts into ClickHouse, one row per predicted
// step. Failures are logged, not surfaced, so auditing never blocks a response.
type CHForecastAudit struct {
	db    *sql.DB
	table string
	log   *logger.Logger
}

func NewCHForecastAudit(ch *pkgch.Client, table string, log *logger.Logger) *CHForecastAudit {
	if table == "" {
		table = "forecast_audit"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CHForecastAudit{db: ch.DB(), table: table, log: log}
}

// SchemaStatements returns idempotent DDL for the audit table.
func (a *CHForecastAudit) SchemaStatements() []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            issued_at DateTime,
            model_type String,
            step UInt16,
            prediction Float64,
            lower Float64,
            upper Float64
        ) ENGINE = MergeTree()
        ORDER BY (issued_at, step)
    `, a.table)}
}

func (a *CHForecastAudit) Record(ctx context.Context, f *models.Forecast) error {
	q := fmt.Sprintf("INSERT INTO %s (issued_at, model_type, step, prediction, lower, upper) VALUES (?, ?, ?, ?, ?, ?)", a.table)
	issued := time.Now().UTC()
	for i, p := range f.Predictions {
		lower, upper := p, p
		if i < len(f.ConfidenceInterval.Lower) {
			lower = f.ConfidenceInterval.Lower[i]
		}
		if i < len(f.ConfidenceInterval.Upper) {
			upper = f.ConfidenceInterval.Upper[i]
		}
		if _, err := a.db.ExecContext(ctx, q, issued, f.ModelType, uint16(i+1), p, lower, upper); err != nil {
			a.log.Warn("forecast audit insert failed",
				logger.String("table", a.table),
				logger.Int("step", i+1),
				logger.Error(err),
			)
			return fmt.Errorf("audit insert: %w", err)
		}
	}
	return nil
}
