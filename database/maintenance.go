package database

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Maintenance jobs run set-based SQL against the raw connection. They are
// idempotent so the scheduler can re-run them safely.

// Snapshot archives today's stock pool into stock_pool_history. Rows already
// snapshotted for the date are left untouched.
func (m *MaintenanceDB) Snapshot(ctx context.Context, snapshotDate time.Time) (int64, error) {
	result, err := m.conn.ExecContext(ctx, `
		INSERT INTO stock_pool_history
			(ticker, name, close, trading_value, change_5d, vol_ratio, final_score,
			 status, added_date, notes, realtime_price, realtime_volume,
			 realtime_updated_at, snapshot_date)
		SELECT ticker, name, close, trading_value, change_5d, vol_ratio, final_score,
			 status, added_date, notes, realtime_price, realtime_volume,
			 realtime_updated_at, $1
		FROM stock_pool
		ON CONFLICT (ticker, added_date, snapshot_date) DO NOTHING`,
		snapshotDate)
	if err != nil {
		return 0, WrapDBError("snapshot pool", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

// ClearMonitoring deletes monitoring rows ahead of a new scoring run.
// Approved, trading, rejected, and completed rows survive across runs.
func (m *MaintenanceDB) ClearMonitoring(ctx context.Context) (int64, error) {
	result, err := m.conn.ExecContext(ctx,
		`DELETE FROM stock_pool WHERE status = $1`, StatusMonitoring)
	if err != nil {
		return 0, WrapDBError("clear monitoring", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

// SyncReportStatuses reconciles ai_analysis_reports.status with the pool
// lifecycle in three idempotent passes:
//
//  1. ACTIVE -> DROPPED for rejected entries, copying pool notes as drop_reason
//  2. ACTIVE -> TRADED for trading or completed entries
//  3. DROPPED/TRADED -> ACTIVE for entries back under monitoring or approval,
//     clearing drop_reason
func (m *MaintenanceDB) SyncReportStatuses(ctx context.Context) (dropped, traded, reactivated int64, err error) {
	res, err := m.conn.ExecContext(ctx, `
		UPDATE ai_analysis_reports r
		SET status = 'DROPPED',
		    drop_reason = sp.notes,
		    status_updated_at = NOW()
		FROM stock_pool sp
		WHERE r.ticker = sp.ticker
		  AND sp.status = 'rejected'
		  AND r.status = 'ACTIVE'`)
	if err != nil {
		return 0, 0, 0, WrapDBError("sync reports dropped", err)
	}
	dropped, _ = res.RowsAffected()

	res, err = m.conn.ExecContext(ctx, `
		UPDATE ai_analysis_reports r
		SET status = 'TRADED',
		    status_updated_at = NOW()
		FROM stock_pool sp
		WHERE r.ticker = sp.ticker
		  AND sp.status IN ('trading', 'completed')
		  AND r.status = 'ACTIVE'`)
	if err != nil {
		return dropped, 0, 0, WrapDBError("sync reports traded", err)
	}
	traded, _ = res.RowsAffected()

	res, err = m.conn.ExecContext(ctx, `
		UPDATE ai_analysis_reports r
		SET status = 'ACTIVE',
		    drop_reason = NULL,
		    status_updated_at = NOW()
		FROM stock_pool sp
		WHERE r.ticker = sp.ticker
		  AND sp.status IN ('monitoring', 'approved')
		  AND r.status IN ('DROPPED', 'TRADED')`)
	if err != nil {
		return dropped, traded, 0, WrapDBError("sync reports reactivated", err)
	}
	reactivated, _ = res.RowsAffected()

	log.Printf("📊 Report status sync: %d dropped, %d traded, %d reactivated",
		dropped, traded, reactivated)
	return dropped, traded, reactivated, nil
}

// RefreshMonitoredDays recomputes each pool entry's monitored-day counter
// from its snapshot chain, so re-runs on the same date never inflate it.
func (m *MaintenanceDB) RefreshMonitoredDays(ctx context.Context) error {
	_, err := m.conn.ExecContext(ctx, `
		UPDATE stock_pool sp
		SET monitored_days = (
			SELECT COUNT(DISTINCT h.snapshot_date)
			FROM stock_pool_history h
			WHERE h.ticker = sp.ticker AND h.added_date = sp.added_date
		)`)
	if err != nil {
		return WrapDBError("refresh monitored days", err)
	}
	return nil
}

// CleanupMonitoringHistory deletes derived monitoring rows older than
// keepDays. Raw daily prices are never pruned; the scorer needs them.
func (m *MaintenanceDB) CleanupMonitoringHistory(ctx context.Context, keepDays int) (int64, error) {
	if keepDays <= 0 {
		return 0, &ValidationError{Field: "keepDays", Message: "must be positive"}
	}
	result, err := m.conn.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM stock_monitoring_history
		WHERE date < CURRENT_DATE - INTERVAL '%d days'`, keepDays))
	if err != nil {
		return 0, WrapDBError("cleanup monitoring history", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

// CleanupDroppedReports deletes DROPPED reports older than keepDays.
func (m *MaintenanceDB) CleanupDroppedReports(ctx context.Context, keepDays int) (int64, error) {
	if keepDays <= 0 {
		return 0, &ValidationError{Field: "keepDays", Message: "must be positive"}
	}
	result, err := m.conn.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM ai_analysis_reports
		WHERE status = 'DROPPED'
		  AND status_updated_at < NOW() - INTERVAL '%d days'`, keepDays))
	if err != nil {
		return 0, WrapDBError("cleanup dropped reports", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}
