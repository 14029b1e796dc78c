package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PoolRepository handles stock pool persistence and lifecycle transitions.
type PoolRepository struct {
	db *gorm.DB
}

// NewPoolRepository creates a repository backed by the given database.
func NewPoolRepository(database *Database) *PoolRepository {
	return &PoolRepository{db: database.DB()}
}

// PoolFilter narrows GetPool results. Zero values mean "no constraint".
type PoolFilter struct {
	Status   string
	MinScore float64
	Limit    int
}

// GetPool returns pool entries ordered by score descending.
func (r *PoolRepository) GetPool(filter PoolFilter) ([]StockPool, error) {
	query := r.db.Model(&StockPool{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.MinScore > 0 {
		query = query.Where("final_score >= ?", filter.MinScore)
	}

	query = query.Order("final_score DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var entries []StockPool
	if err := query.Find(&entries).Error; err != nil {
		return nil, WrapDBError("get pool", err)
	}
	return entries, nil
}

// GetByTicker returns the most recent pool entry for a ticker.
func (r *PoolRepository) GetByTicker(ticker string) (*StockPool, error) {
	var entry StockPool
	err := r.db.Where("ticker = ?", ticker).
		Order("added_date DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "pool entry", Key: ticker}
		}
		return nil, WrapDBError("get pool entry", err)
	}
	return &entry, nil
}

// GetByStatus returns all entries currently in the given lifecycle status.
func (r *PoolRepository) GetByStatus(status string) ([]StockPool, error) {
	var entries []StockPool
	err := r.db.Where("status = ?", status).
		Order("final_score DESC").
		Find(&entries).Error
	if err != nil {
		return nil, WrapDBError("get pool by status", err)
	}
	return entries, nil
}

// UpsertCandidates writes a scoring run's candidates. New tickers are
// inserted as monitoring; rows that already exist for the same added_date
// get fresh scores but keep their status, notes, and approval date so a
// re-run never resets lifecycle state.
func (r *PoolRepository) UpsertCandidates(entries []StockPool) error {
	if len(entries) == 0 {
		return nil
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ticker"}, {Name: "added_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "close", "trading_value", "change_5d", "vol_ratio", "final_score",
		}),
	}).CreateInBatches(entries, 200).Error
	if err != nil {
		return WrapDBError("upsert candidates", err)
	}
	return nil
}

// transition moves an entry through the lifecycle graph, applying extra
// column updates atomically with the status change.
func (r *PoolRepository) transition(ticker, to string, updates map[string]interface{}) (*StockPool, error) {
	entry, err := r.GetByTicker(ticker)
	if err != nil {
		return nil, err
	}
	if !CanTransition(entry.Status, to) {
		return nil, &TransitionError{Ticker: ticker, From: entry.Status, To: to}
	}

	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to

	err = r.db.Model(&StockPool{}).
		Where("ticker = ? AND added_date = ?", entry.Ticker, entry.AddedDate).
		Updates(updates).Error
	if err != nil {
		return nil, WrapDBError("transition "+to, err)
	}
	return r.GetByTicker(ticker)
}

// Approve moves a monitoring entry to approved and stamps the approval date.
func (r *PoolRepository) Approve(ticker string) (*StockPool, error) {
	now := time.Now()
	return r.transition(ticker, StatusApproved, map[string]interface{}{
		"approved_date": &now,
	})
}

// Reject moves an entry to rejected and appends the reason to its notes.
// Existing notes are never overwritten.
func (r *PoolRepository) Reject(ticker, reason string) (*StockPool, error) {
	entry, err := r.GetByTicker(ticker)
	if err != nil {
		return nil, err
	}
	notes := entry.Notes
	if reason != "" {
		if notes != "" {
			notes += "\n"
		}
		notes += reason
	}
	return r.transition(ticker, StatusRejected, map[string]interface{}{
		"notes": notes,
	})
}

// MarkTrading moves an approved entry to trading.
func (r *PoolRepository) MarkTrading(ticker string) (*StockPool, error) {
	return r.transition(ticker, StatusTrading, nil)
}

// MarkCompleted moves a trading entry to completed.
func (r *PoolRepository) MarkCompleted(ticker string) (*StockPool, error) {
	return r.transition(ticker, StatusCompleted, nil)
}

// UpdateNotes replaces the free-text notes on the latest entry for a ticker.
func (r *PoolRepository) UpdateNotes(ticker, notes string) error {
	entry, err := r.GetByTicker(ticker)
	if err != nil {
		return err
	}
	err = r.db.Model(&StockPool{}).
		Where("ticker = ? AND added_date = ?", entry.Ticker, entry.AddedDate).
		Update("notes", notes).Error
	if err != nil {
		return WrapDBError("update notes", err)
	}
	return nil
}

// UpdateRealtime overlays an intraday price and volume on the latest entry.
func (r *PoolRepository) UpdateRealtime(ticker string, price float64, volume int64) error {
	now := time.Now()
	result := r.db.Model(&StockPool{}).
		Where("ticker = ?", ticker).
		Updates(map[string]interface{}{
			"realtime_price":      price,
			"realtime_volume":     volume,
			"realtime_updated_at": &now,
		})
	if result.Error != nil {
		return WrapDBError("update realtime", result.Error)
	}
	return nil
}

// TopMonitoringTickers returns the highest scored monitoring tickers for a
// run date, used for membership checks and monitoring history population.
func (r *PoolRepository) TopMonitoringTickers(runDate time.Time, limit int) ([]string, error) {
	var tickers []string
	err := r.db.Model(&StockPool{}).
		Where("status = ? AND added_date = ?", StatusMonitoring, runDate).
		Order("final_score DESC").
		Limit(limit).
		Pluck("ticker", &tickers).Error
	if err != nil {
		return nil, WrapDBError("top monitoring tickers", err)
	}
	return tickers, nil
}

// RejectionNote formats re-evaluation drop reasons with the standard marker
// that the report status sync copies into drop_reason.
func RejectionNote(reasons []string) string {
	return fmt.Sprintf("[재평가 탈락] %s", strings.Join(reasons, " | "))
}
