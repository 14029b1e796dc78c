package database

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HistoryRepository handles daily prices, pool snapshots, monitoring history,
// and investor flows.
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a repository backed by the given database.
func NewHistoryRepository(database *Database) *HistoryRepository {
	return &HistoryRepository{db: database.DB()}
}

// UpsertDailyPrices writes collected bars. Bars are immutable, so conflicts
// on (ticker, date) are ignored.
func (r *HistoryRepository) UpsertDailyPrices(bars []DailyPrice) error {
	if len(bars) == 0 {
		return nil
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticker"}, {Name: "date"}},
		DoNothing: true,
	}).CreateInBatches(bars, 500).Error
	if err != nil {
		return WrapDBError("upsert daily prices", err)
	}
	return nil
}

// GetBars returns up to limit most recent daily bars for a ticker, in
// ascending date order for indicator computation.
func (r *HistoryRepository) GetBars(ticker string, limit int) ([]DailyPrice, error) {
	var bars []DailyPrice
	err := r.db.Where("ticker = ?", ticker).
		Order("date DESC").
		Limit(limit).
		Find(&bars).Error
	if err != nil {
		return nil, WrapDBError("get bars", err)
	}
	// Reverse into chronological order.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

// Tickers returns every distinct ticker with collected bars.
func (r *HistoryRepository) Tickers() ([]string, error) {
	var tickers []string
	err := r.db.Model(&DailyPrice{}).
		Distinct("ticker").
		Order("ticker").
		Pluck("ticker", &tickers).Error
	if err != nil {
		return nil, WrapDBError("list tickers", err)
	}
	return tickers, nil
}

// SnapshotScore returns the final score recorded in stock_pool_history for
// a ticker on the given snapshot date. Returns a NotFoundError when no
// snapshot exists for that date.
func (r *HistoryRepository) SnapshotScore(ticker string, snapshotDate time.Time) (float64, error) {
	var row StockPoolHistory
	err := r.db.Where("ticker = ? AND snapshot_date = ?", ticker, snapshotDate).
		Order("added_date DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, &NotFoundError{Entity: "pool snapshot", Key: ticker}
		}
		return 0, WrapDBError("get snapshot score", err)
	}
	return row.FinalScore, nil
}

// GetSnapshots returns pool history rows for a ticker, newest first.
func (r *HistoryRepository) GetSnapshots(ticker string, limit int) ([]StockPoolHistory, error) {
	query := r.db.Where("ticker = ?", ticker).
		Order("snapshot_date DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []StockPoolHistory
	if err := query.Find(&rows).Error; err != nil {
		return nil, WrapDBError("get snapshots", err)
	}
	return rows, nil
}

// UpsertMonitoringHistory writes derived daily rows for monitored tickers,
// replacing indicator values when a row for (ticker, date) already exists.
func (r *HistoryRepository) UpsertMonitoringHistory(rows []MonitoringHistory) error {
	if len(rows) == 0 {
		return nil
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ticker"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"open", "high", "low", "close", "volume",
			"price_change", "volume_change", "ma5", "ma20", "rsi",
		}),
	}).CreateInBatches(rows, 500).Error
	if err != nil {
		return WrapDBError("upsert monitoring history", err)
	}
	return nil
}

// GetMonitoringHistory returns monitoring rows for a ticker in chronological
// order, limited to the most recent days.
func (r *HistoryRepository) GetMonitoringHistory(ticker string, days int) ([]MonitoringHistory, error) {
	var rows []MonitoringHistory
	query := r.db.Where("ticker = ?", ticker).Order("date DESC")
	if days > 0 {
		query = query.Limit(days)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, WrapDBError("get monitoring history", err)
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// UpsertInvestorFlows writes collected institutional and foreign net-buy
// volumes, ignoring duplicates.
func (r *HistoryRepository) UpsertInvestorFlows(flows []InvestorFlow) error {
	if len(flows) == 0 {
		return nil
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticker"}, {Name: "date"}},
		DoNothing: true,
	}).CreateInBatches(flows, 500).Error
	if err != nil {
		return WrapDBError("upsert investor flows", err)
	}
	return nil
}

// FlowSums returns the trailing net-buy sums for a ticker over the last
// days, for the wave classifier's flow bonus.
func (r *HistoryRepository) FlowSums(ticker string, days int) (institutional, foreigner int64, err error) {
	var flows []InvestorFlow
	e := r.db.Where("ticker = ?", ticker).
		Order("date DESC").
		Limit(days).
		Find(&flows).Error
	if e != nil {
		return 0, 0, WrapDBError("get flow sums", e)
	}
	for _, f := range flows {
		institutional += f.InstitutionalNetBuy
		foreigner += f.ForeignerNetBuy
	}
	return institutional, foreigner, nil
}
