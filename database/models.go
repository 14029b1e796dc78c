// Package database provides PostgreSQL access for the StockGravity screening
// and monitoring service.
//
// This package includes:
//   - GORM connection management and schema auto-migration
//   - A secondary raw database/sql connection for maintenance jobs
//   - Repositories for the stock pool, AI reports, and price/monitoring history
//   - Typed errors shared by all repositories
package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Stock pool lifecycle statuses.
const (
	StatusMonitoring = "monitoring"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
	StatusTrading    = "trading"
	StatusCompleted  = "completed"
)

// AI report mirror statuses.
const (
	ReportActive  = "ACTIVE"
	ReportDropped = "DROPPED"
	ReportTraded  = "TRADED"
)

// lifecycleGraph lists the allowed status transitions. Re-entry from
// rejected back to monitoring happens through a fresh scoring run
// (new added_date row), never as an in-place transition.
var lifecycleGraph = map[string][]string{
	StatusMonitoring: {StatusApproved, StatusRejected},
	StatusApproved:   {StatusTrading, StatusRejected},
	StatusTrading:    {StatusCompleted},
}

// CanTransition reports whether the lifecycle allows moving from one
// status to another.
func CanTransition(from, to string) bool {
	for _, next := range lifecycleGraph[from] {
		if next == to {
			return true
		}
	}
	return false
}

// MirrorReportStatus maps a stock pool status to the AI report status that
// should mirror it. The mapping is total over the five lifecycle statuses.
func MirrorReportStatus(poolStatus string) string {
	switch poolStatus {
	case StatusRejected:
		return ReportDropped
	case StatusTrading, StatusCompleted:
		return ReportTraded
	default:
		return ReportActive
	}
}

// DailyPrice is one immutable daily OHLCV bar collected from the price feed.
// Appended once per trading day; (ticker, date) is the unique key.
type DailyPrice struct {
	Ticker string    `gorm:"size:10;not null;uniqueIndex:idx_daily_price_ticker_date,priority:1" json:"ticker"`
	Date   time.Time `gorm:"type:date;not null;uniqueIndex:idx_daily_price_ticker_date,priority:2;index" json:"date"`
	Open   float64   `gorm:"type:decimal(15,2);not null" json:"open"`
	High   float64   `gorm:"type:decimal(15,2);not null" json:"high"`
	Low    float64   `gorm:"type:decimal(15,2);not null" json:"low"`
	Close  float64   `gorm:"type:decimal(15,2);not null" json:"close"`
	Volume int64     `gorm:"not null" json:"volume"`
}

// TableName specifies the table name for DailyPrice
func (DailyPrice) TableName() string {
	return "daily_prices"
}

// StockPool is the central mutable entity: one screening candidate and its
// current lifecycle state.
//
// Key Fields:
//   - FinalScore: 0-100 composite score from the daily scoring run
//   - Status: lifecycle status (monitoring/approved/rejected/trading/completed)
//   - AddedDate: the scoring run date; (Ticker, AddedDate) is the unique key
//   - ApprovedDate: set when an operator approves the entry
//   - RealtimePrice/RealtimeVolume: optional intraday overlay from the broker feed
//   - Notes: free text; rejection reasons are appended, never overwritten
//
// Rows are archived into stock_pool_history before each day's scoring run
// overwrites them.
type StockPool struct {
	Ticker            string     `gorm:"size:10;not null;uniqueIndex:idx_pool_ticker_added,priority:1;index" json:"ticker"`
	Name              string     `gorm:"size:100;not null" json:"name"`
	Close             float64    `gorm:"type:decimal(15,2);not null" json:"close"`
	TradingValue      float64    `gorm:"type:decimal(20,2);not null" json:"trading_value"`
	Change5d          float64    `gorm:"type:decimal(10,4);not null" json:"change_5d"`
	VolRatio          float64    `gorm:"type:decimal(10,4);not null" json:"vol_ratio"`
	FinalScore        float64    `gorm:"type:decimal(5,1);not null;index" json:"final_score"`
	Status            string     `gorm:"size:20;not null;default:monitoring;index" json:"status"`
	AddedDate         time.Time  `gorm:"type:date;not null;uniqueIndex:idx_pool_ticker_added,priority:2" json:"added_date"`
	ApprovedDate      *time.Time `json:"approved_date,omitempty"`
	Notes             string     `gorm:"type:text" json:"notes,omitempty"`
	RealtimePrice     *float64   `gorm:"type:decimal(15,2)" json:"realtime_price,omitempty"`
	RealtimeVolume    *int64     `json:"realtime_volume,omitempty"`
	RealtimeUpdatedAt *time.Time `json:"realtime_updated_at,omitempty"`
	MonitoredDays     int        `gorm:"default:0" json:"monitored_days"`
}

// TableName specifies the table name for StockPool
func (StockPool) TableName() string {
	return "stock_pool"
}

// StockPoolHistory is an immutable daily snapshot of a StockPool row, taken
// before the row is overwritten by a new scoring run. Insert-only; used by
// the re-evaluator to recover the score at approval time.
type StockPoolHistory struct {
	Ticker            string     `gorm:"size:10;not null;uniqueIndex:idx_pool_hist_key,priority:1;index" json:"ticker"`
	Name              string     `gorm:"size:100;not null" json:"name"`
	Close             float64    `gorm:"type:decimal(15,2);not null" json:"close"`
	TradingValue      float64    `gorm:"type:decimal(20,2);not null" json:"trading_value"`
	Change5d          float64    `gorm:"type:decimal(10,4);not null" json:"change_5d"`
	VolRatio          float64    `gorm:"type:decimal(10,4);not null" json:"vol_ratio"`
	FinalScore        float64    `gorm:"type:decimal(5,1);not null" json:"final_score"`
	Status            string     `gorm:"size:20;not null" json:"status"`
	AddedDate         time.Time  `gorm:"type:date;not null;uniqueIndex:idx_pool_hist_key,priority:2" json:"added_date"`
	Notes             string     `gorm:"type:text" json:"notes,omitempty"`
	RealtimePrice     *float64   `gorm:"type:decimal(15,2)" json:"realtime_price,omitempty"`
	RealtimeVolume    *int64     `json:"realtime_volume,omitempty"`
	RealtimeUpdatedAt *time.Time `json:"realtime_updated_at,omitempty"`
	SnapshotDate      time.Time  `gorm:"type:date;not null;uniqueIndex:idx_pool_hist_key,priority:3;index" json:"snapshot_date"`
}

// TableName specifies the table name for StockPoolHistory
func (StockPoolHistory) TableName() string {
	return "stock_pool_history"
}

// AIAnalysisReport is one narrative analysis generated by the report service
// for a ticker on a given date. Status mirrors the associated StockPool
// status and is kept in sync by ReportRepository.SyncStatuses.
//
// Key Fields:
//   - Recommendation: STRONG_APPROVE, WATCH_MORE, or DO_NOT_APPROVE
//   - ConfidenceScore: parser confidence in [0,1]
//   - RawText: the full model output, always kept for audit
//   - Status: ACTIVE, DROPPED, or TRADED (mirror of stock_pool.status)
//   - DropReason: copied from the pool entry's rejection notes on DROPPED
type AIAnalysisReport struct {
	Ticker            string     `gorm:"size:10;not null;uniqueIndex:idx_report_ticker_date,priority:1;index" json:"ticker"`
	ReportDate        time.Time  `gorm:"type:date;not null;uniqueIndex:idx_report_ticker_date,priority:2" json:"report_date"`
	Summary           string     `gorm:"type:text" json:"summary"`
	Recommendation    string     `gorm:"size:20;not null" json:"recommendation"`
	ConfidenceScore   float64    `gorm:"type:decimal(5,4);not null" json:"confidence_score"`
	MomentumAnalysis  string     `gorm:"type:text" json:"momentum_analysis,omitempty"`
	LiquidityAnalysis string     `gorm:"type:text" json:"liquidity_analysis,omitempty"`
	RiskFactors       string     `gorm:"type:text" json:"risk_factors,omitempty"`
	RawText           string     `gorm:"type:text" json:"raw_text,omitempty"`
	Status            string     `gorm:"size:10;not null;default:ACTIVE;index" json:"status"`
	DropReason        *string    `gorm:"type:text" json:"drop_reason,omitempty"`
	StatusUpdatedAt   *time.Time `json:"status_updated_at,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for AIAnalysisReport
func (AIAnalysisReport) TableName() string {
	return "ai_analysis_reports"
}

// MonitoringHistory is one daily bar plus derived indicators for a ticker
// under active monitoring or approval. Used for charting and for the
// re-evaluator's technical checks.
type MonitoringHistory struct {
	Ticker       string    `gorm:"size:10;not null;uniqueIndex:idx_monitoring_ticker_date,priority:1;index" json:"ticker"`
	Date         time.Time `gorm:"type:date;not null;uniqueIndex:idx_monitoring_ticker_date,priority:2" json:"date"`
	Open         float64   `gorm:"type:decimal(15,2);not null" json:"open"`
	High         float64   `gorm:"type:decimal(15,2);not null" json:"high"`
	Low          float64   `gorm:"type:decimal(15,2);not null" json:"low"`
	Close        float64   `gorm:"type:decimal(15,2);not null" json:"close"`
	Volume       int64     `gorm:"not null" json:"volume"`
	PriceChange  *float64  `gorm:"type:decimal(10,4)" json:"price_change,omitempty"`
	VolumeChange *float64  `gorm:"type:decimal(10,4)" json:"volume_change,omitempty"`
	MA5          *float64  `gorm:"column:ma5;type:decimal(15,2)" json:"ma5,omitempty"`
	MA20         *float64  `gorm:"column:ma20;type:decimal(15,2)" json:"ma20,omitempty"`
	RSI          *float64  `gorm:"column:rsi;type:decimal(10,4)" json:"rsi,omitempty"`
}

// TableName specifies the table name for MonitoringHistory
func (MonitoringHistory) TableName() string {
	return "stock_monitoring_history"
}

// InvestorFlow is one day of institutional and foreign net-buy volume for a
// ticker, collected from the investor-flow feed. Feeds the wave classifier's
// flow bonus.
type InvestorFlow struct {
	Ticker              string    `gorm:"size:10;not null;uniqueIndex:idx_flow_ticker_date,priority:1;index" json:"ticker"`
	Date                time.Time `gorm:"type:date;not null;uniqueIndex:idx_flow_ticker_date,priority:2" json:"date"`
	InstitutionalNetBuy int64     `json:"institutional_net_buy"`
	ForeignerNetBuy     int64     `json:"foreigner_net_buy"`
}

// TableName specifies the table name for InvestorFlow
func (InvestorFlow) TableName() string {
	return "investor_flows"
}

// Database holds the GORM database connection and provides access to the
// underlying DB instance.
type Database struct {
	db *gorm.DB
}

// DB returns the underlying GORM database instance for direct access when needed.
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Connect establishes the database connection using GORM
func Connect(host string, port int, dbname, user, password string) (*Database, error) {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		host, port, dbname, user, password)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Silent logging for production
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return &Database{db: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate creates or updates all StockGravity tables.
func (d *Database) AutoMigrate() error {
	err := d.db.AutoMigrate(
		&DailyPrice{},
		&StockPool{},
		&StockPoolHistory{},
		&AIAnalysisReport{},
		&MonitoringHistory{},
		&InvestorFlow{},
	)
	if err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	return nil
}
