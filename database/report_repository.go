package database

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReportRepository handles AI analysis report persistence.
type ReportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a repository backed by the given database.
func NewReportRepository(database *Database) *ReportRepository {
	return &ReportRepository{db: database.DB()}
}

// Upsert writes a report, replacing any earlier report for the same ticker
// and date. Regeneration on the same day overwrites content but keeps the
// row's lifecycle status.
func (r *ReportRepository) Upsert(report *AIAnalysisReport) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ticker"}, {Name: "report_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"summary", "recommendation", "confidence_score",
			"momentum_analysis", "liquidity_analysis", "risk_factors", "raw_text",
		}),
	}).Create(report).Error
	if err != nil {
		return WrapDBError("upsert report", err)
	}
	return nil
}

// GetLatest returns the most recent report for a ticker, or a NotFoundError.
func (r *ReportRepository) GetLatest(ticker string) (*AIAnalysisReport, error) {
	var report AIAnalysisReport
	err := r.db.Where("ticker = ?", ticker).
		Order("report_date DESC").
		First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "report", Key: ticker}
		}
		return nil, WrapDBError("get latest report", err)
	}
	return &report, nil
}

// HasReportOn reports whether a report already exists for the ticker and
// date, so the generator can skip regeneration.
func (r *ReportRepository) HasReportOn(ticker string, date time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&AIAnalysisReport{}).
		Where("ticker = ? AND report_date = ?", ticker, date).
		Count(&count).Error
	if err != nil {
		return false, WrapDBError("check report exists", err)
	}
	return count > 0, nil
}

// ReportFilter narrows List results. Zero values mean "no constraint".
type ReportFilter struct {
	Ticker string
	Status string
	Limit  int
}

// List returns reports newest first.
func (r *ReportRepository) List(filter ReportFilter) ([]AIAnalysisReport, error) {
	query := r.db.Model(&AIAnalysisReport{})

	if filter.Ticker != "" {
		query = query.Where("ticker = ?", filter.Ticker)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	query = query.Order("report_date DESC, ticker ASC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var reports []AIAnalysisReport
	if err := query.Find(&reports).Error; err != nil {
		return nil, WrapDBError("list reports", err)
	}
	return reports, nil
}
