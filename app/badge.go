// Package app wires the scoring pipeline, approval badge, re-evaluator,
// and background services into the running application.
package app

import (
	"stockgravity/database"
)

// Badge levels for the approval recommendation.
const (
	BadgeStrongApprove = "STRONG_APPROVE"
	BadgeWatchMore     = "WATCH_MORE"
	BadgeDoNotApprove  = "DO_NOT_APPROVE"
)

// BadgeInput collects everything the badge scorer looks at. Report is nil
// when no AI report exists for the ticker yet.
type BadgeInput struct {
	FinalScore float64
	Change5d   float64
	VolRatio   float64
	RSI        *float64
	Report     *database.AIAnalysisReport
}

// BadgeResult is the badge level with its point breakdown.
type BadgeResult struct {
	Badge          string `json:"badge"`
	Emoji          string `json:"emoji"`
	Points         int    `json:"points"`
	EnableApproval bool   `json:"enable_approval"`
}

// ComputeBadge scores an entry's approval readiness on an additive point
// scale and maps the total to a badge level. Five or more points earn
// STRONG_APPROVE, three or four WATCH_MORE, anything less DO_NOT_APPROVE.
// The approval action in the dashboard is enabled for everything except
// DO_NOT_APPROVE.
func ComputeBadge(in BadgeInput) BadgeResult {
	points := scorePoints(in)

	result := BadgeResult{Points: points}
	switch {
	case points >= 5:
		result.Badge = BadgeStrongApprove
		result.Emoji = "🟢"
	case points >= 3:
		result.Badge = BadgeWatchMore
		result.Emoji = "🟡"
	default:
		result.Badge = BadgeDoNotApprove
		result.Emoji = "🔴"
	}
	result.EnableApproval = result.Badge != BadgeDoNotApprove
	return result
}

func scorePoints(in BadgeInput) int {
	points := 0
	points += compositePoints(in.FinalScore)
	points += momentumPoints(in.Change5d)
	points += volumePoints(in.VolRatio)
	points += rsiPoints(in.RSI)
	points += reportPoints(in.Report)
	return points
}

func compositePoints(score float64) int {
	switch {
	case score >= 85:
		return 2
	case score >= 75:
		return 1
	default:
		return 0
	}
}

func momentumPoints(change5d float64) int {
	if change5d > 3 {
		return 1
	}
	return 0
}

func volumePoints(volRatio float64) int {
	if volRatio > 1.2 {
		return 1
	}
	return 0
}

func rsiPoints(rsi *float64) int {
	if rsi == nil {
		return 0
	}
	switch {
	case *rsi >= 45 && *rsi <= 65:
		return 1
	case *rsi > 70:
		return -1
	default:
		return 0
	}
}

// reportPoints scores the AI recommendation. Both the badge vocabulary and
// the classic buy/sell vocabulary are accepted.
func reportPoints(report *database.AIAnalysisReport) int {
	if report == nil {
		return 0
	}
	switch report.Recommendation {
	case BadgeStrongApprove, "BUY":
		if report.ConfidenceScore >= 0.75 {
			return 2
		}
		return 1
	case BadgeDoNotApprove, "SELL":
		return -2
	default:
		return 0
	}
}
