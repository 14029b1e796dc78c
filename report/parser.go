// Package report generates and parses AI analysis reports for pool entries.
package report

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Parsed is the structured form of a model response.
type Parsed struct {
	Summary           string
	Recommendation    string
	Confidence        float64
	MomentumAnalysis  string
	LiquidityAnalysis string
	RiskFactors       string
}

// Recommendation levels and the parser confidence assigned to each.
const (
	RecStrongApprove = "STRONG_APPROVE"
	RecWatchMore     = "WATCH_MORE"
	RecDoNotApprove  = "DO_NOT_APPROVE"

	confidenceBuy   = 0.70
	confidenceWatch = 0.50
	confidenceHold  = 0.30
)

const (
	sectionMaxLen = 500
	summaryMaxLen = 200
)

// Section headers the model is instructed to emit.
var sectionPattern = regexp.MustCompile(
	`(?s)(요약 의견|모멘텀 분석|유동성 분석|리스크 요인)\s*[:：]?\s*(.*?)(?:요약 의견|모멘텀 분석|유동성 분석|리스크 요인|$)`)

// jsonReport is the shape of a structured model response.
type jsonReport struct {
	Summary           string  `json:"summary"`
	Recommendation    string  `json:"recommendation"`
	Confidence        float64 `json:"confidence"`
	MomentumAnalysis  string  `json:"momentum_analysis"`
	LiquidityAnalysis string  `json:"liquidity_analysis"`
	RiskFactors       string  `json:"risk_factors"`
}

// Parse extracts a structured report from a raw model response. A response
// that looks like JSON is repaired and decoded first; anything else falls
// back to section and keyword extraction from the narrative text.
func Parse(raw string) Parsed {
	trimmed := strings.TrimSpace(raw)

	if p, ok := parseJSON(trimmed); ok {
		return p
	}
	return parseText(trimmed)
}

// parseJSON handles structured responses, repairing truncated or sloppy
// JSON before decoding.
func parseJSON(raw string) (Parsed, bool) {
	start := strings.Index(raw, "{")
	if start < 0 {
		return Parsed{}, false
	}

	repaired, err := jsonrepair.JSONRepair(raw[start:])
	if err != nil {
		return Parsed{}, false
	}

	var jr jsonReport
	if err := json.Unmarshal([]byte(repaired), &jr); err != nil {
		return Parsed{}, false
	}
	if jr.Recommendation == "" {
		return Parsed{}, false
	}

	rec, conf := normalizeRecommendation(jr.Recommendation)
	if jr.Confidence > 0 && jr.Confidence <= 1 {
		conf = jr.Confidence
	}

	summary := jr.Summary
	if summary == "" {
		summary = truncate(raw, summaryMaxLen)
	}

	return Parsed{
		Summary:           truncate(summary, sectionMaxLen),
		Recommendation:    rec,
		Confidence:        conf,
		MomentumAnalysis:  truncate(jr.MomentumAnalysis, sectionMaxLen),
		LiquidityAnalysis: truncate(jr.LiquidityAnalysis, sectionMaxLen),
		RiskFactors:       truncate(jr.RiskFactors, sectionMaxLen),
	}, true
}

// parseText handles narrative responses.
func parseText(raw string) Parsed {
	rec, conf := classifyText(raw)

	sections := extractSections(raw)
	summary := sections["요약 의견"]
	if summary == "" {
		summary = truncate(raw, summaryMaxLen)
	}

	return Parsed{
		Summary:           summary,
		Recommendation:    rec,
		Confidence:        conf,
		MomentumAnalysis:  sections["모멘텀 분석"],
		LiquidityAnalysis: sections["유동성 분석"],
		RiskFactors:       sections["리스크 요인"],
	}
}

// classifyText maps recommendation keywords to a badge level. Buy signals
// win over watch signals, which win over hold and sell signals; a response
// with no recognized keyword at all stays at the neutral watch level.
func classifyText(raw string) (string, float64) {
	upper := strings.ToUpper(raw)
	switch {
	case strings.Contains(raw, "매수") || strings.Contains(upper, "BUY"):
		return RecStrongApprove, confidenceBuy
	case strings.Contains(raw, "관심종목") || strings.Contains(upper, "WATCH"):
		return RecWatchMore, confidenceWatch
	case strings.Contains(raw, "보류") || strings.Contains(upper, "HOLD") || strings.Contains(raw, "매도"):
		return RecDoNotApprove, confidenceHold
	default:
		return RecWatchMore, confidenceWatch
	}
}

// normalizeRecommendation maps free-form recommendation strings from
// structured responses onto the badge vocabulary. A value that matches no
// known vocabulary stays at the neutral watch level rather than blocking
// the ticker.
func normalizeRecommendation(rec string) (string, float64) {
	switch strings.ToUpper(strings.TrimSpace(rec)) {
	case RecStrongApprove, "BUY", "매수":
		return RecStrongApprove, confidenceBuy
	case RecDoNotApprove, "HOLD", "SELL", "보류", "매도":
		return RecDoNotApprove, confidenceHold
	default:
		return RecWatchMore, confidenceWatch
	}
}

// extractSections pulls the known section bodies out of a narrative
// response, capped per section.
func extractSections(raw string) map[string]string {
	sections := make(map[string]string)
	remaining := raw
	for {
		match := sectionPattern.FindStringSubmatchIndex(remaining)
		if match == nil {
			break
		}
		header := remaining[match[2]:match[3]]
		body := strings.TrimSpace(remaining[match[4]:match[5]])
		body = strings.Trim(body, "#*- \n")
		if _, seen := sections[header]; !seen && body != "" {
			sections[header] = truncate(body, sectionMaxLen)
		}
		// Continue after this section's header so later headers are found.
		remaining = remaining[match[3]:]
	}
	return sections
}

// truncate caps a string at max runes without splitting a character.
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
