package report

import (
	"strings"
	"testing"
)

func TestParseNarrativeBuy(t *testing.T) {
	raw := `요약 의견: 매수. 거래대금과 수급이 모두 개선되고 있어 상승 여력이 있습니다.
모멘텀 분석: 5일 등락률이 양호하며 20일 이동평균선 위에서 거래되고 있습니다.
유동성 분석: 거래대금이 전일 대비 크게 증가했습니다.
리스크 요인: 단기 급등에 따른 차익 실현 매물 가능성.`

	p := Parse(raw)
	if p.Recommendation != RecStrongApprove {
		t.Errorf("Recommendation = %s, want %s", p.Recommendation, RecStrongApprove)
	}
	if p.Confidence != confidenceBuy {
		t.Errorf("Confidence = %v, want %v", p.Confidence, confidenceBuy)
	}
	if !strings.Contains(p.Summary, "매수") {
		t.Errorf("Summary missing recommendation text: %q", p.Summary)
	}
	if !strings.Contains(p.MomentumAnalysis, "이동평균선") {
		t.Errorf("MomentumAnalysis = %q", p.MomentumAnalysis)
	}
	if !strings.Contains(p.LiquidityAnalysis, "거래대금") {
		t.Errorf("LiquidityAnalysis = %q", p.LiquidityAnalysis)
	}
	if !strings.Contains(p.RiskFactors, "차익 실현") {
		t.Errorf("RiskFactors = %q", p.RiskFactors)
	}
}

func TestParseNarrativeWatch(t *testing.T) {
	raw := "요약 의견: 관심종목으로 분류합니다. 추세 확인이 더 필요합니다."
	p := Parse(raw)
	if p.Recommendation != RecWatchMore {
		t.Errorf("Recommendation = %s, want %s", p.Recommendation, RecWatchMore)
	}
	if p.Confidence != confidenceWatch {
		t.Errorf("Confidence = %v, want %v", p.Confidence, confidenceWatch)
	}
}

func TestParseNarrativeHoldDefaults(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"hold keyword", "요약 의견: 보류. 방향성이 불확실합니다."},
		{"sell keyword", "요약 의견: 매도 관점 유지."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Parse(tt.raw)
			if p.Recommendation != RecDoNotApprove {
				t.Errorf("Recommendation = %s, want %s", p.Recommendation, RecDoNotApprove)
			}
			if p.Confidence != confidenceHold {
				t.Errorf("Confidence = %v, want %v", p.Confidence, confidenceHold)
			}
		})
	}
}

func TestParseNoKeywordDefaultsToWatch(t *testing.T) {
	p := Parse("데이터가 부족하여 판단이 어렵습니다.")
	if p.Recommendation != RecWatchMore {
		t.Errorf("Recommendation = %s, want %s", p.Recommendation, RecWatchMore)
	}
	if p.Confidence != confidenceWatch {
		t.Errorf("Confidence = %v, want %v", p.Confidence, confidenceWatch)
	}
}

func TestParseSummaryFallback(t *testing.T) {
	raw := strings.Repeat("상승 추세가 이어지고 있습니다. ", 30)
	p := Parse(raw)
	if p.Summary == "" {
		t.Fatal("expected fallback summary")
	}
	if got := len([]rune(p.Summary)); got > summaryMaxLen {
		t.Errorf("fallback summary length = %d, want <= %d", got, summaryMaxLen)
	}
}

func TestParseSectionCap(t *testing.T) {
	raw := "요약 의견: 매수\n모멘텀 분석: " + strings.Repeat("가", 800)
	p := Parse(raw)
	if got := len([]rune(p.MomentumAnalysis)); got > sectionMaxLen {
		t.Errorf("section length = %d, want <= %d", got, sectionMaxLen)
	}
}

func TestParseStructuredJSON(t *testing.T) {
	raw := `{"summary": "수급 개선", "recommendation": "BUY", "confidence": 0.85,
		"momentum_analysis": "추세 양호", "liquidity_analysis": "거래대금 증가",
		"risk_factors": "변동성 확대"}`

	p := Parse(raw)
	if p.Recommendation != RecStrongApprove {
		t.Errorf("Recommendation = %s, want %s", p.Recommendation, RecStrongApprove)
	}
	if p.Confidence != 0.85 {
		t.Errorf("Confidence = %v, want 0.85", p.Confidence)
	}
	if p.Summary != "수급 개선" {
		t.Errorf("Summary = %q", p.Summary)
	}
	if p.RiskFactors != "변동성 확대" {
		t.Errorf("RiskFactors = %q", p.RiskFactors)
	}
}

func TestParseBrokenJSONRepaired(t *testing.T) {
	// Truncated payload with a trailing comma, as models sometimes emit.
	raw := `{"summary": "수급 개선", "recommendation": "WATCH", "confidence": 0.6,`

	p := Parse(raw)
	if p.Recommendation != RecWatchMore {
		t.Errorf("Recommendation = %s, want %s", p.Recommendation, RecWatchMore)
	}
	if p.Confidence != 0.6 {
		t.Errorf("Confidence = %v, want 0.6", p.Confidence)
	}
}

func TestParseUnknownJSONRecommendationStaysNeutral(t *testing.T) {
	raw := `{"summary": "판단 불가", "recommendation": "NEUTRAL"}`

	p := Parse(raw)
	if p.Recommendation != RecWatchMore {
		t.Errorf("Recommendation = %s, want %s", p.Recommendation, RecWatchMore)
	}
	if p.Confidence != confidenceWatch {
		t.Errorf("Confidence = %v, want %v", p.Confidence, confidenceWatch)
	}
}

func TestNormalizeRecommendation(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"BUY", RecStrongApprove},
		{"buy", RecStrongApprove},
		{"매수", RecStrongApprove},
		{"STRONG_APPROVE", RecStrongApprove},
		{"WATCH", RecWatchMore},
		{"관심종목", RecWatchMore},
		{"HOLD", RecDoNotApprove},
		{"SELL", RecDoNotApprove},
		{"보류", RecDoNotApprove},
		{"매도", RecDoNotApprove},
		{"DO_NOT_APPROVE", RecDoNotApprove},
		{"garbage", RecWatchMore},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			rec, _ := normalizeRecommendation(tt.in)
			if rec != tt.expected {
				t.Errorf("normalizeRecommendation(%q) = %s, want %s", tt.in, rec, tt.expected)
			}
		})
	}
}
