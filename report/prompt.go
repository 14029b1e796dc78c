package report

import (
	"fmt"
	"strings"

	"stockgravity/database"
	"stockgravity/scoring"
)

// PromptInput bundles everything the analyst prompt mentions for one ticker.
type PromptInput struct {
	Entry database.StockPool
	Wave  scoring.WaveResult
	RSI   *float64
}

// BuildPrompt renders the Korean analyst prompt for one pool entry. The
// response format instructions match what the parser extracts.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	b.WriteString("당신은 한국 주식 시장 전문 애널리스트입니다.\n")
	b.WriteString("아래 종목 데이터를 바탕으로 투자 분석 리포트를 작성하세요.\n\n")

	fmt.Fprintf(&b, "종목명: %s (%s)\n", in.Entry.Name, in.Entry.Ticker)
	fmt.Fprintf(&b, "종가: %.0f원\n", in.Entry.Close)
	fmt.Fprintf(&b, "거래대금: %.0f원\n", in.Entry.TradingValue)
	fmt.Fprintf(&b, "5일 등락률: %.2f%%\n", in.Entry.Change5d)
	fmt.Fprintf(&b, "거래량 비율: %.2f\n", in.Entry.VolRatio)
	fmt.Fprintf(&b, "종합 점수: %.1f/100\n", in.Entry.FinalScore)
	if in.RSI != nil {
		fmt.Fprintf(&b, "RSI(14): %.1f\n", *in.RSI)
	}
	if in.Wave.Stage != "" && in.Wave.Stage != scoring.WaveUnknown {
		fmt.Fprintf(&b, "파동 단계: %s (신뢰도 %.0f)\n", in.Wave.Stage, in.Wave.Confidence)
	}

	b.WriteString("\n다음 형식으로 작성하세요:\n\n")
	b.WriteString("요약 의견: 매수 / 관심종목 / 보류 중 하나와 핵심 근거 2-3문장\n")
	b.WriteString("모멘텀 분석: 가격 추세와 수급 관점의 분석\n")
	b.WriteString("유동성 분석: 거래대금과 거래량 관점의 분석\n")
	b.WriteString("리스크 요인: 주요 하방 리스크 2-3가지\n")

	return b.String()
}
