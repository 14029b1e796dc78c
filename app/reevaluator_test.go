package app

import (
	"strings"
	"testing"
)

// healthy returns inputs that trip none of the drop rules.
func healthy() EvalInput {
	return EvalInput{
		DaysHeld:     4,
		InitialScore: 80,
		CurrentScore: 82,
		Close:        10000,
		MA5:          9800,
		RSI:          60,
		Vol3dAvg:     90000,
		Vol60dAvg:    100000,
		InTopPool:    true,
	}
}

func TestEvaluateApprovedGracePeriod(t *testing.T) {
	// Inside the grace period nothing can drop the entry, even when every
	// other rule would fire.
	in := EvalInput{
		DaysHeld:     2,
		InitialScore: 80,
		CurrentScore: 10,
		Close:        9000,
		MA5:          10000,
		RSI:          90,
		Vol3dAvg:     1000,
		Vol60dAvg:    100000,
		InTopPool:    false,
	}
	drop, reasons := EvaluateApproved(in)
	if drop {
		t.Errorf("expected no drop inside grace period, got reasons %v", reasons)
	}
	if reasons != nil {
		t.Errorf("expected nil reasons, got %v", reasons)
	}
}

func TestEvaluateApprovedHealthy(t *testing.T) {
	drop, reasons := EvaluateApproved(healthy())
	if drop {
		t.Errorf("expected healthy entry to survive, got reasons %v", reasons)
	}
}

func TestEvaluateApprovedRules(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*EvalInput)
		fragment string
	}{
		{
			name:     "max hold exceeded",
			mutate:   func(in *EvalInput) { in.DaysHeld = 8 },
			fragment: "최대 보유 기간 초과 (8일 >= 7일)",
		},
		{
			name: "score collapse",
			mutate: func(in *EvalInput) {
				in.InitialScore = 80
				in.CurrentScore = 60
			},
			fragment: "점수 20% 이상 하락 (-25.0%)",
		},
		{
			name: "overbought below short average",
			mutate: func(in *EvalInput) {
				in.RSI = 80
				in.Close = 9500
				in.MA5 = 10000
			},
			fragment: "과매수 + 하락 신호 (RSI=80.0 > 75, 종가 < MA5)",
		},
		{
			name: "volume collapse",
			mutate: func(in *EvalInput) {
				in.Vol3dAvg = 40000
				in.Vol60dAvg = 100000
			},
			fragment: "거래량 급감 (3일 평균 = 60일 평균의 40.0%)",
		},
		{
			name:     "fell out of top pool",
			mutate:   func(in *EvalInput) { in.InTopPool = false },
			fragment: "Stock Pool Top 100 탈락",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := healthy()
			tt.mutate(&in)
			drop, reasons := EvaluateApproved(in)
			if !drop {
				t.Fatal("expected drop")
			}
			if len(reasons) != 1 {
				t.Fatalf("expected exactly one reason, got %v", reasons)
			}
			if reasons[0] != tt.fragment {
				t.Errorf("reason = %q, want %q", reasons[0], tt.fragment)
			}
		})
	}
}

func TestEvaluateApprovedBoundaries(t *testing.T) {
	t.Run("exactly 20 percent drop survives", func(t *testing.T) {
		in := healthy()
		in.InitialScore = 100
		in.CurrentScore = 80
		if drop, reasons := EvaluateApproved(in); drop {
			t.Errorf("expected survival at the boundary, got %v", reasons)
		}
	})

	t.Run("rsi exactly 75 survives", func(t *testing.T) {
		in := healthy()
		in.RSI = 75
		in.Close = 9000
		in.MA5 = 10000
		if drop, reasons := EvaluateApproved(in); drop {
			t.Errorf("expected survival at the boundary, got %v", reasons)
		}
	})

	t.Run("overbought above short average survives", func(t *testing.T) {
		in := healthy()
		in.RSI = 85
		in.Close = 10500
		in.MA5 = 10000
		if drop, reasons := EvaluateApproved(in); drop {
			t.Errorf("expected survival above MA5, got %v", reasons)
		}
	})

	t.Run("volume exactly half survives", func(t *testing.T) {
		in := healthy()
		in.Vol3dAvg = 50000
		in.Vol60dAvg = 100000
		if drop, reasons := EvaluateApproved(in); drop {
			t.Errorf("expected survival at the boundary, got %v", reasons)
		}
	})

	t.Run("multiple rules collect all reasons", func(t *testing.T) {
		in := healthy()
		in.DaysHeld = 10
		in.InTopPool = false
		drop, reasons := EvaluateApproved(in)
		if !drop || len(reasons) != 2 {
			t.Fatalf("expected 2 reasons, got %v", reasons)
		}
		joined := strings.Join(reasons, " | ")
		if !strings.Contains(joined, "최대 보유 기간 초과") || !strings.Contains(joined, "Top 100 탈락") {
			t.Errorf("unexpected reasons: %q", joined)
		}
	})
}
