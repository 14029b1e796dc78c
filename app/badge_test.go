package app

import (
	"testing"

	"stockgravity/database"
)

func floatPtr(f float64) *float64 {
	return &f
}

func TestComputeBadge(t *testing.T) {
	tests := []struct {
		name           string
		input          BadgeInput
		expectedBadge  string
		expectedPoints int
		enableApproval bool
	}{
		{
			name: "everything strong",
			input: BadgeInput{
				FinalScore: 90,
				Change5d:   5,
				VolRatio:   1.5,
				RSI:        floatPtr(55),
				Report: &database.AIAnalysisReport{
					Recommendation:  BadgeStrongApprove,
					ConfidenceScore: 0.8,
				},
			},
			expectedBadge:  BadgeStrongApprove,
			expectedPoints: 7,
			enableApproval: true,
		},
		{
			name: "mid score watch",
			input: BadgeInput{
				FinalScore: 78,
				Change5d:   4,
				VolRatio:   1.3,
			},
			expectedBadge:  BadgeWatchMore,
			expectedPoints: 3,
			enableApproval: true,
		},
		{
			name: "watch threshold",
			input: BadgeInput{
				FinalScore: 86,
				Change5d:   4,
				VolRatio:   1.0,
				RSI:        nil,
			},
			expectedBadge:  BadgeWatchMore,
			expectedPoints: 3,
			enableApproval: true,
		},
		{
			name: "sell recommendation drags down",
			input: BadgeInput{
				FinalScore: 90,
				Change5d:   5,
				VolRatio:   1.5,
				RSI:        floatPtr(55),
				Report: &database.AIAnalysisReport{
					Recommendation:  "SELL",
					ConfidenceScore: 0.9,
				},
			},
			expectedBadge:  BadgeWatchMore,
			expectedPoints: 3,
			enableApproval: true,
		},
		{
			name: "low confidence buy counts once",
			input: BadgeInput{
				FinalScore: 86,
				Change5d:   4,
				VolRatio:   1.3,
				RSI:        floatPtr(50),
				Report: &database.AIAnalysisReport{
					Recommendation:  "BUY",
					ConfidenceScore: 0.5,
				},
			},
			expectedBadge:  BadgeStrongApprove,
			expectedPoints: 6,
			enableApproval: true,
		},
		{
			name: "overbought penalty",
			input: BadgeInput{
				FinalScore: 76,
				Change5d:   4,
				VolRatio:   1.5,
				RSI:        floatPtr(75),
			},
			expectedBadge:  BadgeDoNotApprove,
			expectedPoints: 2,
			enableApproval: false,
		},
		{
			name: "negative total",
			input: BadgeInput{
				FinalScore: 70,
				Change5d:   1,
				VolRatio:   1.0,
				RSI:        floatPtr(80),
			},
			expectedBadge:  BadgeDoNotApprove,
			expectedPoints: -1,
			enableApproval: false,
		},
		{
			name:           "nothing qualifies",
			input:          BadgeInput{FinalScore: 50, Change5d: 0, VolRatio: 1.0},
			expectedBadge:  BadgeDoNotApprove,
			expectedPoints: 0,
			enableApproval: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeBadge(tt.input)
			if got.Badge != tt.expectedBadge {
				t.Errorf("Badge = %s, want %s", got.Badge, tt.expectedBadge)
			}
			if got.Points != tt.expectedPoints {
				t.Errorf("Points = %d, want %d", got.Points, tt.expectedPoints)
			}
			if got.EnableApproval != tt.enableApproval {
				t.Errorf("EnableApproval = %v, want %v", got.EnableApproval, tt.enableApproval)
			}
		})
	}
}
