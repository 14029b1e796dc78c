package database

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		allowed bool
	}{
		{StatusMonitoring, StatusApproved, true},
		{StatusMonitoring, StatusRejected, true},
		{StatusMonitoring, StatusTrading, false},
		{StatusMonitoring, StatusCompleted, false},
		{StatusApproved, StatusTrading, true},
		{StatusApproved, StatusRejected, true},
		{StatusApproved, StatusMonitoring, false},
		{StatusTrading, StatusCompleted, true},
		{StatusTrading, StatusRejected, false},
		{StatusCompleted, StatusMonitoring, false},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusMonitoring, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"_to_"+tt.to, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.allowed {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestMirrorReportStatus(t *testing.T) {
	tests := []struct {
		poolStatus string
		expected   string
	}{
		{StatusMonitoring, ReportActive},
		{StatusApproved, ReportActive},
		{StatusRejected, ReportDropped},
		{StatusTrading, ReportTraded},
		{StatusCompleted, ReportTraded},
	}

	for _, tt := range tests {
		t.Run(tt.poolStatus, func(t *testing.T) {
			if got := MirrorReportStatus(tt.poolStatus); got != tt.expected {
				t.Errorf("MirrorReportStatus(%s) = %s, want %s", tt.poolStatus, got, tt.expected)
			}
		})
	}
}

func TestRejectionNote(t *testing.T) {
	got := RejectionNote([]string{"최대 보유 기간 초과 (8일 >= 7일)", "Stock Pool Top 100 탈락"})
	want := "[재평가 탈락] 최대 보유 기간 초과 (8일 >= 7일) | Stock Pool Top 100 탈락"
	if got != want {
		t.Errorf("RejectionNote() = %q, want %q", got, want)
	}
}
