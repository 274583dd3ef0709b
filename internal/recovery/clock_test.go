package recovery

import (
	"testing"
	"time"

	"ironready/coach-api/internal/domain"
)

func TestClassify(t *testing.T) {
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		elapsed    time.Duration
		wantStatus domain.RecoveryStatus
		wantTip    string
	}{
		{"just finished", 0, domain.RecoveryRed, TipRest},
		{"one hour", time.Hour, domain.RecoveryRed, TipRest},
		{"just under 24h", RedWindow - time.Nanosecond, domain.RecoveryRed, TipRest},
		{"exactly 24h", RedWindow, domain.RecoveryYellow, TipLightMobility},
		{"36h", 36 * time.Hour, domain.RecoveryYellow, TipLightMobility},
		{"exactly 48h", YellowWindow, domain.RecoveryGreen, TipMonitor},
		{"just under 72h", FullRecovery - time.Second, domain.RecoveryGreen, TipMonitor},
		{"exactly 72h", FullRecovery, domain.RecoveryGreen, TipRecovered},
		{"a month", 30 * 24 * time.Hour, domain.RecoveryGreen, TipRecovered},
		{"future exertion", -2 * time.Hour, domain.RecoveryRed, TipRest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last := now.Add(-tt.elapsed)
			status, tip := Classify(&last, now)
			if status != tt.wantStatus {
				t.Errorf("status = %s, want %s", status, tt.wantStatus)
			}
			if tip != tt.wantTip {
				t.Errorf("tip = %q, want %q", tip, tt.wantTip)
			}
		})
	}
}

func TestClassifyNoPriorExertion(t *testing.T) {
	for _, now := range []time.Time{
		time.Time{},
		time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Now(),
	} {
		status, tip := Classify(nil, now)
		if status != domain.RecoveryGreen || tip != TipNoData {
			t.Errorf("Classify(nil, %v) = (%s, %q)", now, status, tip)
		}
	}
}

// readiness orders statuses from least to most recovered.
var readiness = map[domain.RecoveryStatus]int{
	domain.RecoveryRed:    0,
	domain.RecoveryYellow: 1,
	domain.RecoveryGreen:  2,
}

func TestClassifyMonotonic(t *testing.T) {
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	prev := -1
	// Walk from long ago towards now; readiness must never improve.
	for h := 100; h >= 0; h-- {
		last := now.Add(-time.Duration(h) * time.Hour)
		status, _ := Classify(&last, now)
		rank := readiness[status]
		if prev != -1 && rank > prev {
			t.Fatalf("status improved at %dh: rank %d after %d", h, rank, prev)
		}
		prev = rank
	}
}
