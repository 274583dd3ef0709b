// Package recovery classifies muscle-group readiness from the time since the
// last exertion.
package recovery

import (
	"time"

	"ironready/coach-api/internal/domain"
)

// Thresholds between statuses, measured from the end of the last session.
const (
	RedWindow    = 24 * time.Hour
	YellowWindow = 48 * time.Hour
	FullRecovery = 72 * time.Hour
)

const (
	TipNoData        = "No prior exertion recorded. Ready to train."
	TipRest          = "Avoid heavy load; rest or active recovery."
	TipLightMobility = "Light mobility only; avoid max effort."
	TipMonitor       = "Normal training is safe; monitor fatigue."
	TipRecovered     = "Fully recovered."
)

// Classify maps the last exertion time to a status and a baseline tip.
// A nil lastExertion means the muscle group has never been trained.
// Exertions in the future (clock skew) count as zero elapsed time.
func Classify(lastExertion *time.Time, now time.Time) (domain.RecoveryStatus, string) {
	if lastExertion == nil {
		return domain.RecoveryGreen, TipNoData
	}
	elapsed := now.Sub(*lastExertion)
	if elapsed < 0 {
		elapsed = 0
	}
	switch {
	case elapsed < RedWindow:
		return domain.RecoveryRed, TipRest
	case elapsed < YellowWindow:
		return domain.RecoveryYellow, TipLightMobility
	case elapsed < FullRecovery:
		return domain.RecoveryGreen, TipMonitor
	default:
		return domain.RecoveryGreen, TipRecovered
	}
}
