// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ironready/coach-api/internal/domain"
	"ironready/coach-api/internal/metrics"
	"ironready/coach-api/internal/recovery"
	"ironready/coach-api/internal/repository"

	"github.com/robfig/cron"
)

var baselineTips = map[string]bool{
	recovery.TipNoData:        true,
	recovery.TipRest:          true,
	recovery.TipLightMobility: true,
	recovery.TipMonitor:       true,
	recovery.TipRecovered:     true,
}

// RecoveryRefresher re-classifies stored recovery records as time passes, so
// a red muscle group turns yellow and green without a new session.
type RecoveryRefresher struct {
	repo   repository.RecoveryRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewRecoveryRefresher(repo repository.RecoveryRepository, logger *slog.Logger) *RecoveryRefresher {
	return &RecoveryRefresher{repo: repo, logger: logger, now: time.Now}
}

// RefreshResult counts what one pass did.
type RefreshResult struct {
	Updated   int
	Unchanged int
	Conflicts int
	Failed    int
}

// needsRefresh reports whether rec should move to status/tip. A tip written
// by the model is kept while the status stays the same.
func needsRefresh(rec domain.RecoveryRecord, status domain.RecoveryStatus, tip string) bool {
	if rec.Status != status {
		return true
	}
	if rec.Tip == nil {
		return true
	}
	return baselineTips[*rec.Tip] && *rec.Tip != tip
}

// RefreshOnce walks every record once. A record written concurrently by a
// session completion is left alone; the completion is newer.
func (r *RecoveryRefresher) RefreshOnce(ctx context.Context) (RefreshResult, error) {
	var res RefreshResult
	now := r.now()
	err := r.repo.ForEach(ctx, func(rec domain.RecoveryRecord) error {
		status, tip := recovery.Classify(rec.LastExertionAt, now)
		if !needsRefresh(rec, status, tip) {
			res.Unchanged++
			return nil
		}
		err := r.repo.RefreshStatus(ctx, rec.ID, rec.LastUpdated, status, tip)
		switch {
		case err == nil:
			res.Updated++
			metrics.RecoveryRefreshes.WithLabelValues("updated").Inc()
		case errors.Is(err, repository.ErrConflict):
			res.Conflicts++
			metrics.RecoveryRefreshes.WithLabelValues("conflict").Inc()
		default:
			res.Failed++
			metrics.RecoveryRefreshes.WithLabelValues("error").Inc()
			r.logger.Warn("recovery refresh failed", "recovery_id", rec.ID.Hex(), "error", err)
		}
		return nil
	})
	return res, err
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{cron: cron.New(), logger: logger}
}

// AddRecoveryRefresh runs the refresher on spec (cron syntax with seconds, or "@every 15m").
func (s *Scheduler) AddRecoveryRefresh(spec string, refresher *RecoveryRefresher, timeout time.Duration) error {
	return s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := refresher.RefreshOnce(ctx)
		if err != nil {
			s.logger.Error("recovery refresh run failed", "error", err)
			return
		}
		s.logger.Info("recovery refresh run finished",
			"updated", res.Updated, "unchanged", res.Unchanged, "conflicts", res.Conflicts, "failed", res.Failed)
	})
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}
