package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"ironready/coach-api/internal/domain"
	"ironready/coach-api/internal/logger"
	"ironready/coach-api/internal/metrics"
	"ironready/coach-api/internal/recovery"
	"ironready/coach-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrSessionNotFound         = errors.New("workout session not found")
	ErrSessionForbidden        = errors.New("workout session belongs to another user")
	ErrSessionAlreadyCompleted = errors.New("workout session already completed")
	ErrPlanDayNotFound         = errors.New("plan day not found")
	ErrPlanDayForbidden        = errors.New("plan day belongs to another user")
)

const (
	SessionCompletedMessage = "Great job! Session completed. Check your recovery status and plan your next workout."

	completionIntensity = "intense"
	tipMaxWords         = 50
)

// SetLogInput is one performed set as submitted by the athlete.
type SetLogInput struct {
	ExerciseName string
	SetNumber    int
	RepsDone     int
	WeightUsed   *float64
	Notes        string
}

// CompletedSession is the result of a successful completion.
type CompletedSession struct {
	Session    *domain.WorkoutSession
	Recoveries []domain.RecoveryRecord
}

type SessionService interface {
	Start(ctx context.Context, userID, planDayID primitive.ObjectID) (*domain.WorkoutSession, error)
	LogSet(ctx context.Context, userID, sessionID primitive.ObjectID, in SetLogInput) (*domain.SetLog, error)
	ListSetLogs(ctx context.Context, userID, sessionID primitive.ObjectID) ([]domain.SetLog, error)
	Complete(ctx context.Context, sessionID, userID primitive.ObjectID) (*CompletedSession, error)
}

type sessionService struct {
	sessionRepo   repository.SessionRepository
	planDayRepo   repository.PlanDayRepository
	recoveryRepo  repository.RecoveryRepository
	notifications repository.NotificationRepository
	tx            repository.Transactor
	tips          TipEnhancer
	logger        *slog.Logger
	now           func() time.Time
}

// NewSessionService creates a new session service.
func NewSessionService(
	sessionRepo repository.SessionRepository,
	planDayRepo repository.PlanDayRepository,
	recoveryRepo repository.RecoveryRepository,
	notifications repository.NotificationRepository,
	tx repository.Transactor,
	tips TipEnhancer,
	logger *slog.Logger,
) SessionService {
	return &sessionService{
		sessionRepo:   sessionRepo,
		planDayRepo:   planDayRepo,
		recoveryRepo:  recoveryRepo,
		notifications: notifications,
		tx:            tx,
		tips:          tips,
		logger:        logger,
		now:           time.Now,
	}
}

// Start opens a session for one of the caller's plan days.
func (s *sessionService) Start(ctx context.Context, userID, planDayID primitive.ObjectID) (*domain.WorkoutSession, error) {
	day, err := s.planDayRepo.GetByID(ctx, planDayID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanDayNotFound
		}
		return nil, err
	}
	if day.UserID != userID {
		return nil, ErrPlanDayForbidden
	}

	session := &domain.WorkoutSession{
		UserID:    userID,
		PlanDayID: planDayID,
		StartTime: s.now().UTC(),
	}
	id, err := s.sessionRepo.Create(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	session.ID = id
	return session, nil
}

// ownedSession loads a session and checks that userID owns it.
func (s *sessionService) ownedSession(ctx context.Context, userID, sessionID primitive.ObjectID) (*domain.WorkoutSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrSessionForbidden
	}
	return session, nil
}

// LogSet records one set on an open session.
func (s *sessionService) LogSet(ctx context.Context, userID, sessionID primitive.ObjectID, in SetLogInput) (*domain.SetLog, error) {
	name := strings.TrimSpace(in.ExerciseName)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: exercise name is required", ErrInvalidInput)
	case in.SetNumber < 1:
		return nil, fmt.Errorf("%w: set number must be at least 1", ErrInvalidInput)
	case in.RepsDone < 0:
		return nil, fmt.Errorf("%w: reps cannot be negative", ErrInvalidInput)
	case in.WeightUsed != nil && *in.WeightUsed < 0:
		return nil, fmt.Errorf("%w: weight cannot be negative", ErrInvalidInput)
	}

	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Completed {
		return nil, ErrSessionAlreadyCompleted
	}

	setLog := &domain.SetLog{
		SessionID:    sessionID,
		ExerciseName: name,
		SetNumber:    in.SetNumber,
		RepsDone:     in.RepsDone,
		WeightUsed:   in.WeightUsed,
		Notes:        strings.TrimSpace(in.Notes),
		CreatedAt:    s.now().UTC(),
	}
	id, err := s.sessionRepo.AddSetLog(ctx, setLog)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	setLog.ID = id
	return setLog, nil
}

func (s *sessionService) ListSetLogs(ctx context.Context, userID, sessionID primitive.ObjectID) ([]domain.SetLog, error) {
	if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.sessionRepo.ListSetLogs(ctx, sessionID)
}

var muscleSeparators = regexp.MustCompile(`(?i)\s*(?:,|&|/|\s+and\s+)\s*`)

// SplitMuscleGroups splits a plan day's muscle_group text into the groups it
// names. Duplicates are kept.
func SplitMuscleGroups(s string) []string {
	var out []string
	for _, part := range muscleSeparators.Split(s, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type muscleUpdate struct {
	muscle string
	status domain.RecoveryStatus
	tip    string
}

// Complete marks the session done and writes a recovery record per trained
// muscle group plus one notification, all in one transaction.
func (s *sessionService) Complete(ctx context.Context, sessionID, userID primitive.ObjectID) (*CompletedSession, error) {
	log := logger.FromContext(ctx, s.logger).With("session_id", sessionID.Hex(), "user_id", userID.Hex())
	outcome := "error"
	defer func() { metrics.SessionCompletions.WithLabelValues(outcome).Inc() }()

	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			outcome = "not_found"
		case errors.Is(err, ErrSessionForbidden):
			outcome = "forbidden"
		}
		return nil, err
	}
	if session.Completed {
		outcome = "already_completed"
		return nil, ErrSessionAlreadyCompleted
	}

	var muscles []string
	day, err := s.planDayRepo.GetByID(ctx, session.PlanDayID)
	switch {
	case err == nil:
		muscles = SplitMuscleGroups(day.MuscleGroup)
	case errors.Is(err, repository.ErrNotFound):
		log.Warn("plan day of session is gone; completing without recovery updates", "plan_day_id", session.PlanDayID.Hex())
	default:
		return nil, err
	}

	endTime := s.now().UTC()
	updates := make([]muscleUpdate, 0, len(muscles))
	for _, m := range muscles {
		status, baseTip := recovery.Classify(&endTime, endTime)
		tip, err := s.tips.Enhance(ctx, m, completionIntensity, tipMaxWords)
		if err != nil {
			metrics.RecoveryTipFallbacks.Inc()
			log.Warn("recovery tip fell back to baseline", "muscle_group", m, "error", err)
			tip = baseTip
		}
		updates = append(updates, muscleUpdate{muscle: m, status: status, tip: tip})
	}

	var records []domain.RecoveryRecord
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		records = records[:0]
		if err := s.sessionRepo.MarkCompleted(txCtx, sessionID, endTime); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrSessionAlreadyCompleted
			}
			return err
		}
		for _, u := range updates {
			tip := u.tip
			rec, err := s.recoveryRepo.Upsert(txCtx, repository.RecoveryUpsert{
				UserID:         userID,
				MuscleGroup:    u.muscle,
				Status:         u.status,
				Tip:            &tip,
				LastExertionAt: &endTime,
				Now:            endTime,
			})
			if err != nil {
				return fmt.Errorf("recovery for %s: %w", u.muscle, err)
			}
			records = append(records, *rec)
		}
		_, err := s.notifications.Create(txCtx, &domain.Notification{UserID: userID, Message: SessionCompletedMessage})
		return err
	})
	if err != nil {
		if errors.Is(err, ErrSessionAlreadyCompleted) {
			outcome = "already_completed"
			return nil, ErrSessionAlreadyCompleted
		}
		log.Error("session completion rolled back", "error", err)
		outcome = "persistence"
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	session.Completed = true
	session.EndTime = &endTime
	outcome = metrics.OutcomeSuccess
	log.Info("workout session completed", "muscle_groups", len(updates))
	return &CompletedSession{Session: session, Recoveries: records}, nil
}
