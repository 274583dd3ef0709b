package repository

import (
	"context"
	"time"

	"ironready/coach-api/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
	ErrConflict  = RepositoryError("conflicting update") // conditional write matched nothing
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Transactor runs fn inside a store transaction. Repository calls made with
// the ctx passed to fn take part in it; returning an error from fn rolls
// every one of them back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, profile domain.Profile) error
}

// RecoveryUpsert carries the fields written by RecoveryRepository.Upsert.
type RecoveryUpsert struct {
	UserID         primitive.ObjectID
	MuscleGroup    string
	Status         domain.RecoveryStatus
	Tip            *string
	LastExertionAt *time.Time
	Now            time.Time
}

// RecoveryRepository stores one record per (user, muscle group).
type RecoveryRepository interface {
	// Upsert inserts or overwrites the record for the pair atomically. The
	// stored lastUpdated is strictly greater than any earlier value.
	Upsert(ctx context.Context, in RecoveryUpsert) (*domain.RecoveryRecord, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]domain.RecoveryRecord, error)
	// ForEach streams every record, grouped by user, until fn returns an error.
	ForEach(ctx context.Context, fn func(domain.RecoveryRecord) error) error
	// RefreshStatus rewrites status and tip only if the record was not touched
	// since seenLastUpdated; it returns ErrConflict otherwise.
	RefreshStatus(ctx context.Context, id primitive.ObjectID, seenLastUpdated time.Time, status domain.RecoveryStatus, tip string) error
}

// PlanDayRepository stores generated plan days. Rows are append-only.
type PlanDayRepository interface {
	InsertBatch(ctx context.Context, days []domain.WorkoutPlanDay) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlanDay, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlanDay, error)
	// LatestGeneration returns the days of the most recent generation run.
	LatestGeneration(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlanDay, error)
}

// SessionRepository stores workout sessions and their set logs.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error)
	// MarkCompleted sets completed and endTime only on an open session;
	// ErrConflict means the session was already completed.
	MarkCompleted(ctx context.Context, id primitive.ObjectID, endTime time.Time) error
	AddSetLog(ctx context.Context, log *domain.SetLog) (primitive.ObjectID, error)
	ListSetLogs(ctx context.Context, sessionID primitive.ObjectID) ([]domain.SetLog, error)
}

// NotificationRepository defines the interface for user notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) (primitive.ObjectID, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, unreadOnly bool) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID) error
}
