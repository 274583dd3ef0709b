package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ironready/coach-api/internal/domain"
	"ironready/coach-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Plan views.
const (
	ViewToday  = "today"
	ViewWeekly = "weekly"
)

const (
	MessageGetReady = "Get ready with warm-up!"
	MessageRestDay  = "Rest day today"
	MessageNoPlan   = "No plan for today. Generate one!"
)

// PlanView is the plan as shown to the athlete on a given day.
type PlanView struct {
	View            string                  `json:"view"`
	Today           string                  `json:"today"`
	GetReadyMessage string                  `json:"get_ready_message"`
	Plans           []domain.WorkoutPlanDay `json:"plans"`
}

type WorkoutService interface {
	ListPlanDays(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlanDay, error)
	PlanView(ctx context.Context, userID primitive.ObjectID, view string) (*PlanView, error)
}

type workoutService struct {
	planDayRepo repository.PlanDayRepository
	location    *time.Location
	now         func() time.Time
}

// NewWorkoutService creates the read side of generated plans. Weekday names
// are resolved in loc.
func NewWorkoutService(planDayRepo repository.PlanDayRepository, loc *time.Location) WorkoutService {
	if loc == nil {
		loc = time.UTC
	}
	return &workoutService{planDayRepo: planDayRepo, location: loc, now: time.Now}
}

// ListPlanDays returns every stored plan day of the user, across generations.
func (s *workoutService) ListPlanDays(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlanDay, error) {
	days, err := s.planDayRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if days == nil {
		days = []domain.WorkoutPlanDay{}
	}
	return days, nil
}

// PlanView returns the latest generation, or only today's day of it.
func (s *workoutService) PlanView(ctx context.Context, userID primitive.ObjectID, view string) (*PlanView, error) {
	if view == "" {
		view = ViewToday
	}
	if view != ViewToday && view != ViewWeekly {
		return nil, fmt.Errorf("%w: view must be today or weekly", ErrInvalidInput)
	}

	today := s.now().In(s.location).Weekday().String()
	days, err := s.planDayRepo.LatestGeneration(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	out := &PlanView{View: view, Today: today, Plans: []domain.WorkoutPlanDay{}}
	trainsToday := false
	for _, d := range days {
		isToday := d.Day == today
		if isToday && d.Status != domain.DayRest {
			trainsToday = true
		}
		if view == ViewToday && !isToday {
			continue
		}
		out.Plans = append(out.Plans, d)
	}

	switch {
	case len(out.Plans) == 0 && len(days) == 0:
		out.GetReadyMessage = MessageNoPlan
	case trainsToday:
		out.GetReadyMessage = MessageGetReady
	default:
		out.GetReadyMessage = MessageRestDay
	}
	return out, nil
}
