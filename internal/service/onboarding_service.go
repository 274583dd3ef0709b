package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ironready/coach-api/internal/domain"
	"ironready/coach-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrSubCategoryNotApplicable = errors.New("sport sub-category selection is only applicable for 'Combat'")

// CombatCategory is the only sport category with sub-categories.
const CombatCategory = "Combat"

// Onboarding next steps.
const (
	NextStepSubCategory  = "sub_category"
	NextStepPersonalInfo = "personal_info"
)

var validGenders = map[string]bool{"male": true, "female": true, "prefer_not_to_say": true}

// PersonalInfo is the body data collected during onboarding.
type PersonalInfo struct {
	BirthDate time.Time
	Gender    string
	HeightCm  float64
	WeightKg  float64
}

type OnboardingService interface {
	// SelectSportCategory stores the category, clears any sub-category and
	// returns the next onboarding step.
	SelectSportCategory(ctx context.Context, userID primitive.ObjectID, category string) (nextStep string, err error)
	SelectSportSubCategory(ctx context.Context, userID primitive.ObjectID, subCategory string) error
	UpdatePersonalInfo(ctx context.Context, userID primitive.ObjectID, info PersonalInfo) (*domain.Profile, error)
	Complete(ctx context.Context, userID primitive.ObjectID, strengthLevels map[string]float64, trainingDays []string) (*domain.Profile, error)
}

type onboardingService struct {
	userRepo repository.UserRepository
	now      func() time.Time
}

func NewOnboardingService(userRepo repository.UserRepository) OnboardingService {
	return &onboardingService{userRepo: userRepo, now: time.Now}
}

// update loads the profile, applies fn and stores the result.
func (s *onboardingService) update(ctx context.Context, userID primitive.ObjectID, fn func(p *domain.Profile) error) (*domain.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	profile := user.Profile
	if err := fn(&profile); err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateProfile(ctx, userID, profile); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &profile, nil
}

func (s *onboardingService) SelectSportCategory(ctx context.Context, userID primitive.ObjectID, category string) (string, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return "", fmt.Errorf("%w: sport category is required", ErrInvalidInput)
	}
	_, err := s.update(ctx, userID, func(p *domain.Profile) error {
		p.SportCategory = category
		p.SportSubCategory = ""
		return nil
	})
	if err != nil {
		return "", err
	}
	if strings.EqualFold(category, CombatCategory) {
		return NextStepSubCategory, nil
	}
	return NextStepPersonalInfo, nil
}

func (s *onboardingService) SelectSportSubCategory(ctx context.Context, userID primitive.ObjectID, subCategory string) error {
	subCategory = strings.TrimSpace(subCategory)
	if subCategory == "" {
		return fmt.Errorf("%w: sport sub-category is required", ErrInvalidInput)
	}
	_, err := s.update(ctx, userID, func(p *domain.Profile) error {
		if !strings.EqualFold(p.SportCategory, CombatCategory) {
			return ErrSubCategoryNotApplicable
		}
		p.SportSubCategory = subCategory
		return nil
	})
	return err
}

// UpdatePersonalInfo stores body data and derives the age from the birth date.
func (s *onboardingService) UpdatePersonalInfo(ctx context.Context, userID primitive.ObjectID, info PersonalInfo) (*domain.Profile, error) {
	today := s.now().UTC()
	gender := strings.ToLower(strings.TrimSpace(info.Gender))
	switch {
	case info.BirthDate.IsZero() || info.BirthDate.After(today):
		return nil, fmt.Errorf("%w: birth date must be in the past", ErrInvalidInput)
	case !validGenders[gender]:
		return nil, fmt.Errorf("%w: gender must be male, female or prefer_not_to_say", ErrInvalidInput)
	case info.HeightCm <= 100 || info.HeightCm >= 250:
		return nil, fmt.Errorf("%w: height must be between 100 and 250 cm", ErrInvalidInput)
	case info.WeightKg <= 30 || info.WeightKg >= 200:
		return nil, fmt.Errorf("%w: weight must be between 30 and 200 kg", ErrInvalidInput)
	}

	return s.update(ctx, userID, func(p *domain.Profile) error {
		birth := info.BirthDate.UTC()
		age := domain.AgeOn(birth, today)
		height, weight := info.HeightCm, info.WeightKg
		p.BirthDate = &birth
		p.Age = &age
		p.Gender = gender
		p.HeightCm = &height
		p.WeightKg = &weight
		return nil
	})
}

// Complete stores strength levels and training days and marks the user onboarded.
func (s *onboardingService) Complete(ctx context.Context, userID primitive.ObjectID, strengthLevels map[string]float64, trainingDays []string) (*domain.Profile, error) {
	if len(trainingDays) == 0 {
		return nil, fmt.Errorf("%w: at least one training day is required", ErrInvalidInput)
	}
	for _, d := range trainingDays {
		if _, _, ok := domain.WeekdayOffset(d); !ok {
			return nil, fmt.Errorf("%w: invalid training day %q", ErrInvalidInput, d)
		}
	}
	levels := make(map[string]float64, len(strengthLevels))
	for k, v := range strengthLevels {
		k = strings.TrimSpace(k)
		if k == "" || v < 0 {
			return nil, fmt.Errorf("%w: invalid strength level %q", ErrInvalidInput, k)
		}
		levels[k] = v
	}

	return s.update(ctx, userID, func(p *domain.Profile) error {
		completedAt := s.now().UTC()
		p.StrengthLevels = levels
		p.TrainingDays = canonicalDays(trainingDays)
		p.IsOnboarded = true
		p.OnboardingCompletedAt = &completedAt
		return nil
	})
}
