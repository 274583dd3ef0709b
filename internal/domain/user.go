package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents an athlete account together with its onboarding profile.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	Profile      Profile            `bson:"profile" json:"profile"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Profile is filled in step by step during onboarding. Every field except
// IsOnboarded may be absent; plan generation falls back to configured defaults.
type Profile struct {
	BirthDate             *time.Time         `bson:"birthDate,omitempty" json:"birthDate,omitempty"`
	Age                   *int               `bson:"age,omitempty" json:"age,omitempty"`
	Gender                string             `bson:"gender,omitempty" json:"gender,omitempty"`
	HeightCm              *float64           `bson:"heightCm,omitempty" json:"heightCm,omitempty"`
	WeightKg              *float64           `bson:"weightKg,omitempty" json:"weightKg,omitempty"`
	SportCategory         string             `bson:"sportCategory,omitempty" json:"sportCategory,omitempty"`
	SportSubCategory      string             `bson:"sportSubCategory,omitempty" json:"sportSubCategory,omitempty"`
	StrengthLevels        map[string]float64 `bson:"strengthLevels,omitempty" json:"strengthLevels,omitempty"`
	TrainingDays          []string           `bson:"trainingDays,omitempty" json:"trainingDays,omitempty"`
	IsOnboarded           bool               `bson:"isOnboarded" json:"isOnboarded"`
	OnboardingCompletedAt *time.Time         `bson:"onboardingCompletedAt,omitempty" json:"onboardingCompletedAt,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// AgeOn returns the full years between birth and the given day, never negative.
func AgeOn(birth, today time.Time) int {
	age := today.Year() - birth.Year()
	if today.Month() < birth.Month() || (today.Month() == birth.Month() && today.Day() < birth.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
