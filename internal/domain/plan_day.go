// internal/domain/plan_day.go
package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DayStatus is fixed when a plan day is generated and never changed afterwards.
type DayStatus string

const (
	DayToday   DayStatus = "Today"
	DayDone    DayStatus = "Done"
	DayPending DayStatus = "Pending"
	DayRest    DayStatus = "Rest"
)

// ParseDayStatus accepts the four statuses case-insensitively.
func ParseDayStatus(s string) (DayStatus, bool) {
	for _, st := range []DayStatus{DayToday, DayDone, DayPending, DayRest} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, true
		}
	}
	return "", false
}

// Weekdays lists the canonical day names in plan order (Monday first).
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekdayOffset returns the canonical name and its offset from Monday.
// Matching is case-insensitive and ignores surrounding whitespace.
func WeekdayOffset(name string) (string, int, bool) {
	name = strings.TrimSpace(name)
	for i, d := range Weekdays {
		if strings.EqualFold(name, d) {
			return d, i, true
		}
	}
	return "", 0, false
}

// ExerciseDescriptor is one structured exercise inside a plan day.
type ExerciseDescriptor struct {
	Name             string `bson:"name" json:"name"`
	SportCategory    string `bson:"sportCategory,omitempty" json:"sport_category,omitempty"`
	MovementPattern  string `bson:"movementPattern,omitempty" json:"movement_pattern,omitempty"`
	PrimaryMuscles   string `bson:"primaryMuscles,omitempty" json:"primary_muscles,omitempty"`
	SecondaryMuscles string `bson:"secondaryMuscles,omitempty" json:"secondary_muscles,omitempty"`
	CNSLoad          string `bson:"cnsLoad,omitempty" json:"cns_load,omitempty"`
	SkillLevel       string `bson:"skillLevel,omitempty" json:"skill_level,omitempty"`
	InjuryRisk       string `bson:"injuryRisk,omitempty" json:"injury_risk,omitempty"`
	Equipment        string `bson:"equipment,omitempty" json:"equipment,omitempty"`
	Description      string `bson:"description,omitempty" json:"description,omitempty"`
}

// WorkoutPlanDay is one generated day. Rows of a single generation run share
// GenerationID; rows are never updated in place.
type WorkoutPlanDay struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID   `bson:"userId" json:"userId"`
	GenerationID string               `bson:"generationId" json:"generationId"`
	Week         int                  `bson:"week" json:"week"`
	Day          string               `bson:"day" json:"day"`
	DayIndex     int                  `bson:"dayIndex" json:"-"` // 0 = Monday, for ordering
	ScheduledAt  time.Time            `bson:"scheduledAt" json:"scheduledAt"`
	MuscleGroup  string               `bson:"muscleGroup" json:"muscleGroup"`
	Duration     int                  `bson:"duration" json:"duration"` // minutes
	Exercises    []ExerciseDescriptor `bson:"exercises" json:"exercises"`
	WarmUp       string               `bson:"warmUp,omitempty" json:"warmUp,omitempty"`
	CoolDown     string               `bson:"coolDown,omitempty" json:"coolDown,omitempty"`
	Status       DayStatus            `bson:"status" json:"status"`
	GeneratedAt  time.Time            `bson:"generatedAt" json:"generatedAt"`
}
