package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"ironready/coach-api/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SkipReason says why a generated day was dropped.
type SkipReason string

const (
	SkipNotAnObject     SkipReason = "not_an_object"
	SkipMissingField    SkipReason = "missing_field"
	SkipUnknownDay      SkipReason = "unknown_day"
	SkipDuplicateDay    SkipReason = "duplicate_day"
	SkipInvalidDuration SkipReason = "invalid_duration"
)

// PlaceholderExercise replaces an exercise list that is not a non-empty list of objects.
var PlaceholderExercise = domain.ExerciseDescriptor{
	Name:        "Exercise details unavailable",
	Description: "The exercise list for this day could not be read. Follow the warm-up and train by feel.",
}

// DayResult is the outcome for one entry of week_plan: either Day is set
// (accepted) or Reason is set (skipped).
type DayResult struct {
	Index  int
	Day    *domain.WorkoutPlanDay
	Reason SkipReason
	Detail string
}

func (r DayResult) Accepted() bool {
	return r.Day != nil
}

// PlanWeek places generated days on the calendar week containing Today.
type PlanWeek struct {
	UserID       primitive.ObjectID
	GenerationID string
	TrainingDays []string
	Today        time.Time // in the plan timezone
	GeneratedAt  time.Time
}

// WeekStart returns midnight of the Monday on or before t, in t's location.
func WeekStart(t time.Time) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	back := (int(midnight.Weekday()) + 6) % 7
	return midnight.AddDate(0, 0, -back)
}

// DeriveDayStatus compares the plan day's offset from Monday with today's.
func DeriveDayStatus(dayOffset int, today time.Time) domain.DayStatus {
	todayOffset := (int(today.Weekday()) + 6) % 7
	switch {
	case dayOffset < todayOffset:
		return domain.DayDone
	case dayOffset == todayOffset:
		return domain.DayToday
	default:
		return domain.DayPending
	}
}

// parseWeekPlan extracts the week_plan entries. Every error it returns is a
// format error of the model output.
func parseWeekPlan(raw string) ([]json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &top); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	weekPlan, ok := top["week_plan"]
	if !ok {
		return nil, fmt.Errorf("response has no week_plan key")
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(weekPlan, &entries); err != nil || entries == nil {
		return nil, fmt.Errorf("week_plan is not a list")
	}
	return entries, nil
}

// validateDays turns week_plan entries into tagged results. It never fails;
// bad entries are skipped with a reason.
func validateDays(entries []json.RawMessage, week PlanWeek) []DayResult {
	training := make(map[int]bool, len(week.TrainingDays))
	for _, d := range week.TrainingDays {
		if _, idx, ok := domain.WeekdayOffset(d); ok {
			training[idx] = true
		}
	}
	start := WeekStart(week.Today)
	_, isoWeek := start.ISOWeek()

	results := make([]DayResult, 0, len(entries))
	taken := make(map[int]bool, 7)
	for i, raw := range entries {
		skip := func(reason SkipReason, format string, args ...interface{}) {
			results = append(results, DayResult{Index: i, Reason: reason, Detail: fmt.Sprintf(format, args...)})
		}

		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
			skip(SkipNotAnObject, "entry is not an object")
			continue
		}

		dayRaw, hasDay := obj["day"]
		muscleRaw, hasMuscle := obj["muscle_group"]
		durationRaw, hasDuration := obj["duration"]
		if !hasDuration {
			durationRaw, hasDuration = obj["duration_minutes"]
		}
		exercisesRaw, hasExercises := obj["exercises"]
		var missing []string
		for _, f := range []struct {
			name    string
			present bool
		}{{"day", hasDay}, {"muscle_group", hasMuscle}, {"duration", hasDuration}, {"exercises", hasExercises}} {
			if !f.present {
				missing = append(missing, f.name)
			}
		}
		if len(missing) > 0 {
			skip(SkipMissingField, "missing %s", strings.Join(missing, ", "))
			continue
		}

		var dayName, muscle string
		if json.Unmarshal(dayRaw, &dayName) != nil {
			skip(SkipUnknownDay, "day is not a string")
			continue
		}
		canonical, offset, ok := domain.WeekdayOffset(dayName)
		if !ok {
			skip(SkipUnknownDay, "unknown day %q", dayName)
			continue
		}
		if taken[offset] {
			skip(SkipDuplicateDay, "%s already planned", canonical)
			continue
		}
		if json.Unmarshal(muscleRaw, &muscle) != nil {
			skip(SkipMissingField, "muscle_group is not a string")
			continue
		}
		duration, ok := parseDuration(durationRaw)
		if !ok {
			skip(SkipInvalidDuration, "duration %s is not a non-negative number", string(durationRaw))
			continue
		}

		status := DeriveDayStatus(offset, week.Today)
		if !training[offset] {
			if supplied, ok := jsonStatus(obj["status"]); ok {
				status = supplied
			}
		}

		exercises, ok := parseExercises(exercisesRaw)
		if !ok {
			// A rest day may legitimately carry no exercises.
			if status == domain.DayRest && isEmptyList(exercisesRaw) {
				exercises = []domain.ExerciseDescriptor{}
			} else {
				exercises = []domain.ExerciseDescriptor{PlaceholderExercise}
			}
		}

		taken[offset] = true
		results = append(results, DayResult{
			Index: i,
			Day: &domain.WorkoutPlanDay{
				UserID:       week.UserID,
				GenerationID: week.GenerationID,
				Week:         isoWeek,
				Day:          canonical,
				DayIndex:     offset,
				ScheduledAt:  start.AddDate(0, 0, offset).UTC(),
				MuscleGroup:  strings.TrimSpace(muscle),
				Duration:     duration,
				Exercises:    exercises,
				WarmUp:       jsonString(obj["warm_up"]),
				CoolDown:     jsonString(obj["cool_down"]),
				Status:       status,
				GeneratedAt:  week.GeneratedAt,
			},
		})
	}
	return results
}

// parseDuration accepts a JSON number or a string such as "60" or "60 min".
func parseDuration(raw json.RawMessage) (int, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, false
		}
		fields := strings.Fields(s)
		if len(fields) == 0 {
			return 0, false
		}
		if f, err = strconv.ParseFloat(fields[0], 64); err != nil {
			return 0, false
		}
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) || f > 24*60 {
		return 0, false
	}
	return int(math.Round(f)), true
}

func jsonStatus(raw json.RawMessage) (domain.DayStatus, bool) {
	if raw == nil {
		return "", false
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return domain.ParseDayStatus(s)
}

func jsonString(raw json.RawMessage) string {
	var s string
	if raw == nil || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func isEmptyList(raw json.RawMessage) bool {
	var list []json.RawMessage
	return json.Unmarshal(raw, &list) == nil && list != nil && len(list) == 0
}

// parseExercises requires a non-empty list of objects. Objects without a
// name are dropped; the list fails only when nothing named remains.
// Field values that are lists or numbers are flattened to text.
func parseExercises(raw json.RawMessage) ([]domain.ExerciseDescriptor, bool) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return nil, false
	}
	out := make([]domain.ExerciseDescriptor, 0, len(items))
	for _, it := range items {
		if it == nil {
			return nil, false
		}
		ex := domain.ExerciseDescriptor{
			Name:             flatten(it["name"]),
			SportCategory:    flatten(it["sport_category"]),
			MovementPattern:  flatten(it["movement_pattern"]),
			PrimaryMuscles:   flatten(it["primary_muscles"]),
			SecondaryMuscles: flatten(it["secondary_muscles"]),
			CNSLoad:          flatten(it["cns_load"]),
			SkillLevel:       flatten(it["skill_level"]),
			InjuryRisk:       flatten(it["injury_risk"]),
			Equipment:        flatten(it["equipment"]),
			Description:      flatten(it["description"]),
		}
		if ex.Name == "" {
			continue
		}
		out = append(out, ex)
	}
	return out, len(out) > 0
}

func flatten(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	var list []interface{}
	if json.Unmarshal(raw, &list) == nil {
		parts := make([]string, 0, len(list))
		for _, v := range list {
			parts = append(parts, strings.TrimSpace(fmt.Sprint(v)))
		}
		return strings.Join(parts, ", ")
	}
	var v interface{}
	if json.Unmarshal(raw, &v) == nil && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}
