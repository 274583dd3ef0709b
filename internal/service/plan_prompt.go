// internal/service/plan_prompt.go
package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"ironready/coach-api/internal/config"
	"ironready/coach-api/internal/domain"
)

// MovementVocabulary is appended to every retrieval query so the corpus
// search covers the basic movement patterns.
var MovementVocabulary = []string{"press", "hinge", "squat", "pull", "jump", "rotate", "carry"}

// ProfileDefaults lists the value used for every profile field the user left empty.
type ProfileDefaults struct {
	Age          int
	Gender       string
	HeightCm     float64
	WeightKg     float64
	Sport        string
	TrainingDays []string
}

// DefaultProfileDefaults are used when configuration does not override them.
var DefaultProfileDefaults = ProfileDefaults{
	Age:          25,
	Gender:       "not specified",
	HeightCm:     170,
	WeightKg:     70,
	Sport:        "general fitness",
	TrainingDays: []string{"Monday", "Wednesday", "Friday"},
}

// ProfileDefaultsFromConfig fills zero config values from DefaultProfileDefaults.
func ProfileDefaultsFromConfig(cfg config.PlanConfig) ProfileDefaults {
	d := DefaultProfileDefaults
	if cfg.DefaultAge > 0 {
		d.Age = cfg.DefaultAge
	}
	if cfg.DefaultGender != "" {
		d.Gender = cfg.DefaultGender
	}
	if cfg.DefaultHeightCm > 0 {
		d.HeightCm = cfg.DefaultHeightCm
	}
	if cfg.DefaultWeightKg > 0 {
		d.WeightKg = cfg.DefaultWeightKg
	}
	if cfg.DefaultSport != "" {
		d.Sport = cfg.DefaultSport
	}
	if len(cfg.DefaultTrainingDays) > 0 {
		d.TrainingDays = cfg.DefaultTrainingDays
	}
	return d
}

// PromptProfile is a profile with every field resolved.
type PromptProfile struct {
	Age            int
	Gender         string
	HeightCm       float64
	WeightKg       float64
	Sport          string
	TrainingDays   []string
	StrengthLevels map[string]float64
}

// Resolve applies the defaults to p.
func (d ProfileDefaults) Resolve(p domain.Profile) PromptProfile {
	out := PromptProfile{
		Age:            d.Age,
		Gender:         d.Gender,
		HeightCm:       d.HeightCm,
		WeightKg:       d.WeightKg,
		Sport:          SportLabel(p.SportCategory, p.SportSubCategory),
		TrainingDays:   canonicalDays(p.TrainingDays),
		StrengthLevels: p.StrengthLevels,
	}
	if p.Age != nil && *p.Age > 0 {
		out.Age = *p.Age
	}
	if g := strings.TrimSpace(p.Gender); g != "" {
		out.Gender = g
	}
	if p.HeightCm != nil && *p.HeightCm > 0 {
		out.HeightCm = *p.HeightCm
	}
	if p.WeightKg != nil && *p.WeightKg > 0 {
		out.WeightKg = *p.WeightKg
	}
	if out.Sport == "" {
		out.Sport = d.Sport
	}
	if len(out.TrainingDays) == 0 {
		out.TrainingDays = canonicalDays(d.TrainingDays)
	}
	if out.StrengthLevels == nil {
		out.StrengthLevels = map[string]float64{}
	}
	return out
}

// SportLabel renders "category / sub-category", or whichever part is set.
func SportLabel(category, subCategory string) string {
	category, subCategory = strings.TrimSpace(category), strings.TrimSpace(subCategory)
	switch {
	case category != "" && subCategory != "":
		return category + " / " + subCategory
	case category != "":
		return category
	default:
		return subCategory
	}
}

// canonicalDays keeps recognised weekday names, canonicalised, in week order.
func canonicalDays(days []string) []string {
	seen := make(map[int]bool, len(days))
	for _, d := range days {
		if _, idx, ok := domain.WeekdayOffset(d); ok {
			seen[idx] = true
		}
	}
	out := make([]string, 0, len(seen))
	for i, name := range domain.Weekdays {
		if seen[i] {
			out = append(out, name)
		}
	}
	return out
}

// RetrievalQuery builds the free-text corpus query for a profile.
func RetrievalQuery(p PromptProfile) string {
	return fmt.Sprintf("%s training exercises for %s; movement patterns: %s",
		p.Sport, strings.Join(p.TrainingDays, ", "), strings.Join(MovementVocabulary, " "))
}

// PlanPrompt is the system instruction and user message for one generation.
type PlanPrompt struct {
	System string
	User   string
}

const planSystemInstruction = `You are an elite strength and conditioning coach. You answer with a single well-formed JSON object and nothing else: no markdown, no commentary.
The object has exactly one key, "week_plan", whose value is an array of day objects. Every day object has:
- "day": one of Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday (each at most once)
- "muscle_group": the muscle groups trained, e.g. "Chest & Triceps"
- "duration": session length in minutes as an integer
- "exercises": an array of objects with name, sport_category, movement_pattern, primary_muscles, secondary_muscles, cns_load, skill_level, injury_risk, equipment, description
- "warm_up": short warm-up text
- "cool_down": short cool-down text
- "status": one of "Today", "Done", "Pending", "Rest"`

const planUserTemplate = `Generate a realistic, safe and progressive 7-day training plan using ONLY the exercises below. Copy each exercise's fields exactly as given.

Relevant exercises:
%s

User profile:
- Age: %d
- Gender: %s
- Height: %s cm
- Weight: %s kg
- Primary sport: %s
- Available training days: %s (train only on these days; the other days are "Rest")
- Strength levels: %s

Rules:
- Group exercises into daily sessions with a realistic muscle group and a duration of 40-75 minutes.
- Use only exercises from the list above; do not invent new ones.
- Make the plan sport-specific.
- Be conservative with loads for beginners and intermediates. When data is missing assume a moderate level and prioritise safety.`

// BuildPlanPrompt fills the generation template. It never fails.
func BuildPlanPrompt(p PromptProfile, exerciseContext string) PlanPrompt {
	if strings.TrimSpace(exerciseContext) == "" {
		exerciseContext = "(no exercises retrieved)"
	}
	user := fmt.Sprintf(planUserTemplate,
		exerciseContext,
		p.Age,
		p.Gender,
		formatNumber(p.HeightCm),
		formatNumber(p.WeightKg),
		p.Sport,
		strings.Join(p.TrainingDays, ", "),
		strengthLevelsJSON(p.StrengthLevels),
	)
	return PlanPrompt{System: planSystemInstruction, User: user}
}

// strengthLevelsJSON renders the map with sorted keys.
func strengthLevelsJSON(levels map[string]float64) string {
	keys := make([]string, 0, len(levels))
	for k := range levels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		name, _ := json.Marshal(k)
		sb.Write(name)
		sb.WriteString(": ")
		sb.WriteString(formatNumber(levels[k]))
	}
	sb.WriteByte('}')
	return sb.String()
}

func formatNumber(f float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}
