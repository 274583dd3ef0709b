// internal/domain/exercise.go
package domain

import (
	"fmt"
	"strings"
)

// ExerciseDocument is one entry of the read-only retrieval corpus.
type ExerciseDocument struct {
	Name             string `json:"name"`
	SportCategory    string `json:"sport_category,omitempty"`
	MovementPattern  string `json:"movement_pattern,omitempty"`
	PrimaryMuscles   string `json:"primary_muscles,omitempty"`
	SecondaryMuscles string `json:"secondary_muscles,omitempty"`
	CNSLoad          string `json:"cns_load,omitempty"`
	SkillLevel       string `json:"skill_level,omitempty"`
	InjuryRisk       string `json:"injury_risk,omitempty"`
	Equipment        string `json:"equipment,omitempty"`
	Description      string `json:"description,omitempty"`
}

// Text renders the document the way it is embedded and shown to the model.
func (e ExerciseDocument) Text() string {
	var sb strings.Builder
	name := e.Name
	if name == "" {
		name = "Unknown"
	}
	fmt.Fprintf(&sb, "Exercise: %s\n", name)
	fmt.Fprintf(&sb, "Sport Category: %s\n", e.SportCategory)
	fmt.Fprintf(&sb, "Movement Pattern: %s\n", e.MovementPattern)
	fmt.Fprintf(&sb, "Primary Muscles: %s\n", e.PrimaryMuscles)
	fmt.Fprintf(&sb, "Secondary Muscles: %s\n", e.SecondaryMuscles)
	fmt.Fprintf(&sb, "CNS Load: %s\n", e.CNSLoad)
	fmt.Fprintf(&sb, "Skill Level: %s\n", e.SkillLevel)
	fmt.Fprintf(&sb, "Injury Risk: %s\n", e.InjuryRisk)
	fmt.Fprintf(&sb, "Equipment: %s\n", e.Equipment)
	fmt.Fprintf(&sb, "Description: %s", e.Description)
	return sb.String()
}
