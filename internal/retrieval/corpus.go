// Package retrieval builds and queries the embedding index over the exercise corpus.
package retrieval

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ironready/coach-api/internal/domain"

	"github.com/xuri/excelize/v2"
)

var ErrEmptyCorpus = errors.New("exercise corpus has no rows")

// columnAliases maps normalized header names to document fields.
var columnAliases = map[string]string{
	"name":              "name",
	"exercise":          "name",
	"exercise_name":     "name",
	"sport_category":    "sport_category",
	"movement_pattern":  "movement_pattern",
	"primary_muscles":   "primary_muscles",
	"secondary_muscles": "secondary_muscles",
	"cns_load":          "cns_load",
	"skill_level":       "skill_level",
	"injury_risk":       "injury_risk",
	"equipment":         "equipment",
	"description":       "description",
}

// LoadCorpus reads exercises from a .csv or .xlsx file. The first row is the
// header; column order does not matter.
func LoadCorpus(path string) ([]domain.ExerciseDocument, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx":
		return readXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported corpus format %q", filepath.Ext(path))
	}
}

// ReadCSV parses a CSV corpus.
func ReadCSV(r io.Reader) ([]domain.ExerciseDocument, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv corpus: %w", err)
	}
	return documentsFromRows(rows)
}

func readXLSX(path string) ([]domain.ExerciseDocument, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx corpus: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyCorpus
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return documentsFromRows(rows)
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

func documentsFromRows(rows [][]string) ([]domain.ExerciseDocument, error) {
	if len(rows) < 2 {
		return nil, ErrEmptyCorpus
	}
	columns := make(map[string]int)
	for i, h := range rows[0] {
		if field, ok := columnAliases[normalizeHeader(h)]; ok {
			if _, seen := columns[field]; !seen {
				columns[field] = i
			}
		}
	}
	if _, ok := columns["name"]; !ok {
		return nil, errors.New("exercise corpus has no name column")
	}

	cell := func(row []string, field string) string {
		i, ok := columns[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	docs := make([]domain.ExerciseDocument, 0, len(rows)-1)
	for _, row := range rows[1:] {
		name := cell(row, "name")
		if name == "" {
			continue
		}
		docs = append(docs, domain.ExerciseDocument{
			Name:             name,
			SportCategory:    cell(row, "sport_category"),
			MovementPattern:  cell(row, "movement_pattern"),
			PrimaryMuscles:   cell(row, "primary_muscles"),
			SecondaryMuscles: cell(row, "secondary_muscles"),
			CNSLoad:          cell(row, "cns_load"),
			SkillLevel:       cell(row, "skill_level"),
			InjuryRisk:       cell(row, "injury_risk"),
			Equipment:        cell(row, "equipment"),
			Description:      cell(row, "description"),
		})
	}
	if len(docs) == 0 {
		return nil, ErrEmptyCorpus
	}
	return docs, nil
}
