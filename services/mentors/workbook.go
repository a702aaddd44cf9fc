package mentors

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WorkbookDirectory reads mentor worksheets exported as CSV files from
// a local directory, one file per mentor named after the worksheet tab.
// It exists for offline runs and tests; it cannot write back.
type WorkbookDirectory struct {
	sheets []worksheet
}

func NewWorkbookDirectory(dir string) (*WorkbookDirectory, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("open mentor workbook directory: %w", err)
	}

	directory := &WorkbookDirectory{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		title := strings.TrimSuffix(name, ".csv")
		if reservedSheets[title] {
			continue
		}

		rows, err := readCSVSheet(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		directory.sheets = append(directory.sheets, worksheet{title: title, rows: rows})
	}
	return directory, nil
}

func readCSVSheet(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open worksheet export: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse worksheet export %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

func (d *WorkbookDirectory) FindMatchingMentors(ctx context.Context, candidates []string) []string {
	var matched []string
	for _, sheet := range d.sheets {
		if cellsMatch(sheet.rows, candidates) {
			matched = append(matched, sheet.title)
		}
	}
	return matched
}

func (d *WorkbookDirectory) CurrentMentees(ctx context.Context) ([]MentorMentees, error) {
	var result []MentorMentees
	for _, sheet := range d.sheets {
		result = append(result, parseWorksheet(sheet.title, sheet.rows))
	}
	return result, nil
}

func (d *WorkbookDirectory) SetCompletedMentees(ctx context.Context, mentor string, personIDs []int) error {
	return fmt.Errorf("mentee status updates require the shared workbook, local exports are read-only")
}
