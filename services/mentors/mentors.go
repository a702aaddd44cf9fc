// Package mentors tracks the foster mentor program: who the mentors
// are, which mentees each one is currently working with, and which
// foster parents already belong to a mentor's worksheet.
package mentors

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"fosterassist/lib/textutil"

	"github.com/antzucaro/matchr"
)

// names this close under Jaro-Winkler count as the same person even
// when the spreadsheet spelling drifts from the shelter system's
const nameSimilarityThreshold = 0.93

// Mentee is one foster parent assigned to a mentor's worksheet.
type Mentee struct {
	Name     string
	PersonID int
}

// MentorMentees is the active slice of one mentor's worksheet.
type MentorMentees struct {
	Mentor  string
	Mentees []Mentee
	// the latest assignment date found on the worksheet, zero when the
	// sheet carries no parseable dates
	MostRecent time.Time
}

// Directory is a mentor roster backend. The production backend is the
// shared Google Sheets workbook; a directory of exported CSV files
// serves offline runs.
type Directory interface {
	// FindMatchingMentors returns the mentors whose worksheets mention
	// any of the candidate strings (emails, a full name, a person id).
	FindMatchingMentors(ctx context.Context, candidates []string) []string
	CurrentMentees(ctx context.Context) ([]MentorMentees, error)
	// SetCompletedMentees moves the given mentees into the worksheet's
	// completed section. Backends without write access return an error.
	SetCompletedMentees(ctx context.Context, mentor string, personIDs []int) error
}

// marker row separating active mentees from graduated ones
const completedMarker = "completed mentees"

// worksheets never hold more meaningful rows than this
const maxWorksheetRows = 100

func isCompletedMarker(cell string) bool {
	return strings.Contains(textutil.NormalizeName(cell), completedMarker)
}

// cellsMatch reports whether any worksheet cell refers to any of the
// candidates. Person ids and emails must match exactly, names may
// differ by a typo.
func cellsMatch(rows [][]string, candidates []string) bool {
	for _, candidate := range candidates {
		normalized := textutil.NormalizeName(candidate)
		if normalized == "" {
			continue
		}
		isID := isNumeric(normalized)
		isEmail := strings.Contains(normalized, "@")

		for _, cells := range rows {
			for _, cell := range cells {
				cellNorm := textutil.NormalizeName(cell)
				if cellNorm == "" {
					continue
				}
				switch {
				case isID || isEmail:
					if cellNorm == normalized || strings.Contains(cellNorm, normalized) {
						return true
					}
				default:
					// names often sit inside a longer cell, so try
					// containment before the fuzzy comparison
					if strings.Contains(cellNorm, normalized) ||
						matchr.JaroWinkler(cellNorm, normalized, true) >= nameSimilarityThreshold {
						return true
					}
				}
			}
		}
	}
	return false
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

// parseWorksheet extracts the active mentees and the most recent
// assignment date from a mentor worksheet's cell grid. Rows after the
// completed marker belong to graduated mentees and are skipped. A grid
// that runs past the row limit without ever showing the marker is
// malformed and yields no mentees, everything on it would otherwise be
// mistaken for an active assignment.
func parseWorksheet(mentor string, rows [][]string) MentorMentees {
	result := MentorMentees{Mentor: mentor}
	seen := map[int]bool{}

	for i, cells := range rows {
		if i >= maxWorksheetRows {
			slog.Warn(
				"mentor worksheet has no completed-mentees marker, ignoring it",
				"mentor", mentor,
			)
			return MentorMentees{Mentor: mentor}
		}
		if len(cells) > 0 && isCompletedMarker(cells[0]) {
			return result
		}

		mentee, when, ok := parseMenteeRow(cells)
		if !ok {
			continue
		}
		if when.After(result.MostRecent) {
			result.MostRecent = when
		}
		if seen[mentee.PersonID] {
			continue
		}
		seen[mentee.PersonID] = true
		result.Mentees = append(result.Mentees, mentee)
	}
	return result
}

// worksheet date formats mentors actually type
var worksheetDateFormats = []string{
	"1/2/2006",
	"1/2/06",
	"2006.01.02",
	"2006-01-02",
	"Jan 2, 2006",
}

// parseMenteeRow reads a worksheet row: the first non-empty cell is the
// mentee name, the first purely numeric cell is the person id, and any
// parseable date cell is an assignment date. Rows without a person id
// are notes, not mentees.
func parseMenteeRow(cells []string) (Mentee, time.Time, bool) {
	var mentee Mentee
	var when time.Time

	for _, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if id, err := strconv.Atoi(cell); err == nil && mentee.PersonID == 0 {
			mentee.PersonID = id
			continue
		}
		if t, ok := parseWorksheetDate(cell); ok {
			if t.After(when) {
				when = t
			}
			continue
		}
		if mentee.Name == "" {
			mentee.Name = cell
		}
	}

	return mentee, when, mentee.PersonID != 0
}

func parseWorksheetDate(cell string) (time.Time, bool) {
	for _, format := range worksheetDateFormats {
		if t, err := time.Parse(format, cell); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
