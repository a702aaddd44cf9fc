package report

import (
	"fmt"
	"io"
	"strings"

	"fosterassist/services/enrich"
	"fosterassist/services/mentors"
	"fosterassist/services/reconcile"
)

// report column order, fixed because the coordinators' spreadsheet
// tooling keys off positions
var columns = []string{
	"Notes",
	"Loss Rate",
	"Name",
	"E-mail",
	"Phone",
	"ID",
	"Foster Experience",
	"Date Received",
	"Animal Details",
	"Special Message",
}

const (
	notInFosterHeader  = "*** The following animals are no longer in foster"
	mentorStatusHeader = "*** Mentor status"
)

// Formatter renders a reconciliation result as the CSV the coordinators
// open in Excel. The encoding is deliberate: multi-line cells use bare
// carriage returns, and id and date cells are written as ="..." formulas
// so Excel keeps them as text instead of mangling them into numbers.
// The standard csv writer can produce neither, so this one is bespoke.
type Formatter struct {
	mode enrich.Mode
}

func NewFormatter(mode enrich.Mode) Formatter {
	return Formatter{mode: mode}
}

func (f Formatter) Write(w io.Writer, result reconcile.Result) error {
	var rows [][]string

	rows = append(rows, quoteAll(columns))
	for _, group := range result.Groups {
		rows = append(rows, f.groupRow(group))
	}

	if len(result.NotInFoster) > 0 {
		rows = append(rows, nil)
		rows = append(rows, []string{quote(notInFosterHeader)})
		for _, animal := range result.NotInFoster {
			rows = append(rows, []string{
				quote(""),
				quote(""),
				quote(animal.Name),
				quote(""),
				quote(""),
				formula("%d", animal.ID),
				quote(""),
				formula("%s", animal.StatusDate),
				quote(animal.Status),
				quote(""),
			})
		}
	}

	return writeRows(w, rows)
}

// AppendMentorStatus writes the mentor status block after the report
// body.
func (f Formatter) AppendMentorStatus(w io.Writer, statuses []reconcile.MentorStatus) error {
	rows := [][]string{
		nil,
		{quote(mentorStatusHeader)},
		quoteAll([]string{"Mentor", "Active Mentees", "Completed Mentees", "Days Since Last Assigned"}),
	}
	for _, status := range statuses {
		lastAssigned := "unknown"
		if status.DaysSinceLastAssigned >= 0 {
			lastAssigned = fmt.Sprintf("%d", status.DaysSinceLastAssigned)
		}
		rows = append(rows, []string{
			quote(status.Mentor),
			quote(menteeList(status.ActiveMentees)),
			quote(menteeList(status.Completed)),
			quote(lastAssigned),
		})
	}
	return writeRows(w, rows)
}

func menteeList(mentees []mentors.Mentee) string {
	var lines []string
	for _, m := range mentees {
		lines = append(lines, fmt.Sprintf("%s (%d)", m.Name, m.PersonID))
	}
	return strings.Join(lines, "\r")
}

func writeRows(w io.Writer, rows [][]string) error {
	for _, row := range rows {
		_, err := io.WriteString(w, strings.Join(row, ",")+"\n")
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}

func (f Formatter) groupRow(group reconcile.Group) []string {
	person := group.Person
	return []string{
		quote(person.Notes),
		quote(fmt.Sprintf("%.1f%%", person.History.LossRate())),
		quote(person.FullName),
		quote(strings.Join(person.Emails, "\r")),
		quote(formatPhones(person)),
		formula("%d", person.ID),
		quote(group.Experience),
		formula("%s", group.DateReceived),
		quote(group.Details),
		quote(group.SpecialMessages),
	}
}

// formatPhones keeps only numbers long enough to be real and labels
// them so the coordinator knows which to try first.
func formatPhones(person enrich.PersonRecord) string {
	var phones []string
	if countDigits(person.CellPhone) >= 10 {
		phones = append(phones, "c: "+strings.TrimSpace(person.CellPhone))
	}
	if countDigits(person.HomePhone) >= 10 {
		phones = append(phones, "h: "+strings.TrimSpace(person.HomePhone))
	}
	return strings.Join(phones, "\r")
}

func countDigits(s string) int {
	count := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			count++
		}
	}
	return count
}

func quote(cell string) string {
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}

func quoteAll(cells []string) []string {
	quoted := make([]string, len(cells))
	for i, cell := range cells {
		quoted[i] = quote(cell)
	}
	return quoted
}

// formula writes a cell as an Excel text formula so ids and dates
// survive the round trip through a spreadsheet untouched.
func formula(format string, arg any) string {
	return fmt.Sprintf(`="%s"`, fmt.Sprintf(format, arg))
}
