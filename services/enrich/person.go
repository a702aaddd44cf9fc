package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"fosterassist/lib/scrapers/chameleon"
	"fosterassist/lib/textutil"
	"fosterassist/services/mentors"
)

// element locations on the person search result page
const (
	selFirstName     = "#ctl00_ctl00_ContentPlaceHolderBase_ContentPlaceHolder1_personDetailsUC_PersonNameTitle1_txtFirstName"
	selLastName      = "#ctl00_ctl00_ContentPlaceHolderBase_ContentPlaceHolder1_personDetailsUC_PersonNameTitle1_txtLastName"
	selPreferredName = "#ctl00_ctl00_ContentPlaceHolderBase_ContentPlaceHolder1_personDetailsUC_PersonNameTitle1_txtPreferredName"
	selHomePhone     = "#ctl00_ctl00_ContentPlaceHolderBase_ContentPlaceHolder1_personDetailsUC_PersonContact1_homePhone_txtPhone3"
	selCellPhone     = "#ctl00_ctl00_ContentPlaceHolderBase_ContentPlaceHolder1_personDetailsUC_PersonContact1_mobilePhone_txtPhone3"
	selHistoryTable  = "#Table3"
)

// the email table holds at most four address rows
const emailRowCount = 4

// history table row shape: a 10 column row is an animal, a single
// column row is a section header
const (
	historyAnimalColumns = 10
	historyStatusColumn  = 2
	historyTypeColumn    = 5

	sectionFostered       = "Fostered"
	sectionAgencyOutgoing = "Agency Outgoing"
)

const denyNote = "*** Do not assign mentor (Staff)"

// FosterHistory is the cumulative outcome of a person's full animal
// responsibility history, filtered to the run's species.
type FosterHistory struct {
	FosterCount          int
	EuthanizedCount      int
	UnassistedDeathCount int
}

// LossRate is the percentage of historically fostered animals that did
// not survive. Zero history means zero rate, never a division by zero.
func (h FosterHistory) LossRate() float64 {
	if h.FosterCount <= 0 {
		return 0.0
	}
	return 100.0 * float64(h.EuthanizedCount+h.UnassistedDeathCount) / float64(h.FosterCount)
}

// PersonRecord is one resolved foster parent.
type PersonRecord struct {
	ID            int
	FirstName     string
	LastName      string
	PreferredName string
	FullName      string
	HomePhone     string
	CellPhone     string
	// lower-cased and deduplicated
	Emails  []string
	History FosterHistory
	// computed annotations, deny-list first, then mentorship flags,
	// joined by carriage returns
	Notes string
}

// PersonOptions carries the roster-sourced knobs for person lookups.
type PersonOptions struct {
	// person ids that must never be assigned a mentor, plus email
	// substrings identifying staff accounts
	DenyIDs     []int
	DenyStrings []string
	// person ids that are themselves mentors
	MentorIDs []int
	// count "Agency Outgoing" history sections as foster history
	IncludeAgencyOutgoing bool
}

// PersonEnricher looks up foster parents and memoizes them: within one
// run a person id is scraped at most once no matter how many animals
// resolve to it.
type PersonEnricher struct {
	session   chameleon.Session
	pages     chameleon.Pages
	mode      Mode
	opts      PersonOptions
	directory mentors.Directory
	cache     map[int]PersonRecord
}

func NewPersonEnricher(
	session chameleon.Session,
	pages chameleon.Pages,
	mode Mode,
	opts PersonOptions,
	directory mentors.Directory,
) *PersonEnricher {
	return &PersonEnricher{
		session:   session,
		pages:     pages,
		mode:      mode,
		opts:      opts,
		directory: directory,
		cache:     map[int]PersonRecord{},
	}
}

// Person returns the record for a person id, scraping it on first use.
func (e *PersonEnricher) Person(ctx context.Context, id int) (PersonRecord, error) {
	if cached, ok := e.cache[id]; ok {
		return cached, nil
	}

	ctx, span := tracer.Start(ctx, "Person")
	defer span.End()

	record := PersonRecord{ID: id}

	err := e.session.SubmitSearch(ctx, id)
	if err != nil {
		span.RecordError(err)
		return record, fmt.Errorf("search for person %d: %w", id, err)
	}

	record.FirstName = e.session.ReadAttribute(ctx, selFirstName, "value")
	record.LastName = e.session.ReadAttribute(ctx, selLastName, "value")
	record.PreferredName = e.session.ReadAttribute(ctx, selPreferredName, "value")
	record.HomePhone = e.session.ReadAttribute(ctx, selHomePhone, "value")
	record.CellPhone = e.session.ReadAttribute(ctx, selCellPhone, "value")
	record.Emails = e.emails(ctx)
	record.FullName = fullName(record)

	record.History = e.fosterHistory(ctx, id)
	record.Notes = e.notes(ctx, record)

	slog.InfoContext(
		ctx,
		"looked up person",
		"id", id,
		"name", record.FullName,
		"previously_fostered", record.History.FosterCount,
	)

	e.cache[id] = record
	return record, nil
}

func (e *PersonEnricher) emails(ctx context.Context) []string {
	seen := map[string]bool{}
	var emails []string
	for row := 1; row <= emailRowCount; row++ {
		selector := fmt.Sprintf("#emailTable tbody tr:nth-of-type(%d) td:nth-of-type(1)", row)
		email := strings.ToLower(strings.TrimSpace(e.session.ReadAttribute(ctx, selector, "innerText")))
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		emails = append(emails, email)
	}
	sort.Strings(emails)
	return emails
}

func fullName(record PersonRecord) string {
	first := record.PreferredName
	if first == "" {
		first = record.FirstName
	}
	switch {
	case first != "" && record.LastName != "":
		return first + " " + record.LastName
	case first != "":
		return first
	default:
		return record.LastName
	}
}

// fosterHistory pages through the person's full animal responsibility
// listing. A page without the history table means there are no more
// pages, not an error.
func (e *PersonEnricher) fosterHistory(ctx context.Context, personID int) FosterHistory {
	var history FosterHistory

	for page := 1; ; page++ {
		err := e.session.Navigate(ctx, e.pages.ListAnimalsURL(page, personID))
		if err != nil {
			slog.WarnContext(ctx, "history page failed to load, history may be undercounted",
				"person", personID, "page", page, "err", err)
			break
		}

		rows, ok := e.session.ReadTable(ctx, selHistoryTable)
		if !ok {
			break
		}
		e.tallyHistoryRows(rows, &history)
	}
	return history
}

func (e *PersonEnricher) tallyHistoryRows(rows [][]string, history *FosterHistory) {
	sectionActive := false
	for _, cells := range rows {
		switch {
		case len(cells) == historyAnimalColumns:
			if !sectionActive {
				continue
			}
			e.tallyAnimalRow(cells, history)

		case len(cells) == 1 && isCountedSection(cells[0], e.opts.IncludeAgencyOutgoing):
			sectionActive = true

		default:
			sectionActive = false
		}
	}
}

func isCountedSection(header string, includeAgencyOutgoing bool) bool {
	header = strings.TrimSpace(header)
	if header == sectionFostered {
		return true
	}
	return includeAgencyOutgoing && header == sectionAgencyOutgoing
}

func (e *PersonEnricher) tallyAnimalRow(cells []string, history *FosterHistory) {
	if !e.mode.MatchesType(cells[historyTypeColumn]) {
		return
	}
	status := strings.ToLower(cells[historyStatusColumn])

	// an animal still in foster is not history yet, but an unassisted
	// death recorded as "in foster" is a resolved outcome and counts
	stillInFoster := strings.Contains(status, "in foster") &&
		!strings.Contains(status, "unassisted death")
	if !stillInFoster {
		history.FosterCount++
	}

	if strings.Contains(status, "euthanized") {
		history.EuthanizedCount++
	} else if strings.Contains(status, "unassisted death") {
		history.UnassistedDeathCount++
	}
}

// notes builds the annotation string in its fixed order: deny-list
// first, then is-a-mentor, then matched mentor worksheets.
func (e *PersonEnricher) notes(ctx context.Context, record PersonRecord) string {
	var parts []string

	if e.denied(record) {
		parts = append(parts, denyNote)
	}

	for _, mentorID := range e.opts.MentorIDs {
		if mentorID == record.ID {
			parts = append(parts, fmt.Sprintf("*** %s is a mentor", record.FullName))
			break
		}
	}

	if e.directory != nil {
		candidates := append([]string{}, record.Emails...)
		candidates = append(candidates, record.FullName, strconv.Itoa(record.ID))
		matches := e.directory.FindMatchingMentors(ctx, candidates)
		if len(matches) > 0 {
			sort.Strings(matches)
			parts = append(parts, fmt.Sprintf("*** Found matching mentor(s): %s", strings.Join(matches, ", ")))
		}
	}

	return strings.Join(parts, "\r")
}

func (e *PersonEnricher) denied(record PersonRecord) bool {
	for _, id := range e.opts.DenyIDs {
		if id == record.ID {
			return true
		}
	}
	matchers := make([]string, 0, len(e.opts.DenyStrings))
	for _, deny := range e.opts.DenyStrings {
		matchers = append(matchers, textutil.NormalizeName(deny))
	}
	for _, email := range record.Emails {
		if textutil.MatchName(email, matchers) {
			return true
		}
	}
	return false
}

// CurrentAnimals counts how many of the run's species this person has
// in foster right now. Used by the mentee status flow to find mentees
// whose litters have all moved on.
func (e *PersonEnricher) CurrentAnimals(ctx context.Context, personID int) int {
	count := 0
	for page := 1; ; page++ {
		err := e.session.Navigate(ctx, e.pages.ListAnimalsURL(page, personID))
		if err != nil {
			slog.WarnContext(ctx, "animal listing failed to load",
				"person", personID, "page", page, "err", err)
			break
		}
		rows, ok := e.session.ReadTable(ctx, selHistoryTable)
		if !ok {
			break
		}

		sectionActive := false
		for _, cells := range rows {
			switch {
			case len(cells) == historyAnimalColumns:
				if !sectionActive || !e.mode.MatchesType(cells[historyTypeColumn]) {
					continue
				}
				status := strings.ToLower(cells[historyStatusColumn])
				if strings.Contains(status, "in foster") && !strings.Contains(status, "unassisted death") {
					count++
				}
			case len(cells) == 1 && isCountedSection(cells[0], e.opts.IncludeAgencyOutgoing):
				sectionActive = true
			default:
				sectionActive = false
			}
		}
	}
	return count
}
