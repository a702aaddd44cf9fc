package enrich

import (
	"context"
	"testing"

	"fosterassist/lib/scrapers/chameleon/chameleontest"
	"fosterassist/lib/telemetry"
	"fosterassist/services/mentors"

	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	matches []string
}

func (d fakeDirectory) FindMatchingMentors(ctx context.Context, candidates []string) []string {
	return d.matches
}

func (d fakeDirectory) CurrentMentees(ctx context.Context) ([]mentors.MentorMentees, error) {
	return nil, nil
}

func (d fakeDirectory) SetCompletedMentees(ctx context.Context, mentor string, personIDs []int) error {
	return nil
}

func historyRow(animalType, status string) []string {
	return []string{"", "", status, "", "", animalType, "", "", "", ""}
}

func personSearchPage() chameleontest.Page {
	return chameleontest.Page{
		Attributes: map[string]map[string]string{
			selFirstName:     {"value": "Jane"},
			selLastName:      {"value": "Doe"},
			selPreferredName: {"value": ""},
			selHomePhone:     {"value": "555-0100"},
			selCellPhone:     {"value": "(415) 555-0199"},
			"#emailTable tbody tr:nth-of-type(1) td:nth-of-type(1)": {"innerText": "Jane@Example.com"},
			"#emailTable tbody tr:nth-of-type(2) td:nth-of-type(1)": {"innerText": "jane@example.com"},
			"#emailTable tbody tr:nth-of-type(3) td:nth-of-type(1)": {"innerText": "staff@shelter.org"},
		},
	}
}

func newTestPersonEnricher(session *chameleontest.Session, opts PersonOptions, matches []string) *PersonEnricher {
	return NewPersonEnricher(session, testPages, Feline, opts, fakeDirectory{matches: matches})
}

func TestPersonLookup(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/enrich")
	defer cleanup()

	session := &chameleontest.Session{
		SearchResults: map[int]chameleontest.Page{555: personSearchPage()},
		Pages: map[string]chameleontest.Page{
			testPages.ListAnimalsURL(1, 555): {
				Tables: map[string][][]string{
					selHistoryTable: {
						{"Fostered"},
						historyRow("Kitten", "Adopted"),
						historyRow("Cat", "In Foster - Needs Care"),
						historyRow("Kitten", "Unassisted Death - In Foster"),
						historyRow("Dog", "Adopted"),
						{"Boarded"},
						historyRow("Kitten", "Euthanized"),
					},
				},
			},
			// no history table on page two ends the pagination
			testPages.ListAnimalsURL(2, 555): {},
		},
	}

	enricher := newTestPersonEnricher(session, PersonOptions{}, nil)
	person, err := enricher.Person(context.Background(), 555)
	require.NoError(t, err)

	require.Equal(t, "Jane Doe", person.FullName)
	require.Equal(t, "(415) 555-0199", person.CellPhone)
	require.Equal(t, []string{"jane@example.com", "staff@shelter.org"}, person.Emails)

	// the in-foster cat and the dog do not count, the euthanized kitten
	// sits outside the fostered section
	require.Equal(t, 2, person.History.FosterCount)
	require.Equal(t, 1, person.History.UnassistedDeathCount)
	require.Equal(t, 0, person.History.EuthanizedCount)
	require.InDelta(t, 50.0, person.History.LossRate(), 0.001)
}

func TestPersonMemoized(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/enrich")
	defer cleanup()

	session := &chameleontest.Session{
		SearchResults: map[int]chameleontest.Page{555: personSearchPage()},
		Pages: map[string]chameleontest.Page{
			testPages.ListAnimalsURL(1, 555): {},
		},
	}

	enricher := newTestPersonEnricher(session, PersonOptions{}, nil)
	first, err := enricher.Person(context.Background(), 555)
	require.NoError(t, err)
	second, err := enricher.Person(context.Background(), 555)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, session.SearchCount[555])
}

func TestPersonNotesOrder(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/enrich")
	defer cleanup()

	session := &chameleontest.Session{
		SearchResults: map[int]chameleontest.Page{555: personSearchPage()},
		Pages: map[string]chameleontest.Page{
			testPages.ListAnimalsURL(1, 555): {},
		},
	}

	enricher := newTestPersonEnricher(session, PersonOptions{
		DenyStrings: []string{"shelter.org"},
		MentorIDs:   []int{555},
	}, []string{"Alice"})

	person, err := enricher.Person(context.Background(), 555)
	require.NoError(t, err)
	require.Equal(t,
		"*** Do not assign mentor (Staff)\r"+
			"*** Jane Doe is a mentor\r"+
			"*** Found matching mentor(s): Alice",
		person.Notes,
	)
}

func TestPersonAgencyOutgoing(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/enrich")
	defer cleanup()

	newSession := func() *chameleontest.Session {
		return &chameleontest.Session{
			SearchResults: map[int]chameleontest.Page{777: personSearchPage()},
			Pages: map[string]chameleontest.Page{
				testPages.ListAnimalsURL(1, 777): {
					Tables: map[string][][]string{
						selHistoryTable: {
							{"Agency Outgoing"},
							historyRow("Kitten", "Adopted"),
						},
					},
				},
			},
		}
	}

	excluded := newTestPersonEnricher(newSession(), PersonOptions{}, nil)
	person, err := excluded.Person(context.Background(), 777)
	require.NoError(t, err)
	require.Equal(t, 0, person.History.FosterCount)

	included := newTestPersonEnricher(newSession(), PersonOptions{IncludeAgencyOutgoing: true}, nil)
	person, err = included.Person(context.Background(), 777)
	require.NoError(t, err)
	require.Equal(t, 1, person.History.FosterCount)
}

func TestCurrentAnimals(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/enrich")
	defer cleanup()

	session := &chameleontest.Session{
		Pages: map[string]chameleontest.Page{
			testPages.ListAnimalsURL(1, 555): {
				Tables: map[string][][]string{
					selHistoryTable: {
						{"Fostered"},
						historyRow("Kitten", "In Foster"),
						historyRow("Kitten", "In Foster - Needs Care"),
						historyRow("Kitten", "Adopted"),
						historyRow("Dog", "In Foster"),
					},
				},
			},
			testPages.ListAnimalsURL(2, 555): {},
		},
	}

	enricher := newTestPersonEnricher(session, PersonOptions{}, nil)
	require.Equal(t, 2, enricher.CurrentAnimals(context.Background(), 555))
}
