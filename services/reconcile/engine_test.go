package reconcile

import (
	"context"
	"fmt"
	"testing"

	"fosterassist/lib/scrapers/chameleon"
	"fosterassist/lib/scrapers/chameleon/chameleontest"
	"fosterassist/lib/telemetry"
	"fosterassist/services/enrich"
	"fosterassist/services/mentors"

	"github.com/stretchr/testify/require"
)

var testPages = chameleon.Pages{
	Login:          "https://shelter.test/login",
	Search:         "https://shelter.test/search",
	Animal:         "https://shelter.test/animal/%d",
	MedicalDetails: "https://shelter.test/medical/%d",
	ListAnimals:    "https://shelter.test/animals/page/%d/person/%d",
}

type noMatches struct{}

func (noMatches) FindMatchingMentors(ctx context.Context, candidates []string) []string {
	return nil
}

func (noMatches) CurrentMentees(ctx context.Context) ([]mentors.MentorMentees, error) {
	return nil, nil
}

func (noMatches) SetCompletedMentees(ctx context.Context, mentor string, personIDs []int) error {
	return nil
}

func animalPage(name, status, statusDate string, parentID int) chameleontest.Page {
	page := chameleontest.Page{
		Visible:  []string{"#submitbtn2"},
		Selected: map[string]string{"#status": status},
		Attributes: map[string]map[string]string{
			"#statusdate":    {"value": statusDate},
			"#animalname":    {"value": name},
			"#breed":         {"value": "Domestic Shorthair"},
			"#primarycolour": {"value": "Black"},
			"#sex":           {"value": "Female"},
		},
	}
	if parentID != 0 {
		page.Attributes["#Table17 tbody tr:nth-of-type(1) td:nth-of-type(2) a"] = map[string]string{
			"href": fmt.Sprintf("%s?personid=%d", testPages.Search, parentID),
		}
	}
	return page
}

func historyRow(animalType, status string) []string {
	return []string{"", "", status, "", "", animalType, "", "", "", ""}
}

func newTestSession() *chameleontest.Session {
	return &chameleontest.Session{
		Pages: map[string]chameleontest.Page{
			testPages.AnimalURL(100):         animalPage("Mittens", "In Foster", "05/20/2026", 555),
			testPages.AnimalURL(101):         animalPage("Socks", "In Foster - Needs Care", "06/01/2026", 555),
			testPages.AnimalURL(102):         animalPage("Rex", "Adopted", "06/01/2026", 0),
			testPages.MedicalDetailsURL(100): {Attributes: map[string]map[string]string{spayNeuterCell: {"innerText": "Yes"}}},
			testPages.MedicalDetailsURL(101): {},
			testPages.MedicalDetailsURL(102): {},
			testPages.ListAnimalsURL(1, 555): {
				Tables: map[string][][]string{
					"#Table3": {
						{"Fostered"},
						historyRow("Kitten", "Adopted"),
						historyRow("Kitten", "Adopted"),
						historyRow("Kitten", "Euthanized"),
					},
				},
			},
			testPages.ListAnimalsURL(2, 555): {},
		},
		SearchResults: map[int]chameleontest.Page{
			555: {
				Attributes: map[string]map[string]string{
					firstNameField: {"value": "Jane"},
					lastNameField:  {"value": "Doe"},
				},
			},
		},
	}
}

const (
	spayNeuterCell = "body > center > table:nth-of-type(2) td table tr:nth-of-type(4) td:nth-of-type(4)"
	firstNameField = "#ctl00_ctl00_ContentPlaceHolderBase_ContentPlaceHolder1_personDetailsUC_PersonNameTitle1_txtFirstName"
	lastNameField  = "#ctl00_ctl00_ContentPlaceHolderBase_ContentPlaceHolder1_personDetailsUC_PersonNameTitle1_txtLastName"
)

func newTestEngine(session *chameleontest.Session) *Engine {
	persons := enrich.NewPersonEnricher(session, testPages, enrich.Feline, enrich.PersonOptions{}, noMatches{})
	return NewEngine(enrich.NewAnimalEnricher(session, testPages, enrich.Feline), persons, enrich.Feline)
}

func TestReconcile(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/reconcile")
	defer cleanup()

	engine := newTestEngine(newTestSession())
	result, err := engine.Reconcile(context.Background(), []int{100, 101, 102})
	require.NoError(t, err)

	require.Len(t, result.NotInFoster, 1)
	require.Equal(t, 102, result.NotInFoster[0].ID)

	require.Len(t, result.Groups, 1)
	group := result.Groups[0]
	require.Equal(t, 555, group.PersonID)
	require.Equal(t, "Jane Doe", group.Person.FullName)
	require.Len(t, group.Animals, 2)
	require.Equal(t, 100, group.Animals[0].ID)
	require.Equal(t, 101, group.Animals[1].ID)

	require.Equal(t, "3 previous", group.Experience)
	require.Equal(t, "20-May-2026", group.DateReceived)
	require.InDelta(t, 33.3, group.Person.History.LossRate(), 0.1)

	require.Equal(t,
		"2 cats @ Unknown Age\r"+
			"100 (F), S/N Yes, Mittens, Domestic Shorthair, Black\r"+
			"101 (F), S/N Unknown, Socks, Domestic Shorthair, Black",
		group.Details,
	)
}

func TestReconcileUnresolvedParent(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/reconcile")
	defer cleanup()

	session := newTestSession()
	// in foster but the responsible-person link is missing
	session.Pages[testPages.AnimalURL(103)] = animalPage("Ghost", "In Foster", "06/01/2026", 0)
	session.Pages[testPages.MedicalDetailsURL(103)] = chameleontest.Page{}

	engine := newTestEngine(session)
	result, err := engine.Reconcile(context.Background(), []int{103})
	require.NoError(t, err)
	require.Empty(t, result.Groups)
	require.Len(t, result.NotInFoster, 1)
	require.Equal(t, 103, result.NotInFoster[0].ID)
}

func TestFormatSpecialMessages(t *testing.T) {
	animals := []enrich.AnimalRecord{
		{ID: 100, SpecialMessage: "Bottle feeder\nneeds heat"},
		{ID: 101},
		{ID: 102, SpecialMessage: "Bite risk"},
	}
	require.Equal(t,
		"100: Bottle feeder\rneeds heat\r\r102: Bite risk",
		formatSpecialMessages(animals),
	)
}

func TestFormatExperience(t *testing.T) {
	require.Equal(t, "NEW", formatExperience(enrich.FosterHistory{}))
	require.Equal(t, "4 previous", formatExperience(enrich.FosterHistory{FosterCount: 4}))
}
