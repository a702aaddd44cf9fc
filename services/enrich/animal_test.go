package enrich

import (
	"context"
	"fmt"
	"testing"

	"fosterassist/lib/scrapers/chameleon"
	"fosterassist/lib/scrapers/chameleon/chameleontest"
	"fosterassist/lib/telemetry"

	"github.com/stretchr/testify/require"
)

var testPages = chameleon.Pages{
	Login:          "https://shelter.test/login",
	Search:         "https://shelter.test/search",
	Animal:         "https://shelter.test/animal/%d",
	MedicalDetails: "https://shelter.test/medical/%d",
	ListAnimals:    "https://shelter.test/animals/page/%d/person/%d",
}

func fosteredAnimalPage(parentID int) chameleontest.Page {
	return chameleontest.Page{
		Visible: []string{selReadyMarker},
		Selected: map[string]string{
			selStatus:    "In Foster",
			selSubStatus: "Needs Care",
		},
		Texts: map[string]string{
			selSpecialMsg: "Bottle feeder\n\n" +
				"This is a special message. If you would like to delete it then " +
				"clear the Special Message box in the General Details section of this page.",
		},
		Attributes: map[string]map[string]string{
			selStatusDate:     {"value": "06/01/2026"},
			selAnimalName:     {"value": "Mittens"},
			selBreed:          {"value": "Domestic Shorthair"},
			selPrimaryColor:   {"value": "Black"},
			selSecondaryColor: {"value": "White"},
			selGender:         {"value": "Female"},
			selFosterParentAnchor: {
				"href": fmt.Sprintf("%s?personid=%d&tab=1", testPages.Search, parentID),
			},
		},
	}
}

func TestAnimalInFoster(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/enrich")
	defer cleanup()

	session := &chameleontest.Session{
		Pages: map[string]chameleontest.Page{
			testPages.AnimalURL(100): fosteredAnimalPage(555),
			testPages.MedicalDetailsURL(100): {
				Attributes: map[string]map[string]string{
					selSpayNeuterCell: {"innerText": "Yes"},
				},
			},
		},
	}

	enricher := NewAnimalEnricher(session, testPages, Feline)
	animal, err := enricher.Animal(context.Background(), 100)
	require.NoError(t, err)

	require.Equal(t, 100, animal.ID)
	require.Equal(t, "In Foster - Needs Care", animal.Status)
	require.Equal(t, "1-Jun-2026", animal.StatusDate)
	require.True(t, animal.InFoster)
	require.Equal(t, 555, animal.FosterParentID)
	require.Equal(t, "Mittens", animal.Name)
	require.Equal(t, "Domestic Shorthair", animal.Breed)
	require.Equal(t, "Black", animal.PrimaryColor)
	require.Equal(t, "F", animal.GenderShort())
	require.Equal(t, "Yes", animal.SpayNeuter)
	require.Equal(t, "Bottle feeder", animal.SpecialMessage)

	// no date of birth on file
	require.Equal(t, "cat", animal.SpeciesType)
	require.Equal(t, UnknownAge, animal.Age)
}

func TestAnimalNoLongerInFoster(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/enrich")
	defer cleanup()

	page := fosteredAnimalPage(555)
	page.Selected = map[string]string{selStatus: "Adopted"}

	session := &chameleontest.Session{
		Pages: map[string]chameleontest.Page{
			testPages.AnimalURL(101):         page,
			testPages.MedicalDetailsURL(101): {},
		},
	}

	enricher := NewAnimalEnricher(session, testPages, Feline)
	animal, err := enricher.Animal(context.Background(), 101)
	require.NoError(t, err)

	require.Equal(t, "Adopted", animal.Status)
	require.False(t, animal.InFoster)
	require.Equal(t, 0, animal.FosterParentID)
	require.Equal(t, UnknownValue, animal.SpayNeuter)
}

func TestAnimalStatusFallbackCell(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/enrich")
	defer cleanup()

	page := fosteredAnimalPage(555)
	page.Selected = map[string]string{}
	page.Texts[selStatusFallbackCell] = "In Foster\nsince last week"

	session := &chameleontest.Session{
		Pages: map[string]chameleontest.Page{
			testPages.AnimalURL(102):         page,
			testPages.MedicalDetailsURL(102): {},
		},
	}

	enricher := NewAnimalEnricher(session, testPages, Feline)
	animal, err := enricher.Animal(context.Background(), 102)
	require.NoError(t, err)
	require.Equal(t, "In Foster", animal.Status)
	require.True(t, animal.InFoster)
}

func TestAnimalDetailPageNeverReady(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/enrich")
	defer cleanup()

	session := &chameleontest.Session{
		Pages: map[string]chameleontest.Page{
			// the ready marker never shows up
			testPages.AnimalURL(103): {},
		},
	}

	enricher := NewAnimalEnricher(session, testPages, Feline)
	_, err := enricher.Animal(context.Background(), 103)
	require.Error(t, err)
}
