package enrich

import (
	"testing"
	"time"

	"fosterassist/lib/timezone"

	"github.com/stretchr/testify/require"
)

func TestAgeFromBirthDate(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, timezone.Location)

	testCases := []struct {
		name            string
		mode            Mode
		birthDate       string
		expectedSpecies string
		expectedAge     string
	}{
		{
			name:            "adult with remainder months",
			mode:            Feline,
			birthDate:       "04/27/2025",
			expectedSpecies: "cat",
			expectedAge:     "1 year, 1 month",
		},
		{
			name:            "young kitten in months",
			mode:            Feline,
			birthDate:       "02/21/2026",
			expectedSpecies: "kitten",
			expectedAge:     "3 months",
		},
		{
			name:            "older juvenile reads as adult",
			mode:            Feline,
			birthDate:       "11/28/2025",
			expectedSpecies: "cat",
			expectedAge:     "6 months",
		},
		{
			name:            "newborn in weeks",
			mode:            Feline,
			birthDate:       "05/22/2026",
			expectedSpecies: "kitten",
			expectedAge:     "1 week",
		},
		{
			name:            "canine juvenile",
			mode:            Canine,
			birthDate:       "02/21/2026",
			expectedSpecies: "puppy",
			expectedAge:     "3 months",
		},
		{
			name:            "unparseable date",
			mode:            Feline,
			birthDate:       "no date on file",
			expectedSpecies: "cat",
			expectedAge:     "Unknown Age",
		},
	}

	for _, c := range testCases {
		t.Run(c.name, func(t *testing.T) {
			species, age := AgeFromBirthDate(c.mode, c.birthDate, now)
			require.Equal(t, c.expectedSpecies, species)
			require.Equal(t, c.expectedAge, age)
		})
	}
}

func TestModeInFoster(t *testing.T) {
	require.True(t, Feline.InFoster("In Foster - Needs Care"))
	require.False(t, Feline.InFoster("Unassisted Death - In Foster"))
	require.False(t, Feline.InFoster("Adopted"))

	require.True(t, Canine.InFoster("In Foster"))
	require.True(t, Canine.InFoster("In Transit"))
	require.False(t, Canine.InFoster("Adopted - Offsite"))
}

func TestModeMatchesType(t *testing.T) {
	require.True(t, Feline.MatchesType("Kitten"))
	require.True(t, Feline.MatchesType("CAT"))
	require.False(t, Feline.MatchesType("Dog"))
	require.True(t, Canine.MatchesType("Puppy"))
}
