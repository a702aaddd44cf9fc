package mentors

import (
	"fmt"

	"fosterassist/lib/scrapers/chameleon"

	"gopkg.in/yaml.v3"
)

// Roster is the YAML configuration blob stored on the workbook's config
// sheet. Keeping it in the shared spreadsheet lets the program staff
// update urls and staff lists without touching any deployed machine.
type Roster struct {
	LoginURL          string `yaml:"login_url"`
	SearchURL         string `yaml:"search_url"`
	AnimalURL         string `yaml:"animal_url"`
	MedicalDetailsURL string `yaml:"medical_details_url"`
	ListAnimalsURL    string `yaml:"list_animals_url"`

	// mixed list of person ids and email fragments that must never be
	// assigned a mentor
	DoNotAssignMentor []any `yaml:"do_not_assign_mentor"`
	// person ids of the mentors themselves
	Mentors []int `yaml:"mentors"`

	IncludeAgencyOutgoing bool `yaml:"include_agency_outgoing"`
}

func ParseRoster(blob []byte) (Roster, error) {
	var roster Roster
	err := yaml.Unmarshal(blob, &roster)
	if err != nil {
		return Roster{}, fmt.Errorf("parse roster config blob: %w", err)
	}
	return roster, nil
}

func (r Roster) Pages() chameleon.Pages {
	return chameleon.Pages{
		Login:          r.LoginURL,
		Search:         r.SearchURL,
		Animal:         r.AnimalURL,
		MedicalDetails: r.MedicalDetailsURL,
		ListAnimals:    r.ListAnimalsURL,
	}
}

// DenyIDs returns the numeric entries of the do-not-assign list.
func (r Roster) DenyIDs() []int {
	var ids []int
	for _, entry := range r.DoNotAssignMentor {
		switch v := entry.(type) {
		case int:
			ids = append(ids, v)
		case int64:
			ids = append(ids, int(v))
		case float64:
			ids = append(ids, int(v))
		}
	}
	return ids
}

// DenyStrings returns the email-fragment entries of the do-not-assign
// list.
func (r Roster) DenyStrings() []string {
	var fragments []string
	for _, entry := range r.DoNotAssignMentor {
		if s, ok := entry.(string); ok && s != "" {
			fragments = append(fragments, s)
		}
	}
	return fragments
}
