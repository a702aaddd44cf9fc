// Package chameleon models the legacy shelter-management web
// application. The core pipeline only ever talks to the Session
// interface; the browser and web subpackages provide transports.
package chameleon

import (
	"context"
	"fmt"
	"time"
)

var LoginFailed = fmt.Errorf("Failed to login to the shelter system.")

// Session is a stateful handle to one logged-in view of the legacy
// system. Navigation is shared state: a Navigate or SubmitSearch call
// invalidates whatever page the previous call was looking at, so a
// Session must never be shared across concurrent lookups.
type Session interface {
	Navigate(ctx context.Context, url string) error
	// best effort, a missing alert is not an error
	DismissAlert(ctx context.Context)
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) bool
	// never fails, returns "" when the element or attribute is missing
	ReadAttribute(ctx context.Context, selector, attr string) string
	ReadText(ctx context.Context, selector string) string
	SelectedOptionText(ctx context.Context, selector string) string
	SubmitSearch(ctx context.Context, personID int) error
	// returns the cell texts of a table, row by row. the second return
	// is false when the table does not exist on the current page, which
	// is how paginated listings signal their last page.
	ReadTable(ctx context.Context, selector string) ([][]string, bool)
}

// Pages holds the page url templates served out of the roster
// spreadsheet's config blob. The templates carry %d verbs: one animal
// or person id for Animal/MedicalDetails, page number then person id
// for ListAnimals.
type Pages struct {
	Login          string
	Search         string
	Animal         string
	MedicalDetails string
	ListAnimals    string
}

func (p Pages) AnimalURL(animalID int) string {
	return fmt.Sprintf(p.Animal, animalID)
}

func (p Pages) MedicalDetailsURL(animalID int) string {
	return fmt.Sprintf(p.MedicalDetails, animalID)
}

func (p Pages) ListAnimalsURL(page, personID int) string {
	return fmt.Sprintf(p.ListAnimals, page, personID)
}

func (p Pages) Validate() error {
	if p.Login == "" || p.Search == "" || p.Animal == "" ||
		p.MedicalDetails == "" || p.ListAnimals == "" {
		return fmt.Errorf("incomplete page configuration, check the roster spreadsheet config sheet")
	}
	return nil
}

// Credentials for the interactive login form.
type Credentials struct {
	Username string
	Password string
}
