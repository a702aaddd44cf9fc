package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fosterassist/lib/scrapers/chameleon"
	"fosterassist/lib/telemetry"
	"fosterassist/lib/textutil"
	"fosterassist/lib/timezone"

	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("services/enrich")

// element locations on the animal detail and medical details pages
const (
	selReadyMarker    = "#submitbtn2"
	selSpecialMsg     = "#specialMessagesDialog"
	selStatus         = "#status"
	selSubStatus      = "#subStatus"
	selStatusDate     = "#statusdate"
	selBirthDate      = "#dob"
	selAnimalName     = "#animalname"
	selBreed          = "#breed"
	selPrimaryColor   = "#primarycolour"
	selSecondaryColor = "#secondarycolour"
	selGender         = "#sex"
	// the responsible-person link on the detail page; its href carries
	// the authoritative current foster parent id
	selFosterParentAnchor = "#Table17 tbody tr:nth-of-type(1) td:nth-of-type(2) a"
	// legacy layout fallback when the status dropdown is absent
	selStatusFallbackCell = "#Table17 tbody tr:nth-of-type(2) td:nth-of-type(2)"
	// spay/neuter cell on the medical details page
	selSpayNeuterCell = "body > center > table:nth-of-type(2) td table tr:nth-of-type(4) td:nth-of-type(4)"
)

// the detail page lazy-loads its content, this bounds how long we wait
// for it before declaring the whole run dead
const readyTimeout = time.Second * 10

// boilerplate the legacy system injects into every special message box
var specialMsgBoilerplate = regexp.MustCompile(`(?i)This is a special message\. If you would like to delete it then clear the Special Message box in the General Details section of this page\.`)

// Placeholder values so that empty scraped fields never show up as
// blank report cells.
const (
	UnnamedAnimal  = "Unnamed"
	UnknownBreed   = "Unknown Breed"
	UnknownColor   = "Unknown Color"
	UnknownGender  = "Unknown Gender"
	UnknownValue   = "Unknown"
	UnknownAge     = "Unknown Age"
	UnknownDate    = "Unknown"
	statusDateWire = "01/02/2006"
	statusDateOut  = "2-Jan-2006"
)

// AnimalRecord is everything the report needs to know about one animal,
// assembled fresh per run from the live detail pages.
type AnimalRecord struct {
	ID             int
	Status         string
	StatusDate     string
	SpeciesType    string
	Age            string
	Name           string
	Breed          string
	PrimaryColor   string
	SecondaryColor string
	Gender         string
	SpayNeuter     string
	SpecialMessage string

	// true when the live status classifies the animal as currently
	// fostered; the report's own columns are not trusted for this
	InFoster bool
	// the resolved current foster parent, 0 when the responsible-person
	// link could not be parsed
	FosterParentID int
}

// GenderShort is the single-letter gender used in grouped detail lines.
func (a AnimalRecord) GenderShort() string {
	if a.Gender == "" || a.Gender == UnknownGender {
		return "U"
	}
	return strings.ToUpper(a.Gender[:1])
}

type AnimalEnricher struct {
	session chameleon.Session
	pages   chameleon.Pages
	mode    Mode
}

func NewAnimalEnricher(session chameleon.Session, pages chameleon.Pages, mode Mode) AnimalEnricher {
	return AnimalEnricher{
		session: session,
		pages:   pages,
		mode:    mode,
	}
}

// Animal loads the animal's detail page and assembles its record.
// Individual fields degrade to placeholders when they cannot be read;
// the only fatal condition is the detail page never becoming ready,
// which means the remote system is unreachable or has changed shape.
func (e AnimalEnricher) Animal(ctx context.Context, id int) (AnimalRecord, error) {
	ctx, span := tracer.Start(ctx, "Animal")
	defer span.End()

	record := AnimalRecord{ID: id}

	err := e.session.Navigate(ctx, e.pages.AnimalURL(id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load animal detail page")
		return record, err
	}
	e.session.DismissAlert(ctx)

	if !e.session.WaitVisible(ctx, selReadyMarker, readyTimeout) {
		span.SetStatus(codes.Error, "detail page never became ready")
		return record, fmt.Errorf("timeout while waiting for content on the detail page of animal %d", id)
	}

	record.SpecialMessage = e.specialMessage(ctx)
	record.Status = e.status(ctx)
	record.StatusDate = e.statusDate(ctx)
	record.SpeciesType, record.Age = AgeFromBirthDate(
		e.mode,
		e.session.ReadAttribute(ctx, selBirthDate, "value"),
		timezone.Now(),
	)

	record.Name = e.session.ReadAttribute(ctx, selAnimalName, "value")
	record.Breed = e.session.ReadAttribute(ctx, selBreed, "value")
	record.PrimaryColor = e.session.ReadAttribute(ctx, selPrimaryColor, "value")
	record.SecondaryColor = e.session.ReadAttribute(ctx, selSecondaryColor, "value")
	record.Gender = e.session.ReadAttribute(ctx, selGender, "value")

	record.InFoster = e.mode.InFoster(record.Status)
	if record.InFoster {
		record.FosterParentID = e.fosterParentID(ctx)
		if record.FosterParentID == 0 {
			slog.WarnContext(
				ctx,
				"failed to find foster parent, please check report",
				"animal", id,
				"status", record.Status,
			)
		}
	}

	// fetched last, this navigates away from the detail page
	record.SpayNeuter = e.spayNeuter(ctx, id)

	applyPlaceholders(&record)
	return record, nil
}

func (e AnimalEnricher) specialMessage(ctx context.Context) string {
	msg := e.session.ReadText(ctx, selSpecialMsg)
	if msg == "" {
		return ""
	}
	msg = specialMsgBoilerplate.ReplaceAllString(msg, "")
	return textutil.CollapseLines(msg)
}

func (e AnimalEnricher) status(ctx context.Context) string {
	status := e.session.SelectedOptionText(ctx, selStatus)
	if status == "" {
		// some older records render the status as free text in a table
		// cell instead of the dropdown
		cell := e.session.ReadText(ctx, selStatusFallbackCell)
		status, _, _ = strings.Cut(cell, "\n")
		status = strings.TrimSpace(status)
	}

	subStatus := e.session.SelectedOptionText(ctx, selSubStatus)
	if subStatus != "" {
		status = fmt.Sprintf("%s - %s", status, subStatus)
	}
	return status
}

func (e AnimalEnricher) statusDate(ctx context.Context) string {
	raw := e.session.ReadAttribute(ctx, selStatusDate, "value")
	parsed, err := time.Parse(statusDateWire, raw)
	if err != nil {
		return UnknownDate
	}
	return parsed.Format(statusDateOut)
}

func (e AnimalEnricher) fosterParentID(ctx context.Context) int {
	href := e.session.ReadAttribute(ctx, selFosterParentAnchor, "href")
	_, after, found := strings.Cut(href, "personid=")
	if !found {
		return 0
	}
	digits := after
	if i := strings.IndexFunc(after, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
		digits = after[:i]
	}
	id, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return id
}

func (e AnimalEnricher) spayNeuter(ctx context.Context, id int) string {
	err := e.session.Navigate(ctx, e.pages.MedicalDetailsURL(id))
	if err != nil {
		slog.WarnContext(ctx, "failed to read spay/neuter status", "animal", id, "err", err)
		return UnknownValue
	}
	status := e.session.ReadAttribute(ctx, selSpayNeuterCell, "innerText")
	if status == "" {
		return UnknownValue
	}
	return status
}

func applyPlaceholders(record *AnimalRecord) {
	def := func(field *string, placeholder string) {
		if strings.TrimSpace(*field) == "" {
			*field = placeholder
		}
	}
	def(&record.Name, UnnamedAnimal)
	def(&record.Breed, UnknownBreed)
	def(&record.PrimaryColor, UnknownColor)
	def(&record.SecondaryColor, UnknownColor)
	def(&record.Gender, UnknownGender)
	def(&record.SpayNeuter, UnknownValue)
	def(&record.Status, UnknownValue)
	def(&record.Age, UnknownAge)
}
