// Package reconcile turns a list of animal ids from the daily report
// into per-foster-parent groups ready for the output report.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"fosterassist/lib/telemetry"
	"fosterassist/services/enrich"

	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("services/reconcile")

// Group is one foster parent together with every reported animal that
// is currently in their care.
type Group struct {
	PersonID int
	Person   enrich.PersonRecord
	Animals  []enrich.AnimalRecord

	// preformatted report cells
	Details         string
	SpecialMessages string
	DateReceived    string
	Experience      string
}

// Result of a full reconciliation run.
type Result struct {
	Groups []Group
	// reported animals whose live status says they are no longer in
	// foster, or whose foster parent could not be resolved
	NotInFoster []enrich.AnimalRecord
}

type Engine struct {
	animals enrich.AnimalEnricher
	persons *enrich.PersonEnricher
	mode    enrich.Mode
}

func NewEngine(animals enrich.AnimalEnricher, persons *enrich.PersonEnricher, mode enrich.Mode) *Engine {
	return &Engine{
		animals: animals,
		persons: persons,
		mode:    mode,
	}
}

// Reconcile looks up every animal live, partitions out the ones that
// left foster care, and groups the rest by their current foster parent.
// Groups come back sorted so annotated parents surface at the top of
// the report.
func (e *Engine) Reconcile(ctx context.Context, animalIDs []int) (Result, error) {
	ctx, span := tracer.Start(ctx, "Reconcile")
	defer span.End()

	var result Result
	byPerson := map[int][]enrich.AnimalRecord{}

	for i, id := range animalIDs {
		slog.InfoContext(ctx, "looking up animal", "animal", id, "progress", fmt.Sprintf("%d/%d", i+1, len(animalIDs)))

		animal, err := e.animals.Animal(ctx, id)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "animal lookup failed")
			return Result{}, err
		}

		if !animal.InFoster || animal.FosterParentID == 0 {
			result.NotInFoster = append(result.NotInFoster, animal)
			continue
		}
		byPerson[animal.FosterParentID] = append(byPerson[animal.FosterParentID], animal)
	}

	for personID, animals := range byPerson {
		person, err := e.persons.Person(ctx, personID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "person lookup failed")
			return Result{}, err
		}

		result.Groups = append(result.Groups, Group{
			PersonID:        personID,
			Person:          person,
			Animals:         animals,
			Details:         formatDetails(e.mode, animals),
			SpecialMessages: formatSpecialMessages(animals),
			DateReceived:    animals[0].StatusDate,
			Experience:      formatExperience(person.History),
		})
	}

	sort.Slice(result.Groups, func(i, j int) bool {
		a, b := result.Groups[i], result.Groups[j]
		if a.Person.Notes != b.Person.Notes {
			return a.Person.Notes < b.Person.Notes
		}
		return a.PersonID < b.PersonID
	})
	sort.Slice(result.NotInFoster, func(i, j int) bool {
		return result.NotInFoster[i].ID < result.NotInFoster[j].ID
	})

	slog.InfoContext(
		ctx,
		"reconciled report",
		"groups", len(result.Groups),
		"not_in_foster", len(result.NotInFoster),
	)
	return result, nil
}

// formatDetails renders a group's animals bucketed by species label,
// one header line per bucket followed by one line per animal. Feline
// lines carry the descriptive extras the kitten program asks for.
func formatDetails(mode enrich.Mode, animals []enrich.AnimalRecord) string {
	var order []string
	buckets := map[string][]enrich.AnimalRecord{}
	for _, animal := range animals {
		if _, seen := buckets[animal.SpeciesType]; !seen {
			order = append(order, animal.SpeciesType)
		}
		buckets[animal.SpeciesType] = append(buckets[animal.SpeciesType], animal)
	}

	var lines []string
	for _, speciesType := range order {
		bucket := buckets[speciesType]
		header := fmt.Sprintf("%d %s @ %s", len(bucket), speciesType, bucket[0].Age)
		if len(bucket) != 1 {
			header = fmt.Sprintf("%d %ss @ %s", len(bucket), speciesType, bucket[0].Age)
		}
		lines = append(lines, header)

		for _, animal := range bucket {
			line := fmt.Sprintf("%d (%s), S/N %s", animal.ID, animal.GenderShort(), animal.SpayNeuter)
			if mode == enrich.Feline {
				line += fmt.Sprintf(", %s, %s, %s", animal.Name, animal.Breed, animal.PrimaryColor)
			}
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\r")
}

func formatSpecialMessages(animals []enrich.AnimalRecord) string {
	var messages []string
	for _, animal := range animals {
		if animal.SpecialMessage == "" {
			continue
		}
		msg := strings.ReplaceAll(animal.SpecialMessage, "\n", "\r")
		messages = append(messages, fmt.Sprintf("%d: %s", animal.ID, msg))
	}
	return strings.Join(messages, "\r\r")
}

func formatExperience(history enrich.FosterHistory) string {
	if history.FosterCount == 0 {
		return "NEW"
	}
	return fmt.Sprintf("%d previous", history.FosterCount)
}
