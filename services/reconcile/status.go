package reconcile

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"fosterassist/lib/timezone"
	"fosterassist/services/enrich"
	"fosterassist/services/mentors"
)

// MentorStatus is one row of the mentee status report.
type MentorStatus struct {
	Mentor        string
	ActiveMentees []mentors.Mentee
	// mentees with no animals currently in foster
	Completed             []mentors.Mentee
	DaysSinceLastAssigned int
}

// StatusReport walks every mentor worksheet and checks each mentee
// against the live system to see whether they still have animals in
// care. With autoupdate set, finished mentees are stamped on the
// worksheet itself.
func StatusReport(
	ctx context.Context,
	directory mentors.Directory,
	persons *enrich.PersonEnricher,
	autoupdate bool,
) ([]MentorStatus, error) {
	ctx, span := tracer.Start(ctx, "StatusReport")
	defer span.End()

	rosters, err := directory.CurrentMentees(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var report []MentorStatus
	for _, roster := range rosters {
		status := MentorStatus{
			Mentor:                roster.Mentor,
			DaysSinceLastAssigned: daysSince(roster.MostRecent),
		}

		for _, mentee := range roster.Mentees {
			if persons.CurrentAnimals(ctx, mentee.PersonID) > 0 {
				status.ActiveMentees = append(status.ActiveMentees, mentee)
			} else {
				status.Completed = append(status.Completed, mentee)
			}
		}

		if autoupdate && len(status.Completed) > 0 {
			ids := make([]int, len(status.Completed))
			for i, mentee := range status.Completed {
				ids[i] = mentee.PersonID
			}
			err = directory.SetCompletedMentees(ctx, roster.Mentor, ids)
			if err != nil {
				slog.WarnContext(ctx, "failed to update worksheet", "mentor", roster.Mentor, "err", err)
			}
		}

		report = append(report, status)
	}

	// mentors who have waited longest for a new assignment come first
	sort.Slice(report, func(i, j int) bool {
		if report[i].DaysSinceLastAssigned != report[j].DaysSinceLastAssigned {
			return report[i].DaysSinceLastAssigned > report[j].DaysSinceLastAssigned
		}
		return report[i].Mentor < report[j].Mentor
	})
	return report, nil
}

func daysSince(t time.Time) int {
	if t.IsZero() {
		return -1
	}
	return int(math.Floor(timezone.Now().Sub(t).Hours() / 24))
}
