package enrich

import (
	"fmt"
	"math"
	"time"
)

const (
	adultAgeDays = 365
	// juveniles older than this read better as adults in the report
	youngCutoffDays = 182
	minBucketDays   = 90
)

func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// ageBucket turns an age in days into a species label and a short
// human-readable age string. The thresholds deliberately trade
// precision for brevity in the report cells.
func ageBucket(mode Mode, ageDays int) (speciesType, age string) {
	switch {
	case ageDays >= adultAgeDays:
		years := ageDays / adultAgeDays
		months := int(math.Round(float64(ageDays%adultAgeDays) / 30.0))
		age = pluralize(years, "year")
		if months > 0 {
			age += ", " + pluralize(months, "month")
		}
		return mode.AdultType(), age

	case ageDays >= minBucketDays:
		speciesType = mode.YoungType()
		if ageDays > youngCutoffDays {
			speciesType = mode.AdultType()
		}
		return speciesType, pluralize(ageDays/30, "month")

	default:
		if ageDays < 0 {
			ageDays = 0
		}
		return mode.YoungType(), pluralize(ageDays/7, "week")
	}
}

// AgeFromBirthDate derives the species label and age string from a
// scraped date-of-birth field. An unparseable date falls back to the
// base species with an unknown age rather than failing the animal.
func AgeFromBirthDate(mode Mode, birthDate string, now time.Time) (speciesType, age string) {
	dob, err := time.Parse("01/02/2006", birthDate)
	if err != nil {
		return mode.AdultType(), "Unknown Age"
	}
	ageDays := int(now.Sub(dob).Hours() / 24)
	return ageBucket(mode, ageDays)
}
