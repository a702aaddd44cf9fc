package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Los_Angeles")
	if err != nil {
		panic(err)
	}
}

// the shelter operates on the west coast, but runs may happen from
// machines in other timezones. date math on Year()/Month()/Day() has
// to agree with the legacy system's notion of "today".
func Now() time.Time {
	return time.Now().In(Location)
}
