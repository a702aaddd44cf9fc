package enrich

import "strings"

// Mode selects the species a run operates on. Feline and canine runs
// are mutually exclusive: they filter history differently and even
// classify "currently in foster" differently.
type Mode int

const (
	Feline Mode = iota
	Canine
)

func (m Mode) String() string {
	if m == Canine {
		return "canine"
	}
	return "feline"
}

// AdultType is the species label for grown animals.
func (m Mode) AdultType() string {
	if m == Canine {
		return "dog"
	}
	return "cat"
}

// YoungType is the species label for juveniles.
func (m Mode) YoungType() string {
	if m == Canine {
		return "puppy"
	}
	return "kitten"
}

// MatchesType reports whether a history row's animal-type text belongs
// to this run's species.
func (m Mode) MatchesType(typeText string) bool {
	t := strings.ToLower(typeText)
	return strings.Contains(t, m.AdultType()) || strings.Contains(t, m.YoungType())
}

// InFoster classifies a live status string. Feline runs require an
// explicit "in foster" status that is not an unassisted death. The dog
// program tracks every animal that has not been adopted out yet, so
// canine runs invert the test.
func (m Mode) InFoster(status string) bool {
	s := strings.ToLower(status)
	if m == Canine {
		return !strings.Contains(s, "adopted")
	}
	return strings.Contains(s, "in foster") && !strings.Contains(s, "unassisted death")
}
