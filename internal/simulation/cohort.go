package simulation

import "strings"

// Cohort identifies one side of the market.
type Cohort string

const (
	CohortA Cohort = "A"
	CohortB Cohort = "B"
)

// Cohorts lists both cohorts in processing order.
var Cohorts = [2]Cohort{CohortA, CohortB}

// Valid reports whether c is one of the two recognized cohorts.
func (c Cohort) Valid() bool {
	return c == CohortA || c == CohortB
}

// Opposite returns the other cohort.
func (c Cohort) Opposite() Cohort {
	if c == CohortA {
		return CohortB
	}
	return CohortA
}

func (c Cohort) index() int {
	if c == CohortB {
		return 1
	}
	return 0
}

// ParseCohort accepts "A"/"B" and the legacy "M"/"W" tags, case-insensitive.
func ParseCohort(s string) (Cohort, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A", "M":
		return CohortA, nil
	case "B", "W":
		return CohortB, nil
	}
	return "", &InvalidCohortError{Value: s}
}

func checkCohort(c Cohort) error {
	if !c.Valid() {
		return &InvalidCohortError{Value: string(c)}
	}
	return nil
}
