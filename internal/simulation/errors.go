package simulation

import "fmt"

// InvalidCohortError is returned when an operation is given a cohort tag
// other than CohortA or CohortB.
type InvalidCohortError struct {
	Value string
}

func (e *InvalidCohortError) Error() string {
	return fmt.Sprintf("invalid cohort %q (valid: A, B)", e.Value)
}

// ConfigurationError reports a configuration value the simulation cannot
// run with, such as a negative population size or swipe budget.
type ConfigurationError struct {
	Field  string
	Value  int
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %d: %s", e.Field, e.Value, e.Reason)
}
