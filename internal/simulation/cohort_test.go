package simulation

import (
	"errors"
	"testing"
)

func TestParseCohort(t *testing.T) {
	tests := []struct {
		in      string
		want    Cohort
		wantErr bool
	}{
		{"A", CohortA, false},
		{"b", CohortB, false},
		{"M", CohortA, false},
		{" w ", CohortB, false},
		{"X", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCohort(tt.in)
			if tt.wantErr {
				var ice *InvalidCohortError
				if !errors.As(err, &ice) {
					t.Fatalf("ParseCohort(%q) error = %v, want InvalidCohortError", tt.in, err)
				}
				if ice.Value != tt.in {
					t.Errorf("Value = %q, want %q", ice.Value, tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCohort(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseCohort(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCohort_Opposite(t *testing.T) {
	if CohortA.Opposite() != CohortB || CohortB.Opposite() != CohortA {
		t.Error("Opposite should swap A and B")
	}
}
