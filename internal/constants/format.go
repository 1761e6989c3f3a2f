package constants

// Format is a CLI output format.
type Format string

const (
	// FormatTable renders human-readable tables.
	FormatTable Format = "table"

	// FormatJSON renders indented JSON for scripts and agents.
	FormatJSON Format = "json"
)

// Valid returns true if the format is a recognized value.
func (f Format) Valid() bool {
	switch f {
	case FormatTable, FormatJSON:
		return true
	}
	return false
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}
