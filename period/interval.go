package period

import "errors"

// Interval is a calendar unit used for trial, invoice, grace, and
// usage-reset cadences.
type Interval string

const (
	Day   Interval = "day"
	Month Interval = "month"
	Year  Interval = "year"
)

var ErrInvalidInterval = errors.New("period.errors.invalid_interval")

// ParseInterval converts a string into an Interval.
func ParseInterval(s string) (Interval, error) {
	switch Interval(s) {
	case Day, Month, Year:
		return Interval(s), nil
	default:
		return "", ErrInvalidInterval
	}
}

// Valid reports whether the interval is one of the known calendar units.
func (i Interval) Valid() bool {
	switch i {
	case Day, Month, Year:
		return true
	default:
		return false
	}
}

func (i Interval) String() string {
	return string(i)
}

// MarshalText implements encoding.TextMarshaler so intervals round-trip
// through YAML and env-based configuration.
func (i Interval) MarshalText() ([]byte, error) {
	if !i.Valid() {
		return nil, ErrInvalidInterval
	}
	return []byte(i), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Interval) UnmarshalText(text []byte) error {
	parsed, err := ParseInterval(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
