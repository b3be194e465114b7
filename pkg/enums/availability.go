package enums

import "fmt"

// Availability captures whether a platform can deliver the product right now.
type Availability string

const (
	AvailabilityInStock    Availability = "In Stock"
	AvailabilityOutOfStock Availability = "Out of Stock"
)

var validAvailabilities = []Availability{
	AvailabilityInStock,
	AvailabilityOutOfStock,
}

// Availabilities returns every known availability value.
func Availabilities() []Availability {
	out := make([]Availability, len(validAvailabilities))
	copy(out, validAvailabilities)
	return out
}

// String implements fmt.Stringer.
func (a Availability) String() string {
	return string(a)
}

// IsValid reports whether the value is a known Availability.
func (a Availability) IsValid() bool {
	for _, candidate := range validAvailabilities {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAvailability converts raw input into an Availability.
func ParseAvailability(value string) (Availability, error) {
	for _, candidate := range validAvailabilities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid availability %q", value)
}
