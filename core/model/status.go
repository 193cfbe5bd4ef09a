package model

import "strings"

// Status is the availability of one member for one session.
type Status int

const (
	Unavailable Status = iota
	Available
	Tentative
)

// Default markers used by the availability sheets.
const (
	MarkerAvailable = "○"
	MarkerTentative = "△"
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case Available:
		return "available"
	case Tentative:
		return "tentative"
	default:
		return "unavailable"
	}
}

// Marker returns the sheet marker for the status. Unavailable maps to "-".
func (s Status) Marker() string {
	switch s {
	case Available:
		return MarkerAvailable
	case Tentative:
		return MarkerTentative
	default:
		return "-"
	}
}

// Weight is the preference score used by the solver.
func (s Status) Weight() float64 {
	switch s {
	case Available:
		return 2
	case Tentative:
		return 1
	default:
		return 0
	}
}

// Movable reports whether a member with this status may be placed on the session.
func (s Status) Movable() bool { return s == Available || s == Tentative }

// Markers maps raw sheet cells to statuses.
type Markers struct {
	Available []string `json:"available"`
	Tentative []string `json:"tentative"`
}

// DefaultMarkers returns ○ for Available and △ for Tentative.
func DefaultMarkers() Markers {
	return Markers{Available: []string{MarkerAvailable}, Tentative: []string{MarkerTentative}}
}

// Parse converts a raw cell. Anything that is not a known marker, blank
// included, is Unavailable.
func (m Markers) Parse(raw string) Status {
	v := strings.TrimSpace(raw)
	if v == "" {
		return Unavailable
	}
	for _, a := range m.Available {
		if v == a {
			return Available
		}
	}
	for _, t := range m.Tentative {
		if v == t {
			return Tentative
		}
	}
	return Unavailable
}

// ParseStatus converts a raw cell using the default markers. The textual
// names returned by Status.String are accepted as well.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "available":
		return Available
	case "tentative":
		return Tentative
	}
	return DefaultMarkers().Parse(raw)
}
