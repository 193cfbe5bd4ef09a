package model

// HighlightState tells renderers how to present a session header or a
// placement on the board.
type HighlightState int

const (
	Normal HighlightState = iota
	MovableAvailable
	MovableTentative
	Selected
	Locked
)

// String returns a human-readable representation of the highlight.
func (h HighlightState) String() string {
	switch h {
	case MovableAvailable:
		return "movable"
	case MovableTentative:
		return "movable_tentative"
	case Selected:
		return "selected"
	case Locked:
		return "locked"
	default:
		return "normal"
	}
}

// MarshalText encodes the highlight by name.
func (h HighlightState) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// MovableHighlight returns the highlight for a valid destination with status st.
func MovableHighlight(st Status) HighlightState {
	if st == Tentative {
		return MovableTentative
	}
	return MovableAvailable
}
