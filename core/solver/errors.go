package solver

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInfeasible is returned when no assignment satisfies the hard constraints.
	ErrInfeasible = errors.New("infeasible schedule")
	// ErrTimeout is returned when the search exceeds its time or node budget.
	ErrTimeout = errors.New("solve time limit exceeded")
)

// Issue is one problem found while validating solver input.
type Issue struct {
	Session string `json:"session,omitempty"`
	Member  string `json:"member,omitempty"`
	Reason  string `json:"reason"`
}

func (i Issue) String() string {
	switch {
	case i.Session != "" && i.Member != "":
		return fmt.Sprintf("%s/%s: %s", i.Session, i.Member, i.Reason)
	case i.Session != "":
		return fmt.Sprintf("session %s: %s", i.Session, i.Reason)
	case i.Member != "":
		return fmt.Sprintf("member %s: %s", i.Member, i.Reason)
	}
	return i.Reason
}

// ConfigurationError lists every issue that prevents a solve.
type ConfigurationError struct {
	Issues []Issue `json:"issues"`
}

func (e *ConfigurationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.String()
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

func (e *ConfigurationError) add(session, member, format string, args ...any) {
	e.Issues = append(e.Issues, Issue{Session: session, Member: member, Reason: fmt.Sprintf(format, args...)})
}
