package solver

import (
	"fmt"
	"time"
)

// Config defines solver weights and search limits.
type Config struct {
	// GroupPenalty is charged for every member beyond the first of the same
	// group on one session.
	GroupPenalty float64 `json:"group_penalty"`
	// SpacingPenalty is charged when a member with several sessions is placed
	// on adjacent sessions. Sessions two apart cost half of it.
	SpacingPenalty   float64 `json:"spacing_penalty"`
	TimeLimitSeconds int     `json:"time_limit_seconds"`
	MaxNodes         int     `json:"max_nodes"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.GroupPenalty == 0 {
		c.GroupPenalty = 10
	}
	if c.SpacingPenalty == 0 {
		c.SpacingPenalty = 50
	}
	if c.TimeLimitSeconds == 0 {
		c.TimeLimitSeconds = 30
	}
	if c.MaxNodes == 0 {
		c.MaxNodes = 200000
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.GroupPenalty < 0 {
		return fmt.Errorf("solver.group_penalty must be >= 0")
	}
	if c.SpacingPenalty < 0 {
		return fmt.Errorf("solver.spacing_penalty must be >= 0")
	}
	if c.TimeLimitSeconds < 0 {
		return fmt.Errorf("solver.time_limit_seconds must be >= 0")
	}
	if c.MaxNodes < 0 {
		return fmt.Errorf("solver.max_nodes must be >= 0")
	}
	return nil
}

// TimeLimit returns the wall-clock budget of one solve.
func (c Config) TimeLimit() time.Duration {
	return time.Duration(c.TimeLimitSeconds) * time.Second
}
