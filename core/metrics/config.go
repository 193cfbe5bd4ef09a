package metrics

import (
	"fmt"

	"github.com/kilianp07/rota/core/factory"
)

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusPort is the port of the /metrics endpoint. Empty disables it.
	PrometheusPort string `json:"prometheus_port"`
}

// Validate checks that every sink names a type.
func (c Config) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics.sinks[%d].type is required", i)
		}
	}
	return nil
}
