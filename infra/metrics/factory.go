package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/rota/core/factory"
	coremetrics "github.com/kilianp07/rota/core/metrics"
)

// InfluxConfig is the conf block of an "influx" sink entry.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// Validate requires an endpoint and a bucket.
func (c InfluxConfig) Validate() error {
	if c.URL == "" || c.Bucket == "" {
		return fmt.Errorf("influx sink needs url and bucket")
	}
	return nil
}

func newNop(map[string]any) (coremetrics.MetricsSink, error) {
	return coremetrics.NopSink{}, nil
}

// newProm accepts the metrics prometheus_port for symmetry with the
// top-level setting; the /metrics server itself is started by the service.
func newProm(conf map[string]any) (coremetrics.MetricsSink, error) {
	var c struct {
		Port string `json:"prometheus_port"`
	}
	if err := factory.Decode(conf, &c); err != nil {
		return nil, err
	}
	return NewPromSinkWithRegistry(coremetrics.Config{PrometheusPort: c.Port}, prometheus.DefaultRegisterer)
}

func newInflux(conf map[string]any) (coremetrics.MetricsSink, error) {
	var c InfluxConfig
	if err := factory.Decode(conf, &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
}

func init() {
	for name, f := range map[string]factory.Factory[coremetrics.MetricsSink]{
		"nop":        newNop,
		"prometheus": newProm,
		"influx":     newInflux,
	} {
		_ = coremetrics.RegisterMetricsSink(name, f)
	}
}
