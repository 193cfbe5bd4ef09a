// Package metrics defines the sinks that record solver and editor activity.
// Sinks such as the Prometheus and InfluxDB implementations in infra/metrics
// are created by name through the factory registry. NewMetricsSink returns a
// MultiSink automatically when multiple sinks are configured.
package metrics
