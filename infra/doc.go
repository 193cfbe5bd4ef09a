// Package infra holds the adapters around the rota core: sheet ingestion,
// workspace stores, metrics sinks, MQTT notification, error monitoring and
// logging. Adapters depend on core interfaces, never the other way round.
package infra
