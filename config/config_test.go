package config

import (
	"os"
	"path/filepath"
	"testing"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `solver:
  group_penalty: 5
  time_limit_seconds: 10
ingest:
  markers:
    available: ["o", "○"]
store:
  backend: sqlite
  path: "/tmp/rota.db"
http:
  addr: ":9000"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "cli"
  username: "user"
  password: "pass"
  topic_prefix: "club"
  qos: 1
metrics:
  sinks:
    - type: "nop"
  prometheus_port: "2112"
logging:
  level: debug
  file: "/tmp/rota.log"
monitoring:
  environment: "staging"
  traces_sample_rate: 0.5
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"group_penalty", cfg.Solver.GroupPenalty, 5.0},
		{"spacing_penalty default", cfg.Solver.SpacingPenalty, 50.0},
		{"time_limit_seconds", cfg.Solver.TimeLimitSeconds, 10},
		{"markers", len(cfg.Ingest.Markers.Available), 2},
		{"tentative default", cfg.Ingest.Markers.Tentative[0], "△"},
		{"store.backend", cfg.Store.Backend, "sqlite"},
		{"store.path", cfg.Store.Path, "/tmp/rota.db"},
		{"http.addr", cfg.HTTP.Addr, ":9000"},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "cli"},
		{"topic_prefix", cfg.MQTT.TopicPrefix, "club"},
		{"qos", cfg.MQTT.QoS, byte(1)},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"prometheus_port", cfg.Metrics.PrometheusPort, "2112"},
		{"logging.level", cfg.Logging.Level, "debug"},
		{"logging.file", cfg.Logging.File, "/tmp/rota.log"},
		{"logging.max_size_mb default", cfg.Logging.MaxSizeMB, 10},
		{"monitoring.environment", cfg.Monitoring.Environment, "staging"},
		{"monitoring.traces_sample_rate", cfg.Monitoring.TracesSampleRate, 0.5},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv("ROTA_SOLVER__MAX_NODES", "1234")
	t.Setenv("ROTA_HTTP__ADDR", ":7000")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Solver.MaxNodes != 1234 {
		t.Errorf("env override not applied: %d", cfg.Solver.MaxNodes)
	}
	if cfg.HTTP.Addr != ":7000" {
		t.Errorf("env override not applied: %s", cfg.HTTP.Addr)
	}
	if cfg.Store.Backend != "jsonl" || cfg.Logging.Level != "info" || cfg.Solver.TimeLimitSeconds != 30 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"log level":   "logging:\n  level: loud\n",
		"sample rate": "monitoring:\n  traces_sample_rate: 2\n",
		"store":       "store:\n  backend: redis\n",
		"mqtt":        "mqtt:\n  enabled: true\n",
		"solver":      "solver:\n  max_nodes: -1\n",
		"sink":        "metrics:\n  sinks:\n    - conf: {}\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, "c.yaml")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := Load(filepath.Join(dir, "c.toml")); err == nil {
		t.Errorf("expected unsupported format error")
	}
}
