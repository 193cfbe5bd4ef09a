package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/rota/core/metrics"
	"github.com/kilianp07/rota/infra/logger"
)

// InfluxSink writes solver and board events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSolve writes one solve_event point.
func (s *InfluxSink) RecordSolve(ev coremetrics.SolveEvent) error {
	p := write.NewPointWithMeasurement("solve_event").
		AddTag("workspace_id", ev.WorkspaceID).
		AddTag("outcome", ev.Outcome).
		AddField("sessions", ev.Sessions).
		AddField("members", ev.Members).
		AddField("assigned", ev.Assigned).
		AddField("objective", round3(ev.Objective)).
		AddField("penalty", round3(ev.Penalty)).
		AddField("nodes", ev.Nodes).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordEdit writes one edit_event point.
func (s *InfluxSink) RecordEdit(ev coremetrics.EditEvent) error {
	p := write.NewPointWithMeasurement("edit_event").
		AddTag("workspace_id", ev.WorkspaceID).
		AddTag("kind", ev.Kind).
		AddTag("applied", strconv.FormatBool(ev.Applied)).
		AddField("member", ev.Member).
		AddField("from", ev.From).
		AddField("to", ev.To).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordAssignment writes one session_fill point per session.
func (s *InfluxSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	for _, f := range ev.Sessions {
		p := write.NewPointWithMeasurement("session_fill").
			AddTag("workspace_id", ev.WorkspaceID).
			AddTag("session", f.Session).
			AddTag("reason", ev.Reason).
			AddField("assigned", f.Assigned).
			SetTime(ev.Time)
		if err := s.write(p); err != nil {
			return err
		}
	}
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
