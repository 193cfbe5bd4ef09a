package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/rota/core/metrics"
	"github.com/kilianp07/rota/core/workspace"
	"github.com/kilianp07/rota/internal/eventbus"
)

// StartEventCollector subscribes to the workspace bus and records session
// fill for every event carrying rows. It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[workspace.Event], sink coremetrics.MetricsSink) <-chan struct{} {
	rec, ok := sink.(coremetrics.AssignmentRecorder)
	if bus == nil || !ok {
		done := make(chan struct{})
		close(done)
		return done
	}
	return bus.Listen(ctx, func(ev workspace.Event) {
		if ev.Rows == nil {
			return
		}
		fill := make([]coremetrics.SessionFill, len(ev.Rows))
		for i, r := range ev.Rows {
			fill[i] = coremetrics.SessionFill{Session: r.Session, Assigned: r.Count}
		}
		_ = rec.RecordAssignment(coremetrics.AssignmentEvent{
			WorkspaceID: ev.WorkspaceID,
			Reason:      ev.Reason,
			Sessions:    fill,
			Time:        ev.Time,
		})
	})
}
