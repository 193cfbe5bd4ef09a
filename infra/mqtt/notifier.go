// Package mqtt mirrors workspace changes to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kilianp07/rota/core/logger"
	"github.com/kilianp07/rota/core/model"
	"github.com/kilianp07/rota/core/workspace"
	"github.com/kilianp07/rota/internal/eventbus"
)

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte, retained bool) error
}

// AssignmentMessage is the retained payload on <prefix>/<id>/assignment.
type AssignmentMessage struct {
	WorkspaceID string      `json:"workspace_id"`
	Reason      string      `json:"reason"`
	Rows        []model.Row `json:"rows"`
	Time        time.Time   `json:"time"`
}

// EventMessage is published on <prefix>/<id>/events for every change.
type EventMessage struct {
	WorkspaceID string    `json:"workspace_id"`
	Reason      string    `json:"reason"`
	Time        time.Time `json:"time"`
}

// Notifier publishes workspace events received from the bus.
type Notifier struct {
	pub    Publisher
	prefix string
	log    logger.Logger
}

// NewNotifier returns a notifier publishing under prefix.
func NewNotifier(pub Publisher, prefix string, log logger.Logger) *Notifier {
	if prefix == "" {
		prefix = "rota"
	}
	return &Notifier{pub: pub, prefix: prefix, log: logger.OrNop(log)}
}

// AssignmentTopic returns the retained topic of a workspace.
func (n *Notifier) AssignmentTopic(id string) string {
	return n.prefix + "/" + id + "/assignment"
}

// EventsTopic returns the event topic of a workspace.
func (n *Notifier) EventsTopic(id string) string {
	return n.prefix + "/" + id + "/events"
}

// Start listens on bus until ctx is done. The returned channel is closed
// when the listener stops.
func (n *Notifier) Start(ctx context.Context, bus *eventbus.Bus[workspace.Event]) <-chan struct{} {
	return bus.Listen(ctx, n.Notify)
}

// Notify publishes one event. Failures are logged.
func (n *Notifier) Notify(ev workspace.Event) {
	evPayload, err := json.Marshal(EventMessage{WorkspaceID: ev.WorkspaceID, Reason: ev.Reason, Time: ev.Time})
	if err != nil {
		n.log.Errorf("encode event: %v", err)
		return
	}
	if err := n.pub.Publish(n.EventsTopic(ev.WorkspaceID), evPayload, false); err != nil {
		n.log.Errorf("publish event for %s: %v", ev.WorkspaceID, err)
	}
	if ev.Rows == nil {
		return
	}
	payload, err := json.Marshal(AssignmentMessage{
		WorkspaceID: ev.WorkspaceID,
		Reason:      ev.Reason,
		Rows:        ev.Rows,
		Time:        ev.Time,
	})
	if err != nil {
		n.log.Errorf("encode assignment: %v", err)
		return
	}
	if err := n.pub.Publish(n.AssignmentTopic(ev.WorkspaceID), payload, true); err != nil {
		n.log.Errorf("publish assignment for %s: %v", ev.WorkspaceID, err)
	}
}
