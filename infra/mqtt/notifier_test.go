package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rota/core/model"
	"github.com/kilianp07/rota/core/workspace"
	"github.com/kilianp07/rota/internal/eventbus"
)

type message struct {
	topic    string
	payload  []byte
	retained bool
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []message
	err  error
}

func (f *fakePublisher) Publish(topic string, payload []byte, retained bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, message{topic, payload, retained})
	return f.err
}

func (f *fakePublisher) snapshot() []message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]message(nil), f.msgs...)
}

func TestNotifyPublishesRetainedAssignment(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifier(pub, "club", nil)
	now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	n.Notify(workspace.Event{
		WorkspaceID: "ws1",
		Reason:      workspace.ReasonEdited,
		Rows:        []model.Row{{Session: "mon", Members: []string{"aoi"}, Count: 1}},
		Time:        now,
	})

	msgs := pub.snapshot()
	require.Len(t, msgs, 2)
	assert.Equal(t, "club/ws1/events", msgs[0].topic)
	assert.False(t, msgs[0].retained)
	assert.Equal(t, "club/ws1/assignment", msgs[1].topic)
	assert.True(t, msgs[1].retained)

	var got AssignmentMessage
	require.NoError(t, json.Unmarshal(msgs[1].payload, &got))
	assert.Equal(t, "edited", got.Reason)
	assert.Equal(t, []string{"aoi"}, got.Rows[0].Members)
	assert.True(t, got.Time.Equal(now))
}

func TestNotifyWithoutRows(t *testing.T) {
	pub := &fakePublisher{err: errors.New("offline")}
	n := NewNotifier(pub, "", nil)
	n.Notify(workspace.Event{WorkspaceID: "ws1", Reason: workspace.ReasonSettings})
	msgs := pub.snapshot()
	require.Len(t, msgs, 1)
	assert.Equal(t, "rota/ws1/events", msgs[0].topic)
}

func TestNotifierListensOnBus(t *testing.T) {
	pub := &fakePublisher{}
	bus := eventbus.New[workspace.Event]()
	ctx, cancel := context.WithCancel(context.Background())
	done := NewNotifier(pub, "rota", nil).Start(ctx, bus)

	bus.Publish(workspace.Event{WorkspaceID: "ws2", Reason: workspace.ReasonGenerated, Rows: []model.Row{}})
	require.Eventually(t, func() bool { return len(pub.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
