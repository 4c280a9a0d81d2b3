package liveevents

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesPublishedEvents(t *testing.T) {
	hub := NewHub()

	sub, backlog, err := hub.Subscribe("order-1")
	require.NoError(t, err)
	defer sub.Close()
	assert.Empty(t, backlog)

	hub.Publish("order-1", OrderEvent{Type: TypeOrderConfirmed})

	event := <-sub.Events()
	assert.Equal(t, TypeOrderConfirmed, event.Type)
}

func TestSubscribeBlankOrderID(t *testing.T) {
	hub := NewHub()

	_, _, err := hub.Subscribe("   ")
	assert.Error(t, err)
}

func TestPublishWithoutStreamIsNoOp(t *testing.T) {
	hub := NewHub()

	// Nothing has subscribed to this order, so there is no stream to buffer
	// into. Must not panic or leak a stream.
	hub.Publish("order-9", OrderEvent{Type: TypeProjectCreated})

	_, backlog, err := hub.Subscribe("order-9")
	require.NoError(t, err)
	assert.Empty(t, backlog)
}

func TestLateSubscriberGetsBacklog(t *testing.T) {
	hub := NewHub()

	first, _, err := hub.Subscribe("order-2")
	require.NoError(t, err)
	defer first.Close()

	hub.Publish("order-2", OrderEvent{Type: TypeOrderConfirmed})
	hub.Publish("order-2", OrderEvent{Type: TypeProjectCreated, ProjectID: "p1"})

	late, backlog, err := hub.Subscribe("order-2")
	require.NoError(t, err)
	defer late.Close()

	require.Len(t, backlog, 2)
	assert.Equal(t, TypeOrderConfirmed, backlog[0].Type)
	assert.Equal(t, "p1", backlog[1].ProjectID)
}

func TestBacklogIsBounded(t *testing.T) {
	hub := NewHub()

	first, _, err := hub.Subscribe("order-3")
	require.NoError(t, err)
	defer first.Close()

	for i := 0; i < DefaultBufferSize+10; i++ {
		hub.Publish("order-3", OrderEvent{
			Type:   TypeDomainQualified,
			Domain: fmt.Sprintf("site-%d.example.com", i),
		})
	}

	late, backlog, err := hub.Subscribe("order-3")
	require.NoError(t, err)
	defer late.Close()

	require.Len(t, backlog, DefaultBufferSize)
	assert.Equal(t, "site-10.example.com", backlog[0].Domain, "oldest events are dropped")
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := NewHub()

	sub, _, err := hub.Subscribe("order-4")
	require.NoError(t, err)
	defer sub.Close()

	// Fill the subscriber channel past capacity; publishes must not block.
	for i := 0; i < DefaultSubscriberBuffer+5; i++ {
		hub.Publish("order-4", OrderEvent{Type: TypeDomainQualified})
	}

	drained := 0
	for len(sub.Events()) > 0 {
		<-sub.Events()
		drained++
	}
	assert.Equal(t, DefaultSubscriberBuffer, drained)
}

func TestCloseRemovesStream(t *testing.T) {
	hub := NewHub()

	sub, _, err := hub.Subscribe("order-5")
	require.NoError(t, err)

	hub.Publish("order-5", OrderEvent{Type: TypeOrderConfirmed})
	sub.Close()
	sub.Close()

	// The stream is dropped with its backlog once the last subscriber leaves.
	_, backlog, err := hub.Subscribe("order-5")
	require.NoError(t, err)
	assert.Empty(t, backlog)
}
