package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	broker := NewBroker()

	sub := broker.Subscribe("alice")
	defer sub.Close()

	broker.Publish("alice", TypeNotification, map[string]string{"msg": "hello"})

	event := <-sub.C
	assert.Equal(t, TypeNotification, event.Type)
	assert.JSONEq(t, `{"msg":"hello"}`, string(event.Data))
}

func TestBrokerRoutesByUser(t *testing.T) {
	broker := NewBroker()

	alice := broker.Subscribe("alice")
	defer alice.Close()
	bob := broker.Subscribe("bob")
	defer bob.Close()

	broker.Publish("alice", TypeMessage, "for alice only")

	event := <-alice.C
	assert.Equal(t, TypeMessage, event.Type)

	select {
	case event := <-bob.C:
		t.Fatalf("bob received an event addressed to alice: %+v", event)
	default:
	}
}

func TestBrokerFanOut(t *testing.T) {
	broker := NewBroker()

	first := broker.Subscribe("alice")
	defer first.Close()
	second := broker.Subscribe("alice")
	defer second.Close()

	require.Equal(t, 2, broker.SubscriberCount("alice"))

	broker.Publish("alice", TypeNotification, "fan out")

	assert.Equal(t, TypeNotification, (<-first.C).Type)
	assert.Equal(t, TypeNotification, (<-second.C).Type)
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	broker := NewBroker()

	sub := broker.Subscribe("alice")
	require.Equal(t, 1, broker.SubscriberCount("alice"))

	sub.Close()
	assert.Equal(t, 0, broker.SubscriberCount("alice"))

	// A second close must not panic on the already closed channel
	assert.NotPanics(t, sub.Close)

	// Channel is closed, reads drain immediately
	_, ok := <-sub.C
	assert.False(t, ok)
}

func TestPublishDropsWhenSubscriberIsSlow(t *testing.T) {
	broker := NewBroker()

	sub := broker.Subscribe("alice")
	defer sub.Close()

	// Fill the buffer and then some; the overflow must not block
	for i := 0; i < 50; i++ {
		broker.Publish("alice", TypeNotification, i)
	}

	received := 0
	for {
		select {
		case <-sub.C:
			received++
		default:
			assert.Greater(t, received, 0)
			assert.LessOrEqual(t, received, 50)
			return
		}
	}
}
