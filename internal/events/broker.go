package events

import (
	"encoding/json"
	"log"
	"sync"
)

// Event types fanned out to subscribers
const (
	TypeFollowRequestReceived  = "follow_request_received"
	TypeFollowRequestCancelled = "follow_request_cancelled"
	TypeFollowRequestAccepted  = "follow_request_accepted"
	TypeFollowRequestRejected  = "follow_request_rejected"
	TypeFollowerLost           = "follower_lost"
	TypeNotification           = "notification"
	TypeMessage                = "message"
)

// Event is a single real-time update addressed to one user
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Subscription is a live per-user event feed. Close releases it; calling
// Close more than once is safe, so teardown paths can be sloppy without
// leaking or panicking on a closed channel.
type Subscription struct {
	C      <-chan Event
	ch     chan Event
	uid    string
	broker *Broker
	once   sync.Once
}

// Close unregisters the subscription and closes its channel exactly once
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.unregister(s.uid, s.ch)
	})
}

// Broker fans events out to the live subscriptions of each user. It stands
// in for the document store's subscribe-to-query primitive: every write
// that should wake a watcher publishes here.
type Broker struct {
	mu      sync.RWMutex
	clients map[string]map[chan Event]bool
}

// NewBroker creates a new Broker
func NewBroker() *Broker {
	return &Broker{clients: make(map[string]map[chan Event]bool)}
}

// Subscribe registers a new feed for the given user. The returned
// Subscription must be closed when the consumer goes away.
func (b *Broker) Subscribe(uid string) *Subscription {
	ch := make(chan Event, 16)

	b.mu.Lock()
	if _, ok := b.clients[uid]; !ok {
		b.clients[uid] = make(map[chan Event]bool)
	}
	b.clients[uid][ch] = true
	b.mu.Unlock()

	return &Subscription{C: ch, ch: ch, uid: uid, broker: b}
}

func (b *Broker) unregister(uid string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if userClients, ok := b.clients[uid]; ok {
		delete(userClients, ch)
		close(ch)
		if len(userClients) == 0 {
			delete(b.clients, uid)
		}
	}
}

// Publish sends an event to every live subscription of the user. Payload
// is marshaled once; a slow subscriber drops the event rather than
// blocking the writer.
func (b *Broker) Publish(uid, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("events: failed to marshal %s payload: %v", eventType, err)
		return
	}
	event := Event{Type: eventType, Data: data}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.clients[uid] {
		select {
		case ch <- event:
		default:
			log.Printf("events: dropping %s for %s, subscriber not keeping up", eventType, uid)
		}
	}
}

// SubscriberCount returns the number of live subscriptions for a user
func (b *Broker) SubscriberCount(uid string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[uid])
}
