// Package bus implements the in-process topic registry that fans out
// live readings to subscriber sessions. Transports stay outside: the
// bus only knows topics, memberships and per-subscriber mailboxes.
package bus

import (
	"sync"

	"github.com/google/uuid"
)

// TopicAllReadings receives every reading regardless of animal.
const TopicAllReadings = "readings.all"

// AnimalTopic returns the per-animal topic key for a tag.
func AnimalTopic(rfidTag string) string {
	return "readings." + rfidTag
}

// Message is one fan-out payload: a type discriminator plus data,
// matching the wire envelopes the stream layer sends.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Subscription is one subscriber's handle: an identity, a buffered
// mailbox and the set of topics it currently belongs to. The mailbox is
// owned exclusively by the bus until Unregister closes it.
type Subscription struct {
	id     string
	ch     chan Message
	topics map[string]struct{}
	closed bool
}

// ID returns the subscription identity.
func (s *Subscription) ID() string {
	return s.id
}

// C returns the mailbox channel. It is closed by Unregister.
func (s *Subscription) C() <-chan Message {
	return s.ch
}

// Bus is a topic-keyed fan-out registry. All membership mutation and
// publishing is serialized under one mutex; publish never blocks on a
// member because mailbox sends are non-blocking. The single mutex also
// gives per-topic FIFO delivery into every mailbox for free.
type Bus struct {
	mu     sync.Mutex
	topics map[string]map[*Subscription]struct{}
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{topics: make(map[string]map[*Subscription]struct{})}
}

// Register creates a subscription with a mailbox of the given capacity.
// The subscription belongs to no topic until Join is called.
func (b *Bus) Register(buffer int) *Subscription {
	return &Subscription{
		id:     uuid.NewString(),
		ch:     make(chan Message, buffer),
		topics: make(map[string]struct{}),
	}
}

// Join adds the subscription to a topic. Joining twice is a no-op, and
// joining after Unregister is ignored. Topics are created lazily.
func (b *Bus) Join(topic string, s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.closed {
		return
	}
	members, ok := b.topics[topic]
	if !ok {
		members = make(map[*Subscription]struct{})
		b.topics[topic] = members
	}
	members[s] = struct{}{}
	s.topics[topic] = struct{}{}
}

// Leave removes the subscription from a topic. A no-op when the
// subscription is not a member or the topic does not exist. Empty
// topics are deleted so membership tables do not grow with churn.
func (b *Bus) Leave(topic string, s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.leaveLocked(topic, s)
}

func (b *Bus) leaveLocked(topic string, s *Subscription) {
	members, ok := b.topics[topic]
	if !ok {
		return
	}
	delete(members, s)
	delete(s.topics, topic)
	if len(members) == 0 {
		delete(b.topics, topic)
	}
}

// Unregister removes the subscription from every topic it joined and
// closes its mailbox. Safe to call more than once; membership is gone
// by the time it returns, so no publish after that point can reach the
// mailbox.
func (b *Bus) Unregister(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.closed {
		return
	}
	for topic := range s.topics {
		b.leaveLocked(topic, s)
	}
	s.closed = true
	close(s.ch)
}

// Publish delivers msg to every current member of the topic. A member
// whose mailbox is full simply misses the message; it never delays the
// publisher or the other members.
func (b *Bus) Publish(topic string, msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for s := range b.topics[topic] {
		select {
		case s.ch <- msg:
		default:
			// Mailbox full: drop for this subscriber.
		}
	}
}

// MemberCount returns the current number of members in a topic.
func (b *Bus) MemberCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topic])
}
