// Package eventbus fans command-lifecycle notifications out to observers
// that sit outside the ordered result/log publish path: the dashboard and
// any future audit sink. Nothing in the dispatch pipeline's correctness
// depends on this package; a Bus with no subscribers is a no-op.
package eventbus

import "sync"

// Type enumerates the lifecycle moments the pipeline announces.
type Type string

const (
	CommandReceived  Type = "command_received"
	CommandSucceeded Type = "command_succeeded"
	CommandFailed    Type = "command_failed"
	CommandVanished  Type = "command_vanished"
	WorldUpdated     Type = "world_updated"
	HeartbeatSent    Type = "heartbeat_sent"
)

// Event is the payload handlers receive. Not every field is populated for
// every Type; Code and Msg are meaningful only for CommandSucceeded and
// CommandFailed.
type Event struct {
	Type     Type
	TaskID   string
	TaskType string
	Code     int
	Msg      string
}

// Handler is an event subscriber's signature.
type Handler func(e Event)

// Bus is a simple in-memory fan-out: every handler subscribed to a Type
// runs in its own goroutine so a slow or blocking handler (a stalled
// websocket write, say) never holds up the publisher.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{handlers: make(map[Type][]Handler)}
}

// Subscribe registers handler for every future Publish of eventType.
func (b *Bus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish runs every handler subscribed to e.Type, asynchronously.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, handler := range b.handlers[e.Type] {
		go handler(e)
	}
}
