package transport

import (
	"context"
	"sync"
)

// Published records one call to InMemory.Publish, for tests that assert on
// what the API sent to the bus (spec properties P5, S2, S4).
type Published struct {
	Exchange   Exchange
	RoutingKey string
	Payload    []byte
}

// InMemory is a transport.Client that records publishes in memory instead
// of dispatching them to a real bus. It is the test double used throughout
// internal/api's handler tests and doubles as a degenerate standalone mode.
type InMemory struct {
	mu         sync.Mutex
	published  []Published
	stats      map[Queue]Stats
	down       bool
	publishErr error
}

// NewInMemory constructs an InMemory transport with zeroed queue stats.
func NewInMemory() *InMemory {
	return &InMemory{
		stats: map[Queue]Stats{
			QueueKeepalives: {},
			QueueResults:    {},
		},
	}
}

// SetStats seeds the stats reported for a queue.
func (t *InMemory) SetStats(q Queue, s Stats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats[q] = s
}

// SetDown flips the Connected predicate.
func (t *InMemory) SetDown(down bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.down = down
}

// SetPublishErr makes subsequent Publish calls fail, for exercising the
// "publish failures are logged, not surfaced" policy of spec §4.6.
func (t *InMemory) SetPublishErr(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.publishErr = err
}

// Published returns a snapshot of everything published so far.
func (t *InMemory) Published() []Published {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Published, len(t.published))
	copy(out, t.published)
	return out
}

func (t *InMemory) Publish(_ context.Context, exchange Exchange, routingKey string, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.publishErr != nil {
		return t.publishErr
	}
	t.published = append(t.published, Published{Exchange: exchange, RoutingKey: routingKey, Payload: payload})
	return nil
}

func (t *InMemory) Stats(_ context.Context, q Queue) (Stats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats[q], nil
}

func (t *InMemory) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.down
}

func (t *InMemory) Close() error { return nil }
