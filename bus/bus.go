package bus

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Event names consumed and produced by the core. These strings are the
// stable contract with embedding applications.
const (
	EventOpenWallets          = "open-wallets"
	EventWalletStateChanged   = "wallet-state-changed"
	EventWalletError          = "wallet-error"
	EventError                = "error"
	EventCoinBlock            = "coin-block"
	EventCoinPriceUpdated     = "coin-price-updated"
	EventAuctionStatusUpdated = "auction-status-updated"
)

const (
	publishBuffer  = 256
	listenerBuffer = 64
)

type Event struct {
	Name    string
	Payload interface{}
}

// Subscription is one listener's private ordered stream for a single
// event name. C is closed when the bus shuts down or the listener
// unsubscribes.
type Subscription struct {
	ID   string
	Name string
	C    <-chan Event

	ch chan Event
}

// Bus is the single event channel of one core instance. All events pass
// through one dispatch goroutine, so each listener observes a consistent
// order; dispatch never blocks the publisher, a listener that falls
// behind its buffer loses events.
type Bus struct {
	mu     sync.Mutex
	subs   map[string]map[string]*Subscription // event name -> sub id -> sub
	in     chan Event
	done   chan struct{}
	closed bool
}

func New() *Bus {
	b := &Bus{
		subs: make(map[string]map[string]*Subscription),
		in:   make(chan Event, publishBuffer),
		done: make(chan struct{}),
	}
	go b.dispatch()
	return b
}

func (b *Bus) dispatch() {
	for {
		select {
		case ev := <-b.in:
			// sends happen under b.mu so an Unsubscribe or Close cannot
			// close a channel mid-delivery; the sends are non-blocking, so
			// the lock is never held for long
			b.mu.Lock()
			for _, sub := range b.subs[ev.Name] {
				select {
				case sub.ch <- ev:
				default:
					// fire and forget: a stuck listener must not stall the bus
					log.Warn().Str("event", ev.Name).Str("listener", sub.ID).Msg("listener buffer full, event dropped")
				}
			}
			b.mu.Unlock()
		case <-b.done:
			return
		}
	}
}

func (b *Bus) Subscribe(name string) *Subscription {
	sub := &Subscription{
		ID:   uuid.New().String(),
		Name: name,
		ch:   make(chan Event, listenerBuffer),
	}
	sub.C = sub.ch

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[name] == nil {
		b.subs[name] = make(map[string]*Subscription)
	}
	b.subs[name][sub.ID] = sub
	return sub
}

func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m := b.subs[sub.Name]; m != nil {
		if _, ok := m[sub.ID]; ok {
			delete(m, sub.ID)
			close(sub.ch)
		}
	}
}

// Publish never blocks. If the bus's intake buffer is full the event is
// dropped and logged; callers that need delivery guarantees do not exist
// in this design.
func (b *Bus) Publish(name string, payload interface{}) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return
	}

	select {
	case b.in <- Event{Name: name, Payload: payload}:
	default:
		log.Warn().Str("event", name).Msg("bus intake full, event dropped")
	}
}

func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.done)
	for _, m := range b.subs {
		for id, sub := range m {
			delete(m, id)
			close(sub.ch)
		}
	}
	b.mu.Unlock()
}
