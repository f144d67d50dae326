package adapters

import (
	"sync"

	"gometwallet/types"

	"github.com/rs/zerolog/log"
)

// Event is one normalized lifecycle notification from a Handle.
// Exactly one of Confirmation, Receipt, Err is set past the hash stage.
type Event struct {
	Stage        types.Stage
	Hash         string
	Confirmation *types.Confirmation
	Receipt      *types.Receipt
	Err          error
}

const subscriberBuffer = 32

// Handle is the in-flight lifecycle of one broadcast transaction,
// normalized to hash -> confirmation* -> receipt, or a terminal error.
// The hash is immutable once assigned and the stage only moves forward.
// Subscribers attached after events fired receive the full history first.
type Handle struct {
	mu       sync.Mutex
	hash     string
	stage    types.Stage
	terminal bool
	receipts int
	history  []Event
	subs     []chan Event
}

func NewHandle() *Handle {
	return &Handle{stage: types.StageBroadcast}
}

func (h *Handle) Hash() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hash
}

func (h *Handle) Stage() types.Stage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stage
}

// Subscribe returns a private ordered stream of this handle's events,
// replaying anything already delivered. The channel closes at terminal.
func (h *Handle) Subscribe() <-chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	for _, ev := range h.history {
		ch <- ev
	}
	if h.terminal {
		close(ch)
		return ch
	}
	h.subs = append(h.subs, ch)
	return ch
}

// AssignHash records the broadcast-accepted hash. Calls after the hash is
// set are ignored.
func (h *Handle) AssignHash(hash string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hash != "" || h.terminal {
		return
	}
	h.hash = hash
	h.deliver(Event{Stage: types.StageBroadcast, Hash: hash}, false)
}

// Confirm reports inclusion depth. Advisory, may fire multiple times,
// ignored before the hash is known or after terminal.
func (h *Handle) Confirm(c *types.Confirmation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hash == "" || h.terminal {
		return
	}
	if h.stage < types.StageConfirmed {
		h.stage = types.StageConfirmed
	}
	h.deliver(Event{Stage: types.StageConfirmed, Hash: h.hash, Confirmation: c}, false)
}

// Receipt delivers the final mined record. At most one receipt ever goes
// out per handle; later receipts and confirmations are ignored.
func (h *Handle) Receipt(r *types.Receipt) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.terminal || h.receipts > 0 {
		return
	}
	h.receipts++
	h.stage = types.StageReceipted
	h.deliver(Event{Stage: types.StageReceipted, Hash: h.hash, Receipt: r}, true)
}

// Fail moves the handle to its terminal error state. When no hash was
// ever assigned this is the only event subscribers see.
func (h *Handle) Fail(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.terminal {
		return
	}
	h.stage = types.StageFailed
	h.deliver(Event{Stage: types.StageFailed, Hash: h.hash, Err: err}, true)
}

// deliver runs with h.mu held.
func (h *Handle) deliver(ev Event, terminal bool) {
	h.history = append(h.history, ev)
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			log.Warn().Str("hash", h.hash).Str("stage", ev.Stage.String()).Msg("handle subscriber stalled, event dropped")
		}
	}
	if terminal {
		h.terminal = true
		for _, ch := range h.subs {
			close(ch)
		}
		h.subs = nil
	}
}
