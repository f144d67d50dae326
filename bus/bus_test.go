package bus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitEvent(t *testing.T, c <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-c:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestPublishRoutesByName(t *testing.T) {
	b := New()
	defer b.Close()

	blocks := b.Subscribe(EventCoinBlock)
	prices := b.Subscribe(EventCoinPriceUpdated)

	b.Publish(EventCoinBlock, "block-1")

	ev := waitEvent(t, blocks.C)
	assert.Equal(t, EventCoinBlock, ev.Name)
	assert.Equal(t, "block-1", ev.Payload)

	select {
	case ev := <-prices.C:
		t.Fatalf("price listener got %v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestListenerOrderPreserved(t *testing.T) {
	b := New()
	defer b.Close()

	sub := b.Subscribe(EventCoinBlock)
	for i := 0; i < 10; i++ {
		b.Publish(EventCoinBlock, i)
	}

	for i := 0; i < 10; i++ {
		ev := waitEvent(t, sub.C)
		require.Equal(t, i, ev.Payload)
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	b := New()
	defer b.Close()

	// a listener that never drains must not stall the publisher
	b.Subscribe(EventCoinBlock)

	done := make(chan struct{})
	go func() {
		for i := 0; i < listenerBuffer+publishBuffer+50; i++ {
			b.Publish(EventCoinBlock, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a stuck listener")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	defer b.Close()

	sub := b.Subscribe(EventWalletStateChanged)
	b.Unsubscribe(sub)

	_, ok := <-sub.C
	assert.False(t, ok)

	// publishing after unsubscribe must not panic
	b.Publish(EventWalletStateChanged, nil)
}

func TestUnsubscribeDuringPublishBurst(t *testing.T) {
	b := New()
	defer b.Close()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				b.Publish(EventCoinBlock, 1)
			}
		}
	}()

	// churn listeners while the publisher runs flat out; a delivery racing
	// a close would panic the dispatch goroutine
	for i := 0; i < 200; i++ {
		subs := make([]*Subscription, 16)
		for j := range subs {
			subs[j] = b.Subscribe(EventCoinBlock)
		}
		for _, sub := range subs {
			b.Unsubscribe(sub)
		}
	}

	close(stop)
	wg.Wait()
}

func TestCloseIsIdempotent(t *testing.T) {
	b := New()
	sub := b.Subscribe(EventError)

	b.Close()
	b.Close()

	_, ok := <-sub.C
	assert.False(t, ok)
	b.Publish(EventError, nil) // dropped silently
}
