package workers

import (
	"testing"
	"time"

	"gometwallet/bus"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestHeadFailuresRaiseOneBusError(t *testing.T) {
	b := bus.New()
	defer b.Close()

	errs := b.Subscribe(bus.EventError)

	fails := 0
	for i := 0; i < headFailureLimit+5; i++ {
		fails = trackHeadFailures(b, "ETH", fails, errors.New("connection refused"))
	}

	select {
	case ev := <-errs.C:
		err, ok := ev.Payload.(error)
		assert.True(t, ok)
		assert.Contains(t, err.Error(), "ETH head unreachable")
	case <-time.After(2 * time.Second):
		t.Fatal("no error event published at the failure limit")
	}

	// crossing the limit fires once, not on every subsequent failure
	select {
	case ev := <-errs.C:
		t.Fatalf("unexpected second error event %v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHeadFailuresBelowLimitStaySilent(t *testing.T) {
	b := bus.New()
	defer b.Close()

	errs := b.Subscribe(bus.EventError)

	fails := 0
	for i := 0; i < headFailureLimit-1; i++ {
		fails = trackHeadFailures(b, "ETC", fails, errors.New("timeout"))
	}
	assert.Equal(t, headFailureLimit-1, fails)

	select {
	case ev := <-errs.C:
		t.Fatalf("unexpected error event %v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}
