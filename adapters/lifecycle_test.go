package adapters

import (
	"testing"
	"time"

	"gometwallet/types"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, c <-chan Event) []Event {
	t.Helper()
	var out []Event
	for {
		select {
		case ev, ok := <-c:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-time.After(2 * time.Second):
			t.Fatal("channel never closed")
		}
	}
}

func TestHandleFullLifecycle(t *testing.T) {
	h := NewHandle()
	c := h.Subscribe()

	h.AssignHash("0xabc")
	h.Confirm(&types.Confirmation{Hash: "0xabc", Depth: 1})
	h.Confirm(&types.Confirmation{Hash: "0xabc", Depth: 2})
	h.Receipt(&types.Receipt{Hash: "0xabc", Success: true})

	events := collect(t, c)
	require.Len(t, events, 4)
	assert.Equal(t, types.StageBroadcast, events[0].Stage)
	assert.Equal(t, types.StageConfirmed, events[1].Stage)
	assert.Equal(t, 2, events[2].Confirmation.Depth)
	assert.Equal(t, types.StageReceipted, events[3].Stage)
	assert.Equal(t, "0xabc", h.Hash())
}

func TestHashImmutableOnceAssigned(t *testing.T) {
	h := NewHandle()
	h.AssignHash("0xaaa")
	h.AssignHash("0xbbb")
	assert.Equal(t, "0xaaa", h.Hash())
}

func TestExactlyOneReceipt(t *testing.T) {
	h := NewHandle()
	c := h.Subscribe()

	h.AssignHash("0xabc")
	h.Receipt(&types.Receipt{Hash: "0xabc", Success: true})
	h.Receipt(&types.Receipt{Hash: "0xabc", Success: false})
	h.Confirm(&types.Confirmation{Hash: "0xabc", Depth: 3})

	events := collect(t, c)
	receipts := 0
	for _, ev := range events {
		if ev.Stage == types.StageReceipted {
			receipts++
		}
	}
	assert.Equal(t, 1, receipts)
	assert.Equal(t, types.StageReceipted, h.Stage())
}

func TestConfirmBeforeHashIgnored(t *testing.T) {
	h := NewHandle()
	c := h.Subscribe()

	h.Confirm(&types.Confirmation{Depth: 1})
	h.AssignHash("0xabc")
	h.Receipt(&types.Receipt{Hash: "0xabc", Success: true})

	events := collect(t, c)
	require.Len(t, events, 2)
	assert.Equal(t, types.StageBroadcast, events[0].Stage)
	assert.Equal(t, types.StageReceipted, events[1].Stage)
}

func TestErrorBeforeHashIsOnlyEvent(t *testing.T) {
	h := NewHandle()
	c := h.Subscribe()

	h.Fail(errors.New("node unreachable"))

	events := collect(t, c)
	require.Len(t, events, 1)
	assert.Equal(t, types.StageFailed, events[0].Stage)
	assert.Empty(t, events[0].Hash)
	assert.Error(t, events[0].Err)
}

func TestSubscribeAfterTerminalReplaysHistory(t *testing.T) {
	h := NewHandle()
	h.AssignHash("0xabc")
	h.Receipt(&types.Receipt{Hash: "0xabc", Success: true})

	events := collect(t, h.Subscribe())
	require.Len(t, events, 2)
	assert.Equal(t, types.StageBroadcast, events[0].Stage)
	assert.Equal(t, types.StageReceipted, events[1].Stage)
}

func TestNoEventsAfterFail(t *testing.T) {
	h := NewHandle()
	c := h.Subscribe()

	h.AssignHash("0xabc")
	h.Fail(errors.New("dropped from mempool"))
	h.Receipt(&types.Receipt{Hash: "0xabc"})

	events := collect(t, c)
	require.Len(t, events, 2)
	assert.Equal(t, types.StageFailed, events[1].Stage)
}
