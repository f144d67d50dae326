package types

import (
	stderrors "errors"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorKindsMatchWithIs(t *testing.T) {
	assert.True(t, stderrors.Is(InvalidInput("bad seed"), ErrInvalidInput))
	assert.True(t, stderrors.Is(InvalidInputf("bad value %d", 0), ErrInvalidInput))
	assert.True(t, stderrors.Is(TransportFailure(nil, "node down"), ErrTransportFailure))
	assert.True(t, stderrors.Is(ChainRejected(errors.New("nonce too low"), "rejected"), ErrChainRejected))
	assert.True(t, stderrors.Is(ContextUnavailable(nil, "auction state"), ErrContextUnavailable))
}

func TestKindsAreDisjoint(t *testing.T) {
	err := TransportFailure(nil, "node down")
	assert.False(t, stderrors.Is(err, ErrInvalidInput))
	assert.False(t, stderrors.Is(err, ErrChainRejected))
	assert.False(t, stderrors.Is(err, ErrContextUnavailable))
}

func TestKindNames(t *testing.T) {
	assert.Equal(t, "InvalidInput", Kind(InvalidInput("x")))
	assert.Equal(t, "TransportFailure", Kind(TransportFailure(nil, "x")))
	assert.Equal(t, "ChainRejected", Kind(ChainRejected(nil, "x")))
	assert.Equal(t, "ContextUnavailable", Kind(ContextUnavailable(nil, "x")))
	assert.Equal(t, "Error", Kind(errors.New("something else")))
}

func TestMessagesSurviveWrapping(t *testing.T) {
	err := TransportFailure(errors.New("connection refused"), "fetching nonce")
	assert.Contains(t, err.Error(), "fetching nonce")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "broadcast", StageBroadcast.String())
	assert.Equal(t, "confirmed", StageConfirmed.String())
	assert.Equal(t, "receipted", StageReceipted.String())
	assert.Equal(t, "failed", StageFailed.String())
}
