package types

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// Error kinds. Every public operation fails with exactly one of these at
// the root of its chain; match with errors.Is.
var (
	// malformed address, value or seed, rejected before any network call
	ErrInvalidInput = stderrors.New("invalid input")
	// node or RPC unreachable or rejected at the transport level, not retried here
	ErrTransportFailure = stderrors.New("transport failure")
	// signed transaction reverted or rejected pre-inclusion, terminal
	ErrChainRejected = stderrors.New("chain rejected")
	// destination-chain read required for import failed, aborted before signing
	ErrContextUnavailable = stderrors.New("context unavailable")
)

func InvalidInput(msg string) error {
	return errors.Wrap(ErrInvalidInput, msg)
}

func InvalidInputf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidInput, format, args...)
}

func TransportFailure(err error, msg string) error {
	if err == nil {
		return errors.Wrap(ErrTransportFailure, msg)
	}
	return errors.Wrapf(ErrTransportFailure, "%s: %v", msg, err)
}

func ChainRejected(err error, msg string) error {
	if err == nil {
		return errors.Wrap(ErrChainRejected, msg)
	}
	return errors.Wrapf(ErrChainRejected, "%s: %v", msg, err)
}

func ContextUnavailable(err error, msg string) error {
	if err == nil {
		return errors.Wrap(ErrContextUnavailable, msg)
	}
	return errors.Wrapf(ErrContextUnavailable, "%s: %v", msg, err)
}

// Kind names the taxonomy bucket for wallet-error payloads.
func Kind(err error) string {
	switch {
	case stderrors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case stderrors.Is(err, ErrTransportFailure):
		return "TransportFailure"
	case stderrors.Is(err, ErrChainRejected):
		return "ChainRejected"
	case stderrors.Is(err, ErrContextUnavailable):
		return "ContextUnavailable"
	}
	return "Error"
}
