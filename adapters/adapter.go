package adapters

import (
	"context"

	"gometwallet/types"
)

// ChainAdapter is the capability set every supported chain model offers.
// Implementations differ in how value moves underneath (account balances
// and nonces vs unspent outputs) but expose one contract.
type ChainAdapter interface {
	ChainName() string
	// CreateAddress derives the chain's address for a seed phrase.
	CreateAddress(seed string) (string, error)
	// CreatePrivateKey derives the signing key for a seed phrase.
	CreatePrivateKey(seed string) (string, error)
	// SendCoin signs and broadcasts a value transfer. A returned Handle has
	// its hash assigned; synchronous rejection returns an error and no handle.
	SendCoin(ctx context.Context, privateKey string, req *types.TransferRequest) (*Handle, error)
}
