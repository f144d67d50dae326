package types

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Payloads carried on the core event bus. Event names live in the bus
// package; these are their typed bodies.

// OpenWallets activates tracking for a set of wallets. Keyed by wallet id,
// each entry lists the addresses the tracker should follow.
type OpenWallets struct {
	ActiveWallet string
	Wallets      map[string][]string
}

// WalletStateChanged carries the full per-address snapshot for one wallet.
type WalletStateChanged struct {
	WalletID  string
	Addresses map[string]*WalletAddressState
}

// WalletError reports a recoverable per-operation failure discovered after
// the operation already appeared to succeed.
type WalletError struct {
	WalletID string
	Kind     string
	Message  string
}

type CoinBlock struct {
	ChainID   int
	Hash      string
	Number    uint64
	Timestamp uint64
}

type CoinPriceUpdated struct {
	Token    string
	Currency string
	Price    decimal.Decimal
}

type AuctionStatusUpdated struct {
	TokenRemaining        *big.Int
	CurrentPrice          *big.Int
	GenesisTime           uint64
	DailyAuctionStartTime uint64
	CurrentTick           uint64
}
