package core

import (
	"context"
	"math/big"

	"gometwallet/adapters"
	"gometwallet/bridge"
	"gometwallet/bus"
	"gometwallet/config"
	"gometwallet/contracts"
	"gometwallet/tracker"
	"gometwallet/types"

	"github.com/ethereum/go-ethereum/common"
)

// Core is the operation surface a wallet application talks to. One Core
// owns one event bus, one tracker and one bridge pair; everything the
// application observes flows out through the bus.
type Core struct {
	Bus       *bus.Bus
	Tracker   *tracker.Tracker
	Bridge    *bridge.Bridge
	Estimator *bridge.AuctionEstimator

	account *adapters.AccountAdapter
	utxo    *adapters.UTXOAdapter
}

func New(store bridge.BurnStore) *Core {
	b := bus.New()

	source := adapters.NewAccountAdapter(config.Config.Bridge.SourceChain)
	dest := adapters.NewAccountAdapter(config.Config.Bridge.DestChain)

	t := tracker.New(b, func(address string) (*big.Int, error) {
		return source.Client().BalanceAt(context.Background(), common.HexToAddress(address))
	})

	return &Core{
		Bus:       b,
		Tracker:   t,
		Bridge:    bridge.New(source, dest, t, b, store),
		Estimator: bridge.NewAuctionEstimator(source),
		account:   source,
		utxo:      adapters.NewUTXOAdapter(),
	}
}

// Start begins consuming open-wallets and coin-block events. Blocks
// until the bus closes, callers run it on its own goroutine.
func (c *Core) Start() {
	c.Tracker.Run()
}

func (c *Core) adapter(chain types.ChainType) adapters.ChainAdapter {
	if chain == types.CHAINKEY_UTXO {
		return c.utxo
	}
	return c.account
}

func (c *Core) CreateAddress(chain types.ChainType, seed string) (string, error) {
	return c.adapter(chain).CreateAddress(seed)
}

func (c *Core) CreatePrivateKey(chain types.ChainType, seed string) (string, error) {
	return c.adapter(chain).CreatePrivateKey(seed)
}

// SendCoin moves the chain's native value and tracks the result under
// the wallet's address.
func (c *Core) SendCoin(ctx context.Context, chain types.ChainType, privateKey, walletID string, req *types.TransferRequest) (*adapters.Handle, error) {
	h, err := c.adapter(chain).SendCoin(ctx, privateKey, req)
	if err != nil {
		return nil, err
	}
	tx := types.TxFields{From: req.From, To: req.To, Value: req.Value}
	return c.Tracker.LogTransaction(h, walletID, req.From, tx, nil), nil
}

func (c *Core) SendMet(ctx context.Context, privateKey string, p *bridge.SendParams) (*adapters.Handle, error) {
	return c.Bridge.SendMet(ctx, privateKey, p)
}

func (c *Core) ExportMet(ctx context.Context, privateKey string, p *bridge.ExportParams) (*adapters.Handle, error) {
	return c.Bridge.ExportMet(ctx, privateKey, p)
}

func (c *Core) ImportMet(ctx context.Context, privateKey string, p *bridge.ImportParams) (*adapters.Handle, error) {
	return c.Bridge.ImportMet(ctx, privateKey, p)
}

func (c *Core) BuyMetronome(ctx context.Context, privateKey string, p *bridge.SendParams) (*adapters.Handle, error) {
	return c.Bridge.BuyMetronome(ctx, privateKey, p)
}

func (c *Core) GetConvertCoinEstimate(ctx context.Context, value *big.Int) (*big.Int, error) {
	return c.Estimator.GetConvertCoinEstimate(ctx, value)
}

func (c *Core) GetConvertCoinGasLimit(ctx context.Context, from string, value *big.Int) (uint64, error) {
	return c.Estimator.GetConvertCoinGasLimit(ctx, from, value)
}

func (c *Core) GetAuctionGasLimit(ctx context.Context, from string, value *big.Int) (uint64, error) {
	return c.Estimator.GetAuctionGasLimit(ctx, from, value)
}

// GetContractAddress resolves a contract name on the source chain.
func (c *Core) GetContractAddress(name string) (string, error) {
	addr, err := contracts.Address(c.account.ChainID, name)
	if err != nil {
		return "", err
	}
	return addr.Hex(), nil
}

func (c *Core) GetPastEvents(ctx context.Context, abiJSON, contractAddress, eventName string, q contracts.PastEventsQuery) ([]contracts.PastEvent, error) {
	return contracts.GetPastEvents(ctx, c.account.ChainID, abiJSON, contractAddress, eventName, q)
}
