package bridge

import (
	"context"
	"math/big"

	"gometwallet/adapters"
	"gometwallet/config"
	"gometwallet/contracts"
	"gometwallet/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// AuctionEstimator answers read-only questions about the converter and
// the daily auction. No retries here, transport policy is the RPC
// layer's business; failures propagate unchanged.
type AuctionEstimator struct {
	ChainID int
	adapter *adapters.AccountAdapter
}

func NewAuctionEstimator(a *adapters.AccountAdapter) *AuctionEstimator {
	return &AuctionEstimator{ChainID: a.ChainID, adapter: a}
}

// GetConvertCoinEstimate asks the converter how much MET a coin deposit
// would currently yield.
func (e *AuctionEstimator) GetConvertCoinEstimate(ctx context.Context, value *big.Int) (*big.Int, error) {
	if value == nil || value.Sign() <= 0 {
		return nil, types.InvalidInput("value must be positive")
	}
	var out []interface{}
	err := contracts.Call(ctx, e.ChainID, config.ContractConverter, contracts.Converter, &out, "getMetForEthResult", value)
	if err != nil {
		return nil, types.TransportFailure(err, "converter estimate")
	}
	result, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.New("unexpected getMetForEthResult result")
	}
	return result, nil
}

// GetConvertCoinGasLimit estimates gas for a conversion. The estimate
// call carries the same calldata shape the signed conversion would.
func (e *AuctionEstimator) GetConvertCoinGasLimit(ctx context.Context, from string, value *big.Int) (uint64, error) {
	data, err := contracts.Converter.Pack("convertEthToMet", big.NewInt(1))
	if err != nil {
		return 0, types.InvalidInputf("packing conversion: %v", err)
	}
	addr, err := contracts.Address(e.ChainID, config.ContractConverter)
	if err != nil {
		return 0, types.InvalidInputf("%v", err)
	}
	gas, err := estimateCallGas(ctx, e.adapter, common.HexToAddress(from), addr, value, data)
	if err != nil {
		return 0, types.TransportFailure(err, "estimating conversion gas")
	}
	return gas, nil
}

// GetAuctionGasLimit estimates gas for an auction purchase, which is a
// plain value send to the auctions contract.
func (e *AuctionEstimator) GetAuctionGasLimit(ctx context.Context, from string, value *big.Int) (uint64, error) {
	addr, err := contracts.Address(e.ChainID, config.ContractAuctions)
	if err != nil {
		return 0, types.InvalidInputf("%v", err)
	}
	gas, err := estimateCallGas(ctx, e.adapter, common.HexToAddress(from), addr, value, nil)
	if err != nil {
		return 0, types.TransportFailure(err, "estimating auction gas")
	}
	return gas, nil
}

// AuctionStatus reads the auction fields the status poller publishes.
func (e *AuctionEstimator) AuctionStatus(ctx context.Context) (*types.AuctionStatusUpdated, error) {
	status := &types.AuctionStatusUpdated{}

	reads := []struct {
		method string
		apply  func(*big.Int)
	}{
		{"mintable", func(v *big.Int) { status.TokenRemaining = v }},
		{"currentPrice", func(v *big.Int) { status.CurrentPrice = v }},
		{"genesisTime", func(v *big.Int) { status.GenesisTime = v.Uint64() }},
		{"dailyAuctionStartTime", func(v *big.Int) { status.DailyAuctionStartTime = v.Uint64() }},
		{"currentTick", func(v *big.Int) { status.CurrentTick = v.Uint64() }},
	}
	for _, r := range reads {
		var out []interface{}
		if err := contracts.Call(ctx, e.ChainID, config.ContractAuctions, contracts.Auctions, &out, r.method); err != nil {
			return nil, types.TransportFailure(err, r.method)
		}
		v, ok := out[0].(*big.Int)
		if !ok {
			return nil, errors.Errorf("unexpected %s result", r.method)
		}
		r.apply(v)
	}
	return status, nil
}

// BuyMetronome sends coin to the auctions contract; the minted MET comes
// back through the token's Transfer event on the receipt.
func (b *Bridge) BuyMetronome(ctx context.Context, privateKey string, p *SendParams) (*adapters.Handle, error) {
	if p.Value == nil || p.Value.Sign() <= 0 {
		return nil, types.InvalidInput("value must be positive")
	}

	key, err := crypto.HexToECDSA(privateKey)
	if err != nil {
		return nil, types.InvalidInputf("bad private key: %v", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)

	auctionsAddr, err := contracts.Address(b.SourceChain, config.ContractAuctions)
	if err != nil {
		return nil, types.InvalidInputf("%v", err)
	}

	gasLimit := p.GasLimit
	if gasLimit == 0 {
		gasLimit, err = b.estimateGas(ctx, b.source, from, auctionsAddr, p.Value, nil)
		if err != nil {
			return nil, err
		}
	}

	h, err := b.source.Broadcast(ctx, key, auctionsAddr, p.Value, gasLimit, p.GasPrice, nil)
	if err != nil {
		return nil, err
	}

	template := &types.MetaAction{Kind: types.MetaKindTransfer, Amount: p.Value}
	tx := types.TxFields{From: from.Hex(), To: auctionsAddr.Hex(), Value: p.Value, Gas: gasLimit}
	return b.tracker.LogTransaction(h, p.WalletID, from.Hex(), tx, template), nil
}
