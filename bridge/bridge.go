package bridge

import (
	"context"
	"math/big"

	"gometwallet/adapters"
	"gometwallet/bus"
	"gometwallet/config"
	"gometwallet/contracts"
	"gometwallet/metaparser"
	"gometwallet/tracker"
	"gometwallet/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// BurnStore retains burn receipts between a successful export and its
// paired import. Implementations may lose nothing or everything; the
// proof stays reconstructible from the export receipt either way.
type BurnStore interface {
	SaveExported(walletID string, burn *types.BurnReceipt) error
	SetStatus(currentBurnHash, status, message string) error
}

// Bridge orchestrates the two halves of a cross-chain MET move: export
// (burn on the source chain) and import (mint on the destination chain).
type Bridge struct {
	SourceChain int
	DestChain   int

	source  *adapters.AccountAdapter
	dest    *adapters.AccountAdapter
	tracker *tracker.Tracker
	bus     *bus.Bus
	store   BurnStore

	// split out for tests: the destination-chain auction reads that must
	// succeed before an import is signed
	fetchAuctionContext func(ctx context.Context, chainID int) (genesisTime, dailyAuctionStartTime uint64, err error)
}

func New(source, dest *adapters.AccountAdapter, t *tracker.Tracker, b *bus.Bus, store BurnStore) *Bridge {
	return &Bridge{
		SourceChain:         source.ChainID,
		DestChain:           dest.ChainID,
		source:              source,
		dest:                dest,
		tracker:             t,
		bus:                 b,
		store:               store,
		fetchAuctionContext: FetchAuctionContext,
	}
}

type SendParams struct {
	WalletID string
	From     string
	To       string
	Value    *big.Int
	GasPrice *big.Int
	GasLimit uint64
}

type ExportParams struct {
	WalletID             string
	From                 string
	DestinationRecipient string // defaults to From
	Value                *big.Int
	Fee                  *big.Int // nil resolves through the porter's fee estimate
	ExtraData            []byte
	GasPrice             *big.Int
	GasLimit             uint64
}

type ImportParams struct {
	WalletID string
	From     string
	Burn     *types.BurnReceipt
	GasPrice *big.Int
	GasLimit uint64
}

// SendMet transfers MET on the source chain.
func (b *Bridge) SendMet(ctx context.Context, privateKey string, p *SendParams) (*adapters.Handle, error) {
	if p.Value == nil || p.Value.Sign() <= 0 {
		return nil, types.InvalidInput("value must be positive")
	}
	if !common.IsHexAddress(p.To) {
		return nil, types.InvalidInputf("recipient %q is not a valid address", p.To)
	}

	key, err := crypto.HexToECDSA(privateKey)
	if err != nil {
		return nil, types.InvalidInputf("bad private key: %v", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)

	data, err := PackTransfer(common.HexToAddress(p.To), p.Value)
	if err != nil {
		return nil, types.InvalidInputf("packing transfer: %v", err)
	}

	tokenAddr, err := contracts.Address(b.SourceChain, config.ContractMETToken)
	if err != nil {
		return nil, types.InvalidInputf("%v", err)
	}

	gasLimit := p.GasLimit
	if gasLimit == 0 {
		gasLimit, err = b.estimateGas(ctx, b.source, from, tokenAddr, nil, data)
		if err != nil {
			return nil, err
		}
	}

	h, err := b.source.Broadcast(ctx, key, tokenAddr, new(big.Int), gasLimit, p.GasPrice, data)
	if err != nil {
		return nil, err
	}

	template := &types.MetaAction{Kind: types.MetaKindTransfer, To: p.To, Amount: p.Value}
	tx := types.TxFields{From: from.Hex(), To: tokenAddr.Hex(), Value: new(big.Int), Gas: gasLimit, Input: data}
	return b.tracker.LogTransaction(h, p.WalletID, from.Hex(), tx, template), nil
}

// ExportMet burns MET on the source chain against the destination chain.
// Requested -> NonceAssigned -> Signed -> Broadcast happens inside
// Broadcast; the receipt parser yields the BurnReceipt.
func (b *Bridge) ExportMet(ctx context.Context, privateKey string, p *ExportParams) (*adapters.Handle, error) {
	if p.Value == nil || p.Value.Sign() <= 0 {
		return nil, types.InvalidInput("value must be positive")
	}

	key, err := crypto.HexToECDSA(privateKey)
	if err != nil {
		return nil, types.InvalidInputf("bad private key: %v", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)

	recipient := from
	if p.DestinationRecipient != "" {
		if !common.IsHexAddress(p.DestinationRecipient) {
			return nil, types.InvalidInputf("recipient %q is not a valid address", p.DestinationRecipient)
		}
		recipient = common.HexToAddress(p.DestinationRecipient)
	}

	fee := p.Fee
	if fee == nil {
		fee, err = b.resolveExportFee(ctx, p.Value)
		if err != nil {
			return nil, err
		}
	}

	destChainKey, err := ChainKeyBytes(config.ChainKeys[b.DestChain])
	if err != nil {
		return nil, types.InvalidInputf("destination chain key: %v", err)
	}
	destMETAddr, err := contracts.Address(b.DestChain, config.ContractMETToken)
	if err != nil {
		return nil, types.InvalidInputf("%v", err)
	}

	data, err := PackExport(destChainKey, destMETAddr, recipient, p.Value, fee, p.ExtraData)
	if err != nil {
		return nil, types.InvalidInputf("packing export: %v", err)
	}

	tokenAddr, err := contracts.Address(b.SourceChain, config.ContractMETToken)
	if err != nil {
		return nil, types.InvalidInputf("%v", err)
	}

	gasLimit := p.GasLimit
	if gasLimit == 0 {
		gasLimit, err = b.estimateGas(ctx, b.source, from, tokenAddr, nil, data)
		if err != nil {
			return nil, err
		}
	}

	h, err := b.source.Broadcast(ctx, key, tokenAddr, new(big.Int), gasLimit, p.GasPrice, data)
	if err != nil {
		return nil, err
	}

	template := &types.MetaAction{
		Kind:                     types.MetaKindExport,
		AmountToBurn:             p.Value,
		DestinationChain:         config.ChainKeys[b.DestChain],
		DestinationRecipientAddr: recipient.Hex(),
		Fee:                      fee,
	}
	tx := types.TxFields{From: from.Hex(), To: tokenAddr.Hex(), Value: new(big.Int), Gas: gasLimit, Input: data}

	go b.retainBurn(h, p.WalletID)
	return b.tracker.LogTransaction(h, p.WalletID, from.Hex(), tx, template), nil
}

// retainBurn saves the parsed burn receipt so the caller can resubmit the
// import after a crash. Retention failures are reported, never fatal.
func (b *Bridge) retainBurn(h *adapters.Handle, walletID string) {
	for ev := range h.Subscribe() {
		if ev.Stage != types.StageReceipted {
			continue
		}
		meta, err := metaparser.ParseExport(ev.Receipt)
		if err != nil || meta.Burn == nil {
			return
		}
		meta.Burn.OriginChain = config.ChainKeys[b.SourceChain]
		if b.store == nil {
			return
		}
		if err := b.store.SaveExported(walletID, meta.Burn); err != nil {
			log.Error().Err(err).Str("burnHash", meta.Burn.CurrentBurnHash).Msg("cannot retain burn receipt")
			b.bus.Publish(bus.EventWalletError, &types.WalletError{
				WalletID: walletID,
				Kind:     "Error",
				Message:  "burn receipt not retained: " + err.Error(),
			})
		}
		return
	}
}

// ImportMet mints on the destination chain against a burn receipt. The
// destination auction context is read first; if that read fails nothing
// is ever signed. Proof assembly is deterministic, so a retried import
// resubmits byte-identical parameters.
func (b *Bridge) ImportMet(ctx context.Context, privateKey string, p *ImportParams) (*adapters.Handle, error) {
	if p.Burn == nil {
		return nil, types.InvalidInput("burn receipt required")
	}
	if p.Burn.AmountToBurn == nil || p.Burn.AmountToBurn.Sign() <= 0 {
		return nil, types.InvalidInput("burn receipt has no amount")
	}

	key, err := crypto.HexToECDSA(privateKey)
	if err != nil {
		return nil, types.InvalidInputf("bad private key: %v", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)

	// read-before-write: auction tick validity depends on these two reads
	genesisTime, dailyAuctionStartTime, err := b.fetchAuctionContext(ctx, b.DestChain)
	if err != nil {
		return nil, types.ContextUnavailable(err, "destination auction state")
	}

	burn := importBurn(p.Burn, b.SourceChain)
	proof := AssembleImportProof(burn, genesisTime, dailyAuctionStartTime)

	data, err := PackImport(proof)
	if err != nil {
		return nil, types.InvalidInputf("packing import: %v", err)
	}

	porterAddr, err := contracts.Address(b.DestChain, config.ContractPorter)
	if err != nil {
		return nil, types.InvalidInputf("%v", err)
	}

	gasLimit := p.GasLimit
	if gasLimit == 0 {
		gasLimit, err = b.estimateGas(ctx, b.dest, from, porterAddr, nil, data)
		if err != nil {
			return nil, err
		}
	}

	h, err := b.dest.Broadcast(ctx, key, porterAddr, new(big.Int), gasLimit, p.GasPrice, data)
	if err != nil {
		if b.store != nil {
			b.store.SetStatus(burn.CurrentBurnHash, "importfail", err.Error())
		}
		return nil, err
	}
	if b.store != nil {
		b.store.SetStatus(burn.CurrentBurnHash, "importing", "")
	}

	template := &types.MetaAction{
		Kind:            types.MetaKindImportRequest,
		OriginChain:     burn.OriginChain,
		CurrentBurnHash: burn.CurrentBurnHash,
		AmountImported:  burn.AmountToBurn,
	}
	tx := types.TxFields{From: from.Hex(), To: porterAddr.Hex(), Value: new(big.Int), Gas: gasLimit, Input: data}

	go b.watchImport(h, p.WalletID, burn.CurrentBurnHash)
	return b.tracker.LogTransaction(h, p.WalletID, from.Hex(), tx, template), nil
}

// importBurn copies the receipt and fills a missing origin chain; callers
// keep their receipt for retries, it is never written in place.
func importBurn(burn *types.BurnReceipt, sourceChain int) *types.BurnReceipt {
	cp := *burn
	if cp.OriginChain == "" {
		cp.OriginChain = config.ChainKeys[sourceChain]
	}
	return &cp
}

func (b *Bridge) watchImport(h *adapters.Handle, walletID, burnHash string) {
	if b.store == nil {
		return
	}
	for ev := range h.Subscribe() {
		switch ev.Stage {
		case types.StageReceipted:
			meta, err := metaparser.ParseImportRequest(ev.Receipt)
			if err == nil && !meta.ContractCallFailed {
				b.store.SetStatus(burnHash, "imported", "")
			} else {
				b.store.SetStatus(burnHash, "importfail", "import receipt carries no import event")
			}
			return
		case types.StageFailed:
			b.store.SetStatus(burnHash, "importfail", ev.Err.Error())
			return
		}
	}
}

// EstimateExportGas estimates without signing; it packs through the same
// builder as ExportMet, so parameter order cannot diverge.
func (b *Bridge) EstimateExportGas(ctx context.Context, from string, p *ExportParams) (uint64, error) {
	fee := p.Fee
	if fee == nil {
		var err error
		fee, err = b.resolveExportFee(ctx, p.Value)
		if err != nil {
			return 0, err
		}
	}

	destChainKey, err := ChainKeyBytes(config.ChainKeys[b.DestChain])
	if err != nil {
		return 0, types.InvalidInputf("destination chain key: %v", err)
	}
	destMETAddr, err := contracts.Address(b.DestChain, config.ContractMETToken)
	if err != nil {
		return 0, types.InvalidInputf("%v", err)
	}
	recipient := common.HexToAddress(p.DestinationRecipient)
	if p.DestinationRecipient == "" {
		recipient = common.HexToAddress(from)
	}

	data, err := PackExport(destChainKey, destMETAddr, recipient, p.Value, fee, p.ExtraData)
	if err != nil {
		return 0, types.InvalidInputf("packing export: %v", err)
	}
	tokenAddr, err := contracts.Address(b.SourceChain, config.ContractMETToken)
	if err != nil {
		return 0, types.InvalidInputf("%v", err)
	}
	return b.estimateGas(ctx, b.source, common.HexToAddress(from), tokenAddr, nil, data)
}

// EstimateImportGas mirrors ImportMet's construction, context fetch
// included, without producing a signature.
func (b *Bridge) EstimateImportGas(ctx context.Context, from string, burn *types.BurnReceipt) (uint64, error) {
	if burn == nil {
		return 0, types.InvalidInput("burn receipt required")
	}
	genesisTime, dailyAuctionStartTime, err := b.fetchAuctionContext(ctx, b.DestChain)
	if err != nil {
		return 0, types.ContextUnavailable(err, "destination auction state")
	}
	data, err := PackImport(AssembleImportProof(importBurn(burn, b.SourceChain), genesisTime, dailyAuctionStartTime))
	if err != nil {
		return 0, types.InvalidInputf("packing import: %v", err)
	}
	porterAddr, err := contracts.Address(b.DestChain, config.ContractPorter)
	if err != nil {
		return 0, types.InvalidInputf("%v", err)
	}
	return b.estimateGas(ctx, b.dest, common.HexToAddress(from), porterAddr, nil, data)
}

func (b *Bridge) resolveExportFee(ctx context.Context, value *big.Int) (*big.Int, error) {
	var out []interface{}
	err := contracts.Call(ctx, b.SourceChain, config.ContractPorter, contracts.Porter, &out, "exportFee", value)
	if err != nil {
		return nil, types.TransportFailure(err, "resolving export fee")
	}
	fee, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.New("unexpected exportFee result")
	}
	return fee, nil
}

// FetchAuctionContext reads the two destination-chain auction fields an
// import depends on, concurrently.
func FetchAuctionContext(ctx context.Context, chainID int) (uint64, uint64, error) {
	var genesisTime, dailyAuctionStartTime uint64

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := readAuctionUint(ctx, chainID, "genesisTime")
		genesisTime = v
		return err
	})
	g.Go(func() error {
		v, err := readAuctionUint(ctx, chainID, "dailyAuctionStartTime")
		dailyAuctionStartTime = v
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	return genesisTime, dailyAuctionStartTime, nil
}

func readAuctionUint(ctx context.Context, chainID int, method string) (uint64, error) {
	var out []interface{}
	if err := contracts.Call(ctx, chainID, config.ContractAuctions, contracts.Auctions, &out, method); err != nil {
		return 0, errors.Wrap(err, method)
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return 0, errors.Errorf("unexpected %s result", method)
	}
	return v.Uint64(), nil
}

func (b *Bridge) estimateGas(ctx context.Context, a *adapters.AccountAdapter, from, to common.Address, value *big.Int, data []byte) (uint64, error) {
	gas, err := estimateCallGas(ctx, a, from, to, value, data)
	if err != nil {
		return 0, types.TransportFailure(err, "estimating gas")
	}
	return gas, nil
}
