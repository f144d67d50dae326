package metaparser

import (
	"math/big"

	"gometwallet/contracts"
	"gometwallet/types"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Parser decodes a receipt's logs into the typed effect of one
// transaction kind. Parsers are pure: no chain access, no side effects.
type Parser func(r *types.Receipt) (*types.MetaAction, error)

// Parsers is the parser family keyed by transaction kind.
var Parsers = map[types.MetaKind]Parser{
	types.MetaKindTransfer:      ParseTransfer,
	types.MetaKindExport:        ParseExport,
	types.MetaKindImportRequest: ParseImportRequest,
}

// ParseTransfer reads a token Transfer event. A receipt that carries no
// Transfer topic means the contract declined the call even though the
// chain accepted the transaction.
func ParseTransfer(r *types.Receipt) (*types.MetaAction, error) {
	l, ok := findLog(r, contracts.METToken, "Transfer")
	if !ok {
		return &types.MetaAction{Kind: types.MetaKindTransfer, ContractCallFailed: true}, nil
	}

	values, err := contracts.DecodeEvent(contracts.METToken, "Transfer", l.Data, l.Topics)
	if err != nil {
		return nil, errors.Wrap(err, "decoding Transfer")
	}

	return &types.MetaAction{
		Kind:   types.MetaKindTransfer,
		Token:  l.Address,
		To:     values["_to"].(common.Address).Hex(),
		Amount: values["_value"].(*big.Int),
	}, nil
}

// ParseExport reads the porter's LogExportReceipt and reconstructs the
// full burn receipt the paired import will need.
func ParseExport(r *types.Receipt) (*types.MetaAction, error) {
	l, ok := findLog(r, contracts.Porter, "LogExportReceipt")
	if !ok {
		return &types.MetaAction{Kind: types.MetaKindExport, ContractCallFailed: true}, nil
	}

	values, err := contracts.DecodeEvent(contracts.Porter, "LogExportReceipt", l.Data, l.Topics)
	if err != nil {
		return nil, errors.Wrap(err, "decoding LogExportReceipt")
	}

	burn := &types.BurnReceipt{
		BurnSequence:             values["burnSequence"].(*big.Int).Uint64(),
		CurrentBurnHash:          hashHex(values["currentBurnHash"]),
		PreviousBurnHash:         hashHex(values["prevBurnHash"]),
		AmountToBurn:             values["amountToBurn"].(*big.Int),
		Fee:                      values["fee"].(*big.Int),
		DestinationChain:         bytes8Hex(values["destinationChain"]),
		DestinationMETAddr:       values["destinationMetronomeAddr"].(common.Address).Hex(),
		DestinationRecipientAddr: values["destinationRecipientAddr"].(common.Address).Hex(),
		ExtraData:                values["extraData"].([]byte),
		CurrentTick:              values["currentTick"].(*big.Int).Uint64(),
		Supply:                   values["supplyOnAllChains"].(*big.Int),
		DailyMintable:            values["dailyMintable"].(*big.Int),
		BlockTimestamp:           values["blockTimestamp"].(*big.Int).Uint64(),
		ExportTxHash:             r.Hash,
	}

	return &types.MetaAction{
		Kind:                     types.MetaKindExport,
		AmountToBurn:             burn.AmountToBurn,
		DestinationChain:         burn.DestinationChain,
		DestinationRecipientAddr: burn.DestinationRecipientAddr,
		Fee:                      burn.Fee,
		Burn:                     burn,
	}, nil
}

// ParseImportRequest reads the porter's LogImportRequest on the
// destination chain.
func ParseImportRequest(r *types.Receipt) (*types.MetaAction, error) {
	l, ok := findLog(r, contracts.Porter, "LogImportRequest")
	if !ok {
		return &types.MetaAction{Kind: types.MetaKindImportRequest, ContractCallFailed: true}, nil
	}

	values, err := contracts.DecodeEvent(contracts.Porter, "LogImportRequest", l.Data, l.Topics)
	if err != nil {
		return nil, errors.Wrap(err, "decoding LogImportRequest")
	}

	return &types.MetaAction{
		Kind:            types.MetaKindImportRequest,
		OriginChain:     bytes8Hex(values["originChain"]),
		CurrentBurnHash: hashHex(values["currentBurnHash"]),
		AmountImported:  values["amountImported"].(*big.Int),
		Fee:             values["fee"].(*big.Int),
	}, nil
}

// findLog returns the first log whose signature topic matches the named
// event. Failed receipts never match: the flag derivation below treats
// both revert and missing-event the same way.
func findLog(r *types.Receipt, a abi.ABI, eventName string) (*types.ReceiptLog, bool) {
	if r == nil || !r.Success {
		return nil, false
	}
	for i := range r.Logs {
		if len(r.Logs[i].Topics) == 0 {
			continue
		}
		if contracts.HasEventTopic(a, eventName, r.Logs[i].Topics[:1]) {
			return &r.Logs[i], true
		}
	}
	return nil, false
}

func hashHex(v interface{}) string {
	b := v.([32]byte)
	return common.BytesToHash(b[:]).Hex()
}

func bytes8Hex(v interface{}) string {
	b := v.([8]byte)
	return "0x" + common.Bytes2Hex(b[:])
}
