package contracts

import (
	"context"
	"strings"

	"gometwallet/EVMRPC"
	"gometwallet/config"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
)

const metTokenJSON = `[
{"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"},
{"constant":false,"inputs":[{"name":"_destChain","type":"bytes8"},{"name":"_destMetronomeAddr","type":"address"},{"name":"_destRecipAddr","type":"address"},{"name":"_amount","type":"uint256"},{"name":"_fee","type":"uint256"},{"name":"_extraData","type":"bytes"}],"name":"export","outputs":[{"name":"","type":"bool"}],"type":"function"},
{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
{"anonymous":false,"inputs":[{"indexed":true,"name":"_from","type":"address"},{"indexed":true,"name":"_to","type":"address"},{"indexed":false,"name":"_value","type":"uint256"}],"name":"Transfer","type":"event"}
]`

const porterJSON = `[
{"constant":false,"inputs":[{"name":"_originChain","type":"bytes8"},{"name":"_destinationChain","type":"bytes8"},{"name":"_addresses","type":"address[]"},{"name":"_extraData","type":"bytes"},{"name":"_burnHashes","type":"bytes32[]"},{"name":"_supplyOnAllChains","type":"uint256"},{"name":"_importData","type":"uint256[]"},{"name":"_proof","type":"bytes32"}],"name":"importMET","outputs":[{"name":"","type":"bool"}],"type":"function"},
{"constant":true,"inputs":[{"name":"_value","type":"uint256"}],"name":"exportFee","outputs":[{"name":"","type":"uint256"}],"type":"function"},
{"anonymous":false,"inputs":[{"indexed":false,"name":"destinationChain","type":"bytes8"},{"indexed":false,"name":"destinationMetronomeAddr","type":"address"},{"indexed":false,"name":"destinationRecipientAddr","type":"address"},{"indexed":false,"name":"amountToBurn","type":"uint256"},{"indexed":false,"name":"fee","type":"uint256"},{"indexed":false,"name":"extraData","type":"bytes"},{"indexed":false,"name":"currentTick","type":"uint256"},{"indexed":false,"name":"burnSequence","type":"uint256"},{"indexed":false,"name":"currentBurnHash","type":"bytes32"},{"indexed":false,"name":"prevBurnHash","type":"bytes32"},{"indexed":false,"name":"dailyMintable","type":"uint256"},{"indexed":false,"name":"supplyOnAllChains","type":"uint256"},{"indexed":false,"name":"blockTimestamp","type":"uint256"}],"name":"LogExportReceipt","type":"event"},
{"anonymous":false,"inputs":[{"indexed":false,"name":"originChain","type":"bytes8"},{"indexed":false,"name":"currentBurnHash","type":"bytes32"},{"indexed":false,"name":"destinationRecipientAddr","type":"address"},{"indexed":false,"name":"amountImported","type":"uint256"},{"indexed":false,"name":"fee","type":"uint256"}],"name":"LogImportRequest","type":"event"}
]`

const auctionsJSON = `[
{"constant":true,"inputs":[],"name":"genesisTime","outputs":[{"name":"","type":"uint256"}],"type":"function"},
{"constant":true,"inputs":[],"name":"dailyAuctionStartTime","outputs":[{"name":"","type":"uint256"}],"type":"function"},
{"constant":true,"inputs":[],"name":"currentTick","outputs":[{"name":"","type":"uint256"}],"type":"function"},
{"constant":true,"inputs":[],"name":"mintable","outputs":[{"name":"","type":"uint256"}],"type":"function"},
{"constant":true,"inputs":[],"name":"currentPrice","outputs":[{"name":"","type":"uint256"}],"type":"function"}
]`

const converterJSON = `[
{"constant":true,"inputs":[{"name":"_depositAmount","type":"uint256"}],"name":"getMetForEthResult","outputs":[{"name":"","type":"uint256"}],"type":"function"},
{"constant":false,"inputs":[{"name":"_mintReturn","type":"uint256"}],"name":"convertEthToMet","outputs":[{"name":"","type":"uint256"}],"payable":true,"type":"function"}
]`

var (
	METToken  = mustABI(metTokenJSON)
	Porter    = mustABI(porterJSON)
	Auctions  = mustABI(auctionsJSON)
	Converter = mustABI(converterJSON)
)

func mustABI(raw string) abi.ABI {
	a, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return a
}

// Address resolves a contract name to its deployed address on a chain.
func Address(chainID int, name string) (common.Address, error) {
	chain, ok := config.EVMChains[chainID]
	if !ok {
		return common.Address{}, errors.Errorf("unknown chain id %d", chainID)
	}
	addr, ok := chain.Contracts[name]
	if !ok {
		return common.Address{}, errors.Errorf("no contract %q on chain %s", name, chain.Name)
	}
	return common.HexToAddress(addr), nil
}

// Call performs a read-only contract call against a named contract,
// unpacking results into out.
func Call(ctx context.Context, chainID int, contract string, a abi.ABI, out *[]interface{}, method string, args ...interface{}) error {
	addr, err := Address(chainID, contract)
	if err != nil {
		return err
	}

	_, err = EVMRPC.WithClient(chainID, func(client *ethclient.Client) (struct{}, error) {
		bound := bind.NewBoundContract(addr, a, client, client, client)
		return struct{}{}, bound.Call(&bind.CallOpts{Context: ctx}, out, method, args...)
	})
	return err
}

// PastEventsQuery selects a block window and optional post-decode filter
// for GetPastEvents. Filter values are compared against decoded fields by
// their string form.
type PastEventsQuery struct {
	FromBlock int64
	ToBlock   int64
	Filter    map[string]string
}

// PastEvent is one decoded historical log.
type PastEvent struct {
	TxHash      string
	BlockNumber uint64
	Values      map[string]interface{}
}

// GetPastEvents fetches and decodes historical occurrences of one event
// from any contract given its ABI JSON.
func GetPastEvents(ctx context.Context, chainID int, abiJSON, contractAddress, eventName string, q PastEventsQuery) ([]PastEvent, error) {
	a, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, errors.Wrap(err, "parsing abi")
	}
	ev, ok := a.Events[eventName]
	if !ok {
		return nil, errors.Errorf("event %q not in abi", eventName)
	}

	query := buildFilterQuery(contractAddress, ev.ID, q)
	logs, err := EVMRPC.NewClient(chainID).FilterLogs(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "filtering logs")
	}

	events := make([]PastEvent, 0, len(logs))
	for _, l := range logs {
		values, err := DecodeEvent(a, eventName, l.Data, hashesToHex(l.Topics))
		if err != nil {
			return nil, err
		}
		if !matchesFilter(values, q.Filter) {
			continue
		}
		events = append(events, PastEvent{
			TxHash:      l.TxHash.Hex(),
			BlockNumber: l.BlockNumber,
			Values:      values,
		})
	}
	return events, nil
}
