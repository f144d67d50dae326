package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

func buildFilterQuery(contractAddress string, topic0 common.Hash, q PastEventsQuery) ethereum.FilterQuery {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{common.HexToAddress(contractAddress)},
		Topics:    [][]common.Hash{{topic0}},
	}
	if q.FromBlock > 0 {
		query.FromBlock = big.NewInt(q.FromBlock)
	}
	if q.ToBlock > 0 {
		query.ToBlock = big.NewInt(q.ToBlock)
	}
	return query
}

// DecodeEvent unpacks one log into named values, handling indexed and
// non-indexed arguments. topics are 0x-prefixed hex with the signature
// hash at position 0.
func DecodeEvent(a abi.ABI, eventName string, data []byte, topics []string) (map[string]interface{}, error) {
	ev, ok := a.Events[eventName]
	if !ok {
		return nil, errors.Errorf("event %q not in abi", eventName)
	}

	values := make(map[string]interface{})
	if err := a.UnpackIntoMap(values, eventName, data); err != nil {
		return nil, errors.Wrapf(err, "unpacking %s data", eventName)
	}

	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(indexed) > 0 {
		if len(topics) < len(indexed)+1 {
			return nil, errors.Errorf("event %s: %d topics for %d indexed args", eventName, len(topics), len(indexed))
		}
		hashes := make([]common.Hash, 0, len(topics)-1)
		for _, t := range topics[1:] {
			hashes = append(hashes, common.HexToHash(t))
		}
		if err := abi.ParseTopicsIntoMap(values, indexed, hashes); err != nil {
			return nil, errors.Wrapf(err, "unpacking %s topics", eventName)
		}
	}
	return values, nil
}

// HasEventTopic reports whether any of the given topic0 values matches
// the event's signature hash.
func HasEventTopic(a abi.ABI, eventName string, topic0s []string) bool {
	ev, ok := a.Events[eventName]
	if !ok {
		return false
	}
	for _, t := range topic0s {
		if common.HexToHash(t) == ev.ID {
			return true
		}
	}
	return false
}

func hashesToHex(topics []common.Hash) []string {
	out := make([]string, len(topics))
	for i, t := range topics {
		out[i] = t.Hex()
	}
	return out
}

func matchesFilter(values map[string]interface{}, filter map[string]string) bool {
	for k, want := range filter {
		got, ok := values[k]
		if !ok {
			return false
		}
		if fmt.Sprint(got) != want {
			return false
		}
	}
	return true
}
