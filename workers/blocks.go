package workers

import (
	"context"
	"time"

	"gometwallet/EVMRPC"
	"gometwallet/UTXORPC"
	"gometwallet/bus"
	"gometwallet/config"
	"gometwallet/types"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// after this many consecutive head-fetch failures the chain is considered
// unreachable and a fatal error event goes out on the bus
const headFailureLimit = 10

// trackHeadFailures counts consecutive failures and raises the bus error
// exactly once, when the limit is crossed. Callers reset the counter to
// zero on the next success.
func trackHeadFailures(b *bus.Bus, chain string, fails int, err error) int {
	fails++
	if fails == headFailureLimit {
		b.Publish(bus.EventError, errors.Wrapf(err, "%s head unreachable", chain))
	}
	return fails
}

// Worker_watchBlocks polls one chain's head and publishes coin-block for
// every new header. The tracker refreshes balances off these events.
func Worker_watchBlocks(chainID int, b *bus.Bus) {
	client := EVMRPC.NewClient(chainID)
	name := config.EVMChains[chainID].Name
	interval := time.Duration(config.Config.Poll.Blocks) * time.Second

	var lastSeen uint64
	fails := 0
	for !WorkerShutdown {
		time.Sleep(interval)

		header, err := client.HeaderByNumber(context.Background(), nil)
		if err != nil {
			log.Warn().Err(err).Str("chain", name).Msg("cannot fetch chain head")
			fails = trackHeadFailures(b, name, fails, err)
			continue
		}
		fails = 0

		number := header.Number.Uint64()
		if number <= lastSeen {
			continue
		}
		lastSeen = number

		b.Publish(bus.EventCoinBlock, &types.CoinBlock{
			ChainID:   chainID,
			Hash:      header.Hash().Hex(),
			Number:    number,
			Timestamp: header.Time,
		})
	}
}

// Worker_watchUTXOBlocks does the same for the UTXO chain off the node's
// tip height.
func Worker_watchUTXOBlocks(b *bus.Bus) {
	interval := time.Duration(config.Config.Poll.Blocks) * time.Second

	var lastSeen uint64
	fails := 0
	for !WorkerShutdown {
		time.Sleep(interval)

		count, err := UTXORPC.GetClient().GetBlockCount()
		if err != nil {
			log.Warn().Err(err).Msg("cannot fetch UTXO chain tip")
			fails = trackHeadFailures(b, "UTXO", fails, err)
			continue
		}
		fails = 0

		if count <= lastSeen {
			continue
		}
		hash, err := UTXORPC.GetClient().GetBestBlockHash()
		if err != nil {
			continue
		}
		lastSeen = count

		b.Publish(bus.EventCoinBlock, &types.CoinBlock{
			ChainID: 0,
			Hash:    hash,
			Number:  count,
		})
	}
}
