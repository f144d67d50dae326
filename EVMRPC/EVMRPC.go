package EVMRPC

import (
	"context"
	"fmt"
	"math/big"

	"gometwallet/config"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"
)

// WithClient runs f against the first responsive RPC endpoint configured
// for the chain, falling through the list on connection or call errors and
// re-walking the whole list up to EVM_RETRIES times.
func WithClient[T any](chainID int, f func(client *ethclient.Client) (T, error)) (T, error) {
	return withRetries(config.EVM_RETRIES, config.EVMChains[chainID].RPCList, func(url string) (res T, err error) {
		client, err := ethclient.Dial(url)
		if err != nil {
			log.Warn().Msg(fmt.Sprintf("Error connecting to %s: %s", url, err.Error()))
			return res, err
		}
		defer client.Close()
		return f(client)
	})
}

// withRetries makes up to attempts full passes over the endpoint list,
// returning the first success or the last error seen.
func withRetries[T any](attempts int, urls []string, call func(url string) (T, error)) (res T, err error) {
	for i := 0; i < attempts; i++ {
		for _, url := range urls {
			res, err = call(url)
			if err == nil {
				return
			}
		}
	}
	return
}

// Client is a chain-bound convenience wrapper over WithClient.
type Client struct {
	ChainID int
}

func NewClient(chainID int) *Client {
	return &Client{ChainID: chainID}
}

func (c *Client) PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	return WithClient(c.ChainID, func(client *ethclient.Client) (uint64, error) {
		return client.PendingNonceAt(ctx, addr)
	})
}

func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return WithClient(c.ChainID, func(client *ethclient.Client) (*big.Int, error) {
		return client.SuggestGasPrice(ctx)
	})
}

func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return WithClient(c.ChainID, func(client *ethclient.Client) (uint64, error) {
		return client.EstimateGas(ctx, msg)
	})
}

func (c *Client) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	_, err := WithClient(c.ChainID, func(client *ethclient.Client) (struct{}, error) {
		return struct{}{}, client.SendTransaction(ctx, tx)
	})
	return err
}

func (c *Client) TransactionReceipt(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	return WithClient(c.ChainID, func(client *ethclient.Client) (*ethtypes.Receipt, error) {
		return client.TransactionReceipt(ctx, hash)
	})
}

func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*ethtypes.Header, error) {
	return WithClient(c.ChainID, func(client *ethclient.Client) (*ethtypes.Header, error) {
		return client.HeaderByNumber(ctx, number)
	})
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return WithClient(c.ChainID, func(client *ethclient.Client) (uint64, error) {
		return client.BlockNumber(ctx)
	})
}

func (c *Client) BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error) {
	return WithClient(c.ChainID, func(client *ethclient.Client) (*big.Int, error) {
		return client.BalanceAt(ctx, addr, nil)
	})
}

func (c *Client) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error) {
	return WithClient(c.ChainID, func(client *ethclient.Client) ([]ethtypes.Log, error) {
		return client.FilterLogs(ctx, q)
	})
}

func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	return WithClient(c.ChainID, func(client *ethclient.Client) ([]byte, error) {
		return client.CallContract(ctx, msg, nil)
	})
}
