package UTXORPC

import (
	"encoding/base64"
	"fmt"

	"gometwallet/config"

	"github.com/pkg/errors"
	"github.com/ybbus/jsonrpc"
)

// thin node client, one JSON-RPC call per method
type RPCClient struct {
	Client jsonrpc.RPCClient
}

var client *RPCClient

func GetClient() *RPCClient {
	if client == nil {
		endpoint := fmt.Sprintf("http://%s:%d", config.Config.UTXO.Host, config.Config.UTXO.Port)
		auth := base64.StdEncoding.EncodeToString(
			[]byte(fmt.Sprintf("%s:%s", config.Config.UTXO.RPCUser, config.Config.UTXO.RPCPassword)))

		client = &RPCClient{
			Client: jsonrpc.NewClientWithOpts(endpoint, &jsonrpc.RPCClientOpts{
				CustomHeaders: map[string]string{
					"Authorization": "Basic " + auth,
				},
			}),
		}
	}
	return client
}

// Unspent is one spendable output as listunspent reports it.
type Unspent struct {
	TxID          string  `json:"txid"`
	Vout          uint32  `json:"vout"`
	Address       string  `json:"address"`
	ScriptPubKey  string  `json:"scriptPubKey"`
	Amount        float64 `json:"amount"`
	Confirmations int64   `json:"confirmations"`
	Spendable     bool    `json:"spendable"`
}

type RawTransaction struct {
	TxID          string `json:"txid"`
	Hex           string `json:"hex"`
	BlockHash     string `json:"blockhash"`
	Confirmations int64  `json:"confirmations"`
	Time          int64  `json:"time"`
}

type smartFeeResult struct {
	FeeRate float64  `json:"feerate"`
	Errors  []string `json:"errors"`
	Blocks  int      `json:"blocks"`
}

type validateAddressResult struct {
	IsValid bool   `json:"isvalid"`
	Address string `json:"address"`
}

func (c *RPCClient) call(out interface{}, method string, params ...interface{}) error {
	resp, err := c.Client.Call(method, params...)
	if err != nil {
		return errors.Wrapf(err, "rpc %s", method)
	}
	if resp.Error != nil {
		return errors.Errorf("rpc %s: %d %s", method, resp.Error.Code, resp.Error.Message)
	}
	if out == nil {
		return nil
	}
	return errors.Wrapf(resp.GetObject(out), "rpc %s decode", method)
}

func (c *RPCClient) GetBlockCount() (uint64, error) {
	var n uint64
	err := c.call(&n, "getblockcount")
	return n, err
}

func (c *RPCClient) GetBestBlockHash() (string, error) {
	var h string
	err := c.call(&h, "getbestblockhash")
	return h, err
}

func (c *RPCClient) ListUnspent(address string, minConf int) ([]Unspent, error) {
	var outs []Unspent
	err := c.call(&outs, "listunspent", minConf, 9999999, []string{address})
	return outs, err
}

func (c *RPCClient) SendRawTransaction(txHex string) (string, error) {
	var txid string
	err := c.call(&txid, "sendrawtransaction", txHex)
	return txid, err
}

// EstimateSmartFee returns a fee rate in satoshi per vbyte, converted from
// the node's coin-per-kilobyte answer. A zero return means the node had no
// estimate and the caller should fall back to its default.
func (c *RPCClient) EstimateSmartFee(confTarget int) (int64, error) {
	var res smartFeeResult
	if err := c.call(&res, "estimatesmartfee", confTarget); err != nil {
		return 0, err
	}
	if res.FeeRate <= 0 {
		return 0, nil
	}
	return int64(res.FeeRate * 1e8 / 1000), nil
}

func (c *RPCClient) GetRawTransaction(txid string) (*RawTransaction, error) {
	var raw RawTransaction
	if err := c.call(&raw, "getrawtransaction", txid, true); err != nil {
		return nil, err
	}
	return &raw, nil
}

func (c *RPCClient) ValidateAddress(address string) (bool, error) {
	var res validateAddressResult
	if err := c.call(&res, "validateaddress", address); err != nil {
		return false, err
	}
	return res.IsValid, nil
}
