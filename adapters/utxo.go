package adapters

import (
	"bytes"
	"context"
	"encoding/hex"
	"sort"
	"time"

	"gometwallet/UTXORPC"
	"gometwallet/config"
	"gometwallet/types"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
	bip39 "github.com/tyler-smith/go-bip39"
)

// Fee sizing constants. The default rate is the network's minimum relay
// fee of 90400 satoshi spread over a 225-vbyte reference transaction
// (one input, two outputs), rounded up: 402 sat/vB.
const (
	minRelayFee      = 90400
	referenceTxVSize = 225
	DefaultFeeRate   = (minRelayFee + referenceTxVSize - 1) / referenceTxVSize

	dustLimit = 546

	// conservative P2PKH sizing
	inputVSize    = 148
	outputVSize   = 34
	overheadVSize = 10
)

// UTXOAdapter drives a Bitcoin-style chain: discrete unspent outputs,
// fee-rate-driven sizing, no nonces.
type UTXOAdapter struct {
	params       *chaincfg.Params
	feeRate      int64
	confTarget   int
	pollInterval time.Duration
}

func NewUTXOAdapter() *UTXOAdapter {
	return &UTXOAdapter{
		params:       &chaincfg.MainNetParams,
		feeRate:      config.Config.UTXO.FeeRate,
		confTarget:   config.Config.UTXO.Confirmations,
		pollInterval: 30 * time.Second,
	}
}

func (a *UTXOAdapter) ChainName() string {
	return "UTXO"
}

func (a *UTXOAdapter) CreatePrivateKey(seed string) (string, error) {
	key, err := a.deriveKey(seed)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key.Serialize()), nil
}

func (a *UTXOAdapter) CreateAddress(seed string) (string, error) {
	key, err := a.deriveKey(seed)
	if err != nil {
		return "", err
	}
	return a.addressFor(key)
}

func (a *UTXOAdapter) deriveKey(seed string) (*btcec.PrivateKey, error) {
	if !bip39.IsMnemonicValid(seed) {
		return nil, types.InvalidInput("seed is not a valid mnemonic")
	}
	material := bip39.NewSeed(seed, "")
	key, _ := btcec.PrivKeyFromBytes(material[:32])
	return key, nil
}

func (a *UTXOAdapter) addressFor(key *btcec.PrivateKey) (string, error) {
	pkHash := btcutil.Hash160(key.PubKey().SerializeCompressed())
	addr, err := btcutil.NewAddressPubKeyHash(pkHash, a.params)
	if err != nil {
		return "", types.InvalidInputf("deriving address: %v", err)
	}
	return addr.EncodeAddress(), nil
}

// EstimateVSize sizes a P2PKH transaction for fee purposes.
func EstimateVSize(inputs, outputs int) int64 {
	return int64(inputs*inputVSize + outputs*outputVSize + overheadVSize)
}

// SelectInputs picks unspent outputs largest-first until they cover value
// plus the fee at the given rate, recomputing the fee as inputs are added.
// Returns the selection and the final fee.
func SelectInputs(unspent []UTXORPC.Unspent, value, feeRate int64) ([]UTXORPC.Unspent, int64, error) {
	sorted := make([]UTXORPC.Unspent, len(unspent))
	copy(sorted, unspent)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Amount > sorted[j].Amount })

	var picked []UTXORPC.Unspent
	var total int64
	for _, u := range sorted {
		amt, err := btcutil.NewAmount(u.Amount)
		if err != nil {
			return nil, 0, errors.Wrap(err, "bad unspent amount")
		}
		picked = append(picked, u)
		total += int64(amt)

		fee := feeRate * EstimateVSize(len(picked), 2)
		if total >= value+fee {
			return picked, fee, nil
		}
	}
	return nil, 0, types.ChainRejected(nil, "insufficient funds")
}

// resolveFeeRate picks the first usable rate: the caller's, the configured
// one, the node's smart-fee estimate, then the built-in default.
func (a *UTXOAdapter) resolveFeeRate(requested int64) int64 {
	if requested > 0 {
		return requested
	}
	if a.feeRate > 0 {
		return a.feeRate
	}
	target := a.confTarget
	if target <= 0 {
		target = 6
	}
	if est, err := UTXORPC.GetClient().EstimateSmartFee(target); err == nil && est > 0 {
		return est
	}
	return DefaultFeeRate
}

// SendCoin builds, signs and broadcasts a P2PKH spend. FeeRate zero falls
// back through resolveFeeRate.
func (a *UTXOAdapter) SendCoin(ctx context.Context, privateKey string, req *types.TransferRequest) (*Handle, error) {
	if req.Value == nil || req.Value.Sign() <= 0 {
		return nil, types.InvalidInput("value must be positive")
	}
	if !req.Value.IsInt64() {
		return nil, types.InvalidInput("value out of range")
	}
	value := req.Value.Int64()

	destAddr, err := btcutil.DecodeAddress(req.To, a.params)
	if err != nil {
		return nil, types.InvalidInputf("recipient %q is not a valid address", req.To)
	}
	// second opinion from the node; skipped when the node cannot answer
	if valid, err := UTXORPC.GetClient().ValidateAddress(req.To); err == nil && !valid {
		return nil, types.InvalidInputf("node rejects recipient %q", req.To)
	}

	keyBytes, err := hex.DecodeString(privateKey)
	if err != nil || len(keyBytes) != 32 {
		return nil, types.InvalidInput("bad private key")
	}
	key, _ := btcec.PrivKeyFromBytes(keyBytes)

	fromStr, err := a.addressFor(key)
	if err != nil {
		return nil, err
	}
	if req.From != "" && req.From != fromStr {
		return nil, types.InvalidInput("from address does not match private key")
	}
	fromAddr, err := btcutil.DecodeAddress(fromStr, a.params)
	if err != nil {
		return nil, types.InvalidInputf("deriving change address: %v", err)
	}

	feeRate := a.resolveFeeRate(req.FeeRate)

	unspent, err := UTXORPC.GetClient().ListUnspent(fromStr, 1)
	if err != nil {
		return nil, types.TransportFailure(err, "listing unspent outputs")
	}

	picked, fee, err := SelectInputs(unspent, value, feeRate)
	if err != nil {
		return nil, err
	}

	raw, err := a.buildSignedTx(key, picked, destAddr, fromAddr, value, fee)
	if err != nil {
		return nil, err
	}

	txid, err := UTXORPC.GetClient().SendRawTransaction(raw)
	if err != nil {
		return nil, types.ChainRejected(err, "broadcast rejected")
	}

	h := NewHandle()
	h.AssignHash(txid)
	go a.watchConfirmations(h, txid)
	return h, nil
}

func (a *UTXOAdapter) buildSignedTx(key *btcec.PrivateKey, inputs []UTXORPC.Unspent, dest, change btcutil.Address, value, fee int64) (string, error) {
	tx := wire.NewMsgTx(wire.TxVersion)

	var total int64
	for _, u := range inputs {
		prevHash, err := chainhash.NewHashFromStr(u.TxID)
		if err != nil {
			return "", types.InvalidInputf("bad unspent txid: %v", err)
		}
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(prevHash, u.Vout), nil, nil))
		amt, _ := btcutil.NewAmount(u.Amount)
		total += int64(amt)
	}

	destScript, err := txscript.PayToAddrScript(dest)
	if err != nil {
		return "", types.InvalidInputf("destination script: %v", err)
	}
	tx.AddTxOut(wire.NewTxOut(value, destScript))

	if changeVal := total - value - fee; changeVal > dustLimit {
		changeScript, err := txscript.PayToAddrScript(change)
		if err != nil {
			return "", types.InvalidInputf("change script: %v", err)
		}
		tx.AddTxOut(wire.NewTxOut(changeVal, changeScript))
	}

	for i, u := range inputs {
		prevScript, err := hex.DecodeString(u.ScriptPubKey)
		if err != nil {
			return "", types.InvalidInputf("bad unspent script: %v", err)
		}
		sig, err := txscript.SignatureScript(tx, i, prevScript, txscript.SigHashAll, key, true)
		if err != nil {
			return "", types.InvalidInputf("signing input %d: %v", i, err)
		}
		tx.TxIn[i].SignatureScript = sig
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", types.InvalidInputf("serializing: %v", err)
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

func (a *UTXOAdapter) watchConfirmations(h *Handle, txid string) {
	seen := int64(0)
	for i := 0; i < maxReceiptPolls; i++ {
		time.Sleep(a.pollInterval)

		raw, err := UTXORPC.GetClient().GetRawTransaction(txid)
		if err != nil {
			continue
		}
		if raw.Confirmations <= seen {
			continue
		}
		seen = raw.Confirmations

		h.Confirm(&types.Confirmation{Hash: txid, Depth: int(seen)})
		if seen >= int64(a.confTarget) {
			// no logs on this chain model, inclusion is success
			h.Receipt(&types.Receipt{
				Hash:      txid,
				BlockHash: raw.BlockHash,
				Success:   true,
			})
			return
		}
	}
	h.Fail(types.TransportFailure(nil, "confirmation never reached target"))
}
