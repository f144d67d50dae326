package adapters

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"math/big"
	"time"

	"gometwallet/EVMRPC"
	"gometwallet/config"
	"gometwallet/types"

	ethav "github.com/KOREAN139/ethereum-address-validator"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog/log"
	bip39 "github.com/tyler-smith/go-bip39"
)

const coinTransferGas = 21000

// after this many receipt polls without an answer the handle fails with
// a transport error; resubmission stays a caller decision
const maxReceiptPolls = 720

// AccountAdapter drives an EVM-style chain: balances, chain-assigned
// nonces, gas-priced transactions.
type AccountAdapter struct {
	ChainID       int
	client        *EVMRPC.Client
	confirmations int
	receiptPoll   time.Duration
}

func NewAccountAdapter(chainID int) *AccountAdapter {
	chain := config.EVMChains[chainID]
	poll := time.Duration(chain.ReceiptPoll) * time.Second
	if poll == 0 {
		poll = 5 * time.Second
	}
	return &AccountAdapter{
		ChainID:       chainID,
		client:        EVMRPC.NewClient(chainID),
		confirmations: chain.MinConfirmations,
		receiptPoll:   poll,
	}
}

func (a *AccountAdapter) ChainName() string {
	return config.EVMChains[a.ChainID].Name
}

func (a *AccountAdapter) Client() *EVMRPC.Client {
	return a.client
}

func (a *AccountAdapter) CreatePrivateKey(seed string) (string, error) {
	key, err := a.deriveKey(seed)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(crypto.FromECDSA(key)), nil
}

func (a *AccountAdapter) CreateAddress(seed string) (string, error) {
	key, err := a.deriveKey(seed)
	if err != nil {
		return "", err
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}

func (a *AccountAdapter) deriveKey(seed string) (*ecdsa.PrivateKey, error) {
	if !bip39.IsMnemonicValid(seed) {
		return nil, types.InvalidInput("seed is not a valid mnemonic")
	}
	material := bip39.NewSeed(seed, "")
	key, err := crypto.ToECDSA(crypto.Keccak256(material))
	if err != nil {
		return nil, types.InvalidInputf("seed yields no usable key: %v", err)
	}
	return key, nil
}

// SendCoin signs and broadcasts a plain value transfer.
func (a *AccountAdapter) SendCoin(ctx context.Context, privateKey string, req *types.TransferRequest) (*Handle, error) {
	if req.Value == nil || req.Value.Sign() <= 0 {
		return nil, types.InvalidInput("value must be positive")
	}
	if err := ethav.Validate(common.HexToAddress(req.To).Hex()); err != nil {
		return nil, types.InvalidInputf("recipient %q is not a valid address", req.To)
	}

	key, err := crypto.HexToECDSA(privateKey)
	if err != nil {
		return nil, types.InvalidInputf("bad private key: %v", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)
	if req.From != "" && common.HexToAddress(req.From) != from {
		return nil, types.InvalidInput("from address does not match private key")
	}

	gasLimit := req.GasLimit
	if gasLimit == 0 {
		gasLimit = coinTransferGas
	}
	return a.Broadcast(ctx, key, common.HexToAddress(req.To), req.Value, gasLimit, req.GasPrice, req.ExtraData)
}

// Broadcast resolves nonce and gas price, signs and submits. The nonce is
// fetched immediately before signing; two concurrent sends from the same
// address can still race the same nonce, serializing per sender is the
// caller's job.
func (a *AccountAdapter) Broadcast(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, value *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) (*Handle, error) {
	from := crypto.PubkeyToAddress(key.PublicKey)

	if gasPrice == nil {
		suggested, err := a.client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, types.TransportFailure(err, "fetching gas price")
		}
		gasPrice = suggested
	}

	nonce, err := a.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, types.TransportFailure(err, "fetching nonce")
	}

	tx := ethtypes.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signed, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(big.NewInt(int64(a.ChainID))), key)
	if err != nil {
		return nil, types.InvalidInputf("signing: %v", err)
	}

	if err := a.client.SendTransaction(ctx, signed); err != nil {
		return nil, types.ChainRejected(err, "broadcast rejected")
	}

	h := NewHandle()
	h.AssignHash(signed.Hash().Hex())
	go a.waitReceipt(h, signed.Hash())
	return h, nil
}

func (a *AccountAdapter) waitReceipt(h *Handle, hash common.Hash) {
	for i := 0; i < maxReceiptPolls; i++ {
		time.Sleep(a.receiptPoll)

		receipt, err := a.client.TransactionReceipt(context.Background(), hash)
		if err != nil {
			// not found yet or transient transport trouble, keep polling
			continue
		}

		h.Confirm(&types.Confirmation{
			Hash:        hash.Hex(),
			BlockNumber: receipt.BlockNumber.Uint64(),
			Depth:       1,
		})
		h.Receipt(ConvertReceipt(receipt))
		return
	}
	log.Warn().Str("hash", hash.Hex()).Msg("gave up waiting for receipt")
	h.Fail(types.TransportFailure(nil, "receipt never arrived"))
}

// ConvertReceipt normalizes a chain receipt into the tracker's shape.
func ConvertReceipt(r *ethtypes.Receipt) *types.Receipt {
	logs := make([]types.ReceiptLog, 0, len(r.Logs))
	for _, l := range r.Logs {
		topics := make([]string, 0, len(l.Topics))
		for _, t := range l.Topics {
			topics = append(topics, t.Hex())
		}
		logs = append(logs, types.ReceiptLog{
			Address: l.Address.Hex(),
			Topics:  topics,
			Data:    l.Data,
		})
	}
	return &types.Receipt{
		Hash:        r.TxHash.Hex(),
		BlockNumber: r.BlockNumber.Uint64(),
		BlockHash:   r.BlockHash.Hex(),
		GasUsed:     r.GasUsed,
		Success:     r.Status == ethtypes.ReceiptStatusSuccessful,
		Logs:        logs,
	}
}
