package types

import (
	"math/big"
)

// it is assumed the UTXO mainnet is id 0,
// EVM chains use their network ids (ETH 1, ETC 61, etc.)

type ChainType int

const CHAINKEY_UTXO ChainType = 0
const CHAINKEY_ACCOUNT ChainType = 1

// Stage is the normalized lifecycle position of one broadcast transaction.
// A handle only ever moves forward through these values.
type Stage int

const (
	StageBroadcast Stage = iota
	StageConfirmed
	StageReceipted
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageBroadcast:
		return "broadcast"
	case StageConfirmed:
		return "confirmed"
	case StageReceipted:
		return "receipted"
	case StageFailed:
		return "failed"
	}
	return "unknown"
}

// TransferRequest is a caller's intent to move value on one chain.
// GasPrice/GasLimit apply to account chains, FeeRate to UTXO chains;
// zero values mean "let the adapter resolve it".
type TransferRequest struct {
	From      string
	To        string
	Value     *big.Int
	GasPrice  *big.Int
	GasLimit  uint64
	FeeRate   int64 // satoshi per vbyte
	ExtraData []byte
}

// Confirmation is an advisory inclusion notification. Depth grows as
// blocks accumulate on top of the including block.
type Confirmation struct {
	Hash        string
	BlockNumber uint64
	Depth       int
}

// ReceiptLog is one decoded-enough log entry from an account-chain receipt.
// Topics are 0x-prefixed hex, Topics[0] is the event signature.
type ReceiptLog struct {
	Address string
	Topics  []string
	Data    []byte
}

// Receipt is the chain's final record for a mined transaction. UTXO-chain
// receipts carry no logs; Success is derived from inclusion alone there.
type Receipt struct {
	Hash        string
	BlockNumber uint64
	BlockHash   string
	GasUsed     uint64
	Success     bool
	Logs        []ReceiptLog
}

type MetaKind string

const (
	MetaKindTransfer      MetaKind = "transfer"
	MetaKindExport        MetaKind = "export"
	MetaKindImportRequest MetaKind = "importRequest"
)

// MetaAction is the decoded semantic effect of a transaction, produced from
// its receipt. ContractCallFailed reports the case where the chain accepted
// the transaction but the contract's own logic declined to act, detected by
// the expected event topic being absent from the receipt's logs.
type MetaAction struct {
	Kind               MetaKind
	ContractCallFailed bool

	// transfer
	Token  string
	To     string
	Amount *big.Int

	// export
	AmountToBurn             *big.Int
	DestinationChain         string
	DestinationRecipientAddr string
	Fee                      *big.Int
	Burn                     *BurnReceipt

	// importRequest
	OriginChain     string
	CurrentBurnHash string
	AmountImported  *big.Int
}

// BurnReceipt is everything the export receipt yields that the paired
// import call needs. Fields are hex strings or big ints exactly as they
// will be re-packed into the import proof.
type BurnReceipt struct {
	BurnSequence             uint64
	CurrentBurnHash          string
	PreviousBurnHash         string
	AmountToBurn             *big.Int
	Fee                      *big.Int
	OriginChain              string
	DestinationChain         string
	DestinationMETAddr       string
	DestinationRecipientAddr string
	ExtraData                []byte
	CurrentTick              uint64
	Supply                   *big.Int
	DailyMintable            *big.Int
	BlockTimestamp           uint64
	ExportTxHash             string
}

// ImportProof is the exact payload the destination chain's porter contract
// accepts for minting. Field order mirrors the importMET call signature.
type ImportProof struct {
	OriginChain      string
	DestinationChain string
	// destination MET token address, then recipient
	Addresses [2]string
	ExtraData []byte
	// previous burn hash, then current
	BurnHashes [2]string
	Supply     *big.Int
	// blockTimestamp, value, fee, currentTick, genesisTime,
	// dailyMintable, burnSequence, dailyAuctionStartTime
	ImportData [8]*big.Int
	MerkleRoot [32]byte
}

// TxFields are the raw pre-receipt fields of one transaction as the
// tracker records them.
type TxFields struct {
	Hash     string
	From     string
	To       string
	Value    *big.Int
	GasPrice *big.Int
	Gas      uint64
	Input    []byte
}

// TrackedTransaction is one per-address ledger entry. Receipt and Meta are
// nil until the transaction is mined; once set they are never replaced.
type TrackedTransaction struct {
	Transaction TxFields
	Receipt     *Receipt
	Meta        *MetaAction
}

// WalletAddressState is the externally visible view of one address.
// Balance reflects chain-confirmed state only; pending entries sit in
// Transactions with a nil Receipt and do not move Balance.
type WalletAddressState struct {
	Address       string
	Balance       *big.Int
	TokenBalances map[string]*big.Int
	Transactions  []*TrackedTransaction
}

// BurnRecord wraps a BurnReceipt while it waits for its paired import,
// moving through the Redis status sets.
type BurnRecord struct {
	ID        string
	Status    string
	WalletID  string
	Burn      *BurnReceipt
	TsCreated int64
	Message   string
}
