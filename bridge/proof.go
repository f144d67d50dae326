package bridge

import (
	"context"
	"math/big"

	"gometwallet/adapters"
	"gometwallet/contracts"
	"gometwallet/types"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// ChainKeyBytes converts an 0x-prefixed bytes8 chain key to its ABI form.
func ChainKeyBytes(hexKey string) ([8]byte, error) {
	var out [8]byte
	b := common.FromHex(hexKey)
	if len(b) != 8 {
		return out, errors.Errorf("chain key %q is not 8 bytes", hexKey)
	}
	copy(out[:], b)
	return out, nil
}

func hashBytes(hexHash string) [32]byte {
	return common.HexToHash(hexHash)
}

// PackTransfer builds calldata for a MET token transfer.
func PackTransfer(to common.Address, value *big.Int) ([]byte, error) {
	return contracts.METToken.Pack("transfer", to, value)
}

// PackExport builds calldata for the export call. This is the single
// place that fixes export parameter order; gas estimation and the signed
// call both go through it.
func PackExport(destChain [8]byte, destMETAddr, recipient common.Address, value, fee *big.Int, extraData []byte) ([]byte, error) {
	if extraData == nil {
		extraData = []byte{}
	}
	return contracts.METToken.Pack("export", destChain, destMETAddr, recipient, value, fee, extraData)
}

// AssembleImportProof lays out the exact tuple the destination porter
// verifies. Every field is a deterministic function of the burn receipt
// plus the two freshly read auction context values, so reassembling for
// a retry yields identical bytes.
func AssembleImportProof(burn *types.BurnReceipt, genesisTime, dailyAuctionStartTime uint64) *types.ImportProof {
	proof := &types.ImportProof{
		OriginChain:      burn.OriginChain,
		DestinationChain: burn.DestinationChain,
		Addresses:        [2]string{burn.DestinationMETAddr, burn.DestinationRecipientAddr},
		ExtraData:        burn.ExtraData,
		BurnHashes:       [2]string{burn.PreviousBurnHash, burn.CurrentBurnHash},
		Supply:           burn.Supply,
		ImportData: [8]*big.Int{
			new(big.Int).SetUint64(burn.BlockTimestamp),
			burn.AmountToBurn,
			burn.Fee,
			new(big.Int).SetUint64(burn.CurrentTick),
			new(big.Int).SetUint64(genesisTime),
			burn.DailyMintable,
			new(big.Int).SetUint64(burn.BurnSequence),
			new(big.Int).SetUint64(dailyAuctionStartTime),
		},
	}
	proof.MerkleRoot = MerkleRoot(burn)
	return proof
}

// MerkleRoot derives the proof root from the burn hash pair. Being a
// pure function of the export receipt keeps retried imports idempotent.
func MerkleRoot(burn *types.BurnReceipt) [32]byte {
	prev := hashBytes(burn.PreviousBurnHash)
	cur := hashBytes(burn.CurrentBurnHash)
	var out [32]byte
	copy(out[:], crypto.Keccak256(prev[:], cur[:]))
	return out
}

// PackImport builds calldata for importMET. Like PackExport it is the
// only place fixing the parameter order of the signed call and its gas
// estimate.
func PackImport(proof *types.ImportProof) ([]byte, error) {
	originChain, err := ChainKeyBytes(proof.OriginChain)
	if err != nil {
		return nil, err
	}
	destChain, err := ChainKeyBytes(proof.DestinationChain)
	if err != nil {
		return nil, err
	}

	addresses := []common.Address{
		common.HexToAddress(proof.Addresses[0]),
		common.HexToAddress(proof.Addresses[1]),
	}
	burnHashes := [][32]byte{
		hashBytes(proof.BurnHashes[0]),
		hashBytes(proof.BurnHashes[1]),
	}
	importData := make([]*big.Int, len(proof.ImportData))
	copy(importData, proof.ImportData[:])

	extraData := proof.ExtraData
	if extraData == nil {
		extraData = []byte{}
	}

	return contracts.Porter.Pack("importMET",
		originChain,
		destChain,
		addresses,
		extraData,
		burnHashes,
		proof.Supply,
		importData,
		proof.MerkleRoot,
	)
}

// ComputeBurnHash chains a burn onto its predecessor the way the porter
// contract does: keccak over the previous hash and the padded sequence,
// amount and fee.
func ComputeBurnHash(prevHash string, sequence uint64, amount, fee *big.Int) string {
	prev := hashBytes(prevHash)
	h := crypto.Keccak256Hash(
		prev[:],
		common.LeftPadBytes(new(big.Int).SetUint64(sequence).Bytes(), 32),
		common.LeftPadBytes(amount.Bytes(), 32),
		common.LeftPadBytes(fee.Bytes(), 32),
	)
	return h.Hex()
}

// VerifyBurnChain checks that a burn receipt chains onto the recorded
// predecessor state: sequence advanced by one and the current hash is
// the keccak chain of the previous one.
func VerifyBurnChain(prev, cur *types.BurnReceipt) error {
	if cur.BurnSequence != prev.BurnSequence+1 {
		return errors.Errorf("burn sequence %d does not follow %d", cur.BurnSequence, prev.BurnSequence)
	}
	if cur.PreviousBurnHash != prev.CurrentBurnHash {
		return errors.New("previous burn hash does not match recorded chain state")
	}
	if cur.CurrentBurnHash == cur.PreviousBurnHash {
		return errors.New("burn hash did not advance")
	}
	return nil
}

func estimateCallGas(ctx context.Context, a *adapters.AccountAdapter, from, to common.Address, value *big.Int, data []byte) (uint64, error) {
	msg := ethereum.CallMsg{From: from, To: &to, Value: value, Data: data}
	return a.Client().EstimateGas(ctx, msg)
}
