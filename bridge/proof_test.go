package bridge

import (
	"bytes"
	"math/big"
	"strings"
	"testing"

	"gometwallet/contracts"
	"gometwallet/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBurn() *types.BurnReceipt {
	amount := big.NewInt(1_000_000)
	fee := big.NewInt(2_000)
	prev := "0x" + strings.Repeat("11", 32)
	return &types.BurnReceipt{
		BurnSequence:             7,
		PreviousBurnHash:         prev,
		CurrentBurnHash:          ComputeBurnHash(prev, 7, amount, fee),
		AmountToBurn:             amount,
		Fee:                      fee,
		OriginChain:              "0x4554480000000000",
		DestinationChain:         "0x4554430000000000",
		DestinationMETAddr:       "0x0D9b263Af6A3A5Dd1e0b7b52c24cAf33F295076B",
		DestinationRecipientAddr: "0x686e5ac50D9236A9b7406791256e47feDDB26AbA",
		ExtraData:                []byte{},
		CurrentTick:              123,
		Supply:                   big.NewInt(5_000_000),
		DailyMintable:            big.NewInt(2880),
		BlockTimestamp:           1_700_000_000,
	}
}

func TestChainKeyBytes(t *testing.T) {
	key, err := ChainKeyBytes("0x4554480000000000")
	require.NoError(t, err)
	assert.Equal(t, [8]byte{'E', 'T', 'H', 0, 0, 0, 0, 0}, key)

	_, err = ChainKeyBytes("0x455448")
	assert.Error(t, err)
}

func TestImportDataLayout(t *testing.T) {
	burn := makeBurn()
	proof := AssembleImportProof(burn, 1_600_000_000, 1_600_043_200)

	assert.Equal(t, burn.OriginChain, proof.OriginChain)
	assert.Equal(t, burn.DestinationChain, proof.DestinationChain)
	assert.Equal(t, [2]string{burn.DestinationMETAddr, burn.DestinationRecipientAddr}, proof.Addresses)
	assert.Equal(t, [2]string{burn.PreviousBurnHash, burn.CurrentBurnHash}, proof.BurnHashes)
	assert.Equal(t, burn.Supply, proof.Supply)

	assert.Equal(t, burn.BlockTimestamp, proof.ImportData[0].Uint64())
	assert.Equal(t, burn.AmountToBurn, proof.ImportData[1])
	assert.Equal(t, burn.Fee, proof.ImportData[2])
	assert.Equal(t, burn.CurrentTick, proof.ImportData[3].Uint64())
	assert.Equal(t, uint64(1_600_000_000), proof.ImportData[4].Uint64())
	assert.Equal(t, burn.DailyMintable, proof.ImportData[5])
	assert.Equal(t, burn.BurnSequence, proof.ImportData[6].Uint64())
	assert.Equal(t, uint64(1_600_043_200), proof.ImportData[7].Uint64())
}

func TestMerkleRootIsBurnHashChain(t *testing.T) {
	burn := makeBurn()
	root := MerkleRoot(burn)

	prev := common.HexToHash(burn.PreviousBurnHash)
	cur := common.HexToHash(burn.CurrentBurnHash)
	want := crypto.Keccak256(prev[:], cur[:])
	assert.Equal(t, want, root[:])

	// reassembly yields the identical root
	again := AssembleImportProof(burn, 1, 2)
	assert.Equal(t, root, again.MerkleRoot)
}

func TestPackImportDeterministic(t *testing.T) {
	burn := makeBurn()
	a, err := PackImport(AssembleImportProof(burn, 1_600_000_000, 1_600_043_200))
	require.NoError(t, err)
	b, err := PackImport(AssembleImportProof(burn, 1_600_000_000, 1_600_043_200))
	require.NoError(t, err)

	assert.True(t, bytes.Equal(a, b))
	assert.Equal(t, contracts.Porter.Methods["importMET"].ID, a[:4])
}

func TestPackExportSelectorAndNilExtraData(t *testing.T) {
	destChain, err := ChainKeyBytes("0x4554430000000000")
	require.NoError(t, err)
	metAddr := common.HexToAddress("0x0D9b263Af6A3A5Dd1e0b7b52c24cAf33F295076B")
	recipient := common.HexToAddress("0x686e5ac50D9236A9b7406791256e47feDDB26AbA")

	a, err := PackExport(destChain, metAddr, recipient, big.NewInt(100), big.NewInt(1), nil)
	require.NoError(t, err)
	b, err := PackExport(destChain, metAddr, recipient, big.NewInt(100), big.NewInt(1), []byte{})
	require.NoError(t, err)

	assert.Equal(t, contracts.METToken.Methods["export"].ID, a[:4])
	assert.True(t, bytes.Equal(a, b))
}

func TestComputeBurnHashChains(t *testing.T) {
	genesis := "0x" + strings.Repeat("00", 32)
	h1 := ComputeBurnHash(genesis, 1, big.NewInt(100), big.NewInt(1))
	h2 := ComputeBurnHash(h1, 2, big.NewInt(100), big.NewInt(1))

	assert.NotEqual(t, h1, h2)
	// deterministic
	assert.Equal(t, h1, ComputeBurnHash(genesis, 1, big.NewInt(100), big.NewInt(1)))
	// any input perturbs the hash
	assert.NotEqual(t, h1, ComputeBurnHash(genesis, 1, big.NewInt(101), big.NewInt(1)))
}

func TestVerifyBurnChain(t *testing.T) {
	prev := makeBurn()
	next := &types.BurnReceipt{
		BurnSequence:     prev.BurnSequence + 1,
		PreviousBurnHash: prev.CurrentBurnHash,
		CurrentBurnHash:  ComputeBurnHash(prev.CurrentBurnHash, prev.BurnSequence+1, big.NewInt(50), big.NewInt(1)),
	}
	assert.NoError(t, VerifyBurnChain(prev, next))

	skipped := *next
	skipped.BurnSequence = prev.BurnSequence + 2
	assert.Error(t, VerifyBurnChain(prev, &skipped))

	forked := *next
	forked.PreviousBurnHash = "0x" + strings.Repeat("22", 32)
	assert.Error(t, VerifyBurnChain(prev, &forked))

	stuck := *next
	stuck.CurrentBurnHash = stuck.PreviousBurnHash
	assert.Error(t, VerifyBurnChain(prev, &stuck))
}
