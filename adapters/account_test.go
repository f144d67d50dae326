package adapters

import (
	"testing"

	"gometwallet/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountAddressDerivation(t *testing.T) {
	a := NewAccountAdapter(1)

	addr, err := a.CreateAddress(testMnemonic)
	require.NoError(t, err)
	assert.True(t, common.IsHexAddress(addr))

	again, err := a.CreateAddress(testMnemonic)
	require.NoError(t, err)
	assert.Equal(t, addr, again)
}

func TestAccountKeyMatchesAddress(t *testing.T) {
	a := NewAccountAdapter(1)

	keyHex, err := a.CreatePrivateKey(testMnemonic)
	require.NoError(t, err)

	key, err := crypto.HexToECDSA(keyHex)
	require.NoError(t, err)

	addr, err := a.CreateAddress(testMnemonic)
	require.NoError(t, err)
	assert.Equal(t, addr, crypto.PubkeyToAddress(key.PublicKey).Hex())
}

func TestAccountDerivationRejectsBadSeed(t *testing.T) {
	a := NewAccountAdapter(1)

	_, err := a.CreatePrivateKey("twelve words this is not")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidInput))
}

func TestSeedsDivergeAcrossChainModels(t *testing.T) {
	account := NewAccountAdapter(1)
	utxo := NewUTXOAdapter()

	accAddr, err := account.CreateAddress(testMnemonic)
	require.NoError(t, err)
	utxoAddr, err := utxo.CreateAddress(testMnemonic)
	require.NoError(t, err)

	assert.NotEqual(t, accAddr, utxoAddr)
}
