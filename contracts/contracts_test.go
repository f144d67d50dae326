package contracts

import (
	"math/big"
	"testing"

	"gometwallet/config"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressLookup(t *testing.T) {
	addr, err := Address(1, config.ContractMETToken)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(config.EVMChains[1].Contracts[config.ContractMETToken]), addr)

	_, err = Address(999, config.ContractMETToken)
	assert.Error(t, err)

	_, err = Address(1, "NoSuchContract")
	assert.Error(t, err)
}

func TestABIsCarryExpectedSurface(t *testing.T) {
	assert.Contains(t, METToken.Methods, "transfer")
	assert.Contains(t, METToken.Methods, "export")
	assert.Contains(t, METToken.Events, "Transfer")
	assert.Contains(t, Porter.Methods, "importMET")
	assert.Contains(t, Porter.Events, "LogExportReceipt")
	assert.Contains(t, Porter.Events, "LogImportRequest")
	assert.Contains(t, Auctions.Methods, "genesisTime")
	assert.Contains(t, Converter.Methods, "getMetForEthResult")
}

func TestDecodeEventNonIndexed(t *testing.T) {
	var origin [8]byte
	copy(origin[:], "ETH")
	var burnHash [32]byte
	burnHash[31] = 0x7f
	recipient := common.HexToAddress("0x686e5ac50D9236A9b7406791256e47feDDB26AbA")

	ev := Porter.Events["LogImportRequest"]
	data, err := ev.Inputs.Pack(origin, burnHash, recipient, big.NewInt(100), big.NewInt(2))
	require.NoError(t, err)

	values, err := DecodeEvent(Porter, "LogImportRequest", data, []string{ev.ID.Hex()})
	require.NoError(t, err)

	assert.Equal(t, origin, values["originChain"])
	assert.Equal(t, burnHash, values["currentBurnHash"])
	assert.Equal(t, recipient, values["destinationRecipientAddr"])
	assert.Equal(t, big.NewInt(100), values["amountImported"])
	assert.Equal(t, big.NewInt(2), values["fee"])
}

func TestDecodeEventIndexed(t *testing.T) {
	from := common.HexToAddress("0x0D9b263Af6A3A5Dd1e0b7b52c24cAf33F295076B")
	to := common.HexToAddress("0x686e5ac50D9236A9b7406791256e47feDDB26AbA")

	ev := METToken.Events["Transfer"]
	data, err := ev.Inputs.NonIndexed().Pack(big.NewInt(42))
	require.NoError(t, err)

	topics := []string{
		ev.ID.Hex(),
		common.BytesToHash(from.Bytes()).Hex(),
		common.BytesToHash(to.Bytes()).Hex(),
	}
	values, err := DecodeEvent(METToken, "Transfer", data, topics)
	require.NoError(t, err)

	assert.Equal(t, from, values["_from"])
	assert.Equal(t, to, values["_to"])
	assert.Equal(t, big.NewInt(42), values["_value"])
}

func TestDecodeEventMissingTopics(t *testing.T) {
	ev := METToken.Events["Transfer"]
	data, err := ev.Inputs.NonIndexed().Pack(big.NewInt(42))
	require.NoError(t, err)

	_, err = DecodeEvent(METToken, "Transfer", data, []string{ev.ID.Hex()})
	assert.Error(t, err)
}

func TestHasEventTopic(t *testing.T) {
	id := Porter.Events["LogExportReceipt"].ID.Hex()
	assert.True(t, HasEventTopic(Porter, "LogExportReceipt", []string{id}))
	assert.False(t, HasEventTopic(Porter, "LogExportReceipt", []string{Porter.Events["LogImportRequest"].ID.Hex()}))
	assert.False(t, HasEventTopic(Porter, "NoSuchEvent", []string{id}))
}

func TestMatchesFilter(t *testing.T) {
	values := map[string]interface{}{
		"amount": big.NewInt(123),
		"name":   "met",
	}
	assert.True(t, matchesFilter(values, nil))
	assert.True(t, matchesFilter(values, map[string]string{"amount": "123"}))
	assert.True(t, matchesFilter(values, map[string]string{"amount": "123", "name": "met"}))
	assert.False(t, matchesFilter(values, map[string]string{"amount": "124"}))
	assert.False(t, matchesFilter(values, map[string]string{"missing": "1"}))
}
