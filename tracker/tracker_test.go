package tracker

import (
	"math/big"
	"testing"
	"time"

	"gometwallet/adapters"
	"gometwallet/bus"
	"gometwallet/types"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker() (*Tracker, *bus.Bus) {
	b := bus.New()
	return New(b, nil), b
}

func entry(hash string, receipted bool) *types.TrackedTransaction {
	e := &types.TrackedTransaction{
		Transaction: types.TxFields{Hash: hash, From: "0xaaa", To: "0xbbb", Value: big.NewInt(10)},
	}
	if receipted {
		e.Receipt = &types.Receipt{Hash: hash, Success: true}
	}
	return e
}

func TestMergeIdempotentByHash(t *testing.T) {
	tr, b := newTestTracker()
	defer b.Close()

	tr.merge("w1", "0xaaa", entry("0x01", true))
	tr.merge("w1", "0xaaa", entry("0x01", true))

	snap := tr.Snapshot("w1")
	require.Len(t, snap.Addresses["0xaaa"].Transactions, 1)
}

func TestReceiptCompletesPendingInPlace(t *testing.T) {
	tr, b := newTestTracker()
	defer b.Close()

	tr.merge("w1", "0xaaa", entry("0x01", false))
	tr.merge("w1", "0xaaa", entry("0x01", true))

	txs := tr.Snapshot("w1").Addresses["0xaaa"].Transactions
	require.Len(t, txs, 1)
	assert.NotNil(t, txs[0].Receipt)

	// a receipted entry never reverts to pending
	tr.merge("w1", "0xaaa", entry("0x01", false))
	txs = tr.Snapshot("w1").Addresses["0xaaa"].Transactions
	require.Len(t, txs, 1)
	assert.NotNil(t, txs[0].Receipt)
}

func TestSnapshotRetainsAllTransactions(t *testing.T) {
	tr, b := newTestTracker()
	defer b.Close()

	tr.merge("w1", "0xaaa", entry("0x01", true))
	tr.merge("w1", "0xaaa", entry("0x02", false))
	tr.merge("w1", "0xccc", entry("0x03", true))

	snap := tr.Snapshot("w1")
	assert.Len(t, snap.Addresses["0xaaa"].Transactions, 2)
	assert.Len(t, snap.Addresses["0xccc"].Transactions, 1)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	tr, b := newTestTracker()
	defer b.Close()

	tr.SetTokenBalance("w1", "0xaaa", "MET", big.NewInt(100))

	snap := tr.Snapshot("w1")
	snap.Addresses["0xaaa"].TokenBalances["MET"].SetInt64(0)
	snap.Addresses["0xaaa"].Balance.SetInt64(999)

	fresh := tr.Snapshot("w1")
	assert.Equal(t, int64(100), fresh.Addresses["0xaaa"].TokenBalances["MET"].Int64())
	assert.Equal(t, int64(0), fresh.Addresses["0xaaa"].Balance.Int64())
}

func TestFollowMergesLifecycle(t *testing.T) {
	tr, b := newTestTracker()
	defer b.Close()

	states := b.Subscribe(bus.EventWalletStateChanged)

	h := adapters.NewHandle()
	tr.LogTransaction(h, "w1", "0xaaa", types.TxFields{From: "0xaaa"}, &types.MetaAction{Kind: types.MetaKindTransfer})

	h.AssignHash("0x01")
	// no Transfer event in the logs: contract declined, chain accepted
	h.Receipt(&types.Receipt{Hash: "0x01", Success: true})

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-states.C:
			snap := ev.Payload.(*types.WalletStateChanged)
			txs := snap.Addresses["0xaaa"].Transactions
			if len(txs) == 1 && txs[0].Receipt != nil {
				require.NotNil(t, txs[0].Meta)
				assert.True(t, txs[0].Meta.ContractCallFailed)
				return
			}
		case <-deadline:
			t.Fatal("receipted entry never appeared in a snapshot")
		}
	}
}

func TestFollowReportsFailureAsWalletError(t *testing.T) {
	tr, b := newTestTracker()
	defer b.Close()

	walletErrs := b.Subscribe(bus.EventWalletError)

	h := adapters.NewHandle()
	tr.LogTransaction(h, "w1", "0xaaa", types.TxFields{}, nil)
	h.Fail(types.ChainRejected(errors.New("nonce too low"), "broadcast rejected"))

	select {
	case ev := <-walletErrs.C:
		payload := ev.Payload.(*types.WalletError)
		assert.Equal(t, "w1", payload.WalletID)
		assert.Equal(t, "ChainRejected", payload.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("no wallet-error published")
	}
}

func TestOpenWalletsRegistersAddresses(t *testing.T) {
	tr, b := newTestTracker()
	defer b.Close()

	tr.openWallets(&types.OpenWallets{
		ActiveWallet: "w1",
		Wallets:      map[string][]string{"w1": {"0xaaa", "0xbbb"}},
	})

	snap := tr.Snapshot("w1")
	assert.Len(t, snap.Addresses, 2)
	assert.ElementsMatch(t, []string{"w1"}, tr.Wallets())
}
