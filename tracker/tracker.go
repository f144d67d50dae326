package tracker

import (
	"math/big"
	"sync"

	"gometwallet/adapters"
	"gometwallet/bus"
	"gometwallet/metaparser"
	"gometwallet/types"

	"github.com/rs/zerolog/log"
)

// BalanceFunc fetches the confirmed balance of one address.
type BalanceFunc func(address string) (*big.Int, error)

// Tracker owns the per-wallet, per-address transaction ledger. It is the
// only component that mutates wallet state; every mutation goes through
// the serialized merge below and ends in a wallet-state-changed snapshot.
type Tracker struct {
	mu         sync.Mutex
	bus        *bus.Bus
	wallets    map[string]map[string]*types.WalletAddressState
	addrWallet map[string]string // lowercase address -> wallet id
	balanceOf  BalanceFunc
}

func New(b *bus.Bus, balanceOf BalanceFunc) *Tracker {
	return &Tracker{
		bus:        b,
		wallets:    make(map[string]map[string]*types.WalletAddressState),
		addrWallet: make(map[string]string),
		balanceOf:  balanceOf,
	}
}

// Run consumes open-wallets activations and refreshes balances on new
// block headers. Blocks until the bus closes.
func (t *Tracker) Run() {
	open := t.bus.Subscribe(bus.EventOpenWallets)
	blocks := t.bus.Subscribe(bus.EventCoinBlock)

	for {
		select {
		case ev, ok := <-open.C:
			if !ok {
				return
			}
			if payload, ok := ev.Payload.(*types.OpenWallets); ok {
				t.openWallets(payload)
			}
		case _, ok := <-blocks.C:
			if !ok {
				return
			}
			t.RefreshBalances()
		}
	}
}

func (t *Tracker) openWallets(payload *types.OpenWallets) {
	t.mu.Lock()
	for walletID, addresses := range payload.Wallets {
		if t.wallets[walletID] == nil {
			t.wallets[walletID] = make(map[string]*types.WalletAddressState)
		}
		for _, addr := range addresses {
			if t.wallets[walletID][addr] == nil {
				t.wallets[walletID][addr] = &types.WalletAddressState{
					Address:       addr,
					Balance:       new(big.Int),
					TokenBalances: make(map[string]*big.Int),
				}
			}
			t.addrWallet[addr] = walletID
		}
	}
	t.mu.Unlock()

	t.RefreshBalances()
}

// LogTransaction is a pass-through decorator: it attaches a lifecycle
// listener to the handle and returns the handle unchanged. template
// carries what is known before the receipt (kind, pre-broadcast fields);
// its Kind selects the meta parser once the receipt lands.
func (t *Tracker) LogTransaction(h *adapters.Handle, walletID, address string, tx types.TxFields, template *types.MetaAction) *adapters.Handle {
	go t.follow(h, walletID, address, tx, template)
	return h
}

func (t *Tracker) follow(h *adapters.Handle, walletID, address string, tx types.TxFields, template *types.MetaAction) {
	for ev := range h.Subscribe() {
		switch ev.Stage {
		case types.StageBroadcast:
			tx.Hash = ev.Hash
			t.merge(walletID, address, &types.TrackedTransaction{Transaction: tx, Meta: template})
		case types.StageReceipted:
			entry := &types.TrackedTransaction{Transaction: tx, Receipt: ev.Receipt}
			entry.Transaction.Hash = ev.Receipt.Hash
			if template != nil {
				if parser, ok := metaparser.Parsers[template.Kind]; ok {
					meta, err := parser(ev.Receipt)
					if err != nil {
						log.Error().Err(err).Str("hash", ev.Receipt.Hash).Msg("cannot parse receipt meta")
						t.bus.Publish(bus.EventWalletError, &types.WalletError{
							WalletID: walletID,
							Kind:     types.Kind(err),
							Message:  err.Error(),
						})
					} else {
						entry.Meta = meta
					}
				}
			}
			t.merge(walletID, address, entry)
		case types.StageFailed:
			t.bus.Publish(bus.EventWalletError, &types.WalletError{
				WalletID: walletID,
				Kind:     types.Kind(ev.Err),
				Message:  ev.Err.Error(),
			})
		}
	}
}

// merge applies one ledger update for an address. Merges are idempotent
// by transaction hash: redelivery of a known receipt changes nothing, a
// receipt landing on a pending entry completes it in place, and entries
// that already carry a receipt are never replaced.
func (t *Tracker) merge(walletID, address string, entry *types.TrackedTransaction) {
	t.mu.Lock()

	state := t.ensureAddress(walletID, address)
	replaced := false
	for i, existing := range state.Transactions {
		if existing.Transaction.Hash != entry.Transaction.Hash {
			continue
		}
		if existing.Receipt != nil {
			// confirmed entries are immutable and append-only
			t.mu.Unlock()
			return
		}
		state.Transactions[i] = entry
		replaced = true
		break
	}
	if !replaced {
		state.Transactions = append(state.Transactions, entry)
	}

	snapshot := t.snapshotLocked(walletID)
	t.mu.Unlock()

	t.bus.Publish(bus.EventWalletStateChanged, snapshot)
}

// ensureAddress runs with t.mu held.
func (t *Tracker) ensureAddress(walletID, address string) *types.WalletAddressState {
	if t.wallets[walletID] == nil {
		t.wallets[walletID] = make(map[string]*types.WalletAddressState)
	}
	if t.wallets[walletID][address] == nil {
		t.wallets[walletID][address] = &types.WalletAddressState{
			Address:       address,
			Balance:       new(big.Int),
			TokenBalances: make(map[string]*big.Int),
		}
		t.addrWallet[address] = walletID
	}
	return t.wallets[walletID][address]
}

// snapshotLocked runs with t.mu held. The emitted snapshot never omits a
// previously merged transaction.
func (t *Tracker) snapshotLocked(walletID string) *types.WalletStateChanged {
	out := &types.WalletStateChanged{
		WalletID:  walletID,
		Addresses: make(map[string]*types.WalletAddressState),
	}
	for addr, state := range t.wallets[walletID] {
		cp := &types.WalletAddressState{
			Address:       state.Address,
			Balance:       new(big.Int).Set(state.Balance),
			TokenBalances: make(map[string]*big.Int, len(state.TokenBalances)),
			Transactions:  append([]*types.TrackedTransaction(nil), state.Transactions...),
		}
		for token, bal := range state.TokenBalances {
			cp.TokenBalances[token] = new(big.Int).Set(bal)
		}
		out.Addresses[addr] = cp
	}
	return out
}

// Snapshot returns the current state of one wallet.
func (t *Tracker) Snapshot(walletID string) *types.WalletStateChanged {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked(walletID)
}

// Wallets lists the wallet ids under tracking.
func (t *Tracker) Wallets() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.wallets))
	for id := range t.wallets {
		ids = append(ids, id)
	}
	return ids
}

// SetTokenBalance updates one token balance and snapshots the wallet.
func (t *Tracker) SetTokenBalance(walletID, address, token string, balance *big.Int) {
	t.mu.Lock()
	state := t.ensureAddress(walletID, address)
	state.TokenBalances[token] = new(big.Int).Set(balance)
	snapshot := t.snapshotLocked(walletID)
	t.mu.Unlock()

	t.bus.Publish(bus.EventWalletStateChanged, snapshot)
}

// RefreshBalances re-reads confirmed balances for every tracked address.
// Triggered on new block headers, independent of transaction merges.
func (t *Tracker) RefreshBalances() {
	if t.balanceOf == nil {
		return
	}

	t.mu.Lock()
	type target struct{ walletID, address string }
	var targets []target
	for walletID, addrs := range t.wallets {
		for addr := range addrs {
			targets = append(targets, target{walletID, addr})
		}
	}
	t.mu.Unlock()

	touched := make(map[string]bool)
	for _, tg := range targets {
		balance, err := t.balanceOf(tg.address)
		if err != nil {
			log.Warn().Err(err).Str("address", tg.address).Msg("balance refresh failed")
			continue
		}

		t.mu.Lock()
		state := t.ensureAddress(tg.walletID, tg.address)
		if state.Balance.Cmp(balance) != 0 {
			state.Balance.Set(balance)
			touched[tg.walletID] = true
		}
		t.mu.Unlock()
	}

	for walletID := range touched {
		t.mu.Lock()
		snapshot := t.snapshotLocked(walletID)
		t.mu.Unlock()
		t.bus.Publish(bus.EventWalletStateChanged, snapshot)
	}
}
