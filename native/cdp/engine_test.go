package cdp

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/rlp"

	"nusdcore/crypto"
)

type mockStorage struct {
	kv    map[string][]byte
	lists map[string][][]byte
}

func newMockStorage() *mockStorage {
	return &mockStorage{kv: make(map[string][]byte), lists: make(map[string][][]byte)}
}

func (m *mockStorage) KVPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.kv[string(key)] = encoded
	return nil
}

func (m *mockStorage) KVGet(key []byte, out interface{}) (bool, error) {
	encoded, ok := m.kv[string(key)]
	if !ok {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(encoded, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *mockStorage) KVDelete(key []byte) error {
	delete(m.kv, string(key))
	return nil
}

func (m *mockStorage) KVAppend(key []byte, value []byte) error {
	k := string(key)
	for _, existing := range m.lists[k] {
		if bytes.Equal(existing, value) {
			return nil
		}
	}
	m.lists[k] = append(m.lists[k], append([]byte(nil), value...))
	return nil
}

func (m *mockStorage) KVGetList(key []byte, out interface{}) error {
	encoded, err := rlp.EncodeToBytes(m.lists[string(key)])
	if err != nil {
		return err
	}
	return rlp.DecodeBytes(encoded, out)
}

type mockLedger struct {
	balances map[string]*big.Int
	supply   *big.Int
	burns    []*big.Int
}

func newMockLedger() *mockLedger {
	return &mockLedger{balances: make(map[string]*big.Int), supply: big.NewInt(0)}
}

func (l *mockLedger) key(account crypto.Address) string {
	return hex.EncodeToString(account.Bytes())
}

func (l *mockLedger) balance(account crypto.Address) *big.Int {
	if b, ok := l.balances[l.key(account)]; ok {
		return b
	}
	return big.NewInt(0)
}

func (l *mockLedger) setBalance(account crypto.Address, amount *big.Int) {
	l.balances[l.key(account)] = new(big.Int).Set(amount)
}

func (l *mockLedger) Mint(account crypto.Address, amount *big.Int) error {
	l.setBalance(account, new(big.Int).Add(l.balance(account), amount))
	l.supply = new(big.Int).Add(l.supply, amount)
	return nil
}

func (l *mockLedger) Burn(account crypto.Address, amount *big.Int) error {
	current := l.balance(account)
	if current.Cmp(amount) < 0 {
		return fmt.Errorf("mock ledger: burn exceeds balance")
	}
	l.setBalance(account, new(big.Int).Sub(current, amount))
	l.supply = new(big.Int).Sub(l.supply, amount)
	l.burns = append(l.burns, new(big.Int).Set(amount))
	return nil
}

func (l *mockLedger) Transfer(from, to crypto.Address, amount *big.Int) error {
	current := l.balance(from)
	if current.Cmp(amount) < 0 {
		return fmt.Errorf("mock ledger: transfer exceeds balance")
	}
	l.setBalance(from, new(big.Int).Sub(current, amount))
	l.setBalance(to, new(big.Int).Add(l.balance(to), amount))
	return nil
}

func (l *mockLedger) BalanceOf(account crypto.Address) (*big.Int, error) {
	return new(big.Int).Set(l.balance(account)), nil
}

type bankTransfer struct {
	asset  string
	to     crypto.Address
	amount *big.Int
}

type mockBank struct {
	transfers []bankTransfer
	fail      error
}

func (b *mockBank) Transfer(asset string, to crypto.Address, amount *big.Int) error {
	if b.fail != nil {
		return b.fail
	}
	b.transfers = append(b.transfers, bankTransfer{asset: asset, to: to, amount: new(big.Int).Set(amount)})
	return nil
}

func makeAddress(b byte) crypto.Address {
	buf := make([]byte, 20)
	buf[19] = b
	return crypto.NewAddress(buf)
}

type testEnv struct {
	engine *Engine
	store  *Store
	ledger *mockLedger
	bank   *mockBank
	owner  crypto.Address
	oracle crypto.Address
	vault  crypto.Address
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		ledger: newMockLedger(),
		bank:   &mockBank{},
		owner:  makeAddress(0x01),
		oracle: makeAddress(0x02),
		vault:  makeAddress(0x03),
	}
	env.store = NewStore(newMockStorage())
	env.engine = NewEngine(env.store, env.ledger, env.owner, env.oracle, env.vault)
	env.engine.SetCollateralBank(env.bank)
	env.engine.SetClock(func() time.Time { return time.Unix(1700000000, 0) })
	return env
}

func (env *testEnv) registerAsset(t *testing.T, asset string, mcrBps, penaltyBps uint16, ceiling int64) {
	t.Helper()
	cfg := CollateralConfig{
		OraclePriceID:              "feed-" + asset,
		MinCollateralRatioBps:      mcrBps,
		RecoveryCollateralRatioBps: mcrBps,
		DebtCeiling:                big.NewInt(ceiling),
		LiquidationPenaltyBps:      penaltyBps,
	}
	if err := env.engine.RegisterCollateral(env.owner, asset, cfg); err != nil {
		t.Fatalf("register %s: %v", asset, err)
	}
}

func (env *testEnv) submitPrice(t *testing.T, asset string, price int64, decimals uint8) {
	t.Helper()
	if err := env.engine.SubmitPrice(env.oracle, asset, big.NewInt(price), decimals); err != nil {
		t.Fatalf("submit price %s: %v", asset, err)
	}
}

func (env *testEnv) openTrove(t *testing.T, owner crypto.Address, asset string, collateral, debt int64) {
	t.Helper()
	if err := env.engine.DepositCollateral(owner, asset, big.NewInt(collateral)); err != nil {
		t.Fatalf("deposit collateral: %v", err)
	}
	if debt > 0 {
		if err := env.engine.Borrow(owner, asset, big.NewInt(debt)); err != nil {
			t.Fatalf("borrow: %v", err)
		}
	}
}

func (env *testEnv) poolDeposit(t *testing.T, account crypto.Address, amount int64) {
	t.Helper()
	// Depositors fund the pool from their own nUSD balance.
	if env.ledger.balance(account).Cmp(big.NewInt(amount)) < 0 {
		env.ledger.setBalance(account, big.NewInt(amount))
	}
	if err := env.engine.DepositToStabilityPool(account, big.NewInt(amount)); err != nil {
		t.Fatalf("pool deposit: %v", err)
	}
}

func mustTrove(t *testing.T, env *testEnv, owner crypto.Address, asset string) *Trove {
	t.Helper()
	trove, err := env.store.Trove(owner, asset)
	if err != nil {
		t.Fatalf("load trove: %v", err)
	}
	if trove == nil {
		t.Fatalf("expected trove for %s", asset)
	}
	return trove
}

func mustBigEq(t *testing.T, got *big.Int, want int64, label string) {
	t.Helper()
	if got == nil || got.Cmp(big.NewInt(want)) != 0 {
		t.Fatalf("unexpected %s: got %v want %d", label, got, want)
	}
}
