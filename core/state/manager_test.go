package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"nusdcore/crypto"
	"nusdcore/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(storage.NewMemDB())
}

type sample struct {
	Label string
	Value uint64
}

func TestKVRoundTrip(t *testing.T) {
	manager := newTestManager(t)

	require.NoError(t, manager.KVPut([]byte("sample/a"), &sample{Label: "hello", Value: 42}))

	var got sample
	ok, err := manager.KVGet([]byte("sample/a"), &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hello", got.Label)
	require.Equal(t, uint64(42), got.Value)

	ok, err = manager.KVGet([]byte("sample/missing"), &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKVDelete(t *testing.T) {
	manager := newTestManager(t)

	require.NoError(t, manager.KVPut([]byte("sample/b"), &sample{Label: "bye", Value: 1}))
	require.NoError(t, manager.KVDelete([]byte("sample/b")))

	var got sample
	ok, err := manager.KVGet([]byte("sample/b"), &got)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, manager.KVDelete([]byte("sample/never")))
}

func TestKVAppendDeduplicates(t *testing.T) {
	manager := newTestManager(t)

	key := []byte("index/assets")
	require.NoError(t, manager.KVAppend(key, []byte("ATOM")))
	require.NoError(t, manager.KVAppend(key, []byte("NEAR")))
	require.NoError(t, manager.KVAppend(key, []byte("ATOM")))

	var list [][]byte
	require.NoError(t, manager.KVGetList(key, &list))
	require.Len(t, list, 2)
	require.Equal(t, []byte("ATOM"), list[0])
	require.Equal(t, []byte("NEAR"), list[1])
}

func TestKVGetListEmpty(t *testing.T) {
	manager := newTestManager(t)

	var list [][]byte
	require.NoError(t, manager.KVGetList([]byte("index/none"), &list))
	require.NotNil(t, list)
	require.Empty(t, list)
}

func TestKVRejectsEmptyKey(t *testing.T) {
	manager := newTestManager(t)

	require.Error(t, manager.KVPut(nil, &sample{}))
	_, err := manager.KVGet(nil, &sample{})
	require.Error(t, err)
	require.Error(t, manager.KVDelete(nil))
	require.Error(t, manager.KVAppend(nil, []byte("x")))
}

func testAddress(b byte) crypto.Address {
	buf := make([]byte, 20)
	buf[19] = b
	return crypto.NewAddress(buf)
}

func TestTokenMintBurn(t *testing.T) {
	manager := newTestManager(t)
	alice := testAddress(1)

	require.NoError(t, manager.Mint(alice, big.NewInt(1000)))

	balance, err := manager.BalanceOf(alice)
	require.NoError(t, err)
	require.Equal(t, int64(1000), balance.Int64())

	supply, err := manager.TotalSupply()
	require.NoError(t, err)
	require.Equal(t, int64(1000), supply.Int64())

	require.NoError(t, manager.Burn(alice, big.NewInt(400)))

	balance, err = manager.BalanceOf(alice)
	require.NoError(t, err)
	require.Equal(t, int64(600), balance.Int64())

	supply, err = manager.TotalSupply()
	require.NoError(t, err)
	require.Equal(t, int64(600), supply.Int64())

	require.ErrorIs(t, manager.Burn(alice, big.NewInt(601)), ErrInsufficientBalance)
}

func TestTokenTransfer(t *testing.T) {
	manager := newTestManager(t)
	alice := testAddress(1)
	bob := testAddress(2)

	require.NoError(t, manager.Mint(alice, big.NewInt(500)))
	require.NoError(t, manager.Transfer(alice, bob, big.NewInt(200)))

	aliceBalance, err := manager.BalanceOf(alice)
	require.NoError(t, err)
	require.Equal(t, int64(300), aliceBalance.Int64())

	bobBalance, err := manager.BalanceOf(bob)
	require.NoError(t, err)
	require.Equal(t, int64(200), bobBalance.Int64())

	require.ErrorIs(t, manager.Transfer(bob, alice, big.NewInt(201)), ErrInsufficientBalance)

	supply, err := manager.TotalSupply()
	require.NoError(t, err)
	require.Equal(t, int64(500), supply.Int64())
}

func TestTokenRejectsNonPositiveAmounts(t *testing.T) {
	manager := newTestManager(t)
	alice := testAddress(1)

	require.Error(t, manager.Mint(alice, nil))
	require.Error(t, manager.Mint(alice, big.NewInt(0)))
	require.Error(t, manager.Burn(alice, big.NewInt(-1)))
	require.Error(t, manager.Transfer(alice, testAddress(2), big.NewInt(0)))
}
