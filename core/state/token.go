package state

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"nusdcore/crypto"
)

const (
	balancePrefix = "nusd/balance/"
	supplyKey     = "nusd/supply"
)

// ErrInsufficientBalance is returned when a burn or transfer would move more
// nUSD than the account holds.
var ErrInsufficientBalance = errors.New("token ledger: insufficient balance")

func balanceKey(account crypto.Address) []byte {
	return []byte(balancePrefix + hex.EncodeToString(account.Bytes()))
}

func (m *Manager) balance(account crypto.Address) (*big.Int, error) {
	var raw []byte
	ok, err := m.KVGet(balanceKey(account), &raw)
	if err != nil {
		return nil, err
	}
	if !ok || len(raw) == 0 {
		return big.NewInt(0), nil
	}
	return new(big.Int).SetBytes(raw), nil
}

func (m *Manager) setBalance(account crypto.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return m.KVDelete(balanceKey(account))
	}
	return m.KVPut(balanceKey(account), amount.Bytes())
}

func (m *Manager) supply() (*big.Int, error) {
	var raw []byte
	ok, err := m.KVGet([]byte(supplyKey), &raw)
	if err != nil {
		return nil, err
	}
	if !ok || len(raw) == 0 {
		return big.NewInt(0), nil
	}
	return new(big.Int).SetBytes(raw), nil
}

func (m *Manager) setSupply(amount *big.Int) error {
	if amount.Sign() == 0 {
		return m.KVDelete([]byte(supplyKey))
	}
	return m.KVPut([]byte(supplyKey), amount.Bytes())
}

// Mint credits the supplied account with newly issued nUSD and grows the
// total supply by the same amount.
func (m *Manager) Mint(account crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("token ledger: mint amount must be positive")
	}
	balance, err := m.balance(account)
	if err != nil {
		return err
	}
	supply, err := m.supply()
	if err != nil {
		return err
	}
	if err := m.setBalance(account, new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	return m.setSupply(new(big.Int).Add(supply, amount))
}

// Burn debits the supplied account and shrinks total supply. Burning more
// than the account holds fails with ErrInsufficientBalance.
func (m *Manager) Burn(account crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("token ledger: burn amount must be positive")
	}
	balance, err := m.balance(account)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	supply, err := m.supply()
	if err != nil {
		return err
	}
	if supply.Cmp(amount) < 0 {
		return fmt.Errorf("token ledger: supply underflow")
	}
	if err := m.setBalance(account, new(big.Int).Sub(balance, amount)); err != nil {
		return err
	}
	return m.setSupply(new(big.Int).Sub(supply, amount))
}

// Transfer moves nUSD between two accounts without touching total supply.
func (m *Manager) Transfer(from, to crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("token ledger: transfer amount must be positive")
	}
	fromBalance, err := m.balance(from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toBalance, err := m.balance(to)
	if err != nil {
		return err
	}
	if err := m.setBalance(from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	return m.setBalance(to, new(big.Int).Add(toBalance, amount))
}

// BalanceOf returns the nUSD balance held by the supplied account.
func (m *Manager) BalanceOf(account crypto.Address) (*big.Int, error) {
	return m.balance(account)
}

// TotalSupply reports the outstanding nUSD supply.
func (m *Manager) TotalSupply() (*big.Int, error) {
	return m.supply()
}
