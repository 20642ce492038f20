package types

import "math/big"

// Account tracks the native balances held by a single address. BalanceBase is
// denominated in the chain's base currency (smallest unit) while
// BalanceStable holds the stable-currency balance credited by conversions.
type Account struct {
	Nonce         uint64   `json:"nonce"`
	BalanceBase   *big.Int `json:"balanceBase"`
	BalanceStable *big.Int `json:"balanceStable"`
}

// Clone returns a deep copy of the account so callers can mutate the result
// without touching shared state.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	if a.BalanceBase != nil {
		clone.BalanceBase = new(big.Int).Set(a.BalanceBase)
	}
	if a.BalanceStable != nil {
		clone.BalanceStable = new(big.Int).Set(a.BalanceStable)
	}
	return &clone
}
