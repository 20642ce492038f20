package bank

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInsufficientBalance rejects burns and transfers exceeding the
	// holder's balance. Every operation fails closed.
	ErrInsufficientBalance = errors.New("bank: insufficient token balance")
	// ErrSupplyOverflow rejects mints that would overflow the mint's total
	// supply counter.
	ErrSupplyOverflow = errors.New("bank: token supply overflow")

	errNilStore = errors.New("bank: store not configured")
)

// Store abstracts the subset of state management the token ledger needs.
type Store interface {
	TokenBalanceGet(mintID string, holder [20]byte) (uint64, bool, error)
	TokenBalancePut(mintID string, holder [20]byte, amount uint64) error
	TokenSupplyGet(mintID string) (uint64, bool, error)
	TokenSupplyPut(mintID string, amount uint64) error
}

// Ledger tracks fungible token balances per mint. It satisfies the launch
// engine's TokenLedger collaborator contract: every call is atomic with
// respect to the hosting state transition.
type Ledger struct {
	store Store
}

// NewLedger constructs a token ledger bound to the provided store.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

func normaliseMint(mintID string) (string, error) {
	trimmed := strings.TrimSpace(mintID)
	if trimmed == "" {
		return "", fmt.Errorf("bank: mint id required")
	}
	return trimmed, nil
}

func (l *Ledger) balance(mintID string, holder [20]byte) (uint64, error) {
	amount, _, err := l.store.TokenBalanceGet(mintID, holder)
	return amount, err
}

// Mint credits freshly issued tokens to the recipient.
func (l *Ledger) Mint(mintID string, to [20]byte, amount uint64) error {
	if l == nil || l.store == nil {
		return errNilStore
	}
	mint, err := normaliseMint(mintID)
	if err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	supply, _, err := l.store.TokenSupplyGet(mint)
	if err != nil {
		return err
	}
	newSupply := supply + amount
	if newSupply < supply {
		return ErrSupplyOverflow
	}
	held, err := l.balance(mint, to)
	if err != nil {
		return err
	}
	newHeld := held + amount
	if newHeld < held {
		return ErrSupplyOverflow
	}
	if err := l.store.TokenSupplyPut(mint, newSupply); err != nil {
		return err
	}
	return l.store.TokenBalancePut(mint, to, newHeld)
}

// Burn destroys tokens held by the supplied address.
func (l *Ledger) Burn(mintID string, from [20]byte, amount uint64) error {
	if l == nil || l.store == nil {
		return errNilStore
	}
	mint, err := normaliseMint(mintID)
	if err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	held, err := l.balance(mint, from)
	if err != nil {
		return err
	}
	if held < amount {
		return ErrInsufficientBalance
	}
	supply, _, err := l.store.TokenSupplyGet(mint)
	if err != nil {
		return err
	}
	if supply < amount {
		return ErrInsufficientBalance
	}
	if err := l.store.TokenSupplyPut(mint, supply-amount); err != nil {
		return err
	}
	return l.store.TokenBalancePut(mint, from, held-amount)
}

// Transfer moves tokens between holders without changing the supply.
func (l *Ledger) Transfer(mintID string, from [20]byte, to [20]byte, amount uint64) error {
	if l == nil || l.store == nil {
		return errNilStore
	}
	mint, err := normaliseMint(mintID)
	if err != nil {
		return err
	}
	if amount == 0 || from == to {
		return nil
	}
	fromHeld, err := l.balance(mint, from)
	if err != nil {
		return err
	}
	if fromHeld < amount {
		return ErrInsufficientBalance
	}
	toHeld, err := l.balance(mint, to)
	if err != nil {
		return err
	}
	newToHeld := toHeld + amount
	if newToHeld < toHeld {
		return ErrSupplyOverflow
	}
	if err := l.store.TokenBalancePut(mint, from, fromHeld-amount); err != nil {
		return err
	}
	return l.store.TokenBalancePut(mint, to, newToHeld)
}

// Balance reports the holder's balance for the supplied mint.
func (l *Ledger) Balance(mintID string, holder [20]byte) (uint64, error) {
	if l == nil || l.store == nil {
		return 0, errNilStore
	}
	mint, err := normaliseMint(mintID)
	if err != nil {
		return 0, err
	}
	return l.balance(mint, holder)
}

// Supply reports the total issued supply for the supplied mint.
func (l *Ledger) Supply(mintID string) (uint64, error) {
	if l == nil || l.store == nil {
		return 0, errNilStore
	}
	mint, err := normaliseMint(mintID)
	if err != nil {
		return 0, err
	}
	supply, _, err := l.store.TokenSupplyGet(mint)
	return supply, err
}
