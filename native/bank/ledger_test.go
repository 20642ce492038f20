package bank

import (
	"errors"
	"math"
	"testing"
)

var (
	alice = [20]byte{0x01}
	bob   = [20]byte{0x02}
)

type memStore struct {
	balances map[string]map[[20]byte]uint64
	supplies map[string]uint64
}

func newMemStore() *memStore {
	return &memStore{
		balances: make(map[string]map[[20]byte]uint64),
		supplies: make(map[string]uint64),
	}
}

func (s *memStore) TokenBalanceGet(mintID string, holder [20]byte) (uint64, bool, error) {
	holders, ok := s.balances[mintID]
	if !ok {
		return 0, false, nil
	}
	amount, ok := holders[holder]
	return amount, ok, nil
}

func (s *memStore) TokenBalancePut(mintID string, holder [20]byte, amount uint64) error {
	holders, ok := s.balances[mintID]
	if !ok {
		holders = make(map[[20]byte]uint64)
		s.balances[mintID] = holders
	}
	holders[holder] = amount
	return nil
}

func (s *memStore) TokenSupplyGet(mintID string) (uint64, bool, error) {
	supply, ok := s.supplies[mintID]
	return supply, ok, nil
}

func (s *memStore) TokenSupplyPut(mintID string, amount uint64) error {
	s.supplies[mintID] = amount
	return nil
}

func TestMintAndBurn(t *testing.T) {
	ledger := NewLedger(newMemStore())
	if err := ledger.Mint("mint-1", alice, 1_000); err != nil {
		t.Fatalf("mint: %v", err)
	}
	balance, err := ledger.Balance("mint-1", alice)
	if err != nil || balance != 1_000 {
		t.Fatalf("expected balance 1000, got %d err=%v", balance, err)
	}
	supply, err := ledger.Supply("mint-1")
	if err != nil || supply != 1_000 {
		t.Fatalf("expected supply 1000, got %d err=%v", supply, err)
	}
	if err := ledger.Burn("mint-1", alice, 400); err != nil {
		t.Fatalf("burn: %v", err)
	}
	balance, _ = ledger.Balance("mint-1", alice)
	supply, _ = ledger.Supply("mint-1")
	if balance != 600 || supply != 600 {
		t.Fatalf("expected 600/600 after burn, got %d/%d", balance, supply)
	}
}

func TestBurnFailsClosed(t *testing.T) {
	ledger := NewLedger(newMemStore())
	if err := ledger.Mint("mint-1", alice, 100); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Burn("mint-1", alice, 101); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	balance, _ := ledger.Balance("mint-1", alice)
	if balance != 100 {
		t.Fatalf("rejected burn mutated the balance: %d", balance)
	}
}

func TestMintSupplyOverflow(t *testing.T) {
	ledger := NewLedger(newMemStore())
	if err := ledger.Mint("mint-1", alice, math.MaxUint64); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Mint("mint-1", bob, 1); !errors.Is(err, ErrSupplyOverflow) {
		t.Fatalf("expected ErrSupplyOverflow, got %v", err)
	}
}

func TestTransfer(t *testing.T) {
	ledger := NewLedger(newMemStore())
	if err := ledger.Mint("mint-1", alice, 1_000); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Transfer("mint-1", alice, bob, 250); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	aliceBalance, _ := ledger.Balance("mint-1", alice)
	bobBalance, _ := ledger.Balance("mint-1", bob)
	if aliceBalance != 750 || bobBalance != 250 {
		t.Fatalf("expected 750/250, got %d/%d", aliceBalance, bobBalance)
	}
	supply, _ := ledger.Supply("mint-1")
	if supply != 1_000 {
		t.Fatalf("transfer changed the supply: %d", supply)
	}
	if err := ledger.Transfer("mint-1", alice, bob, 751); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestTransferNoOps(t *testing.T) {
	ledger := NewLedger(newMemStore())
	if err := ledger.Mint("mint-1", alice, 100); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Transfer("mint-1", alice, bob, 0); err != nil {
		t.Fatalf("zero transfer: %v", err)
	}
	if err := ledger.Transfer("mint-1", alice, alice, 50); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	balance, _ := ledger.Balance("mint-1", alice)
	if balance != 100 {
		t.Fatalf("no-op transfer mutated the balance: %d", balance)
	}
}

func TestMintRequiresMintID(t *testing.T) {
	ledger := NewLedger(newMemStore())
	if err := ledger.Mint("  ", alice, 1); err == nil {
		t.Fatalf("expected error for blank mint id")
	}
}
