package convert

import (
	"errors"
	"math/big"
	"sync"
)

// ErrSwapFailed indicates the swap service could not execute the requested
// conversion while honouring the minimum acceptable output.
var ErrSwapFailed = errors.New("convert: swap execution failed")

// SwapExecutor executes a base-to-stable conversion between the supplied
// accounts. Implementations must deliver at least minAmountOut stable units
// or fail without any partial fill.
type SwapExecutor interface {
	Swap(amountIn uint64, minAmountOut uint64, source [20]byte, dest [20]byte) (uint64, error)
}

// ManualSwapper is an in-memory swap executor used for tests and local
// tooling. It fills at a fixed rate and can be toggled to fail on demand.
type ManualSwapper struct {
	mu           sync.RWMutex
	rate         *big.Rat
	baseDecimals uint8
	disabled     bool
}

// NewManualSwapper constructs a swapper filling at the supplied rate, which
// is denominated in stable smallest units per whole base unit.
func NewManualSwapper(rate *big.Rat, baseDecimals uint8) *ManualSwapper {
	s := &ManualSwapper{baseDecimals: baseDecimals}
	if rate != nil {
		s.rate = new(big.Rat).Set(rate)
	}
	return s
}

// SetRate replaces the fill rate.
func (s *ManualSwapper) SetRate(rate *big.Rat) {
	if s == nil || rate == nil {
		return
	}
	s.mu.Lock()
	s.rate = new(big.Rat).Set(rate)
	s.mu.Unlock()
}

// SetDisabled toggles forced failure, exercising fallback paths downstream.
func (s *ManualSwapper) SetDisabled(disabled bool) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.disabled = disabled
	s.mu.Unlock()
}

// Swap fills the order at the configured rate. The fill fails closed when the
// swapper is disabled, no rate is set, or the computed output would violate
// minAmountOut.
func (s *ManualSwapper) Swap(amountIn uint64, minAmountOut uint64, source [20]byte, dest [20]byte) (uint64, error) {
	if s == nil {
		return 0, ErrSwapFailed
	}
	s.mu.RLock()
	rate := s.rate
	decimals := s.baseDecimals
	disabled := s.disabled
	s.mu.RUnlock()
	if disabled || rate == nil {
		return 0, ErrSwapFailed
	}
	out, err := StableAmount(amountIn, rate, decimals)
	if err != nil {
		return 0, ErrSwapFailed
	}
	if out < minAmountOut {
		return 0, ErrSwapFailed
	}
	return out, nil
}
