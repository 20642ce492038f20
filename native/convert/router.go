package convert

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Strategy selects when funding-pool contributions are converted from base
// currency into the stable currency.
type Strategy uint8

const (
	// StrategyUnspecified prevents zero-value strategies from being persisted
	// unintentionally.
	StrategyUnspecified Strategy = iota
	// StrategyInstant converts each funding share at contribution time,
	// falling back to deferred base-currency accounting when the swap fails.
	StrategyInstant
	// StrategyOnWithdrawal stores every funding share as base currency and
	// converts only when the creator withdraws.
	StrategyOnWithdrawal
	// StrategyHybrid converts half of each funding share immediately (with
	// the Instant fallback) and defers the other half unconditionally.
	StrategyHybrid
)

// Valid reports whether the strategy is one of the defined policies.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyInstant, StrategyOnWithdrawal, StrategyHybrid:
		return true
	default:
		return false
	}
}

// String renders the canonical lowercase strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyInstant:
		return "instant"
	case StrategyOnWithdrawal:
		return "onwithdrawal"
	case StrategyHybrid:
		return "hybrid"
	default:
		return "unspecified"
	}
}

// ParseStrategy resolves a configuration string into a Strategy.
func ParseStrategy(value string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "instant":
		return StrategyInstant, nil
	case "onwithdrawal", "on_withdrawal":
		return StrategyOnWithdrawal, nil
	case "hybrid":
		return StrategyHybrid, nil
	default:
		return StrategyUnspecified, fmt.Errorf("convert: unknown strategy %q", value)
	}
}

// ErrAmountOverflow is returned when a converted amount does not fit the
// 64-bit accounting domain.
var ErrAmountOverflow = errors.New("convert: amount overflows uint64")

// StableAmount converts a base-currency amount into stable smallest units
// using the supplied oracle rate (stable units per whole base unit) and the
// base currency's decimals. Truncating division keeps the rounding remainder
// with the pool.
func StableAmount(baseAmount uint64, rate *big.Rat, baseDecimals uint8) (uint64, error) {
	if rate == nil || rate.Sign() <= 0 {
		return 0, fmt.Errorf("convert: oracle rate must be positive")
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(baseDecimals)), nil)
	num := new(big.Int).Mul(new(big.Int).SetUint64(baseAmount), rate.Num())
	den := new(big.Int).Mul(rate.Denom(), scale)
	out := num.Quo(num, den)
	if !out.IsUint64() {
		return 0, ErrAmountOverflow
	}
	return out.Uint64(), nil
}

// Result describes how a routed contribution was folded into the funding
// pool: StableAmount in stable units when a conversion executed, BaseAmount
// in base units for the deferred remainder.
type Result struct {
	StableAmount uint64
	BaseAmount   uint64
	Converted    bool
}

// Router moves base-currency funding shares into the funding pool, either
// immediately as stable currency or deferred as base currency, per the
// campaign's conversion strategy. Swap and oracle failures never escape a
// contribution: they degrade that increment to the deferred path.
type Router struct {
	oracle       PriceOracle
	swapper      SwapExecutor
	baseSymbol   string
	stableSymbol string
	baseDecimals uint8
	slippageBps  uint64
	maxQuoteAge  time.Duration
	now          func() time.Time
}

const (
	defaultBaseSymbol   = "SOL"
	defaultStableSymbol = "USDC"
	defaultBaseDecimals = 9
	defaultSlippageBps  = 50
	defaultMaxQuoteAge  = 60 * time.Second
)

// NewRouter constructs a conversion router with default pair, slippage and
// staleness settings.
func NewRouter(oracle PriceOracle, swapper SwapExecutor) *Router {
	return &Router{
		oracle:       oracle,
		swapper:      swapper,
		baseSymbol:   defaultBaseSymbol,
		stableSymbol: defaultStableSymbol,
		baseDecimals: defaultBaseDecimals,
		slippageBps:  defaultSlippageBps,
		maxQuoteAge:  defaultMaxQuoteAge,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetPair configures the currency pair and base decimals used for quoting.
func (r *Router) SetPair(base, stable string, baseDecimals uint8) {
	if r == nil {
		return
	}
	if sym := normaliseSymbol(base); sym != "" {
		r.baseSymbol = sym
	}
	if sym := normaliseSymbol(stable); sym != "" {
		r.stableSymbol = sym
	}
	r.baseDecimals = baseDecimals
}

// SetSlippageBps configures the maximum acceptable shortfall between quoted
// and executed swap output, in basis points.
func (r *Router) SetSlippageBps(bps uint64) {
	if r == nil || bps >= 10_000 {
		return
	}
	r.slippageBps = bps
}

// SetMaxQuoteAge configures the oracle staleness bound.
func (r *Router) SetMaxQuoteAge(maxAge time.Duration) {
	if r == nil || maxAge <= 0 {
		return
	}
	r.maxQuoteAge = maxAge
}

// SetNowFunc overrides the time source used for deterministic testing.
func (r *Router) SetNowFunc(now func() time.Time) {
	if r == nil || now == nil {
		return
	}
	r.now = now
}

// QuoteStable returns the stable-currency value of the supplied base amount
// using the most recent oracle quote within the staleness bound.
func (r *Router) QuoteStable(baseAmount uint64) (uint64, error) {
	if r == nil || r.oracle == nil {
		return 0, fmt.Errorf("convert: router oracle not configured")
	}
	quote, err := r.oracle.GetRate(r.baseSymbol, r.stableSymbol)
	if err != nil {
		return 0, err
	}
	if r.maxQuoteAge > 0 && quote.Timestamp.Before(r.now().Add(-r.maxQuoteAge)) {
		return 0, ErrStalePrice
	}
	return StableAmount(baseAmount, quote.Rate, r.baseDecimals)
}

// executeSwap quotes the base amount, derives the slippage-bounded minimum
// output and hands the order to the swap service. Any failure is reported to
// the caller for fallback handling; partial fills cannot occur because the
// executor contract requires minAmountOut or nothing.
func (r *Router) executeSwap(baseAmount uint64, source, dest [20]byte) (uint64, error) {
	if r.swapper == nil {
		return 0, ErrSwapFailed
	}
	quoted, err := r.QuoteStable(baseAmount)
	if err != nil {
		return 0, err
	}
	minOut := quoted
	if r.slippageBps > 0 {
		// quoted * (10000 - slippageBps) / 10000 cannot overflow: quoted is
		// uint64 and the multiplier is below 2^14, so widen through big.Int.
		min := new(big.Int).SetUint64(quoted)
		min.Mul(min, big.NewInt(int64(10_000-r.slippageBps)))
		min.Quo(min, big.NewInt(10_000))
		if min.IsUint64() {
			minOut = min.Uint64()
		}
	}
	out, err := r.swapper.Swap(baseAmount, minOut, source, dest)
	if err != nil {
		return 0, err
	}
	if out < minOut {
		return 0, ErrSwapFailed
	}
	return out, nil
}

// RouteContribution folds a funding share into the pool according to the
// strategy. The returned Result always accounts for the full base amount:
// whatever could not be converted lands in BaseAmount. This is the engine's
// sole recoverable-failure boundary, so no error is returned.
func (r *Router) RouteContribution(strategy Strategy, baseAmount uint64, source, dest [20]byte) Result {
	if r == nil || baseAmount == 0 {
		return Result{}
	}
	switch strategy {
	case StrategyInstant:
		if out, err := r.executeSwap(baseAmount, source, dest); err == nil {
			return Result{StableAmount: out, Converted: true}
		}
		return Result{BaseAmount: baseAmount}
	case StrategyHybrid:
		instantHalf := baseAmount / 2
		deferredHalf := baseAmount - instantHalf
		if instantHalf == 0 {
			return Result{BaseAmount: baseAmount}
		}
		if out, err := r.executeSwap(instantHalf, source, dest); err == nil {
			return Result{StableAmount: out, BaseAmount: deferredHalf, Converted: true}
		}
		return Result{BaseAmount: baseAmount}
	default:
		return Result{BaseAmount: baseAmount}
	}
}

// ConvertPayout converts a deferred base-currency amount at withdrawal time.
// The boolean reports whether the conversion executed; on false the caller
// must fall back to transferring the base amount directly.
func (r *Router) ConvertPayout(baseAmount uint64, source, dest [20]byte) (uint64, bool) {
	if r == nil || baseAmount == 0 {
		return 0, false
	}
	out, err := r.executeSwap(baseAmount, source, dest)
	if err != nil {
		return 0, false
	}
	return out, true
}
