package convert

import (
	"errors"
	"math/big"
	"testing"
	"time"
)

var (
	routerSource = [20]byte{0xaa}
	routerDest   = [20]byte{0xbb}
)

func newTestRouter(t *testing.T, oracleRate, swapRate *big.Rat) (*Router, *ManualOracle, *ManualSwapper) {
	t.Helper()
	now := time.Unix(1_700_000_000, 0)
	oracle := NewManualOracle()
	if oracleRate != nil {
		oracle.Set("SOL", "USDC", oracleRate, now)
	}
	swapper := NewManualSwapper(swapRate, 9)
	router := NewRouter(oracle, swapper)
	router.SetNowFunc(func() time.Time { return now })
	return router, oracle, swapper
}

func TestParseStrategy(t *testing.T) {
	cases := map[string]Strategy{
		"instant":       StrategyInstant,
		"Instant":       StrategyInstant,
		"onwithdrawal":  StrategyOnWithdrawal,
		"on_withdrawal": StrategyOnWithdrawal,
		"hybrid":        StrategyHybrid,
	}
	for input, want := range cases {
		got, err := ParseStrategy(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %v, got %v", input, want, got)
		}
	}
	if _, err := ParseStrategy("deferred"); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
	if StrategyUnspecified.Valid() {
		t.Fatalf("unspecified strategy must not validate")
	}
}

func TestStableAmount(t *testing.T) {
	// 2 whole base units at 150 stable per base.
	out, err := StableAmount(2_000_000_000, big.NewRat(150, 1), 9)
	if err != nil {
		t.Fatalf("stable amount: %v", err)
	}
	if out != 300 {
		t.Fatalf("expected 300, got %d", out)
	}
	// Truncation keeps the remainder: 1.5 base at 1/3 stable per base.
	out, err = StableAmount(1_500_000_000, big.NewRat(1, 3), 9)
	if err != nil {
		t.Fatalf("stable amount: %v", err)
	}
	if out != 0 {
		t.Fatalf("expected truncation to 0, got %d", out)
	}
	if _, err := StableAmount(1, nil, 9); err == nil {
		t.Fatalf("expected error for nil rate")
	}
	if _, err := StableAmount(1, big.NewRat(-1, 2), 9); err == nil {
		t.Fatalf("expected error for negative rate")
	}
}

func TestRouteContributionInstant(t *testing.T) {
	rate := big.NewRat(150, 1)
	router, _, _ := newTestRouter(t, rate, rate)

	result := router.RouteContribution(StrategyInstant, 2_000_000_000, routerSource, routerDest)
	if !result.Converted {
		t.Fatalf("expected conversion to execute")
	}
	if result.StableAmount != 300 || result.BaseAmount != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRouteContributionInstantSwapFailure(t *testing.T) {
	rate := big.NewRat(150, 1)
	router, _, swapper := newTestRouter(t, rate, rate)
	swapper.SetDisabled(true)

	result := router.RouteContribution(StrategyInstant, 2_000_000_000, routerSource, routerDest)
	if result.Converted {
		t.Fatalf("expected fallback on swap failure")
	}
	if result.BaseAmount != 2_000_000_000 || result.StableAmount != 0 {
		t.Fatalf("fallback must defer the full amount, got %+v", result)
	}
}

func TestRouteContributionInstantStaleQuote(t *testing.T) {
	rate := big.NewRat(150, 1)
	router, oracle, _ := newTestRouter(t, nil, rate)
	oracle.Set("SOL", "USDC", rate, time.Unix(1_700_000_000, 0).Add(-2*time.Minute))

	result := router.RouteContribution(StrategyInstant, 2_000_000_000, routerSource, routerDest)
	if result.Converted || result.BaseAmount != 2_000_000_000 {
		t.Fatalf("stale quote must defer the full amount, got %+v", result)
	}
}

func TestRouteContributionOnWithdrawal(t *testing.T) {
	rate := big.NewRat(150, 1)
	router, _, _ := newTestRouter(t, rate, rate)

	result := router.RouteContribution(StrategyOnWithdrawal, 2_000_000_000, routerSource, routerDest)
	if result.Converted || result.StableAmount != 0 {
		t.Fatalf("on-withdrawal must not convert, got %+v", result)
	}
	if result.BaseAmount != 2_000_000_000 {
		t.Fatalf("expected full deferral, got %+v", result)
	}
}

func TestRouteContributionHybridHalves(t *testing.T) {
	rate := big.NewRat(150, 1)
	router, _, _ := newTestRouter(t, rate, rate)

	result := router.RouteContribution(StrategyHybrid, 2_000_000_001, routerSource, routerDest)
	if !result.Converted {
		t.Fatalf("expected hybrid conversion")
	}
	// Odd amounts round the instant half down: 1_000_000_000 converts to 150,
	// the remaining 1_000_000_001 stays deferred.
	if result.StableAmount != 150 {
		t.Fatalf("expected stable 150, got %d", result.StableAmount)
	}
	if result.BaseAmount != 1_000_000_001 {
		t.Fatalf("expected deferred 1000000001, got %d", result.BaseAmount)
	}
}

func TestRouteContributionHybridSwapFailure(t *testing.T) {
	rate := big.NewRat(150, 1)
	router, _, swapper := newTestRouter(t, rate, rate)
	swapper.SetDisabled(true)

	result := router.RouteContribution(StrategyHybrid, 2_000_000_000, routerSource, routerDest)
	if result.Converted || result.StableAmount != 0 {
		t.Fatalf("hybrid swap failure must defer everything, got %+v", result)
	}
	if result.BaseAmount != 2_000_000_000 {
		t.Fatalf("expected full deferral, got %+v", result)
	}
}

func TestRouteContributionZeroAmount(t *testing.T) {
	rate := big.NewRat(150, 1)
	router, _, _ := newTestRouter(t, rate, rate)
	if result := router.RouteContribution(StrategyInstant, 0, routerSource, routerDest); result != (Result{}) {
		t.Fatalf("expected empty result for zero amount, got %+v", result)
	}
}

func TestSlippageBound(t *testing.T) {
	// Oracle quotes 1000 stable per whole base; default slippage is 50 bps so
	// the minimum acceptable output for one whole base unit is 995.
	oracleRate := big.NewRat(1000, 1)
	router, _, swapper := newTestRouter(t, oracleRate, big.NewRat(996, 1))
	result := router.RouteContribution(StrategyInstant, 1_000_000_000, routerSource, routerDest)
	if !result.Converted || result.StableAmount != 996 {
		t.Fatalf("fill within slippage must convert, got %+v", result)
	}

	swapper.SetRate(big.NewRat(990, 1))
	result = router.RouteContribution(StrategyInstant, 1_000_000_000, routerSource, routerDest)
	if result.Converted {
		t.Fatalf("fill beyond slippage must fall back, got %+v", result)
	}
	if result.BaseAmount != 1_000_000_000 {
		t.Fatalf("expected full deferral, got %+v", result)
	}
}

func TestConvertPayout(t *testing.T) {
	rate := big.NewRat(150, 1)
	router, _, swapper := newTestRouter(t, rate, rate)

	out, ok := router.ConvertPayout(2_000_000_000, routerSource, routerDest)
	if !ok || out != 300 {
		t.Fatalf("expected payout conversion of 300, got %d ok=%v", out, ok)
	}

	swapper.SetDisabled(true)
	if _, ok := router.ConvertPayout(2_000_000_000, routerSource, routerDest); ok {
		t.Fatalf("expected payout conversion to report failure")
	}
	if _, ok := router.ConvertPayout(0, routerSource, routerDest); ok {
		t.Fatalf("zero amount must not convert")
	}
}

func TestQuoteStableStaleness(t *testing.T) {
	rate := big.NewRat(150, 1)
	router, oracle, _ := newTestRouter(t, nil, rate)
	oracle.Set("SOL", "USDC", rate, time.Unix(1_700_000_000, 0).Add(-61*time.Second))
	if _, err := router.QuoteStable(1_000_000_000); !errors.Is(err, ErrStalePrice) {
		t.Fatalf("expected ErrStalePrice, got %v", err)
	}
}

func TestManualSwapperFailsClosed(t *testing.T) {
	swapper := NewManualSwapper(nil, 9)
	if _, err := swapper.Swap(1, 0, routerSource, routerDest); !errors.Is(err, ErrSwapFailed) {
		t.Fatalf("expected ErrSwapFailed without a rate, got %v", err)
	}
	swapper = NewManualSwapper(big.NewRat(100, 1), 9)
	if _, err := swapper.Swap(1_000_000_000, 101, routerSource, routerDest); !errors.Is(err, ErrSwapFailed) {
		t.Fatalf("expected ErrSwapFailed below minAmountOut, got %v", err)
	}
	out, err := swapper.Swap(1_000_000_000, 100, routerSource, routerDest)
	if err != nil || out != 100 {
		t.Fatalf("expected fill of 100, got %d err=%v", out, err)
	}
}
