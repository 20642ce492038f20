package launch

// FeeBps is the creator fee charged on every trade, in basis points.
const FeeBps = 100

// Split divides a buy's gross proceeds into the creator fee, the share routed
// to the funding pool and the share retained as curve liquidity.
type Split struct {
	Fee            uint64
	FundingShare   uint64
	LiquidityShare uint64
}

// Net returns the post-fee proceeds.
func (s Split) Net() uint64 {
	return s.FundingShare + s.LiquidityShare
}

// TradeFee computes the creator fee on a gross trade amount.
func TradeFee(gross uint64) (uint64, error) {
	return mulDiv(gross, FeeBps, 10_000)
}

// SplitBuyProceeds divides a buy's gross amount. Once the funding goal is
// reached the funding share is forced to zero regardless of the configured
// ratio; post-goal trades are pure liquidity trades. Sells never contribute
// to the funding pool, so this split applies to buys only.
func SplitBuyProceeds(gross uint64, fundingRatio uint8, goalReached bool) (Split, error) {
	fee, err := TradeFee(gross)
	if err != nil {
		return Split{}, err
	}
	net := gross - fee
	funding := uint64(0)
	if !goalReached {
		funding, err = mulDiv(net, uint64(fundingRatio), 100)
		if err != nil {
			return Split{}, err
		}
	}
	return Split{Fee: fee, FundingShare: funding, LiquidityShare: net - funding}, nil
}
