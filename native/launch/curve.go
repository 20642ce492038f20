package launch

import (
	"errors"

	"github.com/holiman/uint256"
)

var (
	// ErrInvalidAmount rejects zero-size trades before any state change.
	ErrInvalidAmount = errors.New("launch: amount must be positive")
	// ErrArithmeticOverflow is returned when a computation would leave the
	// 64-bit accounting domain.
	ErrArithmeticOverflow = errors.New("launch: arithmetic overflow")
)

// mulDiv computes a*b/den with a 256-bit intermediate, truncating toward
// zero. Reserve products can exceed 2^64 so the widened type is mandatory.
func mulDiv(a, b, den uint64) (uint64, error) {
	if den == 0 {
		return 0, ErrArithmeticOverflow
	}
	product := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	quotient := product.Div(product, uint256.NewInt(den))
	if !quotient.IsUint64() {
		return 0, ErrArithmeticOverflow
	}
	return quotient.Uint64(), nil
}

// QuoteBuy prices a buy against the constant-product curve. Reserves passed
// in are the virtual and real components combined. The truncating division
// rounds the token output down, so the reserve product never decreases across
// the trade.
func QuoteBuy(baseIn, baseReserves, tokenReserves uint64) (uint64, error) {
	if baseIn == 0 {
		return 0, ErrInvalidAmount
	}
	newBase := baseReserves + baseIn
	if newBase < baseReserves {
		return 0, ErrArithmeticOverflow
	}
	return mulDiv(tokenReserves, baseIn, newBase)
}

// QuoteSell prices a sell against the constant-product curve with the same
// combined-reserve and rounding conventions as QuoteBuy. The caller must
// reject outputs exceeding the available real base reserves.
func QuoteSell(tokensIn, baseReserves, tokenReserves uint64) (uint64, error) {
	if tokensIn == 0 {
		return 0, ErrInvalidAmount
	}
	newToken := tokenReserves + tokensIn
	if newToken < tokenReserves {
		return 0, ErrArithmeticOverflow
	}
	return mulDiv(baseReserves, tokensIn, newToken)
}

// SpotPrice returns the marginal curve price in base smallest units per whole
// token, scaled by the token's decimals.
func SpotPrice(baseReserves, tokenReserves uint64, tokenDecimals uint8) (uint64, error) {
	if tokenReserves == 0 {
		return 0, ErrInvalidAmount
	}
	if tokenDecimals > 19 {
		return 0, ErrArithmeticOverflow
	}
	scale := uint64(1)
	for i := uint8(0); i < tokenDecimals; i++ {
		scale *= 10
	}
	return mulDiv(baseReserves, scale, tokenReserves)
}
