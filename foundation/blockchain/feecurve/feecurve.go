// Package feecurve prices L2 gas on an exponential bonding curve. The curve
// converts an accumulated gas excess into an amount of currency: buying gas
// moves along the curve and the base fee is the price paid per unit.
package feecurve

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/taikoxyz/taiko-mono/foundation/fixedpoint"
)

// ErrInvalidCurve is returned when a curve is built with a zero target or
// adjustment quotient.
var ErrInvalidCurve = errors.New("feecurve: target and adjustment quotient must be non-zero")

// Curve is an exponential bonding curve. The product of target and
// adjustment quotient controls how sharply the price responds to excess.
type Curve struct {
	minBaseFee uint64
	divisor    *big.Int
}

// New constructs a curve for the specified target gas per period and
// adjustment quotient. Base fees never drop below minBaseFee, or one wei when
// minBaseFee is zero.
func New(target uint64, quotient uint64, minBaseFee uint64) (*Curve, error) {
	if target == 0 || quotient == 0 {
		return nil, ErrInvalidCurve
	}

	divisor := new(big.Int).SetUint64(target)
	divisor.Mul(divisor, new(big.Int).SetUint64(quotient))

	c := Curve{
		minBaseFee: max(minBaseFee, 1),
		divisor:    divisor,
	}

	return &c, nil
}

// EthQty returns the amount of currency, scaled by 1e18, accumulated on the
// curve for the specified amount of gas. Inputs beyond the exp domain are
// clamped so the caller always gets an answer.
func (c *Curve) EthQty(gas *big.Int) *big.Int {
	input := new(big.Int).Mul(gas, fixedpoint.Scale)
	input.Quo(input, c.divisor)

	if input.Cmp(fixedpoint.MaxExpInput) > 0 {
		input.Set(fixedpoint.MaxExpInput)
	}

	return fixedpoint.MustExp(input)
}

// SpotBaseFee returns the instantaneous marginal price of gas at the
// specified excess.
func (c *Curve) SpotBaseFee(excess uint64) *uint256.Int {
	fee := c.EthQty(new(big.Int).SetUint64(excess))
	fee.Quo(fee, fixedpoint.Scale)
	fee.Quo(fee, c.divisor)

	return c.floor(fee)
}

// PurchaseBaseFee returns the average price per unit paid for buying gasUsed
// gas starting at the specified excess. Buying nothing costs the spot price.
func (c *Curve) PurchaseBaseFee(excess uint64, gasUsed uint64) *uint256.Int {
	if gasUsed == 0 {
		return c.SpotBaseFee(excess)
	}

	start := new(big.Int).SetUint64(excess)
	end := new(big.Int).Add(start, new(big.Int).SetUint64(gasUsed))

	fee := c.EthQty(end)
	fee.Sub(fee, c.EthQty(start))
	fee.Quo(fee, new(big.Int).SetUint64(gasUsed))
	fee.Quo(fee, fixedpoint.Scale)

	return c.floor(fee)
}

// ExcessForBaseFee returns the smallest gas excess at which the spot base
// fee reaches the specified fee. The curve is clamped at the top of the exp
// domain so a fee it can't reach returns the excess where the clamp starts.
func (c *Curve) ExcessForBaseFee(fee *uint256.Int) uint64 {

	// Excess beyond this value evaluates to the same clamped price.
	limit := new(big.Int).Mul(fixedpoint.MaxExpInput, c.divisor)
	limit.Quo(limit, fixedpoint.Scale)

	hi := ^uint64(0)
	if limit.IsUint64() {
		hi = limit.Uint64()
	}

	var lo uint64
	for lo < hi {
		mid := lo + (hi-lo)/2
		if c.SpotBaseFee(mid).Lt(fee) {
			lo = mid + 1
			continue
		}
		hi = mid
	}

	return lo
}

// =============================================================================

// floor converts the fee and applies the minimum base fee.
func (c *Curve) floor(fee *big.Int) *uint256.Int {
	v, overflow := uint256.FromBig(fee)
	if overflow {
		v = new(uint256.Int).SetAllOne()
	}

	if v.LtUint64(c.minBaseFee) {
		v.SetUint64(c.minBaseFee)
	}

	return v
}
