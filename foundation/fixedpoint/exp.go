// Package fixedpoint provides fixed point arithmetic with 18 decimals of
// precision. Values are signed integers scaled by 1e18, so 1e18 represents 1.
package fixedpoint

import (
	"errors"
	"math/big"
)

// ErrOverflow is returned when the result of an operation can't be
// represented as a signed 256 bit fixed point value.
var ErrOverflow = errors.New("fixedpoint: exp overflow")

// Scale is the fixed point representation of 1.
var Scale = big.NewInt(1_000_000_000_000_000_000)

// Domain boundaries of Exp.
var (
	// MinExpInput is floor(ln(0.5e-18) * 1e18). At or below this input the
	// result rounds to zero.
	MinExpInput = mustBig("-42139678854452767551")

	// MaxExpInput is the largest input Exp accepts. The result for anything
	// above it doesn't fit into an int256.
	MaxExpInput = mustBig("135305999368893231588")
)

// Constants of the rational approximation. All of them are in a 2**96 basis.
var (
	pow5e18 = new(big.Int).Exp(big.NewInt(5), big.NewInt(18), nil)
	ln2     = mustBig("54916777467707473351141471128")
	half    = new(big.Int).Lsh(big.NewInt(1), 95)

	p1 = mustBig("1346386616545796478920950773328")
	p2 = mustBig("57155421227552351082224309758442")
	p3 = mustBig("94201549194550492254356042504812")
	p4 = mustBig("28719021644029726153956944680412240")
	p5 = new(big.Int).Lsh(mustBig("4385272521454847904659076985693276"), 96)

	q1 = mustBig("2855989394907223263936484059900")
	q2 = mustBig("50020603652535783019961831881945")
	q3 = mustBig("533845033583426703283633433725380")
	q4 = mustBig("3604857256930695427073651918091429")
	q5 = mustBig("14423608567350463180887372962807573")
	q6 = mustBig("26449188498355588339934803723976023")

	// scaleFactor folds the approximation scale factor (~6.031367120), the
	// 1e18 / 2**96 base conversion and a 2**195 shift into one multiplier.
	scaleFactor = mustBig("3822833074963236453042738258902158003155416615667")
)

// Exp returns e^x where x is a fixed point value with 18 decimals. The
// result carries the same scale. Inputs at or below MinExpInput return 0 and
// inputs above MaxExpInput fail with ErrOverflow.
func Exp(x *big.Int) (*big.Int, error) {
	if x.Cmp(MinExpInput) <= 0 {
		return new(big.Int), nil
	}
	if x.Cmp(MaxExpInput) > 0 {
		return nil, ErrOverflow
	}

	// Convert to a 2**96 basis: x * 2**96 / 1e18 == (x << 78) / 5**18.
	v := new(big.Int).Lsh(x, 78)
	v.Quo(v, pow5e18)

	// Reduce the range of x to (-ln2/2, ln2/2) by factoring out powers of
	// two such that exp(x) = exp(x') * 2**k with k = round(x / ln2).
	k := new(big.Int).Lsh(v, 96)
	k.Quo(k, ln2)
	k.Add(k, half)
	k.Rsh(k, 96)
	v.Sub(v, new(big.Int).Mul(k, ln2))

	// (6, 7) term rational approximation with a monic p. The numerator is
	// left in a 2**192 basis so the division lands back in 2**96.
	y := new(big.Int).Add(v, p1)
	y = mulShift(y, v)
	y.Add(y, p2)

	p := new(big.Int).Add(y, v)
	p.Sub(p, p3)
	p = mulShift(p, y)
	p.Add(p, p4)
	p.Mul(p, v)
	p.Add(p, p5)

	q := new(big.Int).Sub(v, q1)
	q = mulShift(q, v)
	q.Add(q, q2)
	q = mulShift(q, v)
	q.Sub(q, q3)
	q = mulShift(q, v)
	q.Add(q, q4)
	q = mulShift(q, v)
	q.Sub(q, q5)
	q = mulShift(q, v)
	q.Add(q, q6)

	// q has no real roots in the domain so the division is always defined.
	r := new(big.Int).Quo(p, q)

	// k is in [-61, 195] so the final shift is always positive.
	r.Mul(r, scaleFactor)
	r.Rsh(r, uint(195-k.Int64()))

	return r, nil
}

// MustExp is like Exp but panics on overflow. It is meant for inputs that
// were already clamped to MaxExpInput.
func MustExp(x *big.Int) *big.Int {
	r, err := Exp(x)
	if err != nil {
		panic(err)
	}
	return r
}

// =============================================================================

// mulShift returns (a * b) >> 96 using an arithmetic shift.
func mulShift(a, b *big.Int) *big.Int {
	r := new(big.Int).Mul(a, b)
	return r.Rsh(r, 96)
}

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("fixedpoint: invalid constant " + s)
	}
	return v
}
