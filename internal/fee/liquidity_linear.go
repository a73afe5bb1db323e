package fee

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/hxuan190/stakedex-engine/internal/domain"
)

// LiquidityLinear interpolates the fee rate linearly in pool utilization:
// MaxLiqRemaining applies when no liquidity is used, ZeroLiqRemaining when the
// trade would leave none.
//
//	owned = incoming + reserves
//	u     = min(incoming + gross, owned) / owned
//	rate  = max + (zero - max) * u
//	fee   = ceil(gross * rate)
type LiquidityLinear struct {
	MaxLiqRemaining  Rational `json:"maxLiqRemaining"`
	ZeroLiqRemaining Rational `json:"zeroLiqRemaining"`
}

func (l LiquidityLinear) validate() error {
	if err := l.MaxLiqRemaining.Validate(); err != nil {
		return err
	}
	if err := l.ZeroLiqRemaining.Validate(); err != nil {
		return err
	}
	// zeroN/zeroD >= maxN/maxD
	lhs := new(uint256.Int).Mul(uint256.NewInt(l.ZeroLiqRemaining.Num), uint256.NewInt(l.MaxLiqRemaining.Denom))
	rhs := new(uint256.Int).Mul(uint256.NewInt(l.MaxLiqRemaining.Num), uint256.NewInt(l.ZeroLiqRemaining.Denom))
	if lhs.Lt(rhs) {
		return fmt.Errorf("%w: zero-liquidity fee %s below max-liquidity fee %s", domain.ErrMath, l.ZeroLiqRemaining, l.MaxLiqRemaining)
	}
	return nil
}

func (l LiquidityLinear) Apply(balance domain.PoolBalance, gross uint64) (uint64, error) {
	if err := l.validate(); err != nil {
		return 0, err
	}
	owned, err := addU64(balance.PoolIncomingStake, balance.SolReservesLamports)
	if err != nil {
		return 0, err
	}
	if owned == 0 {
		return 0, fmt.Errorf("%w: pool owns no lamports", domain.ErrMath)
	}
	utilized, err := addU64(balance.PoolIncomingStake, gross)
	if err != nil {
		return 0, err
	}
	utilized = min(utilized, owned)

	maxN, maxD := l.MaxLiqRemaining.Num, l.MaxLiqRemaining.Denom
	zeroN, zeroD := l.ZeroLiqRemaining.Num, l.ZeroLiqRemaining.Denom

	// rate = (maxN*zeroD*owned + (zeroN*maxD - maxN*zeroD)*utilized) / (maxD*zeroD*owned)
	base, overflow := mul3(maxN, zeroD, owned)
	if overflow {
		return 0, domain.ErrMath
	}
	slope := new(uint256.Int).Mul(uint256.NewInt(zeroN), uint256.NewInt(maxD))
	slope.Sub(slope, new(uint256.Int).Mul(uint256.NewInt(maxN), uint256.NewInt(zeroD)))
	if _, overflow = slope.MulOverflow(slope, uint256.NewInt(utilized)); overflow {
		return 0, domain.ErrMath
	}
	num, overflow := base.AddOverflow(base, slope)
	if overflow {
		return 0, domain.ErrMath
	}
	if _, overflow = num.MulOverflow(num, uint256.NewInt(gross)); overflow {
		return 0, domain.ErrMath
	}
	den, overflow := mul3(maxD, zeroD, owned)
	if overflow {
		return 0, domain.ErrMath
	}
	fee, err := ceilDiv(num, den)
	if err != nil {
		return 0, err
	}
	return min(fee, gross), nil
}

// PseudoReverse has no closed form because the rate depends on gross itself. It
// iterates gross = net + fee(gross), which converges while the marginal fee rate
// d(fee)/d(gross) stays below 1; each step shrinks the error by that rate. Curves
// whose marginal rate approaches 1 near the answer exhaust maxReverseIterations
// and finish by bisection. The result is exact: Apply(balance, gross) == gross - net.
func (l LiquidityLinear) PseudoReverse(balance domain.PoolBalance, net uint64) (uint64, error) {
	if err := l.validate(); err != nil {
		return 0, err
	}
	return fixedPoint(l, balance, net)
}
