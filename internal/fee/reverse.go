package fee

import (
	"fmt"
	"math"

	"github.com/hxuan190/stakedex-engine/internal/domain"
)

const (
	// maxSettleSteps bounds the unit corrections applied after a closed-form inversion.
	// Linear curves land within one unit of the answer, so two steps each way suffice.
	maxSettleSteps = 4

	// maxReverseIterations bounds the fixed-point search for utilization-dependent curves
	// before it falls back to bisection. Each step shrinks the error by roughly the
	// marginal fee rate, so steep curves near full utilization need the fallback.
	maxReverseIterations = 64
)

// settle moves a closed-form estimate onto the smallest gross whose net equals want.
func settle(s Schedule, balance domain.PoolBalance, gross, want uint64) (uint64, error) {
	for i := 0; ; i++ {
		if i == maxSettleSteps {
			return 0, fmt.Errorf("%w: reverse fee did not settle", domain.ErrMath)
		}
		net, err := netOf(s, balance, gross)
		if err != nil {
			return 0, err
		}
		if net >= want {
			break
		}
		if gross, err = addU64(gross, 1); err != nil {
			return 0, err
		}
	}
	for i := 0; i < maxSettleSteps && gross > 0; i++ {
		net, err := netOf(s, balance, gross-1)
		if err != nil || net < want {
			break
		}
		gross--
	}
	net, err := netOf(s, balance, gross)
	if err != nil {
		return 0, err
	}
	if net != want {
		return 0, fmt.Errorf("%w: no gross amount nets exactly %d", domain.ErrMath, want)
	}
	return gross, nil
}

// fixedPoint iterates gross = net + fee(gross) from gross = net. The fee is
// non-decreasing in gross so the sequence is non-decreasing; it stops at the
// smallest fixed point, where gross - fee(gross) == net exactly. When the
// iteration budget runs out the last iterate still lies below that fixed point
// and bisection finishes the search.
func fixedPoint(s Schedule, balance domain.PoolBalance, net uint64) (uint64, error) {
	gross := net
	for i := 0; i < maxReverseIterations; i++ {
		f, err := s.Apply(balance, gross)
		if err != nil {
			return 0, err
		}
		next, err := addU64(net, f)
		if err != nil {
			return 0, err
		}
		if next == gross {
			return gross, nil
		}
		gross = next
	}
	return bisect(s, balance, net, gross)
}

// bisect finds the smallest gross above lo with net + fee(gross) <= gross, where
// lo falls short. The fee is non-decreasing, so that boundary is a fixed point.
func bisect(s Schedule, balance domain.PoolBalance, net, lo uint64) (uint64, error) {
	short := func(gross uint64) (bool, error) {
		f, err := s.Apply(balance, gross)
		if err != nil {
			return false, err
		}
		want, err := addU64(net, f)
		if err != nil {
			return false, err
		}
		return want > gross, nil
	}

	hi := max(lo, 1)
	for {
		ok, err := short(hi)
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		if hi > math.MaxUint64/2 {
			return 0, fmt.Errorf("%w: no gross amount nets %d", domain.ErrMath, net)
		}
		lo, hi = hi, hi*2
	}
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		ok, err := short(mid)
		if err != nil {
			return 0, err
		}
		if ok {
			lo = mid
		} else {
			hi = mid
		}
	}

	got, err := netOf(s, balance, hi)
	if err != nil {
		return 0, err
	}
	if got != net {
		return 0, fmt.Errorf("%w: no gross amount nets exactly %d", domain.ErrMath, net)
	}
	return hi, nil
}

func netOf(s Schedule, balance domain.PoolBalance, gross uint64) (uint64, error) {
	f, err := s.Apply(balance, gross)
	if err != nil {
		return 0, err
	}
	return gross - f, nil
}
