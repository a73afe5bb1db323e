// Package fee implements the forward and reverse fee functions used to quote
// instant unstakes and stake-pool withdrawals.
package fee

import (
	"fmt"

	"github.com/hxuan190/stakedex-engine/internal/domain"
)

// Schedule is a fee curve over a pool balance snapshot.
//
// Apply returns the fee charged on gross. It never exceeds gross.
//
// PseudoReverse returns the smallest gross such that gross - Apply(gross) == net.
// It is exact for every variant in this package whenever it succeeds, and fails with
// domain.ErrMath when no such gross exists, the search budget runs out, or any
// intermediate value would overflow 64 bits.
type Schedule interface {
	Apply(balance domain.PoolBalance, gross uint64) (uint64, error)
	PseudoReverse(balance domain.PoolBalance, net uint64) (uint64, error)
}

// Rational is a non-negative fraction Num/Denom.
type Rational struct {
	Num   uint64 `json:"num"`
	Denom uint64 `json:"denom"`
}

// Validate checks that r is a ratio in [0, 1].
func (r Rational) Validate() error {
	if r.Denom == 0 {
		return fmt.Errorf("%w: zero denominator", domain.ErrMath)
	}
	if r.Num > r.Denom {
		return fmt.Errorf("%w: ratio %d/%d above one", domain.ErrMath, r.Num, r.Denom)
	}
	return nil
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Denom)
}
