package fee

import (
	"github.com/hxuan190/stakedex-engine/internal/domain"
)

// Flat charges ceil(gross * Ratio) regardless of pool utilization.
type Flat struct {
	Ratio Rational `json:"ratio"`
}

func (f Flat) Apply(_ domain.PoolBalance, gross uint64) (uint64, error) {
	if err := f.Ratio.Validate(); err != nil {
		return 0, err
	}
	fee, err := mulDivCeil(gross, f.Ratio.Num, f.Ratio.Denom)
	if err != nil {
		return 0, err
	}
	return min(fee, gross), nil
}

// PseudoReverse inverts the curve in closed form: the smallest gross with
// floor(gross * (d-n) / d) >= net is ceil(net * d / (d-n)).
func (f Flat) PseudoReverse(balance domain.PoolBalance, net uint64) (uint64, error) {
	if err := f.Ratio.Validate(); err != nil {
		return 0, err
	}
	if net == 0 {
		return 0, nil
	}
	keep := f.Ratio.Denom - f.Ratio.Num
	if keep == 0 {
		return 0, domain.ErrMath
	}
	gross, err := mulDivCeil(net, f.Ratio.Denom, keep)
	if err != nil {
		return 0, err
	}
	return settle(f, balance, gross, net)
}
