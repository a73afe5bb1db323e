package fee

import (
	"github.com/hxuan190/stakedex-engine/internal/domain"
)

// Ratio is the SPL stake-pool fee: floor(gross * Numerator / Denominator), zero
// when Denominator is zero. Field order matches the on-chain layout.
type Ratio struct {
	Denominator uint64 `json:"denominator"`
	Numerator   uint64 `json:"numerator"`
}

func (r Ratio) Apply(_ domain.PoolBalance, gross uint64) (uint64, error) {
	if r.Denominator == 0 || r.Numerator == 0 {
		return 0, nil
	}
	fee, err := mulDivFloor(gross, r.Numerator, r.Denominator)
	if err != nil {
		return 0, err
	}
	return min(fee, gross), nil
}

func (r Ratio) PseudoReverse(balance domain.PoolBalance, net uint64) (uint64, error) {
	if r.Denominator == 0 || r.Numerator == 0 || net == 0 {
		return net, nil
	}
	if r.Numerator >= r.Denominator {
		return 0, domain.ErrMath
	}
	// gross - floor(gross*n/d) >= net  <=>  gross > (net-1)*d/(d-n)
	gross, err := mulDivFloor(net-1, r.Denominator, r.Denominator-r.Numerator)
	if err != nil {
		return 0, err
	}
	if gross, err = addU64(gross, 1); err != nil {
		return 0, err
	}
	return settle(r, balance, gross, net)
}
