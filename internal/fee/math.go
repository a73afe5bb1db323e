package fee

import (
	"github.com/holiman/uint256"

	"github.com/hxuan190/stakedex-engine/internal/domain"
)

// mulDivFloor computes floor(a * b / c) with a 256-bit intermediate.
func mulDivFloor(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, domain.ErrMath
	}
	x := uint256.NewInt(a)
	x.Mul(x, uint256.NewInt(b))
	x.Div(x, uint256.NewInt(c))
	if !x.IsUint64() {
		return 0, domain.ErrMath
	}
	return x.Uint64(), nil
}

// mulDivCeil computes ceil(a * b / c) with a 256-bit intermediate.
func mulDivCeil(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, domain.ErrMath
	}
	x := uint256.NewInt(a)
	x.Mul(x, uint256.NewInt(b))
	return ceilDiv(x, uint256.NewInt(c))
}

// ceilDiv returns ceil(x / d) as a uint64. x is clobbered.
func ceilDiv(x, d *uint256.Int) (uint64, error) {
	if d.IsZero() {
		return 0, domain.ErrMath
	}
	rem := new(uint256.Int)
	x.DivMod(x, d, rem)
	if !rem.IsZero() {
		x.AddUint64(x, 1)
	}
	if !x.IsUint64() {
		return 0, domain.ErrMath
	}
	return x.Uint64(), nil
}

func mul3(a, b, c uint64) (*uint256.Int, bool) {
	x := uint256.NewInt(a)
	x.Mul(x, uint256.NewInt(b))
	return x.MulOverflow(x, uint256.NewInt(c))
}

func addU64(a, b uint64) (uint64, error) {
	s := a + b
	if s < a {
		return 0, domain.ErrMath
	}
	return s, nil
}
