package fee

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/stakedex-engine/internal/domain"
)

func TestFlatApply(t *testing.T) {
	f := Flat{Ratio: Rational{Num: 3, Denom: 1000}}
	balance := domain.PoolBalance{PoolIncomingStake: 1_000, SolReservesLamports: 5_000_000_000}

	got, err := f.Apply(balance, 10_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(30_000), got)
	assert.Equal(t, uint64(9_970_000), 10_000_000-got)

	// rounds up
	got, err = f.Apply(balance, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got)

	got, err = f.Apply(balance, 0)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestFlatInvalidRatio(t *testing.T) {
	for _, r := range []Rational{{Num: 1, Denom: 0}, {Num: 2, Denom: 1}} {
		_, err := Flat{Ratio: r}.Apply(domain.PoolBalance{}, 100)
		assert.ErrorIs(t, err, domain.ErrMath)
		_, err = Flat{Ratio: r}.PseudoReverse(domain.PoolBalance{}, 100)
		assert.ErrorIs(t, err, domain.ErrMath)
	}
}

func TestFlatFullFeeCannotReverse(t *testing.T) {
	f := Flat{Ratio: Rational{Num: 1, Denom: 1}}
	_, err := f.PseudoReverse(domain.PoolBalance{}, 10)
	assert.ErrorIs(t, err, domain.ErrMath)

	got, err := f.PseudoReverse(domain.PoolBalance{}, 0)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestRatioApply(t *testing.T) {
	tests := []struct {
		name  string
		r     Ratio
		gross uint64
		want  uint64
	}{
		{"zero denominator", Ratio{Denominator: 0, Numerator: 5}, 1_000, 0},
		{"zero numerator", Ratio{Denominator: 1000, Numerator: 0}, 1_000, 0},
		{"floors", Ratio{Denominator: 1000, Numerator: 3}, 999, 2},
		{"exact", Ratio{Denominator: 1000, Numerator: 3}, 1_000_000, 3_000},
		{"capped at gross", Ratio{Denominator: 1, Numerator: 2}, 50, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.r.Apply(domain.PoolBalance{}, tt.gross)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLiquidityLinearApply(t *testing.T) {
	l := LiquidityLinear{
		MaxLiqRemaining:  Rational{Num: 1, Denom: 1000},
		ZeroLiqRemaining: Rational{Num: 1, Denom: 100},
	}
	balance := domain.PoolBalance{PoolIncomingStake: 0, SolReservesLamports: 1_000_000}

	tests := []struct {
		gross uint64
		want  uint64
	}{
		{0, 0},
		{500_000, 2_750},
		{1_000_000, 10_000},
		// utilization is capped at one
		{2_000_000, 20_000},
	}
	for _, tt := range tests {
		got, err := l.Apply(balance, tt.gross)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "gross %d", tt.gross)
	}
}

func TestLiquidityLinearEmptyPool(t *testing.T) {
	l := LiquidityLinear{
		MaxLiqRemaining:  Rational{Num: 1, Denom: 1000},
		ZeroLiqRemaining: Rational{Num: 1, Denom: 100},
	}
	_, err := l.Apply(domain.PoolBalance{}, 10)
	assert.ErrorIs(t, err, domain.ErrMath)
}

func TestLiquidityLinearRejectsInvertedCurve(t *testing.T) {
	l := LiquidityLinear{
		MaxLiqRemaining:  Rational{Num: 1, Denom: 100},
		ZeroLiqRemaining: Rational{Num: 1, Denom: 1000},
	}
	_, err := l.Apply(domain.PoolBalance{SolReservesLamports: 100}, 10)
	assert.ErrorIs(t, err, domain.ErrMath)
}

func TestPseudoReverseRoundTrip(t *testing.T) {
	schedules := map[string]Schedule{
		"flat 0.3%":  Flat{Ratio: Rational{Num: 3, Denom: 1000}},
		"flat 7/9":   Flat{Ratio: Rational{Num: 7, Denom: 9}},
		"flat zero":  Flat{Ratio: Rational{Num: 0, Denom: 1}},
		"ratio 0.1%": Ratio{Denominator: 1000, Numerator: 1},
		"ratio 1/3":  Ratio{Denominator: 3, Numerator: 1},
		"liquidity linear": LiquidityLinear{
			MaxLiqRemaining:  Rational{Num: 8, Denom: 10_000},
			ZeroLiqRemaining: Rational{Num: 30, Denom: 1_000},
		},
	}
	balances := []domain.PoolBalance{
		{PoolIncomingStake: 0, SolReservesLamports: 10_000_000_000},
		{PoolIncomingStake: 1_000, SolReservesLamports: 5_000_000_000},
		{PoolIncomingStake: 40_000_000_000, SolReservesLamports: 6_000_000},
	}
	nets := []uint64{1, 2, 999, 4_565_760, 5_000_000}

	for name, s := range schedules {
		for _, balance := range balances {
			for _, net := range nets {
				gross, err := s.PseudoReverse(balance, net)
				require.NoError(t, err, "%s net=%d", name, net)

				f, err := s.Apply(balance, gross)
				require.NoError(t, err)
				assert.Equal(t, net, gross-f, "%s balance=%+v net=%d", name, balance, net)

				if gross > 0 {
					f, err := s.Apply(balance, gross-1)
					require.NoError(t, err)
					assert.Less(t, gross-1-f, net, "%s: gross %d is not minimal", name, gross)
				}
			}
		}
	}
}

func TestPseudoReverseOverflow(t *testing.T) {
	_, err := Flat{Ratio: Rational{Num: 1, Denom: 2}}.PseudoReverse(domain.PoolBalance{}, math.MaxUint64-1)
	assert.ErrorIs(t, err, domain.ErrMath)

	l := LiquidityLinear{
		MaxLiqRemaining:  Rational{Num: 1, Denom: 2},
		ZeroLiqRemaining: Rational{Num: 1, Denom: 2},
	}
	_, err = l.PseudoReverse(domain.PoolBalance{SolReservesLamports: 1}, math.MaxUint64-1)
	assert.ErrorIs(t, err, domain.ErrMath)
}

func TestLiquidityLinearReverseSteepCurve(t *testing.T) {
	l := LiquidityLinear{
		MaxLiqRemaining:  Rational{Num: 1, Denom: 1_000},
		ZeroLiqRemaining: Rational{Num: 1, Denom: 2},
	}
	balance := domain.PoolBalance{SolReservesLamports: 1_000_000_000}

	tests := []struct {
		net   uint64
		gross uint64
	}{
		{490_000_000, 859_435_468},
		{495_000_000, 900_896_839},
		{250_000_000, 293_186_345},
	}
	for _, tt := range tests {
		gross, err := l.PseudoReverse(balance, tt.net)
		require.NoError(t, err, "net=%d", tt.net)
		assert.Equal(t, tt.gross, gross, "net=%d", tt.net)

		f, err := l.Apply(balance, gross)
		require.NoError(t, err)
		assert.Equal(t, tt.net, gross-f)

		f, err = l.Apply(balance, gross-1)
		require.NoError(t, err)
		assert.Less(t, gross-1-f, tt.net, "gross %d is not minimal", gross)
	}
}

func TestLiquidityLinearReverseMonotoneInIncomingStake(t *testing.T) {
	l := LiquidityLinear{
		MaxLiqRemaining:  Rational{Num: 8, Denom: 10_000},
		ZeroLiqRemaining: Rational{Num: 30, Denom: 1_000},
	}
	const net = 4_565_760
	var prev uint64
	for incoming := uint64(0); incoming <= 100_000_000_000; incoming += 5_000_000_000 {
		gross, err := l.PseudoReverse(domain.PoolBalance{PoolIncomingStake: incoming, SolReservesLamports: 20_000_000}, net)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, gross, prev, "incoming %d", incoming)
		prev = gross
	}
}

func TestDecodeSchedule(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(tagLiquidityLinear)
	for _, v := range []uint64{8, 10_000, 30, 1_000} {
		buf.Write(binary.LittleEndian.AppendUint64(nil, v))
	}
	s, err := DecodeSchedule(bin.NewBorshDecoder(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, LiquidityLinear{
		MaxLiqRemaining:  Rational{Num: 8, Denom: 10_000},
		ZeroLiqRemaining: Rational{Num: 30, Denom: 1_000},
	}, s)
	assert.Equal(t, "liquidity-linear", Name(s))

	buf.Reset()
	buf.WriteByte(tagFlat)
	buf.Write(binary.LittleEndian.AppendUint64(nil, 3))
	buf.Write(binary.LittleEndian.AppendUint64(nil, 1000))
	s, err = DecodeSchedule(bin.NewBorshDecoder(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, Flat{Ratio: Rational{Num: 3, Denom: 1000}}, s)

	_, err = DecodeSchedule(bin.NewBorshDecoder([]byte{7}))
	assert.Error(t, err)

	_, err = DecodeSchedule(bin.NewBorshDecoder([]byte{tagFlat, 1, 2}))
	assert.Error(t, err)
}
