package fee

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

const (
	tagFlat uint8 = iota
	tagLiquidityLinear
)

// DecodeRational reads a borsh {num: u64, denom: u64}.
func DecodeRational(dec *bin.Decoder) (Rational, error) {
	num, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return Rational{}, err
	}
	denom, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return Rational{}, err
	}
	return Rational{Num: num, Denom: denom}, nil
}

// DecodeSchedule reads an instant-unstake fee enum: tag 0 is Flat{ratio},
// tag 1 is LiquidityLinear{max_liq_remaining, zero_liq_remaining}.
func DecodeSchedule(dec *bin.Decoder) (Schedule, error) {
	tag, err := dec.ReadUint8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagFlat:
		ratio, err := DecodeRational(dec)
		if err != nil {
			return nil, err
		}
		if err := ratio.Validate(); err != nil {
			return nil, err
		}
		return Flat{Ratio: ratio}, nil
	case tagLiquidityLinear:
		maxLiq, err := DecodeRational(dec)
		if err != nil {
			return nil, err
		}
		zeroLiq, err := DecodeRational(dec)
		if err != nil {
			return nil, err
		}
		l := LiquidityLinear{MaxLiqRemaining: maxLiq, ZeroLiqRemaining: zeroLiq}
		if err := l.validate(); err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unknown fee variant %d", tag)
	}
}

// DecodeRatio reads an SPL stake-pool fee {denominator: u64, numerator: u64}.
func DecodeRatio(dec *bin.Decoder) (Ratio, error) {
	denominator, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return Ratio{}, err
	}
	numerator, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return Ratio{}, err
	}
	return Ratio{Denominator: denominator, Numerator: numerator}, nil
}

// Name is a short label for a schedule, used in logs and API responses.
func Name(s Schedule) string {
	switch s.(type) {
	case Flat, *Flat:
		return "flat"
	case LiquidityLinear, *LiquidityLinear:
		return "liquidity-linear"
	case Ratio, *Ratio:
		return "ratio"
	default:
		return "unknown"
	}
}

// EncodeSchedule is the inverse of DecodeSchedule for the instant-unstake variants.
func EncodeSchedule(s Schedule) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	var parts []Rational
	switch v := s.(type) {
	case Flat:
		parts = []Rational{v.Ratio}
		_ = enc.WriteUint8(tagFlat)
	case LiquidityLinear:
		parts = []Rational{v.MaxLiqRemaining, v.ZeroLiqRemaining}
		_ = enc.WriteUint8(tagLiquidityLinear)
	default:
		return nil, fmt.Errorf("fee variant %s has no instant-unstake encoding", Name(s))
	}
	for _, r := range parts {
		if err := enc.WriteUint64(r.Num, bin.LE); err != nil {
			return nil, err
		}
		if err := enc.WriteUint64(r.Denom, bin.LE); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
