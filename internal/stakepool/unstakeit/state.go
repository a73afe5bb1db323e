package unstakeit

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/stakedex-engine/internal/fee"
)

var errDiscriminator = errors.New("account discriminator mismatch")

// Pool is the unstake.it liquidity pool account.
type Pool struct {
	FeeAuthority  solana.PublicKey
	LpMint        solana.PublicKey
	IncomingStake uint64
}

// ProtocolFee configures the cut of every unstake fee paid to the protocol.
type ProtocolFee struct {
	Destination      solana.PublicKey
	Authority        solana.PublicKey
	FeeRatio         fee.Rational
	ReferrerFeeRatio fee.Rational
}

func anchorDecoder(data []byte, want [8]byte) (*bin.Decoder, error) {
	if len(data) < len(want) || !bytes.Equal(data[:len(want)], want[:]) {
		return nil, errDiscriminator
	}
	return bin.NewBorshDecoder(data[len(want):]), nil
}

func DecodePool(data []byte) (*Pool, error) {
	dec, err := anchorDecoder(data, poolDiscriminator)
	if err != nil {
		return nil, err
	}
	var p Pool
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}
	return &p, nil
}

// DecodeFee reads the fee account, a single FeeEnum.
func DecodeFee(data []byte) (fee.Schedule, error) {
	dec, err := anchorDecoder(data, feeDiscriminator)
	if err != nil {
		return nil, err
	}
	return fee.DecodeSchedule(dec)
}

func DecodeProtocolFee(data []byte) (*ProtocolFee, error) {
	dec, err := anchorDecoder(data, protocolFeeDiscriminator)
	if err != nil {
		return nil, err
	}
	p := &ProtocolFee{}
	if err := dec.Decode(&p.Destination); err != nil {
		return nil, fmt.Errorf("protocol fee: %w", err)
	}
	if err := dec.Decode(&p.Authority); err != nil {
		return nil, fmt.Errorf("protocol fee: %w", err)
	}
	if p.FeeRatio, err = fee.DecodeRational(dec); err != nil {
		return nil, fmt.Errorf("protocol fee: %w", err)
	}
	if p.ReferrerFeeRatio, err = fee.DecodeRational(dec); err != nil {
		return nil, fmt.Errorf("protocol fee: %w", err)
	}
	return p, nil
}

// EncodePool serializes p with its account discriminator.
func EncodePool(p *Pool) []byte {
	buf := bytes.NewBuffer(append([]byte(nil), poolDiscriminator[:]...))
	enc := bin.NewBorshEncoder(buf)
	_ = enc.Encode(p)
	return buf.Bytes()
}

func EncodeFee(s fee.Schedule) ([]byte, error) {
	body, err := fee.EncodeSchedule(s)
	if err != nil {
		return nil, err
	}
	return append(append([]byte(nil), feeDiscriminator[:]...), body...), nil
}

func EncodeProtocolFee(p *ProtocolFee) []byte {
	buf := bytes.NewBuffer(append([]byte(nil), protocolFeeDiscriminator[:]...))
	enc := bin.NewBorshEncoder(buf)
	_ = enc.Encode(p.Destination)
	_ = enc.Encode(p.Authority)
	for _, r := range []fee.Rational{p.FeeRatio, p.ReferrerFeeRatio} {
		_ = enc.WriteUint64(r.Num, bin.LE)
		_ = enc.WriteUint64(r.Denom, bin.LE)
	}
	return buf.Bytes()
}
