package splstakepool

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/stakedex-engine/internal/fee"
)

// reader is a sticky-error wrapper over a borsh decoder: after the first failure
// every read returns a zero value and err keeps the first cause.
type reader struct {
	dec *bin.Decoder
	err error
}

func newReader(data []byte) *reader {
	return &reader{dec: bin.NewBorshDecoder(data)}
}

func (r *reader) u8() uint8 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint8()
	r.err = err
	return v
}

func (r *reader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint32(bin.LE)
	r.err = err
	return v
}

func (r *reader) u64() uint64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint64(bin.LE)
	r.err = err
	return v
}

func (r *reader) i64() int64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadInt64(bin.LE)
	r.err = err
	return v
}

func (r *reader) pubkey() solana.PublicKey {
	if r.err != nil {
		return solana.PublicKey{}
	}
	b, err := r.dec.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		r.err = err
		return solana.PublicKey{}
	}
	return solana.PublicKeyFromBytes(b)
}

func (r *reader) optionPubkey() *solana.PublicKey {
	switch r.u8() {
	case 0:
		return nil
	case 1:
		pk := r.pubkey()
		if r.err != nil {
			return nil
		}
		return &pk
	default:
		if r.err == nil {
			r.err = errInvalidOption
		}
		return nil
	}
}

func (r *reader) ratio() fee.Ratio {
	if r.err != nil {
		return fee.Ratio{}
	}
	v, err := fee.DecodeRatio(r.dec)
	r.err = err
	return v
}

// futureEpochRatio reads FutureEpoch<Fee>: 0 None, 1 One(fee), 2 Two(fee).
func (r *reader) futureEpochRatio() FutureEpochFee {
	tag := r.u8()
	switch tag {
	case 0:
		return FutureEpochFee{}
	case 1, 2:
		return FutureEpochFee{EpochsAway: tag, Fee: r.ratio()}
	default:
		if r.err == nil {
			r.err = errInvalidOption
		}
		return FutureEpochFee{}
	}
}
