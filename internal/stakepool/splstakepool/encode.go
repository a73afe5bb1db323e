package splstakepool

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/stakedex-engine/internal/fee"
)

type writer struct{ buf []byte }

func (w *writer) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *writer) u32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *writer) u64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }
func (w *writer) i64(v int64)  { w.u64(uint64(v)) }

func (w *writer) key(k solana.PublicKey) {
	w.buf = append(w.buf, k[:]...)
}

func (w *writer) optKey(k *solana.PublicKey) {
	if k == nil {
		w.u8(0)
		return
	}
	w.u8(1)
	w.key(*k)
}

func (w *writer) ratio(r fee.Ratio) {
	w.u64(r.Denominator)
	w.u64(r.Numerator)
}

func (w *writer) future(f FutureEpochFee) {
	w.u8(f.EpochsAway)
	if f.EpochsAway != 0 {
		w.ratio(f.Fee)
	}
}

// Encode serializes p in the on-chain layout DecodeStakePool reads.
func (p *StakePool) Encode() []byte {
	w := &writer{}
	w.u8(accountTypeStakePool)
	w.key(p.Manager)
	w.key(p.Staker)
	w.key(p.StakeDepositAuthority)
	w.u8(p.StakeWithdrawBumpSeed)
	w.key(p.ValidatorList)
	w.key(p.ReserveStake)
	w.key(p.PoolMint)
	w.key(p.ManagerFeeAccount)
	w.key(p.TokenProgramID)
	w.u64(p.TotalLamports)
	w.u64(p.PoolTokenSupply)
	w.u64(p.LastUpdateEpoch)
	w.i64(p.Lockup.UnixTimestamp)
	w.u64(p.Lockup.Epoch)
	w.key(p.Lockup.Custodian)
	w.ratio(p.EpochFee)
	w.future(p.NextEpochFee)
	w.optKey(p.PreferredDepositValidator)
	w.optKey(p.PreferredWithdrawValidator)
	w.ratio(p.StakeDepositFee)
	w.ratio(p.StakeWithdrawalFee)
	w.future(p.NextStakeWithdrawalFee)
	w.u8(p.StakeReferralFee)
	w.optKey(p.SolDepositAuthority)
	w.ratio(p.SolDepositFee)
	w.u8(p.SolReferralFee)
	w.optKey(p.SolWithdrawAuthority)
	w.ratio(p.SolWithdrawalFee)
	w.future(p.NextSolWithdrawalFee)
	w.u64(p.LastEpochPoolTokenSupply)
	w.u64(p.LastEpochTotalLamports)
	return w.buf
}

// Encode serializes l, zero-padding the space of the MaxValidators slots not in use.
func (l *ValidatorList) Encode() []byte {
	w := &writer{}
	w.u8(accountTypeValidatorList)
	w.u32(l.MaxValidators)
	w.u32(uint32(len(l.Validators)))
	for _, v := range l.Validators {
		w.u64(v.ActiveStakeLamports)
		w.u64(v.TransientStakeLamports)
		w.u64(v.LastUpdateEpoch)
		w.u64(v.TransientSeedSuffix)
		w.u32(0)
		w.u32(v.ValidatorSeedSuffix)
		w.u8(uint8(v.Status))
		w.key(v.VoteAccount)
	}
	for i := len(l.Validators); i < int(l.MaxValidators); i++ {
		w.buf = append(w.buf, make([]byte, validatorEntrySize)...)
	}
	return w.buf
}

func (c *DepositCap) Encode() []byte {
	w := &writer{}
	w.u8(uint8(c.Kind))
	w.u64(c.Amount)
	return w.buf
}

// EncodeClock serializes a clock sysvar carrying slot and epoch.
func EncodeClock(slot, epoch uint64, unixTimestamp int64) []byte {
	w := &writer{}
	w.u64(slot)
	w.i64(unixTimestamp)
	w.u64(epoch)
	w.u64(epoch + 1)
	w.i64(unixTimestamp)
	return w.buf
}
