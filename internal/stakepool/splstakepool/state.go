package splstakepool

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/hxuan190/stakedex-engine/internal/domain"
	"github.com/hxuan190/stakedex-engine/internal/fee"
)

const (
	accountTypeStakePool     uint8 = 1
	accountTypeValidatorList uint8 = 2

	validatorEntrySize = 73
)

var (
	errInvalidOption      = errors.New("invalid option tag")
	errWrongAccountType   = errors.New("wrong account type")
	errZeroReserveBalance = errors.New("reserve stake holds no lamports")
)

// FutureEpochFee is a fee change scheduled one or two epochs away. EpochsAway is
// zero when no change is pending.
type FutureEpochFee struct {
	EpochsAway uint8
	Fee        fee.Ratio
}

type Lockup struct {
	UnixTimestamp int64
	Epoch         uint64
	Custodian     solana.PublicKey
}

// StakePool is the main state account of an SPL stake pool.
type StakePool struct {
	Manager                    solana.PublicKey
	Staker                     solana.PublicKey
	StakeDepositAuthority      solana.PublicKey
	StakeWithdrawBumpSeed      uint8
	ValidatorList              solana.PublicKey
	ReserveStake               solana.PublicKey
	PoolMint                   solana.PublicKey
	ManagerFeeAccount          solana.PublicKey
	TokenProgramID             solana.PublicKey
	TotalLamports              uint64
	PoolTokenSupply            uint64
	LastUpdateEpoch            uint64
	Lockup                     Lockup
	EpochFee                   fee.Ratio
	NextEpochFee               FutureEpochFee
	PreferredDepositValidator  *solana.PublicKey
	PreferredWithdrawValidator *solana.PublicKey
	StakeDepositFee            fee.Ratio
	StakeWithdrawalFee         fee.Ratio
	NextStakeWithdrawalFee     FutureEpochFee
	StakeReferralFee           uint8
	SolDepositAuthority        *solana.PublicKey
	SolDepositFee              fee.Ratio
	SolReferralFee             uint8
	SolWithdrawAuthority       *solana.PublicKey
	SolWithdrawalFee           fee.Ratio
	NextSolWithdrawalFee       FutureEpochFee
	LastEpochPoolTokenSupply   uint64
	LastEpochTotalLamports     uint64
}

// DecodeStakePool parses a borsh-encoded stake pool account.
func DecodeStakePool(data []byte) (*StakePool, error) {
	r := newReader(data)
	if t := r.u8(); r.err == nil && t != accountTypeStakePool {
		return nil, fmt.Errorf("%w: %d", errWrongAccountType, t)
	}
	p := &StakePool{}
	p.Manager = r.pubkey()
	p.Staker = r.pubkey()
	p.StakeDepositAuthority = r.pubkey()
	p.StakeWithdrawBumpSeed = r.u8()
	p.ValidatorList = r.pubkey()
	p.ReserveStake = r.pubkey()
	p.PoolMint = r.pubkey()
	p.ManagerFeeAccount = r.pubkey()
	p.TokenProgramID = r.pubkey()
	p.TotalLamports = r.u64()
	p.PoolTokenSupply = r.u64()
	p.LastUpdateEpoch = r.u64()
	p.Lockup = Lockup{UnixTimestamp: r.i64(), Epoch: r.u64(), Custodian: r.pubkey()}
	p.EpochFee = r.ratio()
	p.NextEpochFee = r.futureEpochRatio()
	p.PreferredDepositValidator = r.optionPubkey()
	p.PreferredWithdrawValidator = r.optionPubkey()
	p.StakeDepositFee = r.ratio()
	p.StakeWithdrawalFee = r.ratio()
	p.NextStakeWithdrawalFee = r.futureEpochRatio()
	p.StakeReferralFee = r.u8()
	p.SolDepositAuthority = r.optionPubkey()
	p.SolDepositFee = r.ratio()
	p.SolReferralFee = r.u8()
	p.SolWithdrawAuthority = r.optionPubkey()
	p.SolWithdrawalFee = r.ratio()
	p.NextSolWithdrawalFee = r.futureEpochRatio()
	p.LastEpochPoolTokenSupply = r.u64()
	p.LastEpochTotalLamports = r.u64()
	if r.err != nil {
		return nil, r.err
	}
	return p, nil
}

// CalcLamportsWithdrawAmount converts burnt pool tokens into lamports at the pool's
// current exchange rate, rounding down.
func (p *StakePool) CalcLamportsWithdrawAmount(poolTokens uint64) (uint64, error) {
	num := new(uint256.Int).Mul(uint256.NewInt(poolTokens), uint256.NewInt(p.TotalLamports))
	den := uint256.NewInt(p.PoolTokenSupply)
	if den.IsZero() || num.Lt(den) {
		return 0, nil
	}
	num.Div(num, den)
	if !num.IsUint64() {
		return 0, domain.ErrMath
	}
	return num.Uint64(), nil
}

// CalcPoolTokensForDeposit converts deposited lamports into pool tokens, rounding down.
// An empty pool mints one token per lamport.
func (p *StakePool) CalcPoolTokensForDeposit(lamports uint64) (uint64, error) {
	if p.PoolTokenSupply == 0 || p.TotalLamports == 0 {
		return lamports, nil
	}
	num := new(uint256.Int).Mul(uint256.NewInt(lamports), uint256.NewInt(p.PoolTokenSupply))
	num.Div(num, uint256.NewInt(p.TotalLamports))
	if !num.IsUint64() {
		return 0, domain.ErrMath
	}
	return num.Uint64(), nil
}

// ValidatorList is the list of validators a stake pool delegates to.
type ValidatorList struct {
	MaxValidators uint32
	Validators    []domain.ValidatorEntry
}

// DecodeValidatorList parses a borsh-encoded validator list account. Trailing
// bytes reserved for future validators are ignored.
func DecodeValidatorList(data []byte) (*ValidatorList, error) {
	r := newReader(data)
	if t := r.u8(); r.err == nil && t != accountTypeValidatorList {
		return nil, fmt.Errorf("%w: %d", errWrongAccountType, t)
	}
	l := &ValidatorList{MaxValidators: r.u32()}
	n := r.u32()
	if r.err != nil {
		return nil, r.err
	}
	if n > l.MaxValidators || int(n)*validatorEntrySize > r.dec.Remaining() {
		return nil, fmt.Errorf("validator list length %d exceeds account size", n)
	}
	l.Validators = make([]domain.ValidatorEntry, 0, n)
	for i := uint32(0); i < n; i++ {
		v := domain.ValidatorEntry{
			ActiveStakeLamports:    r.u64(),
			TransientStakeLamports: r.u64(),
			LastUpdateEpoch:        r.u64(),
			TransientSeedSuffix:    r.u64(),
		}
		_ = r.u32() // unused
		v.ValidatorSeedSuffix = r.u32()
		v.Status = domain.StakeStatus(r.u8())
		v.VoteAccount = r.pubkey()
		l.Validators = append(l.Validators, v)
	}
	if r.err != nil {
		return nil, r.err
	}
	return l, nil
}

// Find returns the index of the entry delegating to vote.
func (l *ValidatorList) Find(vote solana.PublicKey) (int, bool) {
	for i := range l.Validators {
		if l.Validators[i].VoteAccount == vote {
			return i, true
		}
	}
	return -1, false
}

// DepositCapKind selects what a deposit cap is denominated in.
type DepositCapKind uint8

const (
	DepositCapLamports DepositCapKind = iota
	DepositCapLstAtomics
)

// DepositCap is the state of a deposit-cap guard: {kind: u8, amount: u64}.
type DepositCap struct {
	Kind   DepositCapKind
	Amount uint64
}

func DecodeDepositCap(data []byte) (*DepositCap, error) {
	r := newReader(data)
	c := &DepositCap{Kind: DepositCapKind(r.u8()), Amount: r.u64()}
	if r.err != nil {
		return nil, r.err
	}
	if c.Kind > DepositCapLstAtomics {
		return nil, fmt.Errorf("unknown deposit cap kind %d", c.Kind)
	}
	return c, nil
}

// Allows reports whether adding lamports / tokens to the pool stays within the cap.
func (c *DepositCap) Allows(p *StakePool, lamports, tokens uint64) bool {
	var current, add uint64
	switch c.Kind {
	case DepositCapLamports:
		current, add = p.TotalLamports, lamports
	default:
		current, add = p.PoolTokenSupply, tokens
	}
	total := current + add
	return total >= current && total <= c.Amount
}

// decodeClockEpoch reads the epoch field of the clock sysvar
// {slot, epoch_start_timestamp, epoch, leader_schedule_epoch, unix_timestamp}.
func decodeClockEpoch(data []byte) (uint64, error) {
	r := newReader(data)
	_ = r.u64()
	_ = r.i64()
	epoch := r.u64()
	_ = r.u64()
	_ = r.i64()
	return epoch, r.err
}
