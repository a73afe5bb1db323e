package splstakepool

import (
	"fmt"

	"github.com/hxuan190/stakedex-engine/internal/domain"
)

// WithdrawStakeQuote quotes burning tokens for a stake account split off the
// validator at validatorIndex. A pool that has not run its epoch update is rejected.
func (a *Adapter) WithdrawStakeQuote(validatorIndex int, tokens uint64) (domain.WithdrawStakeQuote, error) {
	s := a.state.Load()
	if s.validators == nil || validatorIndex < 0 || validatorIndex >= len(s.validators.Validators) {
		return domain.WithdrawStakeQuote{}, domain.ErrValidatorNotFound
	}
	if s.pool.LastUpdateEpoch < s.epoch {
		return domain.WithdrawStakeQuote{}, fmt.Errorf("%w: last update epoch %d, current epoch %d", domain.ErrPoolNotUpdated, s.pool.LastUpdateEpoch, s.epoch)
	}
	return a.quoteWithdraw(s, &s.validators.Validators[validatorIndex], tokens)
}

func (a *Adapter) quoteWithdraw(s *state, v *domain.ValidatorEntry, tokens uint64) (domain.WithdrawStakeQuote, error) {
	if !v.IsActive() {
		return domain.WithdrawStakeQuote{}, domain.ErrInvalidValidatorState
	}

	feeAmount, err := s.pool.StakeWithdrawalFee.Apply(domain.PoolBalance{}, tokens)
	if err != nil {
		return domain.WithdrawStakeQuote{}, err
	}
	lamportsOut, err := s.pool.CalcLamportsWithdrawAmount(tokens - feeAmount)
	if err != nil {
		return domain.WithdrawStakeQuote{}, err
	}
	if lamportsOut == 0 {
		return domain.WithdrawStakeQuote{}, domain.ErrWithdrawalTooSmall
	}

	if lamportsOut > a.withdrawableStake(v) {
		return domain.WithdrawStakeQuote{}, domain.ErrInvalidValidatorState
	}
	if lamportsOut < a.consts.StakeAccountRentExemptLamports {
		return domain.WithdrawStakeQuote{}, domain.ErrMath
	}

	return domain.WithdrawStakeQuote{
		LamportsOut:    lamportsOut,
		LamportsStaked: lamportsOut - a.consts.StakeAccountRentExemptLamports,
		FeeAmount:      feeAmount,
		Voter:          v.VoteAccount,
	}, nil
}

func (a *Adapter) withdrawableStake(v *domain.ValidatorEntry) uint64 {
	if !a.opts.reserveMinActiveStake {
		return v.ActiveStakeLamports
	}
	if v.ActiveStakeLamports <= a.consts.MinActiveStakeLamports {
		return 0
	}
	return v.ActiveStakeLamports - a.consts.MinActiveStakeLamports
}

// BestWithdrawStakeQuote tries every active validator, largest active stake first
// wins ties, and returns the sentinel when none can serve tokens.
func (a *Adapter) BestWithdrawStakeQuote(tokens uint64) domain.WithdrawStakeQuote {
	s := a.state.Load()
	if s.validators == nil || s.pool.LastUpdateEpoch < s.epoch {
		return domain.WithdrawStakeQuote{}
	}

	var (
		best      domain.WithdrawStakeQuote
		bestStake uint64
	)
	for i := range s.validators.Validators {
		v := &s.validators.Validators[i]
		if !v.IsActive() || (!best.IsNone() && v.ActiveStakeLamports <= bestStake) {
			continue
		}
		q, err := a.quoteWithdraw(s, v, tokens)
		if err != nil {
			continue
		}
		best, bestStake = q, v.ActiveStakeLamports
	}
	return best
}
