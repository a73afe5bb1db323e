package splstakepool

import (
	"github.com/hxuan190/stakedex-engine/internal/domain"
)

// CanAcceptStakeDeposits is false for permissioned pools whose stake deposit
// authority is neither the program default nor the deposit cap guard.
func (a *Adapter) CanAcceptStakeDeposits() bool {
	return a.acceptsStakeDeposits(a.state.Load())
}

func (a *Adapter) acceptsStakeDeposits(s *state) bool {
	return s.pool.StakeDepositAuthority == a.depositAuthority || s.stakeDepositCapped(a.capGuard)
}

// DepositStakeQuote values depositing the stake account described by withdrawn into
// this pool. Pool tokens are minted for the whole account; the stake deposit fee is
// charged on the staked part and the SOL deposit fee on the rent part.
func (a *Adapter) DepositStakeQuote(withdrawn domain.WithdrawStakeQuote) domain.DepositStakeQuote {
	s := a.state.Load()
	if s.validators == nil || s.pool.LastUpdateEpoch < s.epoch || !a.acceptsStakeDeposits(s) {
		return domain.DepositStakeQuote{}
	}
	idx, ok := s.validators.Find(withdrawn.Voter)
	if !ok || !s.validators.Validators[idx].IsActive() {
		return domain.DepositStakeQuote{}
	}
	if withdrawn.LamportsStaked > withdrawn.LamportsOut {
		return domain.DepositStakeQuote{}
	}

	newTokens, err := s.pool.CalcPoolTokensForDeposit(withdrawn.LamportsOut)
	if err != nil {
		return domain.DepositStakeQuote{}
	}
	fromStake, err := s.pool.CalcPoolTokensForDeposit(withdrawn.LamportsStaked)
	if err != nil {
		return domain.DepositStakeQuote{}
	}
	fromStake = min(fromStake, newTokens)
	fromSol := newTokens - fromStake

	stakeFee, err := s.pool.StakeDepositFee.Apply(domain.PoolBalance{}, fromStake)
	if err != nil {
		return domain.DepositStakeQuote{}
	}
	solFee, err := s.pool.SolDepositFee.Apply(domain.PoolBalance{}, fromSol)
	if err != nil {
		return domain.DepositStakeQuote{}
	}
	feeAmount := stakeFee + solFee
	if feeAmount >= newTokens {
		return domain.DepositStakeQuote{}
	}

	if s.stakeDepositCapped(a.capGuard) {
		if s.depositCap == nil || !s.depositCap.Allows(s.pool, withdrawn.LamportsOut, newTokens) {
			return domain.DepositStakeQuote{}
		}
	}

	return domain.DepositStakeQuote{
		TokensOut: newTokens - feeAmount,
		FeeAmount: feeAmount,
		Voter:     withdrawn.Voter,
	}
}
