// Package prefund sizes the flash loan a composed route borrows to make its
// temporary stake accounts rent-exempt, and tracks the instant-unstake pool
// state the loan is repaid through.
package prefund

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/stakedex-engine/internal/domain"
	"github.com/hxuan190/stakedex-engine/internal/fee"
	"github.com/hxuan190/stakedex-engine/internal/stakepool/unstakeit"
)

var ErrNotInitialized = errors.New("prefund repay params not initialized")

// RepayParams is the unstake.it state needed to prove the loan is repayable.
type RepayParams struct {
	Fee                 fee.Schedule
	IncomingStake       uint64
	SolReservesLamports uint64
	ProtocolFeeDest     solana.PublicKey
}

// AccountsToUpdate are the four accounts RepayParams is built from.
func AccountsToUpdate() []solana.PublicKey {
	return []solana.PublicKey{unstakeit.PoolID, unstakeit.FeeID, unstakeit.SolReservesID, unstakeit.ProtocolFeeID}
}

// ParamsFromAccounts builds RepayParams from a snapshot. Every one of the four
// accounts must be present and well formed.
func ParamsFromAccounts(accounts domain.AccountMap) (*RepayParams, error) {
	acc, err := accounts.Get(unstakeit.PoolID)
	if err != nil {
		return nil, err
	}
	pool, err := unstakeit.DecodePool(acc.Data)
	if err != nil {
		return nil, domain.Deserialize(unstakeit.PoolID, err)
	}

	if acc, err = accounts.Get(unstakeit.FeeID); err != nil {
		return nil, err
	}
	schedule, err := unstakeit.DecodeFee(acc.Data)
	if err != nil {
		return nil, domain.Deserialize(unstakeit.FeeID, err)
	}

	reserves, err := accounts.Get(unstakeit.SolReservesID)
	if err != nil {
		return nil, err
	}

	if acc, err = accounts.Get(unstakeit.ProtocolFeeID); err != nil {
		return nil, err
	}
	protocolFee, err := unstakeit.DecodeProtocolFee(acc.Data)
	if err != nil {
		return nil, domain.Deserialize(unstakeit.ProtocolFeeID, err)
	}

	return &RepayParams{
		Fee:                 schedule,
		IncomingStake:       pool.IncomingStake,
		SolReservesLamports: reserves.Lamports,
		ProtocolFeeDest:     protocolFee.Destination,
	}, nil
}

func (p *RepayParams) balance() domain.PoolBalance {
	return domain.PoolBalance{PoolIncomingStake: p.IncomingStake, SolReservesLamports: p.SolReservesLamports}
}

// SlumdogTargetLamports is the total balance, rent included, the slumdog stake
// account must hold so that instantly unstaking it pays out exactly the flash loan.
func (p *RepayParams) SlumdogTargetLamports(c domain.Constants) (uint64, error) {
	loan := c.PrefundFlashLoanLamports()
	required := loan + c.ZeroDataAccountRentExemptLamports
	if required < loan || p.SolReservesLamports < required {
		return 0, fmt.Errorf("%w: reserves %d cannot repay flash loan of %d", domain.ErrInsufficientLiquidity, p.SolReservesLamports, loan)
	}
	if p.Fee == nil {
		return 0, ErrNotInitialized
	}
	target, err := p.Fee.PseudoReverse(p.balance(), loan)
	if err != nil {
		if errors.Is(err, domain.ErrMath) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", domain.ErrMath, err)
	}
	return target, nil
}

// PrefundSplitLamports is the amount carved off the bridge stake account into the
// slumdog. The slumdog's own rent-exempt minimum comes out of the loan, so only the
// rest is charged to the user.
func (p *RepayParams) PrefundSplitLamports(c domain.Constants) (uint64, error) {
	target, err := p.SlumdogTargetLamports(c)
	if err != nil {
		return 0, err
	}
	if target <= c.StakeAccountRentExemptLamports {
		return 0, nil
	}
	return target - c.StakeAccountRentExemptLamports, nil
}

// ApplySplit deducts split from a withdraw quote before it is valued by a deposit
// quote. The sentinel is returned when the stake cannot cover it.
func ApplySplit(q domain.WithdrawStakeQuote, split uint64) domain.WithdrawStakeQuote {
	if q.IsNone() || split > q.LamportsStaked {
		return domain.WithdrawStakeQuote{}
	}
	q.LamportsOut -= split
	q.LamportsStaked -= split
	return q
}

// Tracker keeps the latest RepayParams. A failed update keeps the previous value.
type Tracker struct {
	consts domain.Constants
	params atomic.Pointer[RepayParams]
}

func NewTracker(consts domain.Constants) *Tracker {
	return &Tracker{consts: consts}
}

func (t *Tracker) AccountsToUpdate() []solana.PublicKey {
	return AccountsToUpdate()
}

func (t *Tracker) Update(accounts domain.AccountMap) error {
	p, err := ParamsFromAccounts(accounts)
	if err != nil {
		return err
	}
	t.params.Store(p)
	return nil
}

// Params returns the committed params, nil before the first successful Update.
func (t *Tracker) Params() *RepayParams {
	return t.params.Load()
}

func (t *Tracker) SlumdogTargetLamports() (uint64, error) {
	p := t.params.Load()
	if p == nil {
		return 0, ErrNotInitialized
	}
	return p.SlumdogTargetLamports(t.consts)
}

func (t *Tracker) PrefundSplitLamports() (uint64, error) {
	p := t.params.Load()
	if p == nil {
		return 0, ErrNotInitialized
	}
	return p.PrefundSplitLamports(t.consts)
}

// FlashLoanLamports is the loan amount under the tracker's constants.
func (t *Tracker) FlashLoanLamports() uint64 {
	return t.consts.PrefundFlashLoanLamports()
}
