package unstakeit

import (
	"sync/atomic"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/stakedex-engine/internal/common"
	"github.com/hxuan190/stakedex-engine/internal/domain"
	"github.com/hxuan190/stakedex-engine/internal/fee"
)

type state struct {
	pool                *Pool
	fee                 fee.Schedule
	protocolFee         *ProtocolFee
	solReservesLamports uint64
}

func (s *state) balance() domain.PoolBalance {
	return domain.PoolBalance{
		PoolIncomingStake:   s.pool.IncomingStake,
		SolReservesLamports: s.solReservesLamports,
	}
}

// Adapter quotes instant unstakes. It only accepts stake deposits.
type Adapter struct {
	consts domain.Constants
	state  atomic.Pointer[state]
}

// New initializes the adapter from the pool account. Fee and reserves are unknown
// until the first Update.
func New(seed domain.KeyedAccount, ctx domain.Context) (*Adapter, error) {
	key := seed.Key
	if key.IsZero() {
		key = PoolID
	}
	pool, err := DecodePool(seed.Account.Data)
	if err != nil {
		return nil, domain.Deserialize(key, err)
	}
	a := &Adapter{consts: ctx.Constants}
	a.state.Store(&state{pool: pool})
	return a, nil
}

func (a *Adapter) ProgramID() solana.PublicKey {
	return common.UnstakeProgramID
}

func (a *Adapter) Label() string {
	return common.LabelUnstakeIt
}

func (a *Adapter) MainStateKey() solana.PublicKey {
	return PoolID
}

// StakedSolMint is the native mint: deposits pay out SOL.
func (a *Adapter) StakedSolMint() solana.PublicKey {
	return common.NativeMint
}

func (a *Adapter) AccountsToUpdate() []solana.PublicKey {
	return []solana.PublicKey{PoolID, FeeID, SolReservesID, ProtocolFeeID}
}

func (a *Adapter) Update(accounts domain.AccountMap) error {
	next := &state{}

	acc, err := accounts.Get(PoolID)
	if err != nil {
		return err
	}
	if next.pool, err = DecodePool(acc.Data); err != nil {
		return domain.Deserialize(PoolID, err)
	}

	if acc, err = accounts.Get(FeeID); err != nil {
		return err
	}
	if next.fee, err = DecodeFee(acc.Data); err != nil {
		return domain.Deserialize(FeeID, err)
	}

	if acc, err = accounts.Get(SolReservesID); err != nil {
		return err
	}
	next.solReservesLamports = acc.Lamports

	if acc, err = accounts.Get(ProtocolFeeID); err != nil {
		return err
	}
	if next.protocolFee, err = DecodeProtocolFee(acc.Data); err != nil {
		return domain.Deserialize(ProtocolFeeID, err)
	}

	a.state.Store(next)
	return nil
}

// IsSynced is true once fee and reserves are loaded. The pool has no epoch
// bookkeeping of its own.
func (a *Adapter) IsSynced(uint64) bool {
	return a.state.Load().fee != nil
}

// Balance is the fee-relevant snapshot of the pool.
func (a *Adapter) Balance() domain.PoolBalance {
	return a.state.Load().balance()
}

// Fee returns the committed fee schedule, nil before the first Update.
func (a *Adapter) Fee() fee.Schedule {
	return a.state.Load().fee
}

// ProtocolFeeDestination receives the protocol's cut of unstake fees.
func (a *Adapter) ProtocolFeeDestination() solana.PublicKey {
	if p := a.state.Load().protocolFee; p != nil {
		return p.Destination
	}
	return solana.PublicKey{}
}
