// Package splstakepool quotes and builds instructions for pools running the SPL
// stake-pool program or a fork of it.
package splstakepool

import (
	"fmt"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/stakedex-engine/internal/common"
	"github.com/hxuan190/stakedex-engine/internal/domain"
	"github.com/hxuan190/stakedex-engine/internal/stakepool"
)

var (
	_ stakepool.WithdrawStaker = (*Adapter)(nil)
	_ stakepool.DepositStaker  = (*Adapter)(nil)
)

type options struct {
	programID             solana.PublicKey
	label                 string
	mint                  solana.PublicKey
	trackClock            bool
	reserveMinActiveStake bool
}

type Option func(*options)

// WithProgramID overrides the program the pool is owned by.
func WithProgramID(program solana.PublicKey) Option {
	return func(o *options) { o.programID = program }
}

func WithLabel(label string) Option {
	return func(o *options) { o.label = label }
}

// WithStakedSolMint pins the pool token mint instead of reading it from state.
func WithStakedSolMint(mint solana.PublicKey) Option {
	return func(o *options) { o.mint = mint }
}

// WithClockEpoch makes the adapter read the current epoch from the clock sysvar
// on every refresh instead of keeping the epoch it was created with.
func WithClockEpoch() Option {
	return func(o *options) { o.trackClock = true }
}

// WithReservedMinActiveStake is for forks whose validator list reports the full
// delegation; MinActiveStakeLamports is then kept out of withdrawals.
func WithReservedMinActiveStake() Option {
	return func(o *options) { o.reserveMinActiveStake = true }
}

type state struct {
	pool *StakePool
	// nil until the first successful Update
	validators      *ValidatorList
	reserveLamports uint64
	depositCap      *DepositCap
	epoch           uint64
}

func (s *state) stakeDepositCapped(guard solana.PublicKey) bool {
	return s.pool.StakeDepositAuthority == guard
}

func (s *state) solDepositCapped(guard solana.PublicKey) bool {
	return s.pool.SolDepositAuthority != nil && *s.pool.SolDepositAuthority == guard
}

// Adapter is the SPL stake pool adapter. Every refresh builds a new state value
// and swaps it in, so quotes never observe a half-applied update.
type Adapter struct {
	opts              options
	poolAddr          solana.PublicKey
	withdrawAuthority solana.PublicKey
	depositAuthority  solana.PublicKey
	capGuard          solana.PublicKey
	consts            domain.Constants

	state atomic.Pointer[state]
}

// New initializes an adapter from the pool's main account only. The validator
// list and reserve stay unknown until the first Update.
func New(seed domain.KeyedAccount, ctx domain.Context, opts ...Option) (*Adapter, error) {
	o := options{programID: seed.Account.Owner}
	for _, opt := range opts {
		opt(&o)
	}
	if o.programID.IsZero() {
		o.programID = common.SplStakePoolProgramID
	}

	pool, err := DecodeStakePool(seed.Account.Data)
	if err != nil {
		return nil, domain.Deserialize(seed.Key, err)
	}

	a := &Adapter{opts: o, poolAddr: seed.Key, consts: ctx.Constants}
	if a.withdrawAuthority, err = FindWithdrawAuthority(o.programID, seed.Key); err != nil {
		return nil, fmt.Errorf("withdraw authority of %s: %w", seed.Key, err)
	}
	if a.depositAuthority, err = FindDepositAuthority(o.programID, seed.Key); err != nil {
		return nil, fmt.Errorf("deposit authority of %s: %w", seed.Key, err)
	}
	if a.capGuard, err = FindDepositCapGuard(seed.Key); err != nil {
		return nil, fmt.Errorf("deposit cap guard of %s: %w", seed.Key, err)
	}

	if a.opts.label == "" {
		a.opts.label = defaultLabel(seed, pool)
	}
	a.state.Store(&state{pool: pool, epoch: ctx.Epoch})
	return a, nil
}

func defaultLabel(seed domain.KeyedAccount, pool *StakePool) string {
	if seed.Params != "" {
		return seed.Params + " stake pool"
	}
	if l, ok := LabelFor(seed.Key); ok {
		return l
	}
	return pool.PoolMint.String() + " stake pool"
}

func (a *Adapter) ProgramID() solana.PublicKey {
	return a.opts.programID
}

func (a *Adapter) Label() string {
	return a.opts.label
}

func (a *Adapter) MainStateKey() solana.PublicKey {
	return a.poolAddr
}

func (a *Adapter) StakedSolMint() solana.PublicKey {
	if !a.opts.mint.IsZero() {
		return a.opts.mint
	}
	return a.state.Load().pool.PoolMint
}

// WithdrawAuthority is the PDA that signs stake splits out of the pool.
func (a *Adapter) WithdrawAuthority() solana.PublicKey {
	return a.withdrawAuthority
}

// Pool returns the last committed pool state. Callers must not modify it.
func (a *Adapter) Pool() *StakePool {
	return a.state.Load().pool
}

// Validators returns the last committed validator entries, nil before the first refresh.
func (a *Adapter) Validators() []domain.ValidatorEntry {
	s := a.state.Load()
	if s.validators == nil {
		return nil
	}
	return s.validators.Validators
}

// ReserveLamports is the balance of the reserve stake account at the last refresh.
func (a *Adapter) ReserveLamports() uint64 {
	return a.state.Load().reserveLamports
}

// CurrentEpoch is the epoch quotes are checked against.
func (a *Adapter) CurrentEpoch() uint64 {
	return a.state.Load().epoch
}

func (a *Adapter) AccountsToUpdate() []solana.PublicKey {
	s := a.state.Load()
	keys := []solana.PublicKey{a.poolAddr, s.pool.ValidatorList, s.pool.ReserveStake}
	if s.stakeDepositCapped(a.capGuard) || s.solDepositCapped(a.capGuard) {
		keys = append(keys, a.capGuard)
	}
	if a.opts.trackClock {
		keys = append(keys, common.SysvarClockID)
	}
	return keys
}

// Update decodes every tracked account from accounts and commits them together.
// Which accounts are required is decided by the freshly decoded pool state.
func (a *Adapter) Update(accounts domain.AccountMap) error {
	prev := a.state.Load()

	acc, err := accounts.Get(a.poolAddr)
	if err != nil {
		return err
	}
	pool, err := DecodeStakePool(acc.Data)
	if err != nil {
		return domain.Deserialize(a.poolAddr, err)
	}
	next := &state{pool: pool, epoch: prev.epoch}

	if acc, err = accounts.Get(pool.ValidatorList); err != nil {
		return err
	}
	if next.validators, err = DecodeValidatorList(acc.Data); err != nil {
		return domain.Deserialize(pool.ValidatorList, err)
	}

	if acc, err = accounts.Get(pool.ReserveStake); err != nil {
		return err
	}
	if acc.Lamports == 0 {
		return domain.Deserialize(pool.ReserveStake, errZeroReserveBalance)
	}
	next.reserveLamports = acc.Lamports

	if next.stakeDepositCapped(a.capGuard) || next.solDepositCapped(a.capGuard) {
		if acc, err = accounts.Get(a.capGuard); err != nil {
			return err
		}
		if next.depositCap, err = DecodeDepositCap(acc.Data); err != nil {
			return domain.Deserialize(a.capGuard, err)
		}
	}

	if a.opts.trackClock {
		if acc, err = accounts.Get(common.SysvarClockID); err != nil {
			return err
		}
		if next.epoch, err = decodeClockEpoch(acc.Data); err != nil {
			return domain.Deserialize(common.SysvarClockID, err)
		}
	}

	if a.opts.trackClock {
		a.state.Store(next)
		return nil
	}
	for {
		cur := a.state.Load()
		next.epoch = cur.epoch
		if a.state.CompareAndSwap(cur, next) {
			return nil
		}
	}
}

// SetEpoch advances the epoch quotes are checked against. Adapters reading the
// clock sysvar ignore it, and the epoch never moves backwards.
func (a *Adapter) SetEpoch(epoch uint64) {
	if a.opts.trackClock {
		return
	}
	for {
		prev := a.state.Load()
		if prev.epoch >= epoch {
			return
		}
		next := *prev
		next.epoch = epoch
		if a.state.CompareAndSwap(prev, &next) {
			return
		}
	}
}

// IsSynced reports whether the pool ran its epoch update for currentEpoch.
func (a *Adapter) IsSynced(currentEpoch uint64) bool {
	return a.state.Load().pool.LastUpdateEpoch >= currentEpoch
}

// IsUpdatedThisEpoch is IsSynced against the adapter's own epoch. The program
// rejects withdrawals and deposits until the pool is updated.
func (a *Adapter) IsUpdatedThisEpoch() bool {
	s := a.state.Load()
	return s.pool.LastUpdateEpoch >= s.epoch
}
