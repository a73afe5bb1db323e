package stakedex

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/stakedex-engine/internal/domain"
	"github.com/hxuan190/stakedex-engine/internal/metrics"
	"github.com/hxuan190/stakedex-engine/internal/prefund"
	"github.com/hxuan190/stakedex-engine/internal/stakepool"
	"github.com/hxuan190/stakedex-engine/internal/stakepool/socean"
	"github.com/hxuan190/stakedex-engine/internal/stakepool/splstakepool"
	"github.com/hxuan190/stakedex-engine/internal/stakepool/unstakeit"
)

var (
	ErrPoolNotFound = errors.New("pool not found")
	ErrUnsupported  = errors.New("operation not supported by pool")
	ErrNoQuote      = errors.New("no quote available")
)

const (
	quoteKindWithdraw = "withdraw"
	quoteKindDeposit  = "deposit"
	quoteKindRoutes   = "routes"
)

// Engine owns the adapters and the prefund tracker and serves quotes from their
// latest committed state. It does no I/O; callers feed it account snapshots.
type Engine struct {
	consts   domain.Constants
	registry *stakepool.Registry
	prefund  *prefund.Tracker
	epoch    atomic.Uint64

	// generation advances on every committed snapshot
	generation atomic.Uint64
	routes     *routeCache
}

func NewEngine(consts domain.Constants) *Engine {
	return &Engine{
		consts:   consts,
		registry: stakepool.NewRegistry(),
		prefund:  prefund.NewTracker(consts),
		routes:   newRouteCache(defaultRouteCacheSize),
	}
}

// SeedKeys are the main state accounts adapters are initialized from.
func SeedKeys(splPools []solana.PublicKey) []solana.PublicKey {
	keys := make([]solana.PublicKey, 0, len(splPools)+2)
	keys = append(keys, splPools...)
	return append(keys, socean.StakePool, unstakeit.PoolID)
}

// Bootstrap builds and registers an adapter for every seed present in seeds.
// Pools that cannot be built are skipped and reported in the joined error.
func (e *Engine) Bootstrap(seeds domain.AccountMap, splPools []solana.PublicKey, epoch uint64) error {
	e.epoch.Store(epoch)
	dctx := domain.Context{Epoch: epoch, Constants: e.consts}

	var errs []error
	register := func(key solana.PublicKey, build func(domain.KeyedAccount) (stakepool.Pool, error)) {
		if _, ok := e.registry.Get(key); ok {
			return
		}
		acc, err := seeds.Get(key)
		if err != nil {
			errs = append(errs, err)
			return
		}
		p, err := build(domain.KeyedAccount{Key: key, Account: acc})
		if err != nil {
			errs = append(errs, err)
			return
		}
		if err := e.registry.Register(p); err != nil {
			errs = append(errs, err)
		}
	}

	for _, key := range splPools {
		register(key, func(seed domain.KeyedAccount) (stakepool.Pool, error) {
			return splstakepool.New(seed, dctx)
		})
	}
	register(socean.StakePool, func(seed domain.KeyedAccount) (stakepool.Pool, error) {
		return socean.New(seed, dctx)
	})
	register(unstakeit.PoolID, func(seed domain.KeyedAccount) (stakepool.Pool, error) {
		return unstakeit.New(seed, dctx)
	})

	metrics.PoolCount.Set(float64(len(e.registry.All())))
	e.generation.Add(1)
	return errors.Join(errs...)
}

// AccountsToUpdate is every address the next snapshot must contain.
func (e *Engine) AccountsToUpdate() []solana.PublicKey {
	keys := e.registry.AccountsToUpdate()
	seen := make(map[solana.PublicKey]struct{}, len(keys))
	for _, k := range keys {
		seen[k] = struct{}{}
	}
	for _, k := range e.prefund.AccountsToUpdate() {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// Apply commits a snapshot taken during epoch. Pools that fail keep their
// previous state; every failure is returned joined.
func (e *Engine) Apply(ctx context.Context, epoch uint64, accounts domain.AccountMap) error {
	if epoch > e.epoch.Load() {
		e.epoch.Store(epoch)
	}
	e.registry.SetEpoch(e.epoch.Load())

	err := e.registry.UpdateAll(ctx, accounts)
	for _, pe := range stakepool.PoolErrors(err) {
		metrics.PoolUpdateFailures.WithLabelValues(pe.Label).Inc()
	}
	if perr := e.prefund.Update(accounts); perr != nil {
		metrics.PrefundFailures.WithLabelValues("update").Inc()
		err = errors.Join(err, fmt.Errorf("prefund: %w", perr))
	} else if target, terr := e.prefund.SlumdogTargetLamports(); terr == nil {
		metrics.SlumdogTargetLamports.Set(float64(target))
	} else {
		metrics.PrefundFailures.WithLabelValues("target").Inc()
	}

	synced := 0
	for _, p := range e.registry.All() {
		if p.IsSynced(e.epoch.Load()) {
			synced++
		}
	}
	metrics.SyncedPoolCount.Set(float64(synced))
	metrics.CurrentEpoch.Set(float64(e.epoch.Load()))
	e.generation.Add(1)
	return err
}

// MissingAccounts lists the addresses pools failed on because accounts lacked them.
func MissingAccounts(err error, accounts domain.AccountMap) []solana.PublicKey {
	var out []solana.PublicKey
	seen := make(map[solana.PublicKey]struct{})
	for _, pe := range stakepool.PoolErrors(err) {
		if !errors.Is(pe, domain.ErrMissingAccount) {
			continue
		}
		addr, ok := domain.ErrorAddress(pe)
		if !ok {
			continue
		}
		if _, ok := accounts[addr]; ok {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}

func (e *Engine) Epoch() uint64 {
	return e.epoch.Load()
}

// PoolInfo describes a registered pool and the operations it supports.
type PoolInfo struct {
	Label           string `json:"label"`
	ProgramID       string `json:"programId"`
	MainStateKey    string `json:"mainStateKey"`
	StakedSolMint   string `json:"stakedSolMint"`
	Synced          bool   `json:"synced"`
	WithdrawStake   bool   `json:"withdrawStake"`
	DepositStake    bool   `json:"depositStake"`
	ValidatorCount  int    `json:"validatorCount"`
	TrackedAccounts int    `json:"trackedAccounts"`
}

func (e *Engine) Pools() []PoolInfo {
	epoch := e.epoch.Load()
	pools := e.registry.All()
	out := make([]PoolInfo, 0, len(pools))
	for _, p := range pools {
		info := PoolInfo{
			Label:           p.Label(),
			ProgramID:       p.ProgramID().String(),
			MainStateKey:    p.MainStateKey().String(),
			StakedSolMint:   p.StakedSolMint().String(),
			Synced:          p.IsSynced(epoch),
			TrackedAccounts: len(p.AccountsToUpdate()),
		}
		if w, ok := p.(stakepool.WithdrawStaker); ok {
			info.WithdrawStake = true
			info.ValidatorCount = len(w.Validators())
		}
		_, info.DepositStake = p.(stakepool.DepositStaker)
		out = append(out, info)
	}
	return out
}

func (e *Engine) withdrawer(pool solana.PublicKey) (stakepool.WithdrawStaker, error) {
	p, ok := e.registry.Get(pool)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, pool)
	}
	w, ok := p.(stakepool.WithdrawStaker)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot withdraw stake", ErrUnsupported, p.Label())
	}
	return w, nil
}

func (e *Engine) depositor(pool solana.PublicKey) (stakepool.DepositStaker, error) {
	p, ok := e.registry.Get(pool)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, pool)
	}
	d, ok := p.(stakepool.DepositStaker)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot accept stake deposits", ErrUnsupported, p.Label())
	}
	return d, nil
}

// WithdrawQuote quotes withdrawing tokens from pool as stake delegated to voter.
// A zero voter lets the pool pick its best validator.
func (e *Engine) WithdrawQuote(pool, voter solana.PublicKey, tokens uint64) (q domain.WithdrawStakeQuote, err error) {
	defer observeQuote(quoteKindWithdraw, time.Now(), &err)

	w, err := e.withdrawer(pool)
	if err != nil {
		return q, err
	}
	if voter.IsZero() {
		if q = w.BestWithdrawStakeQuote(tokens); q.IsNone() {
			return q, fmt.Errorf("%w: no validator of %s can serve %d tokens", ErrNoQuote, w.Label(), tokens)
		}
		return q, nil
	}
	for i, v := range w.Validators() {
		if v.VoteAccount.Equals(voter) {
			return w.WithdrawStakeQuote(i, tokens)
		}
	}
	return q, fmt.Errorf("%w: %s in %s", domain.ErrValidatorNotFound, voter, w.Label())
}

// DepositQuote quotes depositing a stake account of lamports delegated to voter.
func (e *Engine) DepositQuote(pool, voter solana.PublicKey, lamports uint64) (q domain.DepositStakeQuote, err error) {
	defer observeQuote(quoteKindDeposit, time.Now(), &err)

	d, err := e.depositor(pool)
	if err != nil {
		return q, err
	}
	rent := e.consts.StakeAccountRentExemptLamports
	if lamports <= rent {
		return q, fmt.Errorf("%w: stake account of %d lamports holds no stake above rent %d", domain.ErrWithdrawalTooSmall, lamports, rent)
	}
	withdrawn := domain.WithdrawStakeQuote{
		LamportsOut:    lamports,
		LamportsStaked: lamports - rent,
		Voter:          voter,
	}
	if q = d.DepositStakeQuote(withdrawn); q.IsNone() {
		return q, fmt.Errorf("%w: %s does not accept this stake", ErrNoQuote, d.Label())
	}
	return q, nil
}

// Route is a withdraw-then-deposit route through two pools.
type Route struct {
	WithdrawPool  string                    `json:"withdrawPool"`
	DepositPool   string                    `json:"depositPool"`
	WithdrawQuote domain.WithdrawStakeQuote `json:"withdrawQuote"`
	DepositQuote  domain.DepositStakeQuote  `json:"depositQuote"`
}

// Routes quotes withdrawing tokens from pool into every pool accepting the stake.
// With prefund set, the prefund split is taken off each withdrawn stake.
func (e *Engine) Routes(pool solana.PublicKey, tokens uint64, withPrefund bool) (routes []Route, err error) {
	defer observeQuote(quoteKindRoutes, time.Now(), &err)

	if _, err = e.withdrawer(pool); err != nil {
		return nil, err
	}
	key := routeKey{pool: pool, tokens: tokens, withPrefund: withPrefund, generation: e.generation.Load()}
	if cached, ok := e.routes.get(key); ok {
		metrics.RouteCacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.RouteCacheLookups.WithLabelValues("miss").Inc()

	var split uint64
	if withPrefund {
		if split, err = e.prefund.PrefundSplitLamports(); err != nil {
			return nil, err
		}
	}
	quotes, err := e.registry.QuoteRoutes(pool, tokens, split)
	if err != nil {
		return nil, err
	}
	routes = make([]Route, 0, len(quotes))
	for _, rq := range quotes {
		routes = append(routes, Route{
			WithdrawPool:  rq.WithdrawPool.Label(),
			DepositPool:   rq.DepositPool.Label(),
			WithdrawQuote: rq.WithdrawQuote,
			DepositQuote:  rq.DepositQuote,
		})
	}
	e.routes.set(key, routes)
	return routes, nil
}

// PrefundInfo is the flash-loan sizing under the latest unstake.it state.
type PrefundInfo struct {
	FlashLoanLamports     uint64 `json:"flashLoanLamports"`
	SlumdogTargetLamports uint64 `json:"slumdogTargetLamports"`
	PrefundSplitLamports  uint64 `json:"prefundSplitLamports"`
	IncomingStake         uint64 `json:"incomingStake"`
	SolReservesLamports   uint64 `json:"solReservesLamports"`
	ProtocolFeeDest       string `json:"protocolFeeDestination"`
}

func (e *Engine) Prefund() (PrefundInfo, error) {
	params := e.prefund.Params()
	if params == nil {
		return PrefundInfo{}, prefund.ErrNotInitialized
	}
	target, err := params.SlumdogTargetLamports(e.consts)
	if err != nil {
		metrics.PrefundFailures.WithLabelValues("target").Inc()
		return PrefundInfo{}, err
	}
	split, err := params.PrefundSplitLamports(e.consts)
	if err != nil {
		metrics.PrefundFailures.WithLabelValues("split").Inc()
		return PrefundInfo{}, err
	}
	return PrefundInfo{
		FlashLoanLamports:     e.consts.PrefundFlashLoanLamports(),
		SlumdogTargetLamports: target,
		PrefundSplitLamports:  split,
		IncomingStake:         params.IncomingStake,
		SolReservesLamports:   params.SolReservesLamports,
		ProtocolFeeDest:       params.ProtocolFeeDest.String(),
	}, nil
}

func observeQuote(kind string, start time.Time, err *error) {
	status := "ok"
	if *err != nil {
		status = "error"
	}
	metrics.QuoteRequests.WithLabelValues(kind, status).Inc()
	metrics.QuoteDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
