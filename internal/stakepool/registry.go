package stakepool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/sync/errgroup"

	"github.com/hxuan190/stakedex-engine/internal/domain"
	"github.com/hxuan190/stakedex-engine/internal/prefund"
)

var ErrDuplicatePool = errors.New("pool already registered")

// PoolError is a refresh failure of a single pool.
type PoolError struct {
	Pool  solana.PublicKey
	Label string
	Err   error
}

func (e *PoolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Label, e.Err)
}

func (e *PoolError) Unwrap() error {
	return e.Err
}

// PoolErrors lists the per-pool failures joined into an UpdateAll error.
func PoolErrors(err error) []*PoolError {
	var out []*PoolError
	var pe *PoolError
	if errors.As(err, &pe) {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				if errors.As(e, &pe) {
					out = append(out, pe)
				}
			}
			return out
		}
		return []*PoolError{pe}
	}
	return nil
}

// Registry holds every adapter a router quotes through. Adapters are only ever
// handled through the Pool capability interfaces.
type Registry struct {
	mu    sync.RWMutex
	pools []Pool
	byKey map[solana.PublicKey]Pool
}

func NewRegistry() *Registry {
	return &Registry{
		pools: make([]Pool, 0),
		byKey: make(map[solana.PublicKey]Pool),
	}
}

func (r *Registry) Register(p Pool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := p.MainStateKey()
	if _, ok := r.byKey[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePool, key)
	}
	r.pools = append(r.pools, p)
	r.byKey[key] = p
	return nil
}

func (r *Registry) Get(mainStateKey solana.PublicKey) (Pool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byKey[mainStateKey]
	return p, ok
}

// All returns the registered pools in registration order.
func (r *Registry) All() []Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Pool, len(r.pools))
	copy(out, r.pools)
	return out
}

// AccountsToUpdate is the deduplicated union of every pool's tracked accounts.
func (r *Registry) AccountsToUpdate() []solana.PublicKey {
	seen := make(map[solana.PublicKey]struct{})
	keys := make([]solana.PublicKey, 0)
	for _, p := range r.All() {
		for _, k := range p.AccountsToUpdate() {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

// SetEpoch forwards epoch to every pool that takes it from the caller.
func (r *Registry) SetEpoch(epoch uint64) {
	for _, p := range r.All() {
		if es, ok := p.(EpochSetter); ok {
			es.SetEpoch(epoch)
		}
	}
}

// UpdateAll refreshes every pool from accounts in parallel. A failing pool keeps
// its previous state and does not stop the others; all failures are joined.
func (r *Registry) UpdateAll(ctx context.Context, accounts domain.AccountMap) error {
	pools := r.All()
	errs := make([]error, len(pools))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range pools {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			if err := p.Update(accounts); err != nil {
				errs[i] = &PoolError{Pool: p.MainStateKey(), Label: p.Label(), Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// RouteQuote is a stake withdrawal from one pool deposited into another.
type RouteQuote struct {
	WithdrawPool  Pool
	DepositPool   Pool
	WithdrawQuote domain.WithdrawStakeQuote
	DepositQuote  domain.DepositStakeQuote
}

// QuoteRoutes quotes withdrawing tokens of the pool at withdrawKey as stake and
// depositing that stake into every other registered pool. prefundSplit is taken
// off the stake before it is deposited. Infeasible pairs are skipped; results are
// sorted by output, best first. A withdraw pool that missed its epoch update
// yields no routes.
func (r *Registry) QuoteRoutes(withdrawKey solana.PublicKey, tokens, prefundSplit uint64) ([]RouteQuote, error) {
	p, ok := r.Get(withdrawKey)
	if !ok {
		return nil, fmt.Errorf("pool %s not registered", withdrawKey)
	}
	w, ok := p.(WithdrawStaker)
	if !ok {
		return nil, fmt.Errorf("pool %s does not support stake withdrawals", p.Label())
	}
	if eu, ok := p.(EpochUpdater); ok && !eu.IsUpdatedThisEpoch() {
		return []RouteQuote{}, nil
	}

	withdrawals := make([]domain.WithdrawStakeQuote, 0)
	for i, v := range w.Validators() {
		if !v.IsActive() {
			continue
		}
		q, err := w.WithdrawStakeQuote(i, tokens)
		if err != nil {
			continue
		}
		if q = prefund.ApplySplit(q, prefundSplit); !q.IsNone() {
			withdrawals = append(withdrawals, q)
		}
	}

	routes := make([]RouteQuote, 0)
	for _, dp := range r.All() {
		d, ok := dp.(DepositStaker)
		if !ok || dp.MainStateKey() == withdrawKey {
			continue
		}
		var best RouteQuote
		for _, wq := range withdrawals {
			dq := d.DepositStakeQuote(wq)
			if dq.IsNone() || dq.TokensOut <= best.DepositQuote.TokensOut {
				continue
			}
			best = RouteQuote{WithdrawPool: p, DepositPool: dp, WithdrawQuote: wq, DepositQuote: dq}
		}
		if !best.DepositQuote.IsNone() {
			routes = append(routes, best)
		}
	}

	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].DepositQuote.TokensOut > routes[j].DepositQuote.TokensOut
	})
	return routes, nil
}
