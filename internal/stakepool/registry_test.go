package stakepool

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/stakedex-engine/internal/domain"
)

func key(b byte) solana.PublicKey {
	var pk solana.PublicKey
	pk[0] = b
	return pk
}

type fakePool struct {
	main    solana.PublicKey
	tracked []solana.PublicKey
	updated int
	fail    error
}

func (f *fakePool) ProgramID() solana.PublicKey     { return key(200) }
func (f *fakePool) Label() string                   { return "fake-" + f.main.String()[:4] }
func (f *fakePool) MainStateKey() solana.PublicKey  { return f.main }
func (f *fakePool) StakedSolMint() solana.PublicKey { return key(201) }
func (f *fakePool) AccountsToUpdate() []solana.PublicKey {
	return f.tracked
}
func (f *fakePool) IsSynced(uint64) bool { return f.updated > 0 }

func (f *fakePool) Update(accounts domain.AccountMap) error {
	if f.fail != nil {
		return f.fail
	}
	for _, k := range f.tracked {
		if _, err := accounts.Get(k); err != nil {
			return err
		}
	}
	f.updated++
	return nil
}

// fakeWithdrawer pays lamports 1:1 minus a fixed rent from any active validator
// whose active stake covers the amount.
type fakeWithdrawer struct {
	fakePool
	validators []domain.ValidatorEntry
}

func (f *fakeWithdrawer) Validators() []domain.ValidatorEntry { return f.validators }

func (f *fakeWithdrawer) WithdrawStakeQuote(i int, tokens uint64) (domain.WithdrawStakeQuote, error) {
	if i < 0 || i >= len(f.validators) {
		return domain.WithdrawStakeQuote{}, domain.ErrValidatorNotFound
	}
	v := f.validators[i]
	if !v.IsActive() || tokens > v.ActiveStakeLamports {
		return domain.WithdrawStakeQuote{}, domain.ErrInvalidValidatorState
	}
	return domain.WithdrawStakeQuote{LamportsOut: tokens, LamportsStaked: tokens - 1_000, Voter: v.VoteAccount}, nil
}

func (f *fakeWithdrawer) BestWithdrawStakeQuote(tokens uint64) domain.WithdrawStakeQuote {
	q, _ := f.WithdrawStakeQuote(0, tokens)
	return q
}

func (f *fakeWithdrawer) WithdrawStakeInstruction(domain.WithdrawStakeQuote, uint64, domain.WithdrawStakeAccounts) (solana.Instruction, error) {
	return nil, nil
}

// staleWithdrawer has not run its epoch update.
type staleWithdrawer struct {
	fakeWithdrawer
}

func (s *staleWithdrawer) IsUpdatedThisEpoch() bool { return false }

// fakeDepositor only accepts stake delegated to accepts and keeps keepBps/10000.
type fakeDepositor struct {
	fakePool
	accepts solana.PublicKey
	keepBps uint64
}

func (f *fakeDepositor) DepositStakeQuote(w domain.WithdrawStakeQuote) domain.DepositStakeQuote {
	if !f.accepts.IsZero() && w.Voter != f.accepts {
		return domain.DepositStakeQuote{}
	}
	out := w.LamportsOut * f.keepBps / 10_000
	return domain.DepositStakeQuote{TokensOut: out, FeeAmount: w.LamportsOut - out, Voter: w.Voter}
}

func (f *fakeDepositor) DepositStakeInstruction(domain.DepositStakeQuote, domain.DepositStakeAccounts) (solana.Instruction, error) {
	return nil, nil
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	a := &fakePool{main: key(1), tracked: []solana.PublicKey{key(1), key(9)}}
	b := &fakePool{main: key(2), tracked: []solana.PublicKey{key(2), key(9)}}
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))
	assert.ErrorIs(t, r.Register(&fakePool{main: key(1)}), ErrDuplicatePool)

	got, ok := r.Get(key(2))
	require.True(t, ok)
	assert.Same(t, b, got)
	_, ok = r.Get(key(3))
	assert.False(t, ok)

	assert.Equal(t, []Pool{a, b}, r.All())
	assert.Equal(t, []solana.PublicKey{key(1), key(9), key(2)}, r.AccountsToUpdate())
}

func TestRegistryUpdateAll(t *testing.T) {
	r := NewRegistry()
	good := &fakePool{main: key(1), tracked: []solana.PublicKey{key(1)}}
	missing := &fakePool{main: key(2), tracked: []solana.PublicKey{key(2), key(3)}}
	broken := &fakePool{main: key(4), fail: domain.Deserialize(key(4), errors.New("bad"))}
	for _, p := range []Pool{good, missing, broken} {
		require.NoError(t, r.Register(p))
	}

	accounts := domain.AccountMap{key(1): {}, key(2): {}}
	err := r.UpdateAll(context.Background(), accounts)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingAccount)
	assert.ErrorIs(t, err, domain.ErrDeserialize)
	assert.Equal(t, 1, good.updated)
	assert.Equal(t, 0, missing.updated)

	failures := PoolErrors(err)
	require.Len(t, failures, 2)
	assert.ElementsMatch(t, []solana.PublicKey{key(2), key(4)}, []solana.PublicKey{failures[0].Pool, failures[1].Pool})

	accounts[key(3)] = domain.Account{}
	broken.fail = nil
	require.NoError(t, r.UpdateAll(context.Background(), accounts))
	assert.Equal(t, 2, good.updated)
	assert.Equal(t, 1, missing.updated)
}

func TestRegistryUpdateAllCanceled(t *testing.T) {
	r := NewRegistry()
	p := &fakePool{main: key(1)}
	require.NoError(t, r.Register(p))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.UpdateAll(ctx, domain.AccountMap{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, p.updated)
}

func TestQuoteRoutes(t *testing.T) {
	voteA, voteB := key(50), key(51)
	w := &fakeWithdrawer{
		fakePool: fakePool{main: key(1)},
		validators: []domain.ValidatorEntry{
			{VoteAccount: voteA, ActiveStakeLamports: 10_000_000, Status: domain.StakeStatusActive},
			{VoteAccount: voteB, ActiveStakeLamports: 10_000_000, Status: domain.StakeStatusActive},
			{VoteAccount: key(52), ActiveStakeLamports: 10_000_000, Status: domain.StakeStatusReadyForRemoval},
		},
	}
	anyVoter := &fakeDepositor{fakePool: fakePool{main: key(2)}, keepBps: 9_970}
	onlyB := &fakeDepositor{fakePool: fakePool{main: key(3)}, accepts: voteB, keepBps: 9_990}
	nobody := &fakeDepositor{fakePool: fakePool{main: key(4)}, accepts: key(99), keepBps: 10_000}
	r := NewRegistry()
	for _, p := range []Pool{w, anyVoter, onlyB, nobody, &fakePool{main: key(5)}} {
		require.NoError(t, r.Register(p))
	}

	routes, err := r.QuoteRoutes(key(1), 1_000_000, 0)
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Same(t, onlyB, routes[0].DepositPool)
	assert.Equal(t, voteB, routes[0].WithdrawQuote.Voter)
	assert.Equal(t, uint64(999_000), routes[0].DepositQuote.TokensOut)
	assert.Same(t, anyVoter, routes[1].DepositPool)
	assert.Same(t, w, routes[1].WithdrawPool)

	routes, err = r.QuoteRoutes(key(1), 1_000_000, 100_000)
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, uint64(900_000), routes[0].WithdrawQuote.LamportsOut)

	// split larger than the staked lamports leaves nothing to deposit
	routes, err = r.QuoteRoutes(key(1), 1_000_000, 999_001)
	require.NoError(t, err)
	assert.Empty(t, routes)

	stale := &staleWithdrawer{fakeWithdrawer{fakePool: fakePool{main: key(6)}, validators: w.validators}}
	require.NoError(t, r.Register(stale))
	routes, err = r.QuoteRoutes(key(6), 1_000_000, 0)
	require.NoError(t, err)
	assert.Empty(t, routes)

	_, err = r.QuoteRoutes(key(2), 1, 0)
	assert.Error(t, err)
	_, err = r.QuoteRoutes(key(77), 1, 0)
	assert.Error(t, err)
}

type epochPool struct {
	fakePool
	epoch uint64
}

func (e *epochPool) SetEpoch(epoch uint64) { e.epoch = epoch }

func TestRegistrySetEpoch(t *testing.T) {
	r := NewRegistry()
	withEpoch := &epochPool{fakePool: fakePool{main: key(1)}}
	require.NoError(t, r.Register(withEpoch))
	require.NoError(t, r.Register(&fakePool{main: key(2)}))

	r.SetEpoch(640)
	assert.Equal(t, uint64(640), withEpoch.epoch)
}
