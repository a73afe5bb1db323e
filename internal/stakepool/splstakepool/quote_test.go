package splstakepool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/stakedex-engine/internal/common"
	"github.com/hxuan190/stakedex-engine/internal/domain"
)

func syncedAdapter(t *testing.T, pool *StakePool, opts ...Option) *Adapter {
	t.Helper()
	a := newTestAdapter(t, pool, opts...)
	require.NoError(t, a.Update(testAccounts(pool)))
	return a
}

func TestWithdrawStakeQuote(t *testing.T) {
	a := syncedAdapter(t, testStakePool(common.SplStakePoolProgramID))

	q, err := a.WithdrawStakeQuote(0, 5_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawStakeQuote{
		LamportsOut:    5_494_500_000,
		LamportsStaked: 5_494_500_000 - domain.DefaultStakeAccountRentExemptLamports,
		FeeAmount:      5_000_000,
		Voter:          testVoteA,
	}, q)
}

func TestWithdrawStakeQuoteRejections(t *testing.T) {
	a := syncedAdapter(t, testStakePool(common.SplStakePoolProgramID))

	tests := []struct {
		name   string
		index  int
		tokens uint64
		want   error
	}{
		{"inactive validator", 2, 1_000_000_000, domain.ErrInvalidValidatorState},
		{"more than active stake", 1, 5_000_000_000, domain.ErrInvalidValidatorState},
		{"zero lamports out", 0, 0, domain.ErrWithdrawalTooSmall},
		{"below stake rent", 0, 1_000, domain.ErrMath},
		{"index out of range", 3, 1_000_000_000, domain.ErrValidatorNotFound},
		{"negative index", -1, 1_000_000_000, domain.ErrValidatorNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := a.WithdrawStakeQuote(tt.index, tt.tokens)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, q.IsNone())
		})
	}
}

func TestWithdrawStakeQuoteBeforeRefresh(t *testing.T) {
	a := newTestAdapter(t, testStakePool(common.SplStakePoolProgramID))
	_, err := a.WithdrawStakeQuote(0, 1_000_000_000)
	assert.ErrorIs(t, err, domain.ErrValidatorNotFound)
	assert.True(t, a.BestWithdrawStakeQuote(1_000_000_000).IsNone())
}

func TestWithdrawStakeQuoteStalePool(t *testing.T) {
	a := syncedAdapter(t, testStakePool(common.SplStakePoolProgramID))
	a.SetEpoch(testEpoch + 1)
	require.False(t, a.IsUpdatedThisEpoch())

	q, err := a.WithdrawStakeQuote(0, 1_000_000_000)
	assert.ErrorIs(t, err, domain.ErrPoolNotUpdated)
	assert.True(t, q.IsNone())
	assert.True(t, a.BestWithdrawStakeQuote(1_000_000_000).IsNone())
}

func TestWithdrawReservedMinActiveStake(t *testing.T) {
	a := syncedAdapter(t, testStakePool(common.SplStakePoolProgramID), WithReservedMinActiveStake())

	// validator B holds 1 SOL active, of which MinActiveStakeLamports stays delegated
	q, err := a.WithdrawStakeQuote(1, 900_000_000)
	require.NoError(t, err)
	assert.LessOrEqual(t, q.LamportsOut, uint64(1_000_000_000)-domain.DefaultMinActiveStakeLamports)

	_, err = a.WithdrawStakeQuote(1, 910_000_000)
	assert.ErrorIs(t, err, domain.ErrInvalidValidatorState)

	plain := syncedAdapter(t, testStakePool(common.SplStakePoolProgramID))
	_, err = plain.WithdrawStakeQuote(1, 910_000_000)
	assert.NoError(t, err)
}

func TestBestWithdrawStakeQuote(t *testing.T) {
	a := syncedAdapter(t, testStakePool(common.SplStakePoolProgramID))

	q := a.BestWithdrawStakeQuote(500_000_000)
	assert.Equal(t, testVoteA, q.Voter)

	// larger than every active validator can serve
	assert.True(t, a.BestWithdrawStakeQuote(20_000_000_000).IsNone())
}

func TestBestWithdrawStakeQuoteStale(t *testing.T) {
	pool := testStakePool(common.SplStakePoolProgramID)
	pool.LastUpdateEpoch = testEpoch - 1
	a := syncedAdapter(t, pool)
	assert.False(t, a.IsUpdatedThisEpoch())
	assert.True(t, a.BestWithdrawStakeQuote(500_000_000).IsNone())
}

func TestDepositStakeQuote(t *testing.T) {
	a := syncedAdapter(t, testStakePool(common.SplStakePoolProgramID))

	withdrawn := domain.WithdrawStakeQuote{
		LamportsOut:    1_102_282_880,
		LamportsStaked: 1_100_000_000,
		Voter:          testVoteA,
	}
	q := a.DepositStakeQuote(withdrawn)
	assert.Equal(t, domain.DepositStakeQuote{
		TokensOut: 1_002_054_592,
		FeeAmount: 20_753,
		Voter:     testVoteA,
	}, q)
}

func TestDepositStakeQuoteUnavailable(t *testing.T) {
	a := syncedAdapter(t, testStakePool(common.SplStakePoolProgramID))

	tests := []struct {
		name      string
		withdrawn domain.WithdrawStakeQuote
	}{
		{"unknown validator", domain.WithdrawStakeQuote{LamportsOut: 3_000_000_000, LamportsStaked: 2_000_000_000, Voter: testKey(77)}},
		{"inactive validator", domain.WithdrawStakeQuote{LamportsOut: 3_000_000_000, LamportsStaked: 2_000_000_000, Voter: testVoteC}},
		{"staked above total", domain.WithdrawStakeQuote{LamportsOut: 1, LamportsStaked: 2, Voter: testVoteA}},
		{"nothing minted", domain.WithdrawStakeQuote{Voter: testVoteA}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, a.DepositStakeQuote(tt.withdrawn).IsNone())
		})
	}
}

func TestDepositStakeQuotePermissioned(t *testing.T) {
	pool := testStakePool(common.SplStakePoolProgramID)
	pool.StakeDepositAuthority = testKey(42)
	a := syncedAdapter(t, pool)
	assert.False(t, a.CanAcceptStakeDeposits())
	q := a.DepositStakeQuote(domain.WithdrawStakeQuote{LamportsOut: 3_000_000_000, LamportsStaked: 2_717_120, Voter: testVoteA})
	assert.True(t, q.IsNone())
}

func TestDepositStakeQuotePermissionFollowsSnapshot(t *testing.T) {
	pool := testStakePool(common.SplStakePoolProgramID)
	pool.StakeDepositAuthority = testKey(42)
	a := syncedAdapter(t, pool)
	withdrawn := domain.WithdrawStakeQuote{LamportsOut: 1_102_282_880, LamportsStaked: 1_100_000_000, Voter: testVoteA}
	require.True(t, a.DepositStakeQuote(withdrawn).IsNone())

	permissionless := testStakePool(common.SplStakePoolProgramID)
	require.NoError(t, a.Update(testAccounts(permissionless)))
	assert.True(t, a.CanAcceptStakeDeposits())
	assert.Equal(t, uint64(1_002_054_592), a.DepositStakeQuote(withdrawn).TokensOut)
}

func TestDepositStakeQuoteCapped(t *testing.T) {
	guard, err := FindDepositCapGuard(testPoolAddr)
	require.NoError(t, err)
	pool := testStakePool(common.SplStakePoolProgramID)
	pool.StakeDepositAuthority = guard
	withdrawn := domain.WithdrawStakeQuote{LamportsOut: 1_102_282_880, LamportsStaked: 1_100_000_000, Voter: testVoteA}

	tests := []struct {
		name      string
		cap       DepositCap
		available bool
	}{
		{"lamports under cap", DepositCap{Kind: DepositCapLamports, Amount: 13_000_000_000}, true},
		{"lamports over cap", DepositCap{Kind: DepositCapLamports, Amount: 12_000_000_000}, false},
		{"tokens under cap", DepositCap{Kind: DepositCapLstAtomics, Amount: 11_002_075_345}, true},
		{"tokens over cap", DepositCap{Kind: DepositCapLstAtomics, Amount: 11_002_075_344}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAdapter(t, pool)
			accounts := testAccounts(pool)
			accounts[guard] = domain.Account{Data: tt.cap.Encode()}
			require.NoError(t, a.Update(accounts))
			assert.Equal(t, tt.available, !a.DepositStakeQuote(withdrawn).IsNone())
		})
	}
}
