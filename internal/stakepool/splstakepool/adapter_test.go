package splstakepool

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/stakedex-engine/internal/common"
	"github.com/hxuan190/stakedex-engine/internal/domain"
)

func newTestAdapter(t *testing.T, pool *StakePool, opts ...Option) *Adapter {
	t.Helper()
	seed := domain.KeyedAccount{
		Key:     testPoolAddr,
		Account: domain.Account{Owner: common.SplStakePoolProgramID, Data: pool.Encode()},
	}
	a, err := New(seed, domain.Context{Epoch: testEpoch, Constants: domain.DefaultConstants()}, opts...)
	require.NoError(t, err)
	return a
}

func TestDecodeStakePool(t *testing.T) {
	pool := testStakePool(common.SplStakePoolProgramID)
	solAuth := testKey(20)
	pool.SolDepositAuthority = &solAuth
	pool.NextEpochFee = FutureEpochFee{EpochsAway: 2, Fee: pool.EpochFee}

	got, err := DecodeStakePool(pool.Encode())
	require.NoError(t, err)
	assert.Equal(t, pool, got)
}

func TestDecodeStakePoolRejectsOtherAccounts(t *testing.T) {
	data := testStakePool(common.SplStakePoolProgramID).Encode()
	data[0] = accountTypeValidatorList
	_, err := DecodeStakePool(data)
	assert.ErrorIs(t, err, errWrongAccountType)

	_, err = DecodeStakePool(data[:40])
	assert.Error(t, err)
}

func TestDecodeValidatorList(t *testing.T) {
	list, err := DecodeValidatorList((&ValidatorList{MaxValidators: 5, Validators: testValidators()}).Encode())
	require.NoError(t, err)
	assert.Equal(t, uint32(5), list.MaxValidators)
	assert.Equal(t, testValidators(), list.Validators)

	idx, ok := list.Find(testVoteB)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	_, ok = list.Find(testKey(99))
	assert.False(t, ok)

	truncated := (&ValidatorList{MaxValidators: 3, Validators: testValidators()}).Encode()
	_, err = DecodeValidatorList(truncated[:len(truncated)-10])
	assert.Error(t, err)
}

func TestNewLabels(t *testing.T) {
	pool := testStakePool(common.SplStakePoolProgramID)

	a := newTestAdapter(t, pool)
	assert.Equal(t, testMint.String()+" stake pool", a.Label())
	assert.Equal(t, common.SplStakePoolProgramID, a.ProgramID())
	assert.Equal(t, testPoolAddr, a.MainStateKey())
	assert.Equal(t, testMint, a.StakedSolMint())

	seed := domain.KeyedAccount{
		Key:     testPoolAddr,
		Account: domain.Account{Data: pool.Encode()},
		Params:  "bSOL",
	}
	a, err := New(seed, domain.Context{Constants: domain.DefaultConstants()})
	require.NoError(t, err)
	assert.Equal(t, "bSOL stake pool", a.Label())
	assert.Equal(t, common.SplStakePoolProgramID, a.ProgramID())

	jito := solana.MustPublicKeyFromBase58("Jito4APyf642JPZPx3hGc6WWJ8zPKtRbRs4P815Awbb")
	seed = domain.KeyedAccount{Key: jito, Account: domain.Account{Data: pool.Encode()}}
	a, err = New(seed, domain.Context{Constants: domain.DefaultConstants()})
	require.NoError(t, err)
	assert.Equal(t, "Jito", a.Label())

	for addr, label := range map[string]string{
		"CgntPoLka5pD5fesJYhGmUCF8KU1QS1ZmZiuAuMZr2az": "Cogent",
		"F8h46pYkaqPJNP2MRkUUUtRkf8efCkpoqehn9g1bTTm7": "Risk.lol",
	} {
		got, ok := LabelFor(solana.MustPublicKeyFromBase58(addr))
		assert.True(t, ok, addr)
		assert.Equal(t, label, got)
	}
}

func TestNewMalformed(t *testing.T) {
	seed := domain.KeyedAccount{Key: testPoolAddr, Account: domain.Account{Data: []byte{1, 2, 3}}}
	_, err := New(seed, domain.Context{})
	require.ErrorIs(t, err, domain.ErrDeserialize)
	addr, ok := domain.ErrorAddress(err)
	require.True(t, ok)
	assert.Equal(t, testPoolAddr, addr)
}

func TestAccountsToUpdate(t *testing.T) {
	pool := testStakePool(common.SplStakePoolProgramID)
	a := newTestAdapter(t, pool)
	assert.Equal(t, []solana.PublicKey{testPoolAddr, testValidList, testReserve}, a.AccountsToUpdate())

	a = newTestAdapter(t, pool, WithClockEpoch())
	assert.Equal(t, []solana.PublicKey{testPoolAddr, testValidList, testReserve, common.SysvarClockID}, a.AccountsToUpdate())

	guard, err := FindDepositCapGuard(testPoolAddr)
	require.NoError(t, err)
	pool.SolDepositAuthority = &guard
	a = newTestAdapter(t, pool)
	assert.Equal(t, []solana.PublicKey{testPoolAddr, testValidList, testReserve, guard}, a.AccountsToUpdate())
}

func TestUpdate(t *testing.T) {
	pool := testStakePool(common.SplStakePoolProgramID)
	a := newTestAdapter(t, pool)
	assert.Nil(t, a.Validators())

	require.NoError(t, a.Update(testAccounts(pool)))
	assert.Len(t, a.Validators(), 3)
	assert.Equal(t, uint64(5_000_000_000), a.ReserveLamports())
	assert.True(t, a.IsSynced(testEpoch))
	assert.False(t, a.IsSynced(testEpoch+1))
	assert.True(t, a.IsUpdatedThisEpoch())
}

func TestUpdateKeepsStateOnFailure(t *testing.T) {
	pool := testStakePool(common.SplStakePoolProgramID)
	a := newTestAdapter(t, pool)
	require.NoError(t, a.Update(testAccounts(pool)))

	newer := testStakePool(common.SplStakePoolProgramID)
	newer.TotalLamports = 99
	newer.LastUpdateEpoch = testEpoch + 1

	tests := []struct {
		name    string
		mutate  func(domain.AccountMap)
		kind    error
		address solana.PublicKey
	}{
		{
			name:    "missing validator list",
			mutate:  func(m domain.AccountMap) { delete(m, testValidList) },
			kind:    domain.ErrMissingAccount,
			address: testValidList,
		},
		{
			name: "malformed validator list",
			mutate: func(m domain.AccountMap) {
				m[testValidList] = domain.Account{Data: []byte{2, 0}}
			},
			kind:    domain.ErrDeserialize,
			address: testValidList,
		},
		{
			name:    "empty reserve",
			mutate:  func(m domain.AccountMap) { m[testReserve] = domain.Account{} },
			kind:    domain.ErrDeserialize,
			address: testReserve,
		},
		{
			name:    "missing pool",
			mutate:  func(m domain.AccountMap) { delete(m, testPoolAddr) },
			kind:    domain.ErrMissingAccount,
			address: testPoolAddr,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := testAccounts(newer)
			tt.mutate(accounts)

			err := a.Update(accounts)
			require.ErrorIs(t, err, tt.kind)
			addr, ok := domain.ErrorAddress(err)
			require.True(t, ok)
			assert.Equal(t, tt.address, addr)

			assert.Equal(t, uint64(11_000_000_000), a.Pool().TotalLamports)
			assert.Len(t, a.Validators(), 3)
			assert.True(t, a.IsSynced(testEpoch))
		})
	}
}

func TestUpdateReadsClock(t *testing.T) {
	pool := testStakePool(common.SplStakePoolProgramID)
	a := newTestAdapter(t, pool, WithClockEpoch())

	accounts := testAccounts(pool)
	err := a.Update(accounts)
	require.ErrorIs(t, err, domain.ErrMissingAccount)

	accounts[common.SysvarClockID] = domain.Account{Data: EncodeClock(1, testEpoch+1, 1_700_000_000)}
	require.NoError(t, a.Update(accounts))
	assert.Equal(t, uint64(testEpoch+1), a.CurrentEpoch())
	assert.False(t, a.IsUpdatedThisEpoch())
}

func TestSetEpoch(t *testing.T) {
	pool := testStakePool(common.SplStakePoolProgramID)
	a := newTestAdapter(t, pool)
	require.NoError(t, a.Update(testAccounts(pool)))

	a.SetEpoch(testEpoch + 1)
	assert.Equal(t, uint64(testEpoch+1), a.CurrentEpoch())
	assert.False(t, a.IsUpdatedThisEpoch())
	assert.True(t, a.BestWithdrawStakeQuote(1_000_000_000).IsNone())

	a.SetEpoch(testEpoch)
	assert.Equal(t, uint64(testEpoch+1), a.CurrentEpoch(), "epoch never moves backwards")

	require.NoError(t, a.Update(testAccounts(pool)))
	assert.Equal(t, uint64(testEpoch+1), a.CurrentEpoch(), "refresh keeps the advanced epoch")

	clocked := newTestAdapter(t, pool, WithClockEpoch())
	clocked.SetEpoch(testEpoch + 5)
	assert.Equal(t, uint64(testEpoch), clocked.CurrentEpoch())
}

func TestUpdateDepositCap(t *testing.T) {
	guard, err := FindDepositCapGuard(testPoolAddr)
	require.NoError(t, err)
	pool := testStakePool(common.SplStakePoolProgramID)
	pool.StakeDepositAuthority = guard
	a := newTestAdapter(t, pool)

	accounts := testAccounts(pool)
	err = a.Update(accounts)
	require.ErrorIs(t, err, domain.ErrMissingAccount)
	addr, _ := domain.ErrorAddress(err)
	assert.Equal(t, guard, addr)

	accounts[guard] = domain.Account{Data: []byte{9, 0, 0, 0, 0, 0, 0, 0, 0}}
	require.ErrorIs(t, a.Update(accounts), domain.ErrDeserialize)

	accounts[guard] = domain.Account{Data: (&DepositCap{Kind: DepositCapLamports, Amount: 20_000_000_000}).Encode()}
	require.NoError(t, a.Update(accounts))
	assert.True(t, a.CanAcceptStakeDeposits())
}

func TestErrorsAreNotSwallowed(t *testing.T) {
	pool := testStakePool(common.SplStakePoolProgramID)
	a := newTestAdapter(t, pool)
	err := a.Update(domain.AccountMap{})
	var accErr *domain.AccountError
	require.True(t, errors.As(err, &accErr))
	assert.Equal(t, testPoolAddr, accErr.Address)
}
