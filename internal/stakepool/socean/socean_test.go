package socean

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/stakedex-engine/internal/common"
	"github.com/hxuan190/stakedex-engine/internal/domain"
	"github.com/hxuan190/stakedex-engine/internal/fee"
	"github.com/hxuan190/stakedex-engine/internal/stakepool/splstakepool"
)

var (
	validatorList = solana.MustPublicKeyFromBase58("8pTa29ovYHxjQgX7gjxGi395GAo8DSXCRTKJZvwMc6MR")
	reserve       = solana.MustPublicKeyFromBase58("4sDXGroVt7ba45rzXtNto97QjG1rdmVGAGFsYDy9pvRy")
	vote          = solana.MustPublicKeyFromBase58("Fudp7uPDYNYQRxoq1Q4JiwJnzyxhVz37bGqRki3PBzS")
)

func soceanPool(lastUpdateEpoch uint64) *splstakepool.StakePool {
	return &splstakepool.StakePool{
		ValidatorList:      validatorList,
		ReserveStake:       reserve,
		PoolMint:           ScnSOL,
		TokenProgramID:     common.TokenProgramID,
		TotalLamports:      2_000_000_000_000,
		PoolTokenSupply:    1_600_000_000_000,
		LastUpdateEpoch:    lastUpdateEpoch,
		StakeWithdrawalFee: fee.Ratio{Denominator: 1000, Numerator: 3},
	}
}

func accounts(pool *splstakepool.StakePool, clockEpoch uint64) domain.AccountMap {
	list := &splstakepool.ValidatorList{
		MaxValidators: 10,
		Validators: []domain.ValidatorEntry{
			{VoteAccount: vote, ActiveStakeLamports: 101_000_000, Status: domain.StakeStatusActive},
		},
	}
	return domain.AccountMap{
		StakePool:            {Lamports: 1, Owner: common.SoceanStakePoolProgramID, Data: pool.Encode()},
		validatorList:        {Lamports: 1, Data: list.Encode()},
		reserve:              {Lamports: 10_000_000},
		common.SysvarClockID: {Lamports: 1, Data: splstakepool.EncodeClock(123, clockEpoch, 1_700_000_000)},
	}
}

func TestNew(t *testing.T) {
	pool := soceanPool(300)
	a, err := New(domain.KeyedAccount{Account: domain.Account{Data: pool.Encode()}}, domain.Context{Constants: domain.DefaultConstants()})
	require.NoError(t, err)

	assert.Equal(t, common.SoceanStakePoolProgramID, a.ProgramID())
	assert.Equal(t, common.LabelSocean, a.Label())
	assert.Equal(t, StakePool, a.MainStateKey())
	assert.Equal(t, ScnSOL, a.StakedSolMint())
	assert.Equal(t, []solana.PublicKey{StakePool, validatorList, reserve, common.SysvarClockID}, a.AccountsToUpdate())
}

func TestUpdateTakesEpochFromClock(t *testing.T) {
	pool := soceanPool(300)
	a, err := New(domain.KeyedAccount{Key: StakePool, Account: domain.Account{Data: pool.Encode()}}, domain.Context{Constants: domain.DefaultConstants()})
	require.NoError(t, err)

	require.NoError(t, a.Update(accounts(pool, 301)))
	assert.Equal(t, uint64(301), a.CurrentEpoch())
	assert.False(t, a.IsUpdatedThisEpoch())
	assert.True(t, a.BestWithdrawStakeQuote(1_000_000).IsNone())

	updated := soceanPool(301)
	require.NoError(t, a.Update(accounts(updated, 301)))
	assert.True(t, a.IsUpdatedThisEpoch())
	assert.True(t, a.IsSynced(301))

	bad := accounts(updated, 302)
	bad[common.SysvarClockID] = domain.Account{Data: []byte{1, 2}}
	err = a.Update(bad)
	require.ErrorIs(t, err, domain.ErrDeserialize)
	assert.Equal(t, uint64(301), a.CurrentEpoch())
}

func TestWithdrawKeepsMinimumDelegation(t *testing.T) {
	pool := soceanPool(301)
	a, err := New(domain.KeyedAccount{Key: StakePool, Account: domain.Account{Data: pool.Encode()}}, domain.Context{Constants: domain.DefaultConstants()})
	require.NoError(t, err)
	require.NoError(t, a.Update(accounts(pool, 301)))

	// 80_000_000 tokens: fee 240_000, 79_760_000 burnt -> 99_700_000 lamports
	q, err := a.WithdrawStakeQuote(0, 80_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(99_700_000), q.LamportsOut)
	assert.Equal(t, uint64(240_000), q.FeeAmount)
	assert.Equal(t, vote, q.Voter)

	// 100_500_092 lamports would dip into the minimum delegation
	_, err = a.WithdrawStakeQuote(0, 80_642_000)
	assert.ErrorIs(t, err, domain.ErrInvalidValidatorState)
}
