// Package socean adapts the Socean stake pool, a fork of the SPL stake-pool
// program that learns the current epoch from the clock sysvar.
package socean

import (
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/stakedex-engine/internal/common"
	"github.com/hxuan190/stakedex-engine/internal/domain"
	"github.com/hxuan190/stakedex-engine/internal/stakepool/splstakepool"
)

var (
	StakePool = solana.MustPublicKeyFromBase58("5oc4nmbNTda9fx8Tw57ShLD132aqDK65vuHH4RU1K4LZ")
	ScnSOL    = solana.MustPublicKeyFromBase58("5oVNBeEEQvYi1cX3ir8Dx5n1P7pdxydbGF2X4TxVusJm")
)

// New initializes the Socean adapter from the pool's main account. Its validator
// list counts the minimum delegation as active stake, so withdrawals keep it.
func New(seed domain.KeyedAccount, ctx domain.Context) (*splstakepool.Adapter, error) {
	if seed.Key.IsZero() {
		seed.Key = StakePool
	}
	return splstakepool.New(seed, ctx,
		splstakepool.WithProgramID(common.SoceanStakePoolProgramID),
		splstakepool.WithLabel(common.LabelSocean),
		splstakepool.WithStakedSolMint(ScnSOL),
		splstakepool.WithClockEpoch(),
		splstakepool.WithReservedMinActiveStake(),
	)
}
