package splstakepool

import (
	"encoding/binary"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/stakedex-engine/internal/common"
)

var (
	withdrawSeed        = []byte("withdraw")
	depositSeed         = []byte("deposit")
	depositCapGuardSeed = []byte("deposit_authority")
)

type validatorStakeKey struct {
	program solana.PublicKey
	pool    solana.PublicKey
	vote    solana.PublicKey
	suffix  uint32
}

var (
	validatorStakePDACache   = make(map[validatorStakeKey]solana.PublicKey)
	validatorStakePDACacheMu sync.RWMutex
)

// FindWithdrawAuthority derives the pool's withdraw authority [pool, "withdraw"].
func FindWithdrawAuthority(program, pool solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{pool.Bytes(), withdrawSeed}, program)
	return addr, err
}

// FindValidatorStake derives a validator stake account [vote, pool, suffix?]; the
// suffix seed is omitted when zero. Results are cached.
func FindValidatorStake(program, pool, vote solana.PublicKey, suffix uint32) (solana.PublicKey, error) {
	key := validatorStakeKey{program: program, pool: pool, vote: vote, suffix: suffix}

	validatorStakePDACacheMu.RLock()
	if cached, ok := validatorStakePDACache[key]; ok {
		validatorStakePDACacheMu.RUnlock()
		return cached, nil
	}
	validatorStakePDACacheMu.RUnlock()

	seeds := [][]byte{vote.Bytes(), pool.Bytes()}
	if suffix != 0 {
		seeds = append(seeds, binary.LittleEndian.AppendUint32(nil, suffix))
	}
	addr, _, err := solana.FindProgramAddress(seeds, program)
	if err != nil {
		return solana.PublicKey{}, err
	}

	validatorStakePDACacheMu.Lock()
	validatorStakePDACache[key] = addr
	validatorStakePDACacheMu.Unlock()

	return addr, nil
}

// FindDepositCapGuard derives the deposit authority PDA of the deposit-cap guard
// program for pool. The same address holds the cap state.
func FindDepositCapGuard(pool solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{pool.Bytes(), depositCapGuardSeed}, common.DepositCapGuardProgramID)
	return addr, err
}

// FindDepositAuthority derives the default stake deposit authority [pool, "deposit"].
func FindDepositAuthority(program, pool solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{pool.Bytes(), depositSeed}, program)
	return addr, err
}
