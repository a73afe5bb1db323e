package domain

import "github.com/gagliardetto/solana-go"

// PoolBalance is the minimal state an instant-unstake fee depends on.
type PoolBalance struct {
	// PoolIncomingStake is the stake currently queued for deactivation by the pool.
	PoolIncomingStake   uint64
	SolReservesLamports uint64
}

type StakeStatus uint8

const (
	StakeStatusActive StakeStatus = iota
	StakeStatusDeactivatingTransient
	StakeStatusReadyForRemoval
	StakeStatusDeactivatingValidator
	StakeStatusDeactivatingAll
)

func (s StakeStatus) String() string {
	switch s {
	case StakeStatusActive:
		return "Active"
	case StakeStatusDeactivatingTransient:
		return "DeactivatingTransient"
	case StakeStatusReadyForRemoval:
		return "ReadyForRemoval"
	case StakeStatusDeactivatingValidator:
		return "DeactivatingValidator"
	case StakeStatusDeactivatingAll:
		return "DeactivatingAll"
	default:
		return "UNKNOWN"
	}
}

// ValidatorEntry is one validator of a stake pool's validator list.
type ValidatorEntry struct {
	VoteAccount            solana.PublicKey
	ActiveStakeLamports    uint64
	TransientStakeLamports uint64
	LastUpdateEpoch        uint64
	TransientSeedSuffix    uint64
	ValidatorSeedSuffix    uint32
	Status                 StakeStatus
}

func (v *ValidatorEntry) IsActive() bool {
	return v.Status == StakeStatusActive
}
