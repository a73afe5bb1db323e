// Package stakepool defines the capability set every liquid-staking protocol
// adapter implements and the registry routers query them through.
package stakepool

import (
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/stakedex-engine/internal/domain"
)

// Identifier describes which protocol and pool an adapter quotes.
type Identifier interface {
	ProgramID() solana.PublicKey
	Label() string
	MainStateKey() solana.PublicKey
	StakedSolMint() solana.PublicKey
}

// Tracker lists the addresses whose data must be present in the next refresh
// snapshot. The set may change after each refresh.
type Tracker interface {
	AccountsToUpdate() []solana.PublicKey
}

// Refresher ingests account snapshots.
//
// Update either commits a complete new state or returns an error and keeps the
// previous one: MissingAccount for an absent tracked address, Deserialize for
// malformed bytes.
type Refresher interface {
	Update(accounts domain.AccountMap) error
	IsSynced(currentEpoch uint64) bool
}

// EpochSetter is implemented by adapters that learn the current epoch from the
// caller instead of from tracked accounts.
type EpochSetter interface {
	SetEpoch(epoch uint64)
}

// EpochUpdater is implemented by pools whose program refuses stake operations
// until the pool has run its update for the current epoch.
type EpochUpdater interface {
	IsUpdatedThisEpoch() bool
}

// Pool is the base contract shared by every protocol adapter.
type Pool interface {
	Identifier
	Tracker
	Refresher
}

// WithdrawStaker converts pool tokens into a stake account.
type WithdrawStaker interface {
	Pool

	// WithdrawStakeQuote quotes withdrawing tokens from the validator at validatorIndex.
	// Every rejection is a hard error.
	WithdrawStakeQuote(validatorIndex int, tokens uint64) (domain.WithdrawStakeQuote, error)

	// BestWithdrawStakeQuote picks a validator itself and returns the sentinel
	// quote when no validator can serve tokens.
	BestWithdrawStakeQuote(tokens uint64) domain.WithdrawStakeQuote

	// Validators lists the entries WithdrawStakeQuote indexes into.
	Validators() []domain.ValidatorEntry

	WithdrawStakeInstruction(quote domain.WithdrawStakeQuote, tokens uint64, accounts domain.WithdrawStakeAccounts) (solana.Instruction, error)
}

// DepositStaker converts a stake account into pool tokens (or lamports).
type DepositStaker interface {
	Pool

	// DepositStakeQuote returns the sentinel quote when the deposit is infeasible.
	DepositStakeQuote(withdrawn domain.WithdrawStakeQuote) domain.DepositStakeQuote

	DepositStakeInstruction(quote domain.DepositStakeQuote, accounts domain.DepositStakeAccounts) (solana.Instruction, error)
}
