package splstakepool

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/stakedex-engine/internal/common"
	"github.com/hxuan190/stakedex-engine/internal/domain"
)

const (
	ixDepositStake  uint8 = 9
	ixWithdrawStake uint8 = 10
)

func (a *Adapter) validatorStake(s *state, vote solana.PublicKey) (solana.PublicKey, error) {
	if s.validators == nil {
		return solana.PublicKey{}, fmt.Errorf("%w: validator list not loaded", domain.ErrInconsistentInstructionInput)
	}
	idx, ok := s.validators.Find(vote)
	if !ok {
		return solana.PublicKey{}, fmt.Errorf("%w: %s not in validator list", domain.ErrInconsistentInstructionInput, vote)
	}
	return FindValidatorStake(a.opts.programID, a.poolAddr, vote, s.validators.Validators[idx].ValidatorSeedSuffix)
}

// WithdrawStakeInstruction builds WithdrawStake burning tokens from the owner's
// pool token account into DestinationStake, an uninitialized stake account.
// Accounts:
// 0. stake_pool (writable)
// 1. validator_list (writable)
// 2. withdraw_authority
// 3. stake_to_split (writable)
// 4. stake_to_receive (writable)
// 5. user_stake_authority
// 6. user_transfer_authority (signer)
// 7. user_pool_token_account (writable)
// 8. manager_fee_account (writable)
// 9. pool_mint (writable)
// 10. clock
// 11. token_program
// 12. stake_program
func (a *Adapter) WithdrawStakeInstruction(quote domain.WithdrawStakeQuote, tokens uint64, accounts domain.WithdrawStakeAccounts) (solana.Instruction, error) {
	if quote.IsNone() || tokens == 0 {
		return nil, fmt.Errorf("%w: empty quote", domain.ErrInconsistentInstructionInput)
	}
	if accounts.Owner.IsZero() || accounts.DestinationStake.IsZero() || accounts.PoolTokenAccount.IsZero() {
		return nil, fmt.Errorf("%w: missing participant", domain.ErrInconsistentInstructionInput)
	}
	s := a.state.Load()
	stakeToSplit, err := a.validatorStake(s, quote.Voter)
	if err != nil {
		return nil, err
	}

	metas := solana.AccountMetaSlice{
		{PublicKey: a.poolAddr, IsWritable: true},
		{PublicKey: s.pool.ValidatorList, IsWritable: true},
		{PublicKey: a.withdrawAuthority},
		{PublicKey: stakeToSplit, IsWritable: true},
		{PublicKey: accounts.DestinationStake, IsWritable: true},
		{PublicKey: accounts.Owner},
		{PublicKey: accounts.Owner, IsSigner: true},
		{PublicKey: accounts.PoolTokenAccount, IsWritable: true},
		{PublicKey: s.pool.ManagerFeeAccount, IsWritable: true},
		{PublicKey: s.pool.PoolMint, IsWritable: true},
		{PublicKey: common.SysvarClockID},
		{PublicKey: s.pool.TokenProgramID},
		{PublicKey: common.StakeProgramID},
	}

	data := make([]byte, 9)
	data[0] = ixWithdrawStake
	binary.LittleEndian.PutUint64(data[1:9], tokens)
	return solana.NewInstruction(a.opts.programID, metas, data), nil
}

// DepositStakeInstruction builds DepositStake for a stake account whose
// authorities were already handed to the pool's stake deposit authority.
// Accounts:
// 0. stake_pool (writable)
// 1. validator_list (writable)
// 2. stake_deposit_authority
// 3. withdraw_authority
// 4. deposit_stake (writable)
// 5. validator_stake (writable)
// 6. reserve_stake (writable)
// 7. pool_tokens_to (writable)
// 8. manager_fee_account (writable)
// 9. referrer_pool_tokens (writable)
// 10. pool_mint (writable)
// 11. clock
// 12. stake_history
// 13. token_program
// 14. stake_program
func (a *Adapter) DepositStakeInstruction(quote domain.DepositStakeQuote, accounts domain.DepositStakeAccounts) (solana.Instruction, error) {
	if quote.IsNone() {
		return nil, fmt.Errorf("%w: empty quote", domain.ErrInconsistentInstructionInput)
	}
	if accounts.StakeAccount.IsZero() || accounts.Destination.IsZero() {
		return nil, fmt.Errorf("%w: missing participant", domain.ErrInconsistentInstructionInput)
	}
	s := a.state.Load()
	validatorStake, err := a.validatorStake(s, quote.Voter)
	if err != nil {
		return nil, err
	}
	referrer := accounts.Referrer
	if referrer.IsZero() {
		referrer = accounts.Destination
	}

	metas := solana.AccountMetaSlice{
		{PublicKey: a.poolAddr, IsWritable: true},
		{PublicKey: s.pool.ValidatorList, IsWritable: true},
		{PublicKey: s.pool.StakeDepositAuthority},
		{PublicKey: a.withdrawAuthority},
		{PublicKey: accounts.StakeAccount, IsWritable: true},
		{PublicKey: validatorStake, IsWritable: true},
		{PublicKey: s.pool.ReserveStake, IsWritable: true},
		{PublicKey: accounts.Destination, IsWritable: true},
		{PublicKey: s.pool.ManagerFeeAccount, IsWritable: true},
		{PublicKey: referrer, IsWritable: true},
		{PublicKey: s.pool.PoolMint, IsWritable: true},
		{PublicKey: common.SysvarClockID},
		{PublicKey: common.SysvarStakeHistID},
		{PublicKey: s.pool.TokenProgramID},
		{PublicKey: common.StakeProgramID},
	}
	return solana.NewInstruction(a.opts.programID, metas, []byte{ixDepositStake}), nil
}
