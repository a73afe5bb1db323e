package unstakeit

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/stakedex-engine/internal/common"
	"github.com/hxuan190/stakedex-engine/internal/domain"
)

// DepositStakeQuote is the SOL paid out for instantly unstaking the stake account
// described by withdrawn. It never drains the reserves to a balance that is
// positive yet below the rent-exempt minimum of an empty account.
func (a *Adapter) DepositStakeQuote(withdrawn domain.WithdrawStakeQuote) domain.DepositStakeQuote {
	s := a.state.Load()
	if s.fee == nil {
		return domain.DepositStakeQuote{}
	}
	feeAmount, err := s.fee.Apply(s.balance(), withdrawn.LamportsOut)
	if err != nil {
		return domain.DepositStakeQuote{}
	}
	tokensOut := withdrawn.LamportsOut - min(feeAmount, withdrawn.LamportsOut)

	switch {
	case tokensOut > s.solReservesLamports:
		return domain.DepositStakeQuote{}
	case tokensOut < s.solReservesLamports &&
		s.solReservesLamports-tokensOut < a.consts.ZeroDataAccountRentExemptLamports:
		return domain.DepositStakeQuote{}
	}

	return domain.DepositStakeQuote{
		TokensOut: tokensOut,
		FeeAmount: feeAmount,
		Voter:     withdrawn.Voter,
	}
}

// DepositStakeInstruction builds Unstake for a stake account whose stake and
// withdraw authority is accounts.Owner.
// Accounts:
// 0. payer (writable, signer)
// 1. unstaker (signer)
// 2. stake_account (writable)
// 3. destination (writable)
// 4. pool (writable)
// 5. pool_sol_reserves (writable)
// 6. fee_account
// 7. stake_account_record (writable)
// 8. protocol_fee_account
// 9. protocol_fee_destination (writable)
// 10. clock
// 11. stake_program
// 12. system_program
func (a *Adapter) DepositStakeInstruction(quote domain.DepositStakeQuote, accounts domain.DepositStakeAccounts) (solana.Instruction, error) {
	if quote.IsNone() {
		return nil, fmt.Errorf("%w: empty quote", domain.ErrInconsistentInstructionInput)
	}
	if accounts.Owner.IsZero() || accounts.StakeAccount.IsZero() || accounts.Destination.IsZero() {
		return nil, fmt.Errorf("%w: missing participant", domain.ErrInconsistentInstructionInput)
	}
	protocolFeeDest := a.ProtocolFeeDestination()
	if protocolFeeDest.IsZero() {
		return nil, fmt.Errorf("%w: protocol fee destination not loaded", domain.ErrInconsistentInstructionInput)
	}
	record, err := FindStakeAccountRecord(accounts.StakeAccount)
	if err != nil {
		return nil, err
	}

	metas := solana.AccountMetaSlice{
		{PublicKey: accounts.Owner, IsWritable: true, IsSigner: true},
		{PublicKey: accounts.Owner, IsSigner: true},
		{PublicKey: accounts.StakeAccount, IsWritable: true},
		{PublicKey: accounts.Destination, IsWritable: true},
		{PublicKey: PoolID, IsWritable: true},
		{PublicKey: SolReservesID, IsWritable: true},
		{PublicKey: FeeID},
		{PublicKey: record, IsWritable: true},
		{PublicKey: ProtocolFeeID},
		{PublicKey: protocolFeeDest, IsWritable: true},
		{PublicKey: common.SysvarClockID},
		{PublicKey: common.StakeProgramID},
		{PublicKey: common.SystemProgramID},
	}
	return solana.NewInstruction(common.UnstakeProgramID, metas, append([]byte(nil), unstakeDiscriminator[:]...)), nil
}
