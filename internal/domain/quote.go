package domain

import "github.com/gagliardetto/solana-go"

// WithdrawStakeQuote values a stake account withdrawn from a pool. It is the canonical
// stake-valuation unit fed into every deposit-stake quote.
type WithdrawStakeQuote struct {
	LamportsOut uint64 `json:"lamportsOut"`
	// LamportsStaked is LamportsOut minus the stake account rent-exempt minimum.
	LamportsStaked uint64           `json:"lamportsStaked"`
	FeeAmount      uint64           `json:"feeAmount"`
	Voter          solana.PublicKey `json:"voter"`
}

// IsNone reports whether q is the "no quote" sentinel.
func (q WithdrawStakeQuote) IsNone() bool {
	return q == WithdrawStakeQuote{}
}

// DepositStakeQuote is the output of depositing a stake account into a pool.
type DepositStakeQuote struct {
	TokensOut uint64           `json:"tokensOut"`
	FeeAmount uint64           `json:"feeAmount"`
	Voter     solana.PublicKey `json:"voter"`
}

// IsNone reports whether q is the "unavailable" sentinel.
func (q DepositStakeQuote) IsNone() bool {
	return q == DepositStakeQuote{}
}

// WithdrawStakeAccounts are the participants of a withdraw-stake instruction.
type WithdrawStakeAccounts struct {
	// Owner signs as pool token transfer authority and becomes the new stake authority.
	Owner            solana.PublicKey
	DestinationStake solana.PublicKey
	PoolTokenAccount solana.PublicKey
}

// DepositStakeAccounts are the participants of a deposit-stake instruction.
type DepositStakeAccounts struct {
	// Owner is the stake/withdraw authority of StakeAccount and the fee payer.
	Owner        solana.PublicKey
	StakeAccount solana.PublicKey
	// Destination receives the pool tokens (or lamports for instant unstake).
	Destination solana.PublicKey
	// Referrer is optional; Destination is used when zero.
	Referrer solana.PublicKey
}
