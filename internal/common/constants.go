// Package common contains common constants and variables used across services
package common

import "github.com/gagliardetto/solana-go"

var (
	TokenProgramID  = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	SystemProgramID = solana.SystemProgramID
	NativeMint      = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

	StakeProgramID    = solana.MustPublicKeyFromBase58("Stake11111111111111111111111111111111111111")
	StakeConfigID     = solana.MustPublicKeyFromBase58("StakeConfig11111111111111111111111111111111")
	SysvarClockID     = solana.MustPublicKeyFromBase58("SysvarC1ock11111111111111111111111111111111")
	SysvarStakeHistID = solana.MustPublicKeyFromBase58("SysvarStakeHistory1111111111111111111111111")

	SplStakePoolProgramID    = solana.MustPublicKeyFromBase58("SPoo1Ku8WFXoNDMHPsrGSTSG1Y47rzgn41SLUNakuHy")
	DepositCapGuardProgramID = solana.MustPublicKeyFromBase58("dcgYpf2Vz3qNDGCgpWMWxMfTgMGmDgCDBmKqbfX9LYJ")
	SoceanStakePoolProgramID = solana.MustPublicKeyFromBase58("5ocnV1qiCgaQR8Jb8xWnVbApfaygJ8tNoZfgPwsgx9kx")
	UnstakeProgramID         = solana.MustPublicKeyFromBase58("unpXTU2Ndrc7WWNyEhQWe4udTzSibLPi25SXv2xbCHQ")
)

const (
	LabelSplStakePool = "SPL Stake Pool"
	LabelSocean       = "Socean"
	LabelUnstakeIt    = "Unstake.it"
)
