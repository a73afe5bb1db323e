// Package unstakeit adapts the unstake.it instant-unstake pool, which buys stake
// accounts for SOL out of a liquidity reserve.
package unstakeit

import (
	"crypto/sha256"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/stakedex-engine/internal/common"
)

var (
	PoolID = solana.MustPublicKeyFromBase58("FypPtwbY3FUfzJUtXHSyVRokVKG2jKtH29FmK4ebxRSd")

	FeeID         = mustFind([][]byte{PoolID.Bytes(), []byte("fee")})
	SolReservesID = mustFind([][]byte{PoolID.Bytes()})
	ProtocolFeeID = mustFind([][]byte{[]byte("protocol-fee")})
)

var (
	poolDiscriminator        = discriminator("account", "Pool")
	feeDiscriminator         = discriminator("account", "Fee")
	protocolFeeDiscriminator = discriminator("account", "ProtocolFee")
	unstakeDiscriminator     = discriminator("global", "unstake")
)

func mustFind(seeds [][]byte) solana.PublicKey {
	addr, _, err := solana.FindProgramAddress(seeds, common.UnstakeProgramID)
	if err != nil {
		panic(err)
	}
	return addr
}

// FindStakeAccountRecord derives the record the program keeps for each stake
// account it holds.
func FindStakeAccountRecord(stakeAccount solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{PoolID.Bytes(), stakeAccount.Bytes()}, common.UnstakeProgramID)
	return addr, err
}

func discriminator(namespace, name string) [8]byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}
