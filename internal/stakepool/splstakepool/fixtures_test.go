package splstakepool

import (
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/stakedex-engine/internal/domain"
	"github.com/hxuan190/stakedex-engine/internal/fee"
)

func testKey(b byte) solana.PublicKey {
	var pk solana.PublicKey
	for i := range pk {
		pk[i] = b
	}
	return pk
}

var (
	testPoolAddr  = testKey(1)
	testValidList = testKey(2)
	testReserve   = testKey(3)
	testMint      = testKey(4)
	testManagerFA = testKey(5)
	testVoteA     = testKey(10)
	testVoteB     = testKey(11)
	testVoteC     = testKey(12)
)

const testEpoch = 500

func testStakePool(program solana.PublicKey) *StakePool {
	depositAuthority, err := FindDepositAuthority(program, testPoolAddr)
	if err != nil {
		panic(err)
	}
	return &StakePool{
		Manager:               testKey(6),
		Staker:                testKey(7),
		StakeDepositAuthority: depositAuthority,
		StakeWithdrawBumpSeed: 254,
		ValidatorList:         testValidList,
		ReserveStake:          testReserve,
		PoolMint:              testMint,
		ManagerFeeAccount:     testManagerFA,
		TokenProgramID:        solana.TokenProgramID,
		TotalLamports:         11_000_000_000,
		PoolTokenSupply:       10_000_000_000,
		LastUpdateEpoch:       testEpoch,
		EpochFee:              fee.Ratio{Denominator: 100, Numerator: 5},
		StakeWithdrawalFee:    fee.Ratio{Denominator: 1000, Numerator: 1},
		SolDepositFee:         fee.Ratio{Denominator: 100, Numerator: 1},
	}
}

func testValidators() []domain.ValidatorEntry {
	return []domain.ValidatorEntry{
		{VoteAccount: testVoteA, ActiveStakeLamports: 10_000_000_000, LastUpdateEpoch: testEpoch, Status: domain.StakeStatusActive},
		{VoteAccount: testVoteB, ActiveStakeLamports: 1_000_000_000, LastUpdateEpoch: testEpoch, ValidatorSeedSuffix: 7, Status: domain.StakeStatusActive},
		{VoteAccount: testVoteC, ActiveStakeLamports: 50_000_000_000, LastUpdateEpoch: testEpoch, Status: domain.StakeStatusDeactivatingValidator},
	}
}

func testAccounts(pool *StakePool) domain.AccountMap {
	return domain.AccountMap{
		testPoolAddr:  {Lamports: 1, Data: pool.Encode()},
		testValidList: {Lamports: 1, Data: (&ValidatorList{MaxValidators: 5, Validators: testValidators()}).Encode()},
		testReserve:   {Lamports: 5_000_000_000},
	}
}
