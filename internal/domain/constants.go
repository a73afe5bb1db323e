package domain

const (
	// DefaultStakeAccountRentExemptLamports is the rent-exempt minimum of a 200-byte stake account.
	DefaultStakeAccountRentExemptLamports uint64 = 2_282_880

	// DefaultZeroDataAccountRentExemptLamports is the rent-exempt minimum of an account with no data.
	DefaultZeroDataAccountRentExemptLamports uint64 = 890_880

	// DefaultMinActiveStakeLamports is the stake a validator stake account must keep delegated.
	DefaultMinActiveStakeLamports uint64 = 1_000_000
)

// Constants are the protocol-defined amounts quote code depends on. They change with
// runtime upgrades (dynamic rent, minimum delegation) so they are injected, never global.
type Constants struct {
	StakeAccountRentExemptLamports    uint64
	ZeroDataAccountRentExemptLamports uint64
	MinActiveStakeLamports            uint64

	// FlashLoanLamports overrides the prefund flash loan amount. Zero means
	// twice the stake account rent-exempt minimum.
	FlashLoanLamports uint64
}

func DefaultConstants() Constants {
	return Constants{
		StakeAccountRentExemptLamports:    DefaultStakeAccountRentExemptLamports,
		ZeroDataAccountRentExemptLamports: DefaultZeroDataAccountRentExemptLamports,
		MinActiveStakeLamports:            DefaultMinActiveStakeLamports,
	}
}

// PrefundFlashLoanLamports is the amount the router advances to make the slumdog
// stake and the withdrawn stake rent-exempt mid-transaction.
func (c Constants) PrefundFlashLoanLamports() uint64 {
	if c.FlashLoanLamports != 0 {
		return c.FlashLoanLamports
	}
	return 2 * c.StakeAccountRentExemptLamports
}
