package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/stakedex-engine/internal/domain"
)

type StakedexConfig struct {
	// SplPools are the SPL stake pool state accounts to quote. Socean and
	// unstake.it are always loaded.
	SplPools []solana.PublicKey

	// RefreshInterval controls how often tracked accounts are re-fetched.
	RefreshInterval time.Duration

	// Constants override the protocol amounts quotes depend on. Zero keeps the default.
	Constants domain.Constants

	// DBPath is the BoltDB file the last good account snapshot is persisted to.
	DBPath string

	// PersistenceEnabled controls whether snapshots are persisted to disk.
	PersistenceEnabled bool
}

func (c *StakedexConfig) Key() string {
	return STAKEDEX_CONFIG_KEY
}

func (c *StakedexConfig) Load() error {
	c.SplPools = c.SplPools[:0]
	raw := os.Getenv("STAKEDEX_SPL_POOLS")
	if raw != "" {
		for _, p := range strings.Split(raw, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			key, err := solana.PublicKeyFromBase58(p)
			if err != nil {
				return fmt.Errorf("STAKEDEX_SPL_POOLS: %w", err)
			}
			c.SplPools = append(c.SplPools, key)
		}
	}

	c.RefreshInterval = time.Duration(common.GetEnvOrDefaultInt("STAKEDEX_REFRESH_INTERVAL_MS", 5000)) * time.Millisecond

	defaults := domain.DefaultConstants()
	var err error
	if c.Constants.StakeAccountRentExemptLamports, err = lamportsEnv("STAKE_ACCOUNT_RENT_EXEMPT_LAMPORTS", defaults.StakeAccountRentExemptLamports); err != nil {
		return err
	}
	if c.Constants.ZeroDataAccountRentExemptLamports, err = lamportsEnv("ZERO_DATA_ACCOUNT_RENT_EXEMPT_LAMPORTS", defaults.ZeroDataAccountRentExemptLamports); err != nil {
		return err
	}
	if c.Constants.MinActiveStakeLamports, err = lamportsEnv("MIN_ACTIVE_STAKE_LAMPORTS", defaults.MinActiveStakeLamports); err != nil {
		return err
	}
	if c.Constants.FlashLoanLamports, err = lamportsEnv("PREFUND_FLASH_LOAN_LAMPORTS", 0); err != nil {
		return err
	}

	c.DBPath = common.GetEnvOrDefault("STAKEDEX_DB_PATH", "./data/stakedex.db")
	c.PersistenceEnabled = common.GetEnvOrDefault("STAKEDEX_PERSISTENCE_ENABLED", "true") == "true"
	return c.Validate()
}

func (c *StakedexConfig) Validate() error {
	if c.RefreshInterval <= 0 {
		return errors.New("refresh interval must be positive")
	}
	if c.Constants.StakeAccountRentExemptLamports == 0 || c.Constants.ZeroDataAccountRentExemptLamports == 0 {
		return errors.New("rent-exempt minimums must be positive")
	}
	if c.PersistenceEnabled && c.DBPath == "" {
		return errors.New("persistence enabled without a db path")
	}
	return nil
}

// lamportsEnv reads a lamport amount, rejecting negatives instead of letting
// them wrap to huge unsigned values.
func lamportsEnv(name string, def uint64) (uint64, error) {
	v := common.GetEnvOrDefaultInt(name, int(def))
	if v < 0 {
		return 0, fmt.Errorf("%s: must not be negative, got %d", name, v)
	}
	return uint64(v), nil
}
