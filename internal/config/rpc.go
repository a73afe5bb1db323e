package config

import (
	"errors"
	"os"

	"github.com/andrew-solarstorm/go-packages/common"
)

type RPCConfig struct {
	RPCUrl    string
	RPCApiKey string
	// Commitment is the commitment level account snapshots are read at.
	Commitment string

	// MaxRetries bounds the attempts of a single account batch fetch.
	MaxRetries int
	// FetchConcurrency is the number of account batches requested at once.
	FetchConcurrency int
}

func (r *RPCConfig) Key() string {
	return RPC_CONFIG_KEY
}

func (r *RPCConfig) Load() error {
	r.RPCUrl = os.Getenv("RPC_URL")
	r.RPCApiKey = os.Getenv("RPC_KEY")
	r.Commitment = common.GetEnvOrDefault("RPC_COMMITMENT", "confirmed")
	r.MaxRetries = common.GetEnvOrDefaultInt("RPC_MAX_RETRIES", 3)
	r.FetchConcurrency = common.GetEnvOrDefaultInt("RPC_FETCH_CONCURRENCY", 4)
	return r.Validate()
}

func (r *RPCConfig) Validate() error {
	if r.RPCUrl == "" {
		return errors.New("invalid rpc config")
	}
	if r.MaxRetries <= 0 || r.FetchConcurrency <= 0 {
		return errors.New("invalid rpc fetch settings")
	}
	switch r.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return errors.New("invalid rpc commitment")
	}
	return nil
}
