package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/stakedex-engine/internal/config"
	"github.com/hxuan190/stakedex-engine/internal/http"
	"github.com/hxuan190/stakedex-engine/internal/stakedex"
)

// @title Stakedex Quote API
// @version 1.0
// @description Quotes stake pool withdrawals, deposits and withdraw-then-deposit routes across Solana stake pools.
// @description
// @description ## - Amounts
// @description - Pool tokens and lamports are strings in atomic units
// @description - SOL (9 decimals): 1 SOL = 1000000000
// @BasePath /
func main() {
	// load env
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file, using process environment")
	}

	// di container config
	conf := container.NewConf(
		&config.GeneralConfig{},
		&config.RPCConfig{},
		&config.StakedexConfig{},
	)

	// di container
	dic, err := container.New(
		// config
		conf,

		// services
		&stakedex.Service{},
		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// blocks until SIGINT/SIGTERM
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
