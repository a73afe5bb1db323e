package stakedex

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/stakedex-engine/internal/adapters/blockchain"
	"github.com/hxuan190/stakedex-engine/internal/adapters/persistence"
	"github.com/hxuan190/stakedex-engine/internal/common"
	"github.com/hxuan190/stakedex-engine/internal/config"
	"github.com/hxuan190/stakedex-engine/internal/domain"
	"github.com/hxuan190/stakedex-engine/internal/metrics"
)

const STAKEDEX_SERVICE = "stakedex-service"

const rpcTimeout = 30 * time.Second

// Service keeps an Engine fed with fresh account snapshots and persists the
// last snapshot for warm restarts.
type Service struct {
	container.BaseDIInstance

	engine *Engine

	logger  *common.ServiceLogger
	conf    *config.StakedexConfig
	fetcher *blockchain.AccountFetcher
	storage *persistence.SnapshotStore

	refreshMu sync.Mutex
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

func (svc *Service) ID() string {
	return STAKEDEX_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	rpcConfig := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
	svc.logger = common.NewServiceLogger(svc).With("commitment", rpcConfig.Commitment)
	svc.conf = c.GetConfig(config.STAKEDEX_CONFIG_KEY).(*config.StakedexConfig)
	if svc.conf == nil {
		return errors.New("invalid stakedex config")
	}

	var client *rpc.Client
	if rpcConfig.RPCApiKey != "" {
		client = rpc.NewWithHeaders(rpcConfig.RPCUrl, map[string]string{"x-api-key": rpcConfig.RPCApiKey})
	} else {
		client = rpc.New(rpcConfig.RPCUrl)
	}
	svc.fetcher = blockchain.NewAccountFetcher(client,
		blockchain.WithCommitment(rpc.CommitmentType(rpcConfig.Commitment)),
		blockchain.WithMaxRetries(rpcConfig.MaxRetries),
		blockchain.WithConcurrency(rpcConfig.FetchConcurrency),
	)

	if svc.conf.PersistenceEnabled {
		storage, err := persistence.NewSnapshotStore(svc.conf.DBPath)
		if err != nil {
			return err
		}
		svc.storage = storage
	}

	svc.engine = NewEngine(svc.conf.Constants)
	svc.stopCh = make(chan struct{})
	return nil
}

// Engine serves quotes from the latest committed snapshot.
func (svc *Service) Engine() *Engine {
	return svc.engine
}

func (svc *Service) Start() error {
	svc.warmStart()

	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	if err := svc.bootstrap(ctx); err != nil {
		svc.logger.Warn().Err(err).Msg("[stakedexService] bootstrap incomplete, missing pools are retried on refresh")
	}
	if err := svc.Refresh(ctx); err != nil {
		svc.logger.Warn().Err(err).Msg("[stakedexService] initial refresh incomplete")
	}

	svc.wg.Add(1)
	go svc.refreshLoop()

	svc.logger.Info().
		Int("pools", len(svc.engine.Pools())).
		Uint64("epoch", svc.engine.Epoch()).
		Dur("interval", svc.conf.RefreshInterval).
		Msg("[stakedexService] started")
	return nil
}

func (svc *Service) Stop() error {
	close(svc.stopCh)
	svc.wg.Wait()

	if svc.storage != nil {
		if err := svc.storage.Close(); err != nil {
			svc.logger.Error().Err(err).Msg("[stakedexService] failed to close storage")
			return err
		}
	}
	svc.logger.Info().Msg("[stakedexService] stopped")
	return nil
}

// warmStart quotes from the persisted snapshot until the first RPC refresh lands.
func (svc *Service) warmStart() {
	if svc.storage == nil {
		return
	}
	accounts, err := svc.storage.Load()
	if err != nil {
		svc.logger.Error().Err(err).Msg("[stakedexService] failed to load snapshot")
		return
	}
	if len(accounts) == 0 {
		svc.logger.Info().Msg("[stakedexService] no persisted snapshot found")
		return
	}
	epoch, _, err := svc.storage.LoadEpoch()
	if err != nil {
		svc.logger.Warn().Err(err).Msg("[stakedexService] failed to load snapshot epoch")
	}

	if err := svc.engine.Bootstrap(accounts, svc.conf.SplPools, epoch); err != nil {
		svc.logger.Warn().Err(err).Msg("[stakedexService] snapshot is missing pools")
	}
	if err := svc.engine.Apply(context.Background(), epoch, accounts); err != nil {
		svc.logger.Warn().Err(err).Msg("[stakedexService] snapshot refresh incomplete")
	}
	svc.logger.Info().Int("accounts", len(accounts)).Uint64("epoch", epoch).Msg("[stakedexService] warm started from snapshot")
}

func (svc *Service) bootstrap(ctx context.Context) error {
	epoch, err := svc.fetcher.CurrentEpoch(ctx)
	if err != nil {
		return err
	}
	seeds, err := svc.fetcher.FetchAccounts(ctx, SeedKeys(svc.conf.SplPools))
	if err != nil {
		return err
	}
	return svc.engine.Bootstrap(seeds, svc.conf.SplPools, epoch)
}

// Refresh fetches every tracked account and commits the snapshot. Pools whose
// seed was unavailable at startup are registered as soon as it shows up.
func (svc *Service) Refresh(ctx context.Context) error {
	svc.refreshMu.Lock()
	defer svc.refreshMu.Unlock()

	start := time.Now()
	defer func() {
		metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	}()

	epoch, err := svc.fetcher.CurrentEpoch(ctx)
	if err != nil {
		metrics.Refreshes.WithLabelValues("rpc_error").Inc()
		return err
	}

	keys := svc.trackedWithSeeds()
	metrics.TrackedAccounts.Set(float64(len(keys)))
	accounts, err := svc.fetcher.FetchAccounts(ctx, keys)
	if err != nil {
		metrics.Refreshes.WithLabelValues("rpc_error").Inc()
		return err
	}

	if len(svc.engine.Pools()) < len(SeedKeys(svc.conf.SplPools)) {
		if err := svc.engine.Bootstrap(accounts, svc.conf.SplPools, epoch); err != nil {
			svc.logger.Debug().Err(err).Msg("[stakedexService] some pools still unavailable")
		}
	}

	applyErr := svc.engine.Apply(ctx, epoch, accounts)
	if applyErr != nil {
		metrics.Refreshes.WithLabelValues("partial").Inc()
	} else {
		metrics.Refreshes.WithLabelValues("ok").Inc()
	}

	// a pool's tracked set follows its freshly decoded state, so an update can
	// name accounts the previous state did not track
	if missing := MissingAccounts(applyErr, accounts); len(missing) > 0 {
		extra, err := svc.fetcher.FetchAccounts(ctx, missing)
		if err != nil {
			svc.logger.Warn().Err(err).Int("keys", len(missing)).Msg("[stakedexService] failed to fetch newly tracked accounts")
		} else {
			accounts.Merge(extra)
			applyErr = svc.engine.Apply(ctx, epoch, accounts)
		}
	}

	svc.persist(epoch, accounts)
	return applyErr
}

func (svc *Service) trackedWithSeeds() []solana.PublicKey {
	keys := svc.engine.AccountsToUpdate()
	seen := make(map[solana.PublicKey]struct{}, len(keys))
	for _, k := range keys {
		seen[k] = struct{}{}
	}
	for _, k := range SeedKeys(svc.conf.SplPools) {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func (svc *Service) persist(epoch uint64, accounts domain.AccountMap) {
	if svc.storage == nil {
		return
	}
	if err := svc.storage.Save(accounts); err != nil {
		svc.logger.Error().Err(err).Msg("[stakedexService] failed to persist snapshot")
		return
	}
	if err := svc.storage.SaveEpoch(epoch); err != nil {
		svc.logger.Error().Err(err).Msg("[stakedexService] failed to persist epoch")
	}
}

func (svc *Service) refreshLoop() {
	defer svc.wg.Done()
	ticker := time.NewTicker(svc.conf.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-svc.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
			if err := svc.Refresh(ctx); err != nil {
				svc.logger.Warn().Err(err).Msg("[stakedexService] refresh incomplete")
			}
			cancel()
		}
	}
}
