package persistence

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/stakedex-engine/internal/domain"
)

const (
	AccountsBucket = "accounts"
	MetaBucket     = "meta"

	DefaultDBPath = "./data/stakedex.db"

	epochKey = "epoch"
)

type StoredAccount struct {
	Lamports uint64 `json:"lamports"`
	Owner    string `json:"owner"`
	Data     []byte `json:"data"`
}

// SnapshotStore persists the last account snapshot every adapter refreshed
// successfully from, so a restart can quote before the first RPC round trip.
type SnapshotStore struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewSnapshotStore(dbPath string) (*SnapshotStore, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database dir: %w", err)
	}

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[SnapshotStore] opened database")

	return &SnapshotStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *SnapshotStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save writes every account of the snapshot in one batch.
func (s *SnapshotStore) Save(accounts domain.AccountMap) error {
	if len(accounts) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	for address, account := range accounts {
		data, err := sonic.Marshal(accountToStored(account))
		if err != nil {
			return fmt.Errorf("failed to marshal account %s: %w", address, err)
		}

		value := data
		op := &boltdb.WriteOperation{
			Bucket: []byte(AccountsBucket),
			Key:    []byte(address.String()),
			Value:  &value,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add account %s to batch: %w", address, err)
		}
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).Int("count", len(accounts)).Msg("[SnapshotStore] FAILED to execute batch")
		return err
	}

	log.Debug().Int("count", len(accounts)).Msg("[SnapshotStore] saved account snapshot")
	return nil
}

// Load returns every stored account. Entries that fail to decode are skipped.
func (s *SnapshotStore) Load() (domain.AccountMap, error) {
	data, err := s.db.List(AccountsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	accounts := make(domain.AccountMap, len(data))
	failed := 0
	for address, value := range data {
		key, account, err := decodeStored(address, value)
		if err != nil {
			log.Error().Str("address", address).Err(err).Msg("[SnapshotStore] failed to decode account, skipping")
			failed++
			continue
		}
		accounts[key] = account
	}

	log.Info().
		Int("total_in_db", len(data)).
		Int("loaded", len(accounts)).
		Int("failed", failed).
		Msg("[SnapshotStore] account snapshot loaded")

	return accounts, nil
}

func (s *SnapshotStore) SaveEpoch(epoch uint64) error {
	return s.db.Set(MetaBucket, []byte(epochKey), binary.LittleEndian.AppendUint64(nil, epoch))
}

// LoadEpoch returns the epoch stored with the last snapshot, or false if none was.
func (s *SnapshotStore) LoadEpoch() (uint64, bool, error) {
	data, err := s.db.List(MetaBucket)
	if err != nil {
		return 0, false, fmt.Errorf("failed to list meta: %w", err)
	}
	raw, ok := data[epochKey]
	if !ok || len(raw) != 8 {
		return 0, false, nil
	}
	return binary.LittleEndian.Uint64(raw), true, nil
}

func accountToStored(account domain.Account) *StoredAccount {
	return &StoredAccount{
		Lamports: account.Lamports,
		Owner:    account.Owner.String(),
		Data:     account.Data,
	}
}

func decodeStored(address string, value []byte) (solana.PublicKey, domain.Account, error) {
	key, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, domain.Account{}, fmt.Errorf("invalid address: %w", err)
	}

	var stored StoredAccount
	if err := sonic.Unmarshal(value, &stored); err != nil {
		return solana.PublicKey{}, domain.Account{}, fmt.Errorf("unmarshal: %w", err)
	}

	owner, err := solana.PublicKeyFromBase58(stored.Owner)
	if err != nil {
		return solana.PublicKey{}, domain.Account{}, fmt.Errorf("invalid owner: %w", err)
	}

	return key, domain.Account{
		Lamports: stored.Lamports,
		Owner:    owner,
		Data:     stored.Data,
	}, nil
}
