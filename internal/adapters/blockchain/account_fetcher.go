package blockchain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hxuan190/stakedex-engine/internal/domain"
	"github.com/hxuan190/stakedex-engine/internal/metrics"
)

// MaxAccountsPerRequest is the getMultipleAccounts limit of Solana RPC nodes.
const MaxAccountsPerRequest = 100

// RPCClient is the subset of *rpc.Client the fetcher uses.
type RPCClient interface {
	GetMultipleAccountsWithOpts(ctx context.Context, accounts []solana.PublicKey, opts *rpc.GetMultipleAccountsOpts) (*rpc.GetMultipleAccountsResult, error)
	GetEpochInfo(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetEpochInfoResult, error)
}

// AccountFetcher loads account snapshots for the adapters. Addresses the node
// does not know are left out of the result so adapters report them as missing.
type AccountFetcher struct {
	client      RPCClient
	commitment  rpc.CommitmentType
	maxRetries  uint
	concurrency int
	newBackOff  func() backoff.BackOff
}

type FetcherOption func(*AccountFetcher)

func WithCommitment(commitment rpc.CommitmentType) FetcherOption {
	return func(f *AccountFetcher) { f.commitment = commitment }
}

func WithMaxRetries(n int) FetcherOption {
	return func(f *AccountFetcher) {
		if n > 0 {
			f.maxRetries = uint(n)
		}
	}
}

func WithConcurrency(n int) FetcherOption {
	return func(f *AccountFetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithBackOff replaces the exponential retry policy.
func WithBackOff(newBackOff func() backoff.BackOff) FetcherOption {
	return func(f *AccountFetcher) { f.newBackOff = newBackOff }
}

func NewAccountFetcher(client RPCClient, opts ...FetcherOption) *AccountFetcher {
	f := &AccountFetcher{
		client:      client,
		commitment:  rpc.CommitmentConfirmed,
		maxRetries:  3,
		concurrency: 4,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchAccounts requests keys in batches of MaxAccountsPerRequest, retrying each
// batch independently. Any batch failing after all retries fails the whole call.
func (f *AccountFetcher) FetchAccounts(ctx context.Context, keys []solana.PublicKey) (domain.AccountMap, error) {
	batches := ChunkKeys(dedupKeys(keys), MaxAccountsPerRequest)
	out := make(domain.AccountMap, len(keys))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for _, batch := range batches {
		g.Go(func() error {
			accounts, err := f.fetchBatch(gctx, batch)
			if err != nil {
				return err
			}
			mu.Lock()
			out.Merge(accounts)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *AccountFetcher) fetchBatch(ctx context.Context, keys []solana.PublicKey) (domain.AccountMap, error) {
	op := func() (domain.AccountMap, error) {
		res, err := f.client.GetMultipleAccountsWithOpts(ctx, keys, &rpc.GetMultipleAccountsOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: f.commitment,
		})
		if err != nil {
			return nil, err
		}
		if res == nil || len(res.Value) != len(keys) {
			got := 0
			if res != nil {
				got = len(res.Value)
			}
			return nil, backoff.Permanent(fmt.Errorf("getMultipleAccounts returned %d accounts for %d keys", got, len(keys)))
		}

		accounts := make(domain.AccountMap, len(keys))
		for i, info := range res.Value {
			if info == nil {
				continue
			}
			var data []byte
			if info.Data != nil {
				data = info.Data.GetBinary()
			}
			accounts[keys[i]] = domain.Account{
				Lamports: info.Lamports,
				Owner:    info.Owner,
				Data:     data,
			}
		}
		return accounts, nil
	}

	accounts, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(f.newBackOff()),
		backoff.WithMaxTries(f.maxRetries),
		backoff.WithNotify(func(err error, next time.Duration) {
			metrics.RPCFetchRetries.Inc()
			log.Warn().Err(err).Int("keys", len(keys)).Dur("retryIn", next).Msg("[AccountFetcher] batch fetch failed, retrying")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch %d accounts: %w", len(keys), err)
	}
	return accounts, nil
}

// CurrentEpoch returns the epoch the cluster is in at the fetcher's commitment.
func (f *AccountFetcher) CurrentEpoch(ctx context.Context) (uint64, error) {
	info, err := f.client.GetEpochInfo(ctx, f.commitment)
	if err != nil {
		return 0, fmt.Errorf("epoch info: %w", err)
	}
	if info == nil {
		return 0, fmt.Errorf("epoch info: empty response")
	}
	return info.Epoch, nil
}

// ChunkKeys splits keys into consecutive slices of at most size elements.
func ChunkKeys(keys []solana.PublicKey, size int) [][]solana.PublicKey {
	if size <= 0 || len(keys) == 0 {
		return nil
	}
	chunks := make([][]solana.PublicKey, 0, (len(keys)+size-1)/size)
	for start := 0; start < len(keys); start += size {
		end := min(start+size, len(keys))
		chunks = append(chunks, keys[start:end])
	}
	return chunks
}

func dedupKeys(keys []solana.PublicKey) []solana.PublicKey {
	seen := make(map[solana.PublicKey]struct{}, len(keys))
	out := make([]solana.PublicKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
