package domain

import "github.com/gagliardetto/solana-go"

// Account is the raw on-chain state of a single address as supplied by the fetch layer.
type Account struct {
	Lamports uint64
	Owner    solana.PublicKey
	Data     []byte
}

// AccountMap is an address -> account snapshot. Adapters only ever read from it.
type AccountMap map[solana.PublicKey]Account

// Get returns the account stored at key or a MissingAccount error.
func (m AccountMap) Get(key solana.PublicKey) (Account, error) {
	acc, ok := m[key]
	if !ok {
		return Account{}, MissingAccount(key)
	}
	return acc, nil
}

// Merge copies every entry of other into m, overwriting existing keys.
func (m AccountMap) Merge(other AccountMap) {
	for k, v := range other {
		m[k] = v
	}
}

// KeyedAccount is the seed account an adapter is initialized from.
type KeyedAccount struct {
	Key     solana.PublicKey
	Account Account
	// Params optionally carries a display name for the pool's token.
	Params string
}

// Context carries the values an adapter needs at construction time.
type Context struct {
	Epoch     uint64
	Constants Constants
}
