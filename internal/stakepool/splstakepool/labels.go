package splstakepool

import "github.com/gagliardetto/solana-go"

// knownPools maps well-known SPL stake pool state accounts to display labels.
// Built once at init and never written afterwards.
var knownPools = func() map[solana.PublicKey]string {
	entries := []struct {
		pool  string
		label string
	}{
		{"CgntPoLka5pD5fesJYhGmUCF8KU1QS1ZmZiuAuMZr2az", "Cogent"},
		{"Jito4APyf642JPZPx3hGc6WWJ8zPKtRbRs4P815Awbb", "Jito"},
		{"stk9ApL5HeVAwPLr3TLhDXdZS8ptVu7zp6ov8HFDuMi", "SolBlaze"},
		{"CtMyWsrUtAwXWiGr9WjHT5fC3p3fgV8cyGpLTo2LJzG1", "JPool"},
		{"7ge2xKsZXmqPxa3YmXxXmzCp9Hc2ezrTxh6PECaxCxrL", "DaoPool"},
		{"HL8Cwe2Q3zL3EshGzsE6MtmXaiRmKjDXrnU2zLxDa9Ud", "Laine"},
		{"mrgnHF6m2XBXjZwoeT5c7hv5Zn9sBCjD9ie8Qi7oNPw", "mrgn"},
		{"F8h46pYkaqPJNP2MRkUUUtRkf8efCkpoqehn9g1bTTm7", "Risk.lol"},
	}
	m := make(map[solana.PublicKey]string, len(entries))
	for _, e := range entries {
		m[solana.MustPublicKeyFromBase58(e.pool)] = e.label
	}
	return m
}()

// LabelFor returns the known label of pool.
func LabelFor(pool solana.PublicKey) (string, bool) {
	l, ok := knownPools[pool]
	return l, ok
}
