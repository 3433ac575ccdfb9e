// Package sequence holds the sequence-search domain: content hashing, hit
// filtering and reshaping, summary enrichment and the cache-backed search
// state.
package sequence

import (
	"crypto/md5"
	"encoding/hex"
)

// Hash returns the md5 hex digest of sequence. It is the job id exposed to
// clients.
func Hash(sequence string) string {
	sum := md5.Sum([]byte(sequence))
	return hex.EncodeToString(sum[:])
}
