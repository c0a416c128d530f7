package experiment

import (
	"crypto/sha256"
	"math/big"
	"sort"
)

// Route deterministically assigns an identity to one of the trial keys. The
// keys are sorted lexicographically (registration order does not matter),
// the SHA-256 digest of "identity:selector" is taken as a 256-bit unsigned
// integer, and the key at digest mod len(keys) is returned.
//
// The mapping is pure: the same (identity, selector, key set) always yields
// the same key. Adding or removing a key reshuffles assignments for most
// identities; that is inherent to modulo hashing, not a defect.
func Route(identity, selector string, keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	sum := sha256.Sum256([]byte(identity + ":" + selector))
	digest := new(big.Int).SetBytes(sum[:])
	idx := new(big.Int).Mod(digest, big.NewInt(int64(len(sorted)))).Int64()
	return sorted[idx]
}
