package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// MaxIDLen is the longest document id kept verbatim in a storage key.
const MaxIDLen = 200

// DocKey returns the storage key for id in namespace ns. Ids longer than
// MaxIDLen are replaced by a hex SHA-256 prefixed with '#', so a hashed key
// never collides with a verbatim one of the same length.
func DocKey(ns, id string) string {
	if len(id) > MaxIDLen {
		sum := sha256.Sum256([]byte(id))
		id = "#" + hex.EncodeToString(sum[:])
	}
	return DocPrefix(ns) + id
}

// DocPrefix is the key prefix shared by every document in namespace ns.
func DocPrefix(ns string) string { return "doc:" + ns + ":" }
