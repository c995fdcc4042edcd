package security

import (
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/blake2b"
)

var ErrEmptyKey = errors.New("ip hasher key cannot be empty")

// IPHasher produces keyed, non-reversible digests of client IPs for audit
// events. The key keeps the hashes unlinkable across deployments.
type IPHasher struct {
	key []byte
}

func NewIPHasher(key []byte) (*IPHasher, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	if len(key) > blake2b.Size {
		key = key[:blake2b.Size]
	}
	return &IPHasher{key: key}, nil
}

// Hash returns the hex blake2b-256 keyed digest of ip, or empty for an
// empty input so absent IPs stay absent in the ledger.
func (h *IPHasher) Hash(ip string) string {
	if ip == "" {
		return ""
	}
	mac, _ := blake2b.New256(h.key)
	mac.Write([]byte(ip))
	return hex.EncodeToString(mac.Sum(nil))
}
