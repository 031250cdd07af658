// internal/fingerprint/fingerprint.go
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/minio/highwayhash"
)

// Fingerprint is the lowercase hex form of a 128-bit payload digest.
// It is the only equality criterion between snapshots.
type Fingerprint string

// ---- ALGORITHMS ----

const (
	AlgorithmMD5         = "md5"
	AlgorithmHighwayHash = "highwayhash"
)

// KeySize is the HighwayHash key length in bytes.
const KeySize = 32

// Hasher computes fingerprints. Pure, deterministic, never fails.
type Hasher interface {
	Sum(payload []byte) Fingerprint
	Name() string
}

// New returns the hasher for algorithm.
// key is only used by highwayhash and must be 32 bytes, hex encoded.
func New(algorithm, key string) (Hasher, error) {
	switch strings.ToLower(algorithm) {
	case "", AlgorithmMD5:
		return MD5(), nil

	case AlgorithmHighwayHash:
		raw, err := hex.DecodeString(key)
		if err != nil {
			return nil, fmt.Errorf("fingerprint: highwayhash key: %w", err)
		}
		if len(raw) != KeySize {
			return nil, fmt.Errorf("fingerprint: highwayhash key must be %d bytes, got %d", KeySize, len(raw))
		}
		return highway{key: raw}, nil

	default:
		return nil, errors.New("fingerprint: unsupported algorithm " + algorithm)
	}
}

// MD5 returns the default hasher. Records written by earlier producer
// versions carry MD5 digests, so it stays the default.
func MD5() Hasher { return md5Hasher{} }

type md5Hasher struct{}

func (md5Hasher) Name() string { return AlgorithmMD5 }

func (md5Hasher) Sum(payload []byte) Fingerprint {
	sum := md5.Sum(payload)
	return Fingerprint(hex.EncodeToString(sum[:]))
}

type highway struct {
	key []byte
}

func (highway) Name() string { return AlgorithmHighwayHash }

func (h highway) Sum(payload []byte) Fingerprint {
	sum := highwayhash.Sum128(payload, h.key)
	return Fingerprint(hex.EncodeToString(sum[:]))
}
