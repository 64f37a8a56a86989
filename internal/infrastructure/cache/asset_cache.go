// Package cache stores fetched rendering assets (logos, fonts) so repeated
// renders of the same document do not refetch them.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// DefaultAssetTTL is used when Set is called with a zero TTL
const DefaultAssetTTL = 10 * time.Minute

// AssetCache stores raw asset bytes by URL.
// A miss is reported as (nil, false, nil); errors are for backend failures.
type AssetCache interface {
	Get(ctx context.Context, url string) ([]byte, bool, error)
	Set(ctx context.Context, url string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, url string) error
	Close() error
}

// assetKey hashes a URL into a fixed-length cache key
func assetKey(prefix, url string) string {
	sum := sha256.Sum256([]byte(url))
	return prefix + hex.EncodeToString(sum[:])
}
