// Package cache provides the in-memory layer that sits in front of the
// durable store for hot page and claim lookups. Durable caching lives in
// the store itself; this layer only saves repeated database reads within
// one session.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for the memory layer
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// PageKey generates the cache key for a page URL
func PageKey(url string) string {
	return key("page", url)
}

// ClaimsKey generates the cache key for a URL's claim extraction
func ClaimsKey(url string) string {
	return key("claims", url)
}

func key(kind, url string) string {
	hash := sha256.Sum256([]byte(url))
	return "hopweaver:v1:" + kind + ":" + hex.EncodeToString(hash[:])
}
