package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/docanswer/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// KeyPrefix namespaces every key written by docanswer
const KeyPrefix = "docanswer:v1:"

// CacheKey derives a fixed-length key from arbitrary input (e.g. model + text)
func CacheKey(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return KeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// New builds the cache selected by cfg. A disabled cache returns (nil, nil).
func New(cfg model.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch strings.ToLower(cfg.Backend) {
	case "memory":
		return NewMemoryCache(cfg.TTL, 10*time.Minute), nil
	case "disk":
		return NewDiskCache(cfg.Dir, cfg.TTL), nil
	case "", "layered":
		return NewLayeredCache(NewMemoryCache(cfg.TTL, 10*time.Minute), NewDiskCache(cfg.Dir, cfg.TTL)), nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis cache requires redis_addr")
		}
		return NewRedisCache(cfg.RedisAddr, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s (supported: memory, disk, layered, redis)", cfg.Backend)
	}
}
