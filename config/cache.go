package config

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

var (
	// DatasetCache holds the parsed LGD tier datasets.
	DatasetCache *cache.Cache
)

const (
	// Cache durations
	defaultDatasetCacheDuration = 24 * time.Hour

	// Cleanup intervals
	defaultDatasetCleanupInterval = 48 * time.Hour
)

// InitCache creates the process wide caches. Non-positive durations fall
// back to the defaults.
func InitCache(ttl, cleanup time.Duration) *cache.Cache {
	if ttl <= 0 {
		ttl = defaultDatasetCacheDuration
	}
	if cleanup <= 0 {
		cleanup = defaultDatasetCleanupInterval
	}
	DatasetCache = cache.New(ttl, cleanup)
	return DatasetCache
}

func ClearAllCaches() {
	if DatasetCache != nil {
		DatasetCache.Flush()
	}
}

func GetCacheKey(prefix string, params ...interface{}) string {
	key := prefix
	for _, param := range params {
		key += ":" + fmt.Sprintf("%v", param)
	}
	return key
}
