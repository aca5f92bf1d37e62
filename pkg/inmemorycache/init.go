package inmemorycache

import (
	"github.com/rs/zerolog/log"
)

const (
	inMemoryCacheSizeInBytes = "IN_MEMORY_CACHE_SIZE_IN_BYTES"
	appGCPercentage          = "APP_GC_PERCENTAGE"
)

var instance InMemoryCache

// InMemoryCache is the process-local cache abstraction backed by freecache.
type InMemoryCache interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	SetEx(key, value []byte, expiryInSec int) error
	Delete(key []byte) bool
}

// Init initializes the in-memory cache singleton at the given version.
func Init(version int) {
	if instance != nil {
		return
	}
	switch version {
	case 1:
		instance = newV1InMemoryCache("default")
	default:
		log.Panic().Msgf("Unknown in-memory cache version %d", version)
	}
}

// InitWithConf initializes the singleton with an explicit size, bypassing env lookup.
func InitWithConf(cacheName string, sizeInMb int) {
	if instance != nil {
		return
	}
	instance = newV1InMemoryCacheWithConf(cacheName, sizeInMb)
}

// Instance returns the in-memory cache. Init must be called first.
func Instance() InMemoryCache {
	if instance == nil {
		log.Panic().Msg("In-memory cache not initialized")
	}
	return instance
}
