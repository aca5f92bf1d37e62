package inmemorycache

import (
	"runtime/debug"
	"time"

	"github.com/coocood/freecache"
	"github.com/microscopium/microscopium/pkg/metric"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	metricUpdateInterval = 1 * time.Minute
	infiniteExpiry       = -1
)

// V1 wraps a freecache instance and publishes hit-rate and occupancy gauges.
type V1 struct {
	cacheName  string
	inMemCache *freecache.Cache
}

// newV1InMemoryCache sizes the cache from IN_MEMORY_CACHE_SIZE_IN_BYTES and
// optionally tunes the GC target via APP_GC_PERCENTAGE. freecache holds its
// memory up front, so the default GC target wastes cycles on large caches.
func newV1InMemoryCache(cacheName string) InMemoryCache {
	if !viper.IsSet(inMemoryCacheSizeInBytes) {
		log.Panic().Msgf("env::%s is not set !!", inMemoryCacheSizeInBytes)
	}
	sizeInBytes := viper.GetInt(inMemoryCacheSizeInBytes)
	if viper.IsSet(appGCPercentage) {
		debug.SetGCPercent(viper.GetInt(appGCPercentage))
	} else {
		log.Warn().Msgf("env::%s is not set", appGCPercentage)
	}
	return newCache(cacheName, sizeInBytes)
}

func newV1InMemoryCacheWithConf(cacheName string, sizeInMb int) InMemoryCache {
	if sizeInMb <= 0 {
		log.Panic().Msgf("cache size must be positive, got %d MB", sizeInMb)
	}
	return newCache(cacheName, sizeInMb*1024*1024)
}

func newCache(cacheName string, sizeInBytes int) *V1 {
	if cacheName == "" {
		log.Panic().Msg("cache name cannot be empty")
	}
	c := &V1{
		cacheName:  cacheName,
		inMemCache: freecache.NewCache(sizeInBytes),
	}
	go c.publishMetric()
	return c
}

func (imc *V1) Get(key []byte) ([]byte, error) {
	return imc.inMemCache.Get(key)
}

func (imc *V1) Set(key, value []byte) error {
	return imc.inMemCache.Set(key, value, infiniteExpiry)
}

func (imc *V1) SetEx(key, value []byte, expiryInSec int) error {
	return imc.inMemCache.Set(key, value, expiryInSec)
}

func (imc *V1) Delete(key []byte) bool {
	return imc.inMemCache.Del(key)
}

func (imc *V1) publishMetric() {
	ticker := time.NewTicker(metricUpdateInterval)
	defer ticker.Stop()
	tags := metric.BuildTag(metric.NewTag("cache_name", imc.cacheName))
	for range ticker.C {
		metric.Gauge(metric.HitRate, imc.inMemCache.HitRate(), tags)
		metric.Gauge(metric.ItemCount, float64(imc.inMemCache.EntryCount()), tags)
		metric.Gauge(metric.EvacuateCount, float64(imc.inMemCache.EvacuateCount()), tags)
		metric.Gauge(metric.ExpiryCount, float64(imc.inMemCache.ExpiredCount()), tags)
	}
}
