package metric

import (
	"strings"
	"sync"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	client     statsd.ClientInterface
	once       sync.Once
	sampleRate = 1.0
)

// Init initializes the statsd client from viper config. Metrics are dropped
// silently until Init is called, so packages may emit unconditionally.
func Init() {
	once.Do(func() {
		addr := viper.GetString("STATSD_ADDR")
		if addr == "" {
			log.Warn().Msg("STATSD_ADDR not set, metrics disabled")
			client = &statsd.NoOpClient{}
			return
		}
		namespace := viper.GetString("APP_NAME")
		c, err := statsd.New(addr,
			statsd.WithNamespace(namespace+"."),
			statsd.WithoutTelemetry(),
		)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create statsd client, metrics disabled")
			client = &statsd.NoOpClient{}
			return
		}
		client = c
		log.Info().Msgf("Metric client initialized, addr: %s", addr)
	})
}

func instance() statsd.ClientInterface {
	if client == nil {
		return &statsd.NoOpClient{}
	}
	return client
}

// Incr increments a counter by one.
func Incr(name string, tags []string) {
	_ = instance().Incr(name, pairTags(tags), sampleRate)
}

// Count adds value to a counter.
func Count(name string, value int64, tags []string) {
	_ = instance().Count(name, value, pairTags(tags), sampleRate)
}

// Gauge sets a gauge value.
func Gauge(name string, value float64, tags []string) {
	_ = instance().Gauge(name, value, pairTags(tags), sampleRate)
}

// Timing reports a latency.
func Timing(name string, value time.Duration, tags []string) {
	_ = instance().Timing(name, value, pairTags(tags), sampleRate)
}

// pairTags converts the flat [k1, v1, k2, v2, ...] convention used at call
// sites into statsd "k:v" tags. Tags already in "k:v" form pass through.
func pairTags(tags []string) []string {
	out := make([]string, 0, (len(tags)+1)/2)
	for i := 0; i < len(tags); i++ {
		if strings.Contains(tags[i], ":") {
			out = append(out, tags[i])
			continue
		}
		if i+1 < len(tags) {
			out = append(out, tags[i]+":"+tags[i+1])
			i++
		} else {
			out = append(out, tags[i])
		}
	}
	return out
}
