package failsafecb

import (
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	cbconf "github.com/microscopium/microscopium/pkg/circuitbreaker"
	"github.com/microscopium/microscopium/pkg/metric"
	"github.com/rs/zerolog/log"
)

// FailSafeCB wraps a failsafe-go circuit breaker for calls returning R.
type FailSafeCB[R any] struct {
	Cb   circuitbreaker.CircuitBreaker[R]
	name string
}

func NewFailSafe[R any](config *cbconf.Config) *FailSafeCB[R] {
	cb := circuitbreaker.Builder[R]().
		WithFailureRateThreshold(uint(config.FailureRateThreshold), uint(config.FailureExecutionThreshold), time.Duration(config.FailureThresholdingPeriodInMS)*time.Millisecond).
		WithSuccessThresholdRatio(uint(config.SuccessRatioThreshold), uint(config.SuccessThresholdingCapacity)).
		WithDelay(time.Duration(config.WithDelayInMS) * time.Millisecond).
		OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			log.Debug().Msgf("Circuit Breaker '%s' changed state from %s to %s", config.CBName, event.OldState, event.NewState)
			metric.Incr("circuit_breaker_state_change", []string{
				metric.TagAsString("cb_name", config.CBName),
				metric.TagAsString("new_state", event.NewState.String()),
			})
		}).
		Build()
	return &FailSafeCB[R]{Cb: cb, name: config.CBName}
}

// Execute runs fn under the breaker; when open it fails fast with
// circuitbreaker.ErrOpen.
func (f *FailSafeCB[R]) Execute(fn func() (R, error)) (R, error) {
	return failsafe.Get(fn, f.Cb)
}
