package circuitbreaker

// Config holds the thresholds for a named circuit breaker.
type Config struct {
	CBName                        string
	FailureRateThreshold          int
	FailureExecutionThreshold     int
	FailureThresholdingPeriodInMS int
	SuccessRatioThreshold         int
	SuccessThresholdingCapacity   int
	WithDelayInMS                 int
}

// DefaultConfig returns the breaker tuning used when a component does not
// override it: open at 50% failures over 20 calls in 10s, close again after
// 3/5 successes, half-open probe delay 5s.
func DefaultConfig(name string) *Config {
	return &Config{
		CBName:                        name,
		FailureRateThreshold:          50,
		FailureExecutionThreshold:     20,
		FailureThresholdingPeriodInMS: 10000,
		SuccessRatioThreshold:         3,
		SuccessThresholdingCapacity:   5,
		WithDelayInMS:                 5000,
	}
}
