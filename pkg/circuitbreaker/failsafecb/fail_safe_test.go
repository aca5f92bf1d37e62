package failsafecb

import (
	"errors"
	"testing"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	cbconf "github.com/microscopium/microscopium/pkg/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutePassesThrough(t *testing.T) {
	cb := NewFailSafe[int](cbconf.DefaultConfig("test"))
	v, err := cb.Execute(func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestExecutePropagatesError(t *testing.T) {
	cb := NewFailSafe[int](cbconf.DefaultConfig("test"))
	wantErr := errors.New("backend down")
	_, err := cb.Execute(func() (int, error) { return 0, wantErr })
	assert.ErrorIs(t, err, wantErr)
}

func TestOpensAfterFailures(t *testing.T) {
	conf := cbconf.DefaultConfig("test")
	conf.FailureRateThreshold = 100
	conf.FailureExecutionThreshold = 2
	cb := NewFailSafe[int](conf)

	boom := errors.New("boom")
	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (int, error) { return 0, boom })
	}
	_, err := cb.Execute(func() (int, error) { return 1, nil })
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
}
