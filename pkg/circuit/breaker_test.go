package circuit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"credchain/pkg/circuit"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := circuit.New("test", circuit.WithFailureThreshold(3))

	assert.False(t, b.RecordFailure())
	assert.False(t, b.RecordFailure())
	assert.True(t, b.RecordFailure(), "third failure should trip the circuit")
	assert.True(t, b.IsOpen())
	assert.False(t, b.Allow())
}

func TestBreakerSuccessResetsFailureRun(t *testing.T) {
	b := circuit.New("test", circuit.WithFailureThreshold(2))

	b.RecordFailure()
	b.RecordSuccess()
	assert.False(t, b.RecordFailure(), "run was reset, one failure should not trip")
	assert.False(t, b.IsOpen())
}

func TestBreakerAllowsProbeAfterCooldown(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	b := circuit.New("test",
		circuit.WithFailureThreshold(1),
		circuit.WithCooldown(10*time.Second),
		circuit.WithClock(clock),
	)

	b.RecordFailure()
	assert.False(t, b.Allow())

	now = now.Add(11 * time.Second)
	assert.True(t, b.Allow(), "first caller after cooldown gets the probe")
	assert.False(t, b.Allow(), "probe window admits a single caller")

	b.RecordSuccess()
	assert.True(t, b.Allow())
	assert.False(t, b.IsOpen())
}
