package trunk

import (
	"testing"
	"time"

	"github.com/arancormonk/dsd-neo-go/internal/hooks"
	"github.com/stretchr/testify/assert"
)

func TestClampWatchdogCadence(t *testing.T) {
	assert.Equal(t, 20*time.Millisecond, ClampWatchdogCadence(5*time.Millisecond))
	assert.Equal(t, 2000*time.Millisecond, ClampWatchdogCadence(10*time.Second))
	assert.Equal(t, 200*time.Millisecond, ClampWatchdogCadence(200*time.Millisecond))
}

func TestDefaultCadence(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, DefaultCadence(true))
	assert.Equal(t, 400*time.Millisecond, DefaultCadence(false))
}

func TestTickForcesReleaseAfterTuningTimeout(t *testing.T) {
	returnCalls := 0
	h := &hooks.Tables{TrunkTune: hooks.TrunkTune{ReturnToCC: func() error { returnCalls++; return nil }}}
	s := newTestState(t, h, Policy{Hangtime: time.Second})

	now := time.Now()
	s.mu.Lock()
	s.SMState = Tuning
	s.LastVCSync = now.Add(-5 * time.Second)
	s.mu.Unlock()

	ran := s.Tick(now, 2*time.Second, time.Hour)
	assert.True(t, ran)
	assert.Equal(t, 1, returnCalls)
}

func TestTickSingleFlight(t *testing.T) {
	s := newTestState(t, &hooks.Tables{}, Policy{Hangtime: time.Second})
	s.tickLock = tickLockHeld
	ran := s.Tick(time.Now(), time.Second, time.Hour)
	assert.False(t, ran)
}
