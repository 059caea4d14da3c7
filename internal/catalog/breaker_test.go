package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestBreaker(max int) (*breaker, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := newBreaker(max, 10*time.Second, time.Minute)
	b.now = clk.now
	return b, clk
}

func TestBreaker_OpensHalfOpensAndCloses(t *testing.T) {
	b, clk := newTestBreaker(2)

	for i := 0; i < 3; i++ {
		assert.True(t, b.allow())
		b.record(true)
	}
	assert.Equal(t, stateOpen, b.currentState())
	assert.False(t, b.allow())

	clk.advance(11 * time.Second)
	assert.True(t, b.allow(), "cooldown elapsed: trial call allowed")
	assert.Equal(t, stateHalfOpen, b.currentState())

	b.record(false)
	assert.Equal(t, stateClosed, b.currentState())
	assert.True(t, b.allow())
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	b, clk := newTestBreaker(1)
	b.record(true)
	b.record(true)
	assert.Equal(t, stateOpen, b.currentState())

	clk.advance(11 * time.Second)
	assert.True(t, b.allow())
	b.record(true)
	assert.Equal(t, stateOpen, b.currentState())
	assert.False(t, b.allow())
}

func TestBreaker_HalfOpenAdmitsOneTrial(t *testing.T) {
	b, clk := newTestBreaker(1)
	b.record(true)
	b.record(true)
	clk.advance(11 * time.Second)

	assert.True(t, b.allow(), "first caller after cooldown runs the trial")
	assert.False(t, b.allow(), "second caller waits for the trial")

	// An abandoned trial frees the slot without closing or reopening.
	b.release()
	assert.Equal(t, stateHalfOpen, b.currentState())
	assert.True(t, b.allow())
	assert.False(t, b.allow())

	b.record(false)
	assert.Equal(t, stateClosed, b.currentState())
	assert.True(t, b.allow())
	assert.True(t, b.allow())
}

func TestBreaker_WindowForgetsOldFailures(t *testing.T) {
	b, clk := newTestBreaker(2)
	b.record(true)
	b.record(true)
	clk.advance(2 * time.Minute)
	b.record(true)
	assert.Equal(t, stateClosed, b.currentState())
}

func TestBreaker_DisabledAndNil(t *testing.T) {
	b, _ := newTestBreaker(0)
	for i := 0; i < 10; i++ {
		b.record(true)
	}
	assert.True(t, b.allow())

	var nb *breaker
	assert.True(t, nb.allow())
	nb.record(true)
	nb.release()
}
