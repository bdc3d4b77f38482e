package circuitbreaker

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker(Settings{Name: "test", MaxFailures: 2, Timeout: time.Minute})

	fail := func() error { return fmt.Errorf("boom") }

	assert.Error(t, cb.Execute(fail))
	assert.Equal(t, StateClosed, cb.State())

	assert.Error(t, cb.Execute(fail))
	assert.Equal(t, StateOpen, cb.State())

	// Open breaker rejects without invoking fn.
	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestBreakerClosesAfterSuccessfulProbe(t *testing.T) {
	cb := NewCircuitBreaker(Settings{Name: "test", MaxFailures: 1, Timeout: time.Millisecond})

	assert.Error(t, cb.Execute(func() error { return fmt.Errorf("boom") }))
	assert.Equal(t, StateOpen, cb.State())

	time.Sleep(5 * time.Millisecond)

	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}
