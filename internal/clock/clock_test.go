package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManual_FiresInOrder(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewManual(start)

	var fired []string
	c.AfterFunc(5*time.Second, func() { fired = append(fired, "five") })
	c.AfterFunc(time.Second, func() {
		fired = append(fired, "one")
		c.AfterFunc(time.Second, func() { fired = append(fired, "two") })
	})

	c.Advance(1500 * time.Millisecond)
	assert.Equal(t, []string{"one"}, fired)

	c.Advance(4 * time.Second)
	assert.Equal(t, []string{"one", "two", "five"}, fired)
	assert.Equal(t, start.Add(5500*time.Millisecond), c.Now())
	assert.Equal(t, 0, c.Pending())
}

func TestManual_Stop(t *testing.T) {
	c := NewManual(time.Now())
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	c.Advance(2 * time.Second)
	assert.False(t, fired)
}

func TestReal_AfterFunc(t *testing.T) {
	done := make(chan struct{})
	Real{}.AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}
