package datadog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/thatsimonsguy/rig-panel/internal/config"
)

func TestMetrics_NoopWhenDisabled(t *testing.T) {
	InitMetrics(config.Config{EnableDatadog: false})
	assert.Nil(t, dogstatsd)

	assert.NotPanics(t, func() {
		Gauge("poll.channels", 16)
		Incr("command.sent", "kind:toggle")
		Timing("poll.latency", time.Millisecond)
		Close()
	})
}

func TestMetrics_EmitOverUDP(t *testing.T) {
	defer Close()

	InitMetrics(config.Config{
		EnableDatadog: true,
		DDAgentAddr:   "127.0.0.1:8125",
		DDNamespace:   "rig_panel_test.",
		DDTags:        []string{"env:test"},
	})
	if !assert.NotNil(t, dogstatsd) {
		return
	}
	assert.Equal(t, "rig_panel_test.", dogstatsd.Namespace)

	assert.NotPanics(t, func() {
		Gauge("poll.channels", 16)
		Incr("command.failed", "kind:pwm")
		Timing("poll.latency", 3*time.Millisecond)
	})
}
