package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/rig-panel/internal/channels"
	"github.com/thatsimonsguy/rig-panel/internal/model"
)

func writeFile(t *testing.T, name, contents string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadArgs_Defaults(t *testing.T) {
	cfg := LoadArgs(nil)

	assert.Equal(t, "http://localhost:5002", cfg.ServerURL)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, time.Second, cfg.ADCPollInterval())
	assert.Equal(t, 5*time.Second, cfg.GPIOPollInterval())
	assert.Equal(t, 3*time.Second, cfg.LogStatusClearAfter())
	assert.Equal(t, ":memory:", cfg.SessionDB)
	assert.Len(t, cfg.Controls, len(DefaultControls()))

	rules, err := cfg.Rules()
	require.NoError(t, err)
	assert.Equal(t, channels.KindPercentage, rules.Lookup(model.ChannelID{Bank: 1, Index: 5}).Kind)
	assert.Equal(t, channels.KindDefault, rules.Lookup(model.ChannelID{Bank: 2, Index: 3}).Kind)
}

func TestLoadArgs_JSONFile(t *testing.T) {
	path := writeFile(t, "panel.json", `{
		"server_url": "http://rig.local:5002",
		"adc_poll_ms": 250,
		"controls": [
			{"gpio": "5", "kind": "toggle", "label": "VALVE"},
			{"gpio": "6", "kind": "pwm", "label": "FAN"}
		],
		"channels": {
			"mcp2-ch1": {"kind": "percentage", "tag": "LEVEL"}
		}
	}`)

	cfg := LoadArgs([]string{"-config-file", path, "-log-level", "debug"})

	assert.Equal(t, "http://rig.local:5002", cfg.ServerURL)
	assert.Equal(t, 250*time.Millisecond, cfg.ADCPollInterval())
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	require.Len(t, cfg.Controls, 2)
	assert.Equal(t, model.KindPWM, cfg.Controls[1].Kind)

	rules, err := cfg.Rules()
	require.NoError(t, err)
	assert.Equal(t, "LEVEL", rules.Tag(model.ChannelID{Bank: 2, Index: 1}))
	// an explicit channel table replaces the built-in one
	assert.Equal(t, channels.KindDefault, rules.Lookup(model.ChannelID{Bank: 1, Index: 0}).Kind)
}

func TestLoadArgs_YAMLFile(t *testing.T) {
	path := writeFile(t, "panel.yaml", `
server_url: http://10.0.0.9:5002
safe_mode: true
channels:
  mcp1-ch0:
    kind: status
    tag: MOTOR
    threshold: 2.5
    active: {text: ATIVO, class: status-on}
    inactive: {text: INATIVO, class: status-off}
`)

	cfg := LoadArgs([]string{"-config-file", path, "-server", "http://override:1"})

	assert.Equal(t, "http://override:1", cfg.ServerURL)
	assert.True(t, cfg.SafeMode)
	rules, err := cfg.Rules()
	require.NoError(t, err)
	rule := rules.Lookup(model.ChannelID{Bank: 1, Index: 0})
	assert.Equal(t, channels.KindStatus, rule.Kind)
	assert.Equal(t, "INATIVO", rule.Render(700).Text)
}

func TestLoadArgs_MissingFilePanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for missing config file, but got none")
		}
	}()

	LoadArgs([]string{"-config-file", filepath.Join(t.TempDir(), "nope.json")})
}

func TestValidate_DuplicateGPIO(t *testing.T) {
	cfg := Config{
		ServerURL: "http://localhost:5002",
		Controls: []model.Control{
			{GPIO: "17", Kind: model.KindToggle},
			{GPIO: "17", Kind: model.KindButton},
		},
	}

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic due to conflicting gpio bindings, but got none")
		}
	}()

	cfg.validate()
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"relative server url", Config{ServerURL: "localhost"}},
		{"unknown kind", Config{ServerURL: "http://x", Controls: []model.Control{{GPIO: "1", Kind: "dial"}}}},
		{"bad gpio", Config{ServerURL: "http://x", Controls: []model.Control{{GPIO: "x1", Kind: model.KindToggle}}}},
		{"two log controls", Config{ServerURL: "http://x", Controls: []model.Control{{Kind: model.KindLog}, {Kind: model.KindLog}}}},
		{"bad channel key", Config{ServerURL: "http://x", Channels: map[string]channels.Rule{"mcp3-ch0": channels.Percentage("P")}}},
		{"padded channel key", Config{ServerURL: "http://x", Channels: map[string]channels.Rule{"mcp1-ch00": channels.Percentage("P")}}},
		{"bad status rule", Config{ServerURL: "http://x", Channels: map[string]channels.Rule{"mcp1-ch0": {Kind: channels.KindStatus}}}},
		{"reserved key", Config{ServerURL: "http://x", Controls: []model.Control{{GPIO: "5", Kind: model.KindToggle, Key: KeyReset}}}},
		{"negative interval", Config{ServerURL: "http://x", ADCPollMillis: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, func() { tt.cfg.validate() })
		})
	}
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()
	assert.NotPanics(t, func() { cfg.validate() })
}
