package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/thatsimonsguy/rig-panel/internal/channels"
	"github.com/thatsimonsguy/rig-panel/internal/model"
)

type Tracing struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Exporter string `json:"exporter" yaml:"exporter"` // "stdout" or "noop"
	Output   string `json:"output" yaml:"output"`     // file for the stdout exporter
}

type Config struct {
	ConfigFile string        `json:"-" yaml:"-"`
	LogLevel   zerolog.Level `json:"-" yaml:"-"`
	LogFile    string        `json:"log_file" yaml:"log_file"`

	ServerURL string `json:"server_url" yaml:"server_url"`
	Cookie    string `json:"cookie" yaml:"cookie"`
	SafeMode  bool   `json:"safe_mode" yaml:"safe_mode"`

	ADCPollMillis         int `json:"adc_poll_ms" yaml:"adc_poll_ms"`
	GPIOPollMillis        int `json:"gpio_poll_ms" yaml:"gpio_poll_ms"`
	LogStatusClearMillis  int `json:"log_status_clear_ms" yaml:"log_status_clear_ms"`
	RequestTimeoutSeconds int `json:"request_timeout_seconds" yaml:"request_timeout_seconds"`

	SessionDB  string `json:"session_db" yaml:"session_db"`
	NtfyServer string `json:"ntfy_server" yaml:"ntfy_server"`
	NtfyTopic  string `json:"ntfy_topic" yaml:"ntfy_topic"`

	EnableDatadog bool     `json:"enable_datadog" yaml:"enable_datadog"`
	DDAgentAddr   string   `json:"dd_agent_addr" yaml:"dd_agent_addr"`
	DDNamespace   string   `json:"dd_namespace" yaml:"dd_namespace"`
	DDTags        []string `json:"dd_tags" yaml:"dd_tags"`

	Tracing Tracing `json:"tracing" yaml:"tracing"`

	Controls []model.Control          `json:"controls" yaml:"controls"`
	Channels map[string]channels.Rule `json:"channels" yaml:"channels"`
}

// Load parses the process flags and the config file they point at.
func Load() Config {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) Config {
	var cfg Config
	var logLevel, server string

	fs := flag.NewFlagSet("rig-panel", flag.ExitOnError)
	fs.StringVar(&cfg.ConfigFile, "config-file", "", "Path to panel config file (.json, .yaml or .yml)")
	fs.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFile, "log-file", "", "Log file path (defaults to rig-panel.log)")
	fs.StringVar(&server, "server", "", "Base URL of the rig server, overrides server_url")
	fs.Parse(args)

	cfg.LogLevel = parseLogLevel(logLevel)
	logFile := cfg.LogFile

	if cfg.ConfigFile != "" {
		if err := decodeFile(cfg.ConfigFile, &cfg); err != nil {
			panic("Failed to load config file: " + err.Error())
		}
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if server != "" {
		cfg.ServerURL = server
	}

	cfg.applyDefaults()
	cfg.validate()
	return cfg
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.NewDecoder(file).Decode(cfg)
	default:
		err = json.NewDecoder(file).Decode(cfg)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.ServerURL == "" {
		cfg.ServerURL = "http://localhost:5002"
	}
	if cfg.LogFile == "" {
		cfg.LogFile = "rig-panel.log"
	}
	if cfg.ADCPollMillis == 0 {
		cfg.ADCPollMillis = 1000
	}
	if cfg.GPIOPollMillis == 0 {
		cfg.GPIOPollMillis = 5000
	}
	if cfg.LogStatusClearMillis == 0 {
		cfg.LogStatusClearMillis = 3000
	}
	if cfg.RequestTimeoutSeconds == 0 {
		cfg.RequestTimeoutSeconds = 10
	}
	if cfg.SessionDB == "" {
		cfg.SessionDB = ":memory:"
	}
	if cfg.DDAgentAddr == "" {
		cfg.DDAgentAddr = "127.0.0.1:8125"
	}
	if cfg.DDNamespace == "" {
		cfg.DDNamespace = "rig_panel."
	}
	if cfg.Controls == nil {
		cfg.Controls = DefaultControls()
	}
	if cfg.Channels == nil {
		cfg.Channels = make(map[string]channels.Rule)
		for id, r := range channels.DefaultRules() {
			cfg.Channels[id.ElementID()] = r
		}
	}
}

func (cfg Config) ADCPollInterval() time.Duration {
	return time.Duration(cfg.ADCPollMillis) * time.Millisecond
}

func (cfg Config) GPIOPollInterval() time.Duration {
	return time.Duration(cfg.GPIOPollMillis) * time.Millisecond
}

func (cfg Config) LogStatusClearAfter() time.Duration {
	return time.Duration(cfg.LogStatusClearMillis) * time.Millisecond
}

func (cfg Config) RequestTimeout() time.Duration {
	return time.Duration(cfg.RequestTimeoutSeconds) * time.Second
}

// Rules resolves the channel table. Keys were checked by validate.
func (cfg Config) Rules() (*channels.RuleSet, error) {
	rules := make(map[model.ChannelID]channels.Rule, len(cfg.Channels))
	for key, r := range cfg.Channels {
		id, err := model.ParseChannelID(key)
		if err != nil {
			return nil, err
		}
		rules[id] = r
	}
	return channels.NewRuleSet(rules)
}

// Keys the panel keeps for itself; controls may not bind them.
const (
	KeyGeneral    = "g"
	KeyStartMotor = "s"
	KeyStartTest  = "t"
	KeyReset      = "r"
	KeyFuel       = "f"
	KeyHydrogen   = "h"
	KeyQuit       = "q"
)

var reservedKeys = map[string]bool{
	KeyGeneral: true, KeyStartMotor: true, KeyStartTest: true, KeyReset: true,
	KeyFuel: true, KeyHydrogen: true, KeyQuit: true,
	"esc": true, "enter": true, "left": true, "right": true, " ": true,
}

// DefaultControls mirrors the rig's relay and PWM wiring.
func DefaultControls() []model.Control {
	return []model.Control{
		{GPIO: "2", Kind: model.KindToggle, Label: "ABRIR/FECHAR DIESEL", Key: "1"},
		{GPIO: "3", Kind: model.KindToggle, Label: "ABRIR/FECHAR OB1", Key: "2"},
		{GPIO: "23", Kind: model.KindToggle, Label: "ABRIR/FECHAR OCA1", Key: "3"},
		{GPIO: "17", Kind: model.KindToggle, Label: "CHAVE GERAL DO MOTOGERADOR", Key: "4"},
		{GPIO: "22", Kind: model.KindToggle, Label: "LIGA/DESLIGA ELETROLISADOR", Key: "5"},
		{GPIO: "0", Kind: model.KindToggle, Label: "BOMBA H2", Key: "6"},
		{GPIO: "27", Kind: model.KindButton, Label: "LIGA/DESLIGA MOTOR", Key: "m"},
		{GPIO: "13", Kind: model.KindButton, Label: "LIGAR/DESLIGAR INJETOR", Key: "i"},
		{GPIO: "12", Kind: model.KindPWM, Label: "DESLIZANTE PRE BOMBA", Key: "p"},
		{Kind: model.KindLog, Label: "REGISTRAR DADOS", Key: "l"},
	}
}

func (cfg *Config) validate() {
	var (
		problems  []string
		usedPins  = map[model.GPIOID]string{}
		usedKeys  = map[string]string{}
		conflicts []string
		logCount  int
	)

	if u, err := url.Parse(cfg.ServerURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("server_url %q is not an absolute URL", cfg.ServerURL))
	}
	if cfg.ADCPollMillis < 0 || cfg.GPIOPollMillis < 0 || cfg.LogStatusClearMillis < 0 || cfg.RequestTimeoutSeconds < 0 {
		problems = append(problems, "intervals must be positive")
	}

	for i, c := range cfg.Controls {
		name := fmt.Sprintf("controls[%d]", i)
		if !c.Kind.Valid() {
			problems = append(problems, fmt.Sprintf("%s has unknown kind %q", name, c.Kind))
			continue
		}
		if reservedKeys[c.Key] {
			problems = append(problems, fmt.Sprintf("%s uses reserved key %q", name, c.Key))
		} else if c.Key != "" {
			if other, exists := usedKeys[c.Key]; exists {
				conflicts = append(conflicts, fmt.Sprintf("%s and %s both use key %q", name, other, c.Key))
			} else {
				usedKeys[c.Key] = name
			}
		}
		if c.Kind == model.KindLog {
			logCount++
			continue
		}
		if !c.GPIO.Valid() {
			problems = append(problems, fmt.Sprintf("%s has invalid gpio %q", name, c.GPIO))
			continue
		}
		if other, exists := usedPins[c.GPIO]; exists {
			conflicts = append(conflicts, fmt.Sprintf("%s and %s both use gpio %s", name, other, c.GPIO))
		} else {
			usedPins[c.GPIO] = name
		}
	}
	if logCount > 1 {
		problems = append(problems, "at most one log control is allowed")
	}

	for key, r := range cfg.Channels {
		if _, err := model.ParseChannelID(key); err != nil {
			problems = append(problems, err.Error())
			continue
		}
		if r.Kind == "" {
			r.Kind = channels.KindDefault
		}
		if err := r.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("channels.%s: %v", key, err))
		}
	}

	if len(problems) > 0 {
		panic("Invalid config: " + strings.Join(problems, "; "))
	}
	if len(conflicts) > 0 {
		panic("Conflicting controls: " + strings.Join(conflicts, "; "))
	}
}
