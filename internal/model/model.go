package model

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	ADCMax           = 1023
	ReferenceVoltage = 3.3
	ChannelsPerBank  = 8
)

// Banks are numbered the way the server names its ADC chips (mcp1, mcp2).
var Banks = []int{1, 2}

type ChannelID struct {
	Bank  int `json:"bank" yaml:"bank"`
	Index int `json:"index" yaml:"index"`
}

func (c ChannelID) Valid() bool {
	return (c.Bank == 1 || c.Bank == 2) && c.Index >= 0 && c.Index < ChannelsPerBank
}

// ElementID is the render target bound to the channel, e.g. mcp1-ch0.
func (c ChannelID) ElementID() string {
	return fmt.Sprintf("mcp%d-ch%d", c.Bank, c.Index)
}

func (c ChannelID) String() string {
	return c.ElementID()
}

// ParseChannelID accepts the element form ("mcp2-ch5").
func ParseChannelID(s string) (ChannelID, error) {
	var c ChannelID
	if _, err := fmt.Sscanf(s, "mcp%d-ch%d", &c.Bank, &c.Index); err != nil {
		return c, fmt.Errorf("invalid channel id %q: %w", s, err)
	}
	if !c.Valid() {
		return c, fmt.Errorf("channel id %q out of range", s)
	}
	if c.ElementID() != s {
		return c, fmt.Errorf("invalid channel id %q: want %q", s, c.ElementID())
	}
	return c, nil
}

// AllChannels returns the 16 channel slots in bank/index order.
func AllChannels() []ChannelID {
	out := make([]ChannelID, 0, len(Banks)*ChannelsPerBank)
	for _, bank := range Banks {
		for i := 0; i < ChannelsPerBank; i++ {
			out = append(out, ChannelID{Bank: bank, Index: i})
		}
	}
	return out
}

// GPIOID is kept as a string since the server keys its state maps by the
// decimal pin number.
type GPIOID string

func (g GPIOID) Valid() bool {
	n, err := strconv.Atoi(string(g))
	return err == nil && n >= 0 && n <= 27
}

func (g GPIOID) ToggleElement() string { return "gpio" + string(g) }
func (g GPIOID) SliderElement() string { return "pwm-gpio" + string(g) }
func (g GPIOID) SliderLabel() string   { return "pwm-gpio" + string(g) + "-value" }

// GPIOFromElement reverses ToggleElement / SliderElement.
func GPIOFromElement(id string) (GPIOID, bool) {
	switch {
	case strings.HasPrefix(id, "pwm-gpio"):
		return GPIOID(strings.TrimPrefix(id, "pwm-gpio")), true
	case strings.HasPrefix(id, "gpio"):
		return GPIOID(strings.TrimPrefix(id, "gpio")), true
	}
	return "", false
}

type ControlKind string

const (
	KindToggle ControlKind = "toggle"
	KindButton ControlKind = "button"
	KindPWM    ControlKind = "pwm"
	KindLog    ControlKind = "log"
)

func (k ControlKind) Valid() bool {
	switch k {
	case KindToggle, KindButton, KindPWM, KindLog:
		return true
	default:
		return false
	}
}

// Control is one user-operable output on the rig.
type Control struct {
	GPIO  GPIOID      `json:"gpio" yaml:"gpio"`
	Kind  ControlKind `json:"kind" yaml:"kind"`
	Label string      `json:"label" yaml:"label"`
	Key   string      `json:"key,omitempty" yaml:"key,omitempty"`
}

// ElementID is the panel element the control is bound to.
func (c Control) ElementID() string {
	switch c.Kind {
	case KindPWM:
		return c.GPIO.SliderElement()
	case KindLog:
		return LogButtonElement
	default:
		return c.GPIO.ToggleElement()
	}
}

const (
	LogButtonElement = "log-data-button"
	LogStatusElement = "log-status"
)
