package api

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/thatsimonsguy/rig-panel/internal/model"
)

const (
	PathADCValues     = "/api/adc-values"
	PathGPIOStates    = "/api/gpio-states"
	PathSetGPIO       = "/api/set-gpio"
	PathSetPWM        = "/api/set-pwm"
	PathLogSensorData = "/api/log-sensor-data"
)

// ADCValues holds one snapshot of both MCP3008 chips. The server may send
// whole numbers with a fractional part (930.0), so samples decode as floats.
type ADCValues struct {
	MCP1 []float64 `json:"mcp1"`
	MCP2 []float64 `json:"mcp2"`
}

// Raw returns the sample for a channel, rounded to the nearest count.
func (a ADCValues) Raw(id model.ChannelID) (int, bool) {
	bank := a.MCP1
	if id.Bank == 2 {
		bank = a.MCP2
	}
	if id.Index < 0 || id.Index >= len(bank) {
		return 0, false
	}
	return int(math.Round(bank[id.Index])), true
}

type GPIOStates struct {
	Digital map[model.GPIOID]bool
	PWM     map[model.GPIOID]int
}

// UnmarshalJSON handles the flat response shape where digital pins sit next
// to a nested "pwm" object. Keys that are not booleans are skipped.
func (g *GPIOStates) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	g.Digital = make(map[model.GPIOID]bool, len(raw))
	g.PWM = make(map[model.GPIOID]int)

	for key, value := range raw {
		if key == "pwm" {
			var pwm map[string]float64
			if err := json.Unmarshal(value, &pwm); err != nil {
				return fmt.Errorf("decode pwm states: %w", err)
			}
			for id, duty := range pwm {
				g.PWM[model.GPIOID(id)] = int(math.Round(duty))
			}
			continue
		}

		var state bool
		if err := json.Unmarshal(value, &state); err != nil {
			continue
		}
		g.Digital[model.GPIOID(key)] = state
	}
	return nil
}

func (g GPIOStates) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(g.Digital)+1)
	for id, state := range g.Digital {
		out[string(id)] = state
	}
	if len(g.PWM) > 0 {
		pwm := make(map[string]int, len(g.PWM))
		for id, duty := range g.PWM {
			pwm[string(id)] = duty
		}
		out["pwm"] = pwm
	}
	return json.Marshal(out)
}

type SetGPIORequest struct {
	GPIO  model.GPIOID `json:"gpio"`
	State bool         `json:"state"`
}

type SetPWMRequest struct {
	GPIO  model.GPIOID `json:"gpio"`
	Value int          `json:"value"`
}

type CommandResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
