// Package channels maps each ADC channel to the way its reading is shown.
package channels

import (
	"fmt"
	"strconv"

	"github.com/thatsimonsguy/rig-panel/internal/model"
)

type RuleKind string

const (
	KindDefault    RuleKind = "default"
	KindPercentage RuleKind = "percentage"
	KindStatus     RuleKind = "status"
)

type Label struct {
	Text  string `json:"text" yaml:"text"`
	Class string `json:"class" yaml:"class"`
}

// Rule is a tagged variant. Threshold, Active and Inactive are only
// meaningful for KindStatus.
type Rule struct {
	Kind      RuleKind `json:"kind" yaml:"kind"`
	Tag       string   `json:"tag,omitempty" yaml:"tag,omitempty"`
	Threshold float64  `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Active    Label    `json:"active,omitempty" yaml:"active,omitempty"`
	Inactive  Label    `json:"inactive,omitempty" yaml:"inactive,omitempty"`
}

func Percentage(tag string) Rule {
	return Rule{Kind: KindPercentage, Tag: tag}
}

func Status(tag string, threshold float64, active, inactive Label) Rule {
	return Rule{Kind: KindStatus, Tag: tag, Threshold: threshold, Active: active, Inactive: inactive}
}

func (r Rule) Validate() error {
	switch r.Kind {
	case KindDefault, KindPercentage:
		return nil
	case KindStatus:
		if r.Threshold <= 0 || r.Threshold > model.ReferenceVoltage {
			return fmt.Errorf("status threshold %.2f outside (0, %.1f]", r.Threshold, model.ReferenceVoltage)
		}
		if r.Active.Text == "" || r.Inactive.Text == "" {
			return fmt.Errorf("status rule needs both active and inactive text")
		}
		return nil
	default:
		return fmt.Errorf("unknown rule kind %q", r.Kind)
	}
}

// Display is what ends up in the channel's render target.
type Display struct {
	Text  string
	Class string
}

func Voltage(raw int) float64 {
	return float64(clamp(raw)) / model.ADCMax * model.ReferenceVoltage
}

// Render applies the rule to a raw ADC sample.
func (r Rule) Render(raw int) Display {
	raw = clamp(raw)
	switch r.Kind {
	case KindPercentage:
		pct := float64(raw) / model.ADCMax * 100
		return Display{Text: strconv.FormatFloat(pct, 'f', 1, 64)}
	case KindStatus:
		if Voltage(raw) >= r.Threshold {
			return Display{Text: r.Active.Text, Class: r.Active.Class}
		}
		return Display{Text: r.Inactive.Text, Class: r.Inactive.Class}
	default:
		return Display{Text: strconv.FormatFloat(Voltage(raw), 'f', 2, 64)}
	}
}

func clamp(raw int) int {
	if raw < 0 {
		return 0
	}
	if raw > model.ADCMax {
		return model.ADCMax
	}
	return raw
}

// RuleSet is resolved once at startup and never mutated.
type RuleSet struct {
	rules map[model.ChannelID]Rule
}

func NewRuleSet(rules map[model.ChannelID]Rule) (*RuleSet, error) {
	copied := make(map[model.ChannelID]Rule, len(rules))
	for id, r := range rules {
		if !id.Valid() {
			return nil, fmt.Errorf("rule for invalid channel %v", id)
		}
		if r.Kind == "" {
			r.Kind = KindDefault
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("channel %s: %w", id, err)
		}
		copied[id] = r
	}
	return &RuleSet{rules: copied}, nil
}

// Lookup never fails: channels without a rule use the default voltage rule.
func (s *RuleSet) Lookup(id model.ChannelID) Rule {
	if r, ok := s.rules[id]; ok {
		return r
	}
	return Rule{Kind: KindDefault}
}

func (s *RuleSet) Render(id model.ChannelID, raw int) Display {
	return s.Lookup(id).Render(raw)
}

// Tag returns the sensor tag for display, falling back to the element id.
func (s *RuleSet) Tag(id model.ChannelID) string {
	if r, ok := s.rules[id]; ok && r.Tag != "" {
		return r.Tag
	}
	return fmt.Sprintf("MCP%d_CH%d", id.Bank, id.Index)
}

var (
	on   = Label{Text: "LIGADO", Class: "status-on"}
	off  = Label{Text: "DESLIGADO", Class: "status-off"}
	open = Label{Text: "ABERTO", Class: "status-on"}
	shut = Label{Text: "FECHADO", Class: "status-off"}
)

const defaultThreshold = 2.5

// DefaultRules is the rig's built-in table, keyed by the sensor wiring on the
// two MCP3008 chips.
func DefaultRules() map[model.ChannelID]Rule {
	return map[model.ChannelID]Rule{
		{Bank: 1, Index: 0}: Status("MOTOR_ATIVO", defaultThreshold, Label{Text: "ATIVO", Class: "status-on"}, Label{Text: "INATIVO", Class: "status-off"}),
		{Bank: 1, Index: 1}: Status("SENSOR_H2_AMBIENTES", defaultThreshold, Label{Text: "H2 DETECTADO", Class: "status-alarm"}, Label{Text: "NORMAL", Class: "status-off"}),
		{Bank: 1, Index: 2}: Status("ABERTO_FECHADO_GN", defaultThreshold, open, shut),
		{Bank: 1, Index: 3}: Status("ABERTO_FECHADO_H2", defaultThreshold, open, shut),
		{Bank: 1, Index: 4}: Percentage("PRE_INJECAO_GN"),
		{Bank: 1, Index: 5}: Percentage("PRESSAO_ELETROLISADOR"),
		{Bank: 1, Index: 6}: Status("VALVULA_ARMAZENADO", defaultThreshold, open, shut),
		{Bank: 1, Index: 7}: Status("VALVULA_ELETROLISADO", defaultThreshold, open, shut),
		{Bank: 2, Index: 0}: Status("BOMBA_ELETROLISADO", defaultThreshold, on, off),
	}
}
