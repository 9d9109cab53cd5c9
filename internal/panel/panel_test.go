package panel

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/rig-panel/internal/model"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listen(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func setupPanel(t *testing.T) (*Panel, *recorder) {
	p := New()
	p.AddText("mcp1-ch0")
	p.AddCheckbox("gpio17")
	p.AddSlider("pwm-gpio12")
	p.AddButton("gpio27")
	p.AddClickable(model.LogButtonElement)

	rec := &recorder{}
	p.Subscribe(rec.listen)
	return p, rec
}

func TestApply_IsSilent(t *testing.T) {
	p, rec := setupPanel(t)

	p.Apply(func(w Writer) {
		assert.True(t, w.SetText("mcp1-ch0", "ATIVO", "status-on"))
		assert.True(t, w.SetChecked("gpio17", true))
		assert.True(t, w.SetSlider("pwm-gpio12", 45))
	})

	assert.Empty(t, rec.all())

	text, ok := p.Text("mcp1-ch0")
	require.True(t, ok)
	assert.Equal(t, Text{Text: "ATIVO", Class: "status-on"}, text)

	checked, _ := p.Checked("gpio17")
	assert.True(t, checked)

	value, _ := p.Slider("pwm-gpio12")
	assert.Equal(t, 45, value)
	label, _ := p.Text("pwm-gpio12-value")
	assert.Equal(t, "45%", label.Text)
}

func TestApply_MissingTargetsSkipped(t *testing.T) {
	p, _ := setupPanel(t)

	p.Apply(func(w Writer) {
		assert.False(t, w.SetText("mcp2-ch7", "1.00", ""))
		assert.False(t, w.SetChecked("gpio99", true))
		assert.False(t, w.SetSlider("pwm-gpio5", 10))
		assert.True(t, w.SetText("mcp1-ch0", "1.00", ""))
	})

	_, ok := p.Text("mcp2-ch7")
	assert.False(t, ok)
}

func TestRevision_Increases(t *testing.T) {
	p, _ := setupPanel(t)
	before := p.Revision()

	p.Apply(func(w Writer) {})
	_, err := p.Toggle("gpio17")
	require.NoError(t, err)

	assert.Equal(t, before+2, p.Revision())
}

func TestToggle_EmitsChange(t *testing.T) {
	p, rec := setupPanel(t)

	checked, err := p.Toggle("gpio17")
	require.NoError(t, err)
	assert.True(t, checked)

	assert.Equal(t, []Event{{Kind: EventChange, Target: "gpio17", Checked: true}}, rec.all())

	_, err = p.Toggle("gpio99")
	assert.ErrorIs(t, err, ErrUnknownElement)
}

func TestSlider_InputThenChange(t *testing.T) {
	p, rec := setupPanel(t)

	require.NoError(t, p.Slide("pwm-gpio12", 30))
	require.NoError(t, p.Slide("pwm-gpio12", 140))
	require.NoError(t, p.ReleaseSlider("pwm-gpio12"))

	assert.Equal(t, []Event{
		{Kind: EventInput, Target: "pwm-gpio12", Value: 30},
		{Kind: EventInput, Target: "pwm-gpio12", Value: 100},
		{Kind: EventChange, Target: "pwm-gpio12", Value: 100},
	}, rec.all())

	label, _ := p.Text("pwm-gpio12-value")
	assert.Equal(t, "100%", label.Text)
}

func TestButton_OneReleasePerPress(t *testing.T) {
	tests := []struct {
		name    string
		release func(p *Panel) error
	}{
		{"release", func(p *Panel) error { return p.Release("gpio27") }},
		{"pointer leave", func(p *Panel) error { return p.PointerLeave("gpio27") }},
		{"touch end", func(p *Panel) error { return p.TouchEnd("gpio27") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, rec := setupPanel(t)

			require.NoError(t, p.Press("gpio27"))
			assert.True(t, p.Active("gpio27"))
			require.NoError(t, p.Press("gpio27"))

			require.NoError(t, tt.release(p))
			require.NoError(t, p.Release("gpio27"))
			require.NoError(t, p.PointerLeave("gpio27"))
			require.NoError(t, p.TouchEnd("gpio27"))

			assert.False(t, p.Active("gpio27"))
			assert.Equal(t, []Event{
				{Kind: EventPress, Target: "gpio27"},
				{Kind: EventRelease, Target: "gpio27"},
			}, rec.all())
		})
	}
}

func TestButton_ReleaseWithoutPress(t *testing.T) {
	p, rec := setupPanel(t)

	require.NoError(t, p.Release("gpio27"))
	assert.Empty(t, rec.all())

	assert.ErrorIs(t, p.Press("gpio17"), ErrUnknownElement)
}

func TestClick(t *testing.T) {
	p, rec := setupPanel(t)

	require.NoError(t, p.Click(model.LogButtonElement))
	assert.Equal(t, []Event{{Kind: EventClick, Target: model.LogButtonElement}}, rec.all())

	assert.ErrorIs(t, p.Click("nope"), ErrUnknownElement)
}

func TestListener_CanReenterPanel(t *testing.T) {
	p, _ := setupPanel(t)
	p.Subscribe(func(e Event) {
		if e.Kind == EventChange && e.Target == "gpio17" && e.Checked {
			p.Apply(func(w Writer) { w.SetChecked("gpio17", false) })
		}
	})

	_, err := p.Toggle("gpio17")
	require.NoError(t, err)

	checked, _ := p.Checked("gpio17")
	assert.False(t, checked)
}

func TestBuild(t *testing.T) {
	p := Build([]model.Control{
		{GPIO: "2", Kind: model.KindToggle},
		{GPIO: "27", Kind: model.KindButton},
		{GPIO: "12", Kind: model.KindPWM},
		{Kind: model.KindLog},
	})

	for _, id := range model.AllChannels() {
		_, ok := p.Text(id.ElementID())
		assert.True(t, ok, id.ElementID())
	}
	_, ok := p.Checked("gpio2")
	assert.True(t, ok)
	_, ok = p.Slider("pwm-gpio12")
	assert.True(t, ok)
	_, ok = p.Text(model.LogStatusElement)
	assert.True(t, ok)
	assert.NoError(t, p.Press("gpio27"))
	assert.NoError(t, p.Click(model.LogButtonElement))
}
