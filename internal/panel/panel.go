// Package panel is the widget model the poller writes into, the dispatcher
// listens to and the terminal UI draws. It plays the part of the page DOM.
//
// Writes made through Apply are silent: they never produce user-interaction
// events, so a reconciled value can not be mistaken for a command.
package panel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/thatsimonsguy/rig-panel/internal/model"
)

var ErrUnknownElement = errors.New("unknown element")

type EventKind int

const (
	EventChange EventKind = iota
	EventInput
	EventPress
	EventRelease
	EventClick
)

func (k EventKind) String() string {
	switch k {
	case EventChange:
		return "change"
	case EventInput:
		return "input"
	case EventPress:
		return "press"
	case EventRelease:
		return "release"
	case EventClick:
		return "click"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

type Event struct {
	Kind    EventKind
	Target  string
	Checked bool
	Value   int
}

type Listener func(Event)

type Text struct {
	Text  string
	Class string
}

// Writer is handed to Apply callbacks. Each setter reports whether the
// target exists; missing targets are skipped.
type Writer interface {
	SetText(id, text, class string) bool
	SetChecked(id string, checked bool) bool
	SetSlider(id string, value int) bool
}

type Panel struct {
	mu         sync.Mutex
	texts      map[string]*Text
	checkboxes map[string]bool
	sliders    map[string]int
	buttons    map[string]*button
	clickables map[string]struct{}
	listeners  []Listener
	revision   uint64
}

func New() *Panel {
	return &Panel{
		texts:      make(map[string]*Text),
		checkboxes: make(map[string]bool),
		sliders:    make(map[string]int),
		buttons:    make(map[string]*button),
		clickables: make(map[string]struct{}),
	}
}

func (p *Panel) AddText(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.texts[id] = &Text{}
}

func (p *Panel) AddCheckbox(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkboxes[id] = false
}

// AddSlider registers a 0–100 slider and its "<id>-value" label.
func (p *Panel) AddSlider(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sliders[id] = 0
	p.texts[id+"-value"] = &Text{Text: "0%"}
}

func (p *Panel) AddButton(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buttons[id] = &button{}
}

func (p *Panel) AddClickable(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clickables[id] = struct{}{}
}

// Subscribe registers a listener for user-interaction events. Listeners run
// on the caller's goroutine after the panel lock is released.
func (p *Panel) Subscribe(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, l)
}

// Apply runs fn with exclusive access to the panel. Everything written in
// one call lands together.
func (p *Panel) Apply(fn func(w Writer)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(silentWriter{p})
	p.revision++
}

type button struct {
	active bool
}

type silentWriter struct{ p *Panel }

func (w silentWriter) SetText(id, text, class string) bool {
	t, ok := w.p.texts[id]
	if !ok {
		return false
	}
	t.Text = text
	t.Class = class
	return true
}

func (w silentWriter) SetChecked(id string, checked bool) bool {
	if _, ok := w.p.checkboxes[id]; !ok {
		return false
	}
	w.p.checkboxes[id] = checked
	return true
}

func (w silentWriter) SetSlider(id string, value int) bool {
	if _, ok := w.p.sliders[id]; !ok {
		return false
	}
	label, ok := w.p.texts[id+"-value"]
	if !ok {
		return false
	}
	value = clampPercent(value)
	w.p.sliders[id] = value
	label.Text = fmt.Sprintf("%d%%", value)
	return true
}

// Toggle flips a checkbox the way a user click does and emits a change.
func (p *Panel) Toggle(id string) (bool, error) {
	p.mu.Lock()
	checked, ok := p.checkboxes[id]
	if !ok {
		p.mu.Unlock()
		return false, fmt.Errorf("toggle %s: %w", id, ErrUnknownElement)
	}
	checked = !checked
	p.checkboxes[id] = checked
	p.revision++
	p.mu.Unlock()

	p.emit(Event{Kind: EventChange, Target: id, Checked: checked})
	return checked, nil
}

// Slide moves a slider while it is held. Only the label follows; no command
// is implied until ReleaseSlider.
func (p *Panel) Slide(id string, value int) error {
	p.mu.Lock()
	if _, ok := p.sliders[id]; !ok {
		p.mu.Unlock()
		return fmt.Errorf("slide %s: %w", id, ErrUnknownElement)
	}
	value = clampPercent(value)
	silentWriter{p}.SetSlider(id, value)
	p.revision++
	p.mu.Unlock()

	p.emit(Event{Kind: EventInput, Target: id, Value: value})
	return nil
}

func (p *Panel) ReleaseSlider(id string) error {
	p.mu.Lock()
	value, ok := p.sliders[id]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("release slider %s: %w", id, ErrUnknownElement)
	}

	p.emit(Event{Kind: EventChange, Target: id, Value: value})
	return nil
}

// Press starts a push-button hold. A second press while held is ignored.
func (p *Panel) Press(id string) error {
	p.mu.Lock()
	b, ok := p.buttons[id]
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("press %s: %w", id, ErrUnknownElement)
	}
	if b.active {
		p.mu.Unlock()
		return nil
	}
	b.active = true
	p.revision++
	p.mu.Unlock()

	p.emit(Event{Kind: EventPress, Target: id})
	return nil
}

// Release ends a hold. Only the first release after a press emits.
func (p *Panel) Release(id string) error {
	p.mu.Lock()
	b, ok := p.buttons[id]
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("release %s: %w", id, ErrUnknownElement)
	}
	if !b.active {
		p.mu.Unlock()
		return nil
	}
	b.active = false
	p.revision++
	p.mu.Unlock()

	p.emit(Event{Kind: EventRelease, Target: id})
	return nil
}

// PointerLeave is a release when the pointer drags off a held button.
func (p *Panel) PointerLeave(id string) error {
	return p.Release(id)
}

func (p *Panel) TouchStart(id string) error {
	return p.Press(id)
}

func (p *Panel) TouchEnd(id string) error {
	return p.Release(id)
}

func (p *Panel) Click(id string) error {
	p.mu.Lock()
	_, ok := p.clickables[id]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("click %s: %w", id, ErrUnknownElement)
	}

	p.emit(Event{Kind: EventClick, Target: id})
	return nil
}

func (p *Panel) Text(id string) (Text, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.texts[id]
	if !ok {
		return Text{}, false
	}
	return *t, true
}

func (p *Panel) Checked(id string) (bool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.checkboxes[id]
	return v, ok
}

func (p *Panel) Slider(id string) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.sliders[id]
	return v, ok
}

func (p *Panel) Active(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.buttons[id]
	return ok && b.active
}

// Revision increases on every change and lets renderers skip idle frames.
func (p *Panel) Revision() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.revision
}

func (p *Panel) emit(e Event) {
	p.mu.Lock()
	listeners := make([]Listener, len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	for _, l := range listeners {
		l(e)
	}
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Build lays out a panel with a reading per ADC slot and one element per
// configured control.
func Build(controls []model.Control) *Panel {
	p := New()
	for _, id := range model.AllChannels() {
		p.AddText(id.ElementID())
	}
	for _, c := range controls {
		switch c.Kind {
		case model.KindToggle:
			p.AddCheckbox(c.ElementID())
		case model.KindButton:
			p.AddButton(c.ElementID())
		case model.KindPWM:
			p.AddSlider(c.ElementID())
		case model.KindLog:
			p.AddClickable(model.LogButtonElement)
			p.AddText(model.LogStatusElement)
		}
	}
	return p
}
