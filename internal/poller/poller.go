// Package poller keeps the panel in step with the server by reading ADC
// samples on a fast cadence and GPIO/PWM state on a slow one.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/rig-panel/internal/api"
	"github.com/thatsimonsguy/rig-panel/internal/channels"
	"github.com/thatsimonsguy/rig-panel/internal/datadog"
	"github.com/thatsimonsguy/rig-panel/internal/model"
	"github.com/thatsimonsguy/rig-panel/internal/panel"
)

type Source interface {
	ADCValues(ctx context.Context) (api.ADCValues, error)
	GPIOStates(ctx context.Context) (api.GPIOStates, error)
}

type Poller struct {
	src       Source
	panel     *panel.Panel
	rules     *channels.RuleSet
	adcEvery  time.Duration
	gpioEvery time.Duration
	wg        sync.WaitGroup
}

func New(src Source, p *panel.Panel, rules *channels.RuleSet, adcEvery, gpioEvery time.Duration) *Poller {
	return &Poller{
		src:       src,
		panel:     p,
		rules:     rules,
		adcEvery:  adcEvery,
		gpioEvery: gpioEvery,
	}
}

// Run starts both cycles. Each does one read straight away and then one per
// tick until ctx is done. A slow response never holds back the next tick.
func (p *Poller) Run(ctx context.Context) {
	log.Info().
		Dur("adc_interval", p.adcEvery).
		Dur("gpio_interval", p.gpioEvery).
		Msg("Starting state poller")

	p.loop(ctx, "adc", p.adcEvery, p.PollADC)
	p.loop(ctx, "gpio", p.gpioEvery, p.PollGPIO)
}

// Wait blocks until every loop and in-flight read has returned.
func (p *Poller) Wait() {
	p.wg.Wait()
}

func (p *Poller) loop(ctx context.Context, name string, every time.Duration, poll func(context.Context) error) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		p.launch(ctx, poll)

		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Debug().Str("cycle", name).Msg("Poll loop stopped")
				return
			case <-ticker.C:
				p.launch(ctx, poll)
			}
		}
	}()
}

func (p *Poller) launch(ctx context.Context, poll func(context.Context) error) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		poll(ctx)
	}()
}

// PollADC reads every channel and renders all sixteen slots in one batch.
// On failure the panel keeps whatever it showed before.
func (p *Poller) PollADC(ctx context.Context) error {
	start := time.Now()
	values, err := p.src.ADCValues(ctx)
	datadog.Timing("poll.adc.duration", time.Since(start))
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch ADC values")
		datadog.Incr("poll.adc.error")
		return err
	}

	p.panel.Apply(func(w panel.Writer) {
		for _, id := range model.AllChannels() {
			raw, ok := values.Raw(id)
			if !ok {
				continue
			}
			d := p.rules.Render(id, raw)
			w.SetText(id.ElementID(), d.Text, d.Class)
		}
	})

	datadog.Incr("poll.adc.ok")
	return nil
}

// PollGPIO mirrors checkbox and slider state. Ids the panel does not show
// are ignored.
func (p *Poller) PollGPIO(ctx context.Context) error {
	start := time.Now()
	states, err := p.src.GPIOStates(ctx)
	datadog.Timing("poll.gpio.duration", time.Since(start))
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch GPIO states")
		datadog.Incr("poll.gpio.error")
		return err
	}

	p.panel.Apply(func(w panel.Writer) {
		for id, state := range states.Digital {
			w.SetChecked(id.ToggleElement(), state)
		}
		for id, duty := range states.PWM {
			w.SetSlider(id.SliderElement(), duty)
		}
	})

	log.Debug().
		Int("digital", len(states.Digital)).
		Int("pwm", len(states.PWM)).
		Msg("GPIO states synced")
	datadog.Incr("poll.gpio.ok")
	return nil
}
