// Package dispatch turns panel interactions into write requests and applies
// the per-control failure policy when they do not go through.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/rig-panel/internal/api"
	"github.com/thatsimonsguy/rig-panel/internal/clock"
	"github.com/thatsimonsguy/rig-panel/internal/config"
	"github.com/thatsimonsguy/rig-panel/internal/datadog"
	"github.com/thatsimonsguy/rig-panel/internal/model"
	"github.com/thatsimonsguy/rig-panel/internal/panel"
)

type Commander interface {
	SetGPIO(ctx context.Context, id model.GPIOID, state bool) error
	SetPWM(ctx context.Context, id model.GPIOID, value int) error
	LogSensorData(ctx context.Context) error
}

type NotifyMode int

const (
	NotifyAlert NotifyMode = iota
	NotifyStatus
)

// Policy decides what a failed command does to the panel.
type Policy struct {
	Rollback bool
	Notify   NotifyMode
}

// Policies keeps the rig's existing behaviour: only toggles roll back.
var Policies = map[model.ControlKind]Policy{
	model.KindToggle: {Rollback: true, Notify: NotifyAlert},
	model.KindButton: {Rollback: false, Notify: NotifyAlert},
	model.KindPWM:    {Rollback: false, Notify: NotifyAlert},
	model.KindLog:    {Rollback: false, Notify: NotifyStatus},
}

const (
	ClassIdle    = "log-status"
	ClassPending = "log-status log-status-pending"
	ClassSuccess = "log-status log-status-success"
	ClassError   = "log-status log-status-error"
)

var ErrSafeMode = errors.New("safe mode: commands disabled")

type Dispatcher struct {
	ctx        context.Context
	cmd        Commander
	panel      *panel.Panel
	notifier   Notifier
	clock      clock.Clock
	clearAfter time.Duration
	safeMode   bool
	controls   map[string]model.Control
	wg         sync.WaitGroup

	mu       sync.Mutex
	logGen   uint64
	logTimer clock.Timer
}

// New binds a dispatcher to every configured control on p. Commands run
// under ctx, so cancelling it abandons in-flight requests.
func New(ctx context.Context, cmd Commander, p *panel.Panel, n Notifier, clk clock.Clock, cfg config.Config) *Dispatcher {
	d := &Dispatcher{
		ctx:        ctx,
		cmd:        cmd,
		panel:      p,
		notifier:   n,
		clock:      clk,
		clearAfter: cfg.LogStatusClearAfter(),
		safeMode:   cfg.SafeMode,
		controls:   make(map[string]model.Control, len(cfg.Controls)),
	}
	for _, c := range cfg.Controls {
		d.controls[c.ElementID()] = c
	}
	if d.safeMode {
		log.Warn().Msg("Safe mode enabled - commands will be refused")
	}

	p.Subscribe(d.handle)
	return d
}

// Wait blocks until every in-flight command has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) handle(e panel.Event) {
	c, ok := d.controls[e.Target]
	if !ok {
		return
	}

	switch c.Kind {
	case model.KindToggle:
		if e.Kind != panel.EventChange {
			return
		}
		state := e.Checked
		d.run(c, func(ctx context.Context) error {
			return d.cmd.SetGPIO(ctx, c.GPIO, state)
		}, func(w panel.Writer) {
			w.SetChecked(c.ElementID(), !state)
		}, nil)

	case model.KindButton:
		var state bool
		switch e.Kind {
		case panel.EventPress:
			state = true
		case panel.EventRelease:
			state = false
		default:
			return
		}
		d.run(c, func(ctx context.Context) error {
			return d.cmd.SetGPIO(ctx, c.GPIO, state)
		}, nil, nil)

	case model.KindPWM:
		// Input only moves the label, which the panel already did.
		if e.Kind != panel.EventChange {
			return
		}
		value := e.Value
		d.run(c, func(ctx context.Context) error {
			return d.cmd.SetPWM(ctx, c.GPIO, value)
		}, nil, nil)

	case model.KindLog:
		if e.Kind != panel.EventClick {
			return
		}
		d.logSensorData(c)
	}
}

// run sends one command on its own goroutine and applies the kind's policy
// if it fails. revert is only used when the policy rolls back. done, when
// set, sees every outcome, including a local refusal.
func (d *Dispatcher) run(c model.Control, send func(context.Context) error, revert func(panel.Writer), done func(error)) {
	id := ulid.Make().String()
	policy := Policies[c.Kind]

	log.Debug().
		Str("command_id", id).
		Str("kind", string(c.Kind)).
		Str("gpio", string(c.GPIO)).
		Msg("Dispatching command")

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		err := d.send(send)
		if done != nil {
			done(err)
		}
		if err == nil {
			datadog.Incr("command.ok", "kind:"+string(c.Kind))
			return
		}

		datadog.Incr("command.error", "kind:"+string(c.Kind))
		log.Error().
			Err(err).
			Str("command_id", id).
			Str("kind", string(c.Kind)).
			Str("gpio", string(c.GPIO)).
			Msg("Command failed")

		if policy.Rollback && revert != nil {
			d.panel.Apply(revert)
		}
		if policy.Notify == NotifyAlert && d.notifier != nil {
			if nerr := d.notifier.Send(d.ctx, alertTitle(c), alertMessage(c, err)); nerr != nil {
				log.Warn().Err(nerr).Str("command_id", id).Msg("Failed to deliver alert")
			}
		}
	}()
}

func (d *Dispatcher) send(send func(context.Context) error) error {
	if d.safeMode {
		return ErrSafeMode
	}
	return send(d.ctx)
}

// logSensorData drives the status label. Only the latest click may write
// its result or clear the label.
func (d *Dispatcher) logSensorData(c model.Control) {
	d.mu.Lock()
	d.logGen++
	gen := d.logGen
	if d.logTimer != nil {
		d.logTimer.Stop()
		d.logTimer = nil
	}
	d.mu.Unlock()

	d.setLogStatus("Registrando valores...", ClassPending)

	d.run(c, d.cmd.LogSensorData, nil, func(err error) {
		d.finishLog(gen, err)
	})
}

func (d *Dispatcher) finishLog(gen uint64, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.logGen {
		return
	}

	if err != nil {
		d.setLogStatus(logErrorText(err), ClassError)
		return
	}

	d.setLogStatus("Valores registrados com sucesso!", ClassSuccess)
	d.logTimer = d.clock.AfterFunc(d.clearAfter, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if gen != d.logGen {
			return
		}
		d.logTimer = nil
		d.setLogStatus("", ClassIdle)
	})
}

func (d *Dispatcher) setLogStatus(text, class string) {
	d.panel.Apply(func(w panel.Writer) {
		w.SetText(model.LogStatusElement, text, class)
	})
}

func alertTitle(c model.Control) string {
	if c.Label != "" {
		return c.Label
	}
	return "GPIO " + string(c.GPIO)
}

func alertMessage(c model.Control, err error) string {
	what := "GPIO"
	if c.Kind == model.KindPWM {
		what = "PWM for GPIO"
	}
	if isApplicationError(err) {
		return fmt.Sprintf("Failed to set %s %s: %s", what, c.GPIO, reason(err))
	}
	return fmt.Sprintf("Error setting %s %s: Network or server error", what, c.GPIO)
}

func logErrorText(err error) string {
	if isApplicationError(err) {
		return "Erro: " + reason(err)
	}
	return "Erro de rede ao registrar dados"
}

func isApplicationError(err error) bool {
	var cmdErr *api.CommandError
	return errors.As(err, &cmdErr) || errors.Is(err, ErrSafeMode)
}

func reason(err error) string {
	var cmdErr *api.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Message
	}
	return err.Error()
}
