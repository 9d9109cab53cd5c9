// Package sequence runs the scripted start-up demo: heat the fuel, start the
// motor, warm the engine and run the test, lighting indicators as it goes.
package sequence

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/rig-panel/internal/clock"
)

type State int

const (
	Idle State = iota
	Heating
	FuelReady
	MotorStarting
	MotorRunning
	EngineWarming
	EngineReady
	TestStarting
	TestRunning
)

var stateNames = [...]string{
	"idle", "heating", "fuel_ready", "motor_starting", "motor_running",
	"engine_warming", "engine_ready", "test_starting", "test_running",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

const (
	GroupFuel     = "fuel"
	GroupHydrogen = "hydrogen"

	FuelOCB1 = "ocb1"
	FuelOCA1 = "oca1"

	HydrogenEletrolisado = "eletrolisado"
	HydrogenArmazenado   = "armazenado"

	FlagEngineTempTimer = "engine_temp_timer"
)

var options = map[string][]string{
	GroupFuel:     {FuelOCB1, FuelOCA1},
	GroupHydrogen: {HydrogenEletrolisado, HydrogenArmazenado},
}

// Options lists the choices of a radio group.
func Options(group string) []string {
	return options[group]
}

type Timings struct {
	Heating      time.Duration
	MotorRunning time.Duration
	EngineTemp   time.Duration
	EngineReady  time.Duration
	TestRunning  time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		Heating:      5 * time.Second,
		MotorRunning: time.Second,
		EngineTemp:   5 * time.Second,
		EngineReady:  5 * time.Second,
		TestRunning:  5 * time.Second,
	}
}

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNoSelection       = errors.New("no option selected")
	ErrUnknownOption     = errors.New("unknown option")
)

// Store holds what outlives a single step: radio choices and flags.
type Store interface {
	Selection(group string) (string, error)
	Select(group, option string) error
	Flag(name string) (bool, error)
	SetFlag(name string, value bool) error
	ClearFlags() error
}

type Snapshot struct {
	State      State
	Fuel       string
	Hydrogen   string
	Indicators []string
	Buttons    []string
	Elapsed    int
}

type Sequence struct {
	mu       sync.Mutex
	clock    clock.Clock
	store    Store
	timings  Timings
	state    State
	fuel     string
	hydrogen string
	gen      uint64
	timers   []clock.Timer
	elapsed  int
	ticker   clock.Timer
}

func New(clk clock.Clock, store Store, timings Timings) *Sequence {
	return &Sequence{
		clock:   clk,
		store:   store,
		timings: timings,
	}
}

// Start begins the once-a-second elapsed counter.
func (s *Sequence) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker == nil {
		s.scheduleTick()
	}
}

func (s *Sequence) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	s.cancelTimers()
}

func (s *Sequence) scheduleTick() {
	s.ticker = s.clock.AfterFunc(time.Second, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.ticker == nil {
			return
		}
		s.elapsed++
		s.scheduleTick()
	})
}

// Select records a radio choice. It does not change the running sequence:
// choices are read at the step that needs them.
func (s *Sequence) Select(group, option string) error {
	valid := false
	for _, o := range options[group] {
		if o == option {
			valid = true
		}
	}
	if !valid {
		return fmt.Errorf("%w: %s=%s", ErrUnknownOption, group, option)
	}
	return s.store.Select(group, option)
}

func (s *Sequence) Selection(group string) (string, error) {
	return s.store.Selection(group)
}

// PressGeneral lights the heating indicator for the selected fuel and
// schedules the density indicator.
func (s *Sequence) PressGeneral() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return fmt.Errorf("%w: general in %s", ErrInvalidTransition, s.state)
	}
	fuel, err := s.store.Selection(GroupFuel)
	if err != nil {
		return err
	}
	if fuel == "" {
		return fmt.Errorf("%w: %s", ErrNoSelection, GroupFuel)
	}

	s.fuel = fuel
	s.transition(Heating)
	s.after(s.timings.Heating, Heating, func() {
		s.transition(FuelReady)
	})
	return nil
}

func (s *Sequence) StartMotor() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != FuelReady {
		return fmt.Errorf("%w: start motor in %s", ErrInvalidTransition, s.state)
	}

	s.transition(MotorStarting)
	s.after(s.timings.MotorRunning, MotorStarting, func() {
		s.transition(MotorRunning)
	})
	s.after(s.timings.EngineTemp, MotorRunning, func() {
		s.transition(EngineWarming)
		s.after(s.timings.EngineReady, EngineWarming, func() {
			if err := s.store.SetFlag(FlagEngineTempTimer, true); err != nil {
				log.Error().Err(err).Msg("Failed to set engine temperature flag")
				return
			}
			s.transition(EngineReady)
		})
	})
	return nil
}

func (s *Sequence) StartTest() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != EngineReady {
		return fmt.Errorf("%w: start test in %s", ErrInvalidTransition, s.state)
	}
	ready, err := s.store.Flag(FlagEngineTempTimer)
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("%w: engine temperature timer not elapsed", ErrInvalidTransition)
	}

	s.transition(TestStarting)
	s.after(s.timings.TestRunning, TestStarting, func() {
		hydrogen, err := s.store.Selection(GroupHydrogen)
		if err != nil {
			log.Error().Err(err).Msg("Failed to read hydrogen selection")
		}
		s.hydrogen = hydrogen
		s.transition(TestRunning)
	})
	return nil
}

// Reset returns to Idle. Timers already scheduled never fire their steps.
func (s *Sequence) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimers()
	s.fuel = ""
	s.hydrogen = ""
	s.elapsed = 0
	s.transition(Idle)
	return s.store.ClearFlags()
}

// after runs step once d has passed, provided nothing reset the sequence and
// it is still in want. step runs with s.mu held.
func (s *Sequence) after(d time.Duration, want State, step func()) {
	gen := s.gen
	t := s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen || s.state != want {
			return
		}
		step()
	})
	s.timers = append(s.timers, t)
}

func (s *Sequence) cancelTimers() {
	s.gen++
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

func (s *Sequence) transition(to State) {
	log.Info().
		Str("from", s.state.String()).
		Str("to", to.String()).
		Str("fuel", s.fuel).
		Msg("Sequence transition")
	s.state = to
}

func (s *Sequence) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Sequence) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:      s.state,
		Fuel:       s.fuel,
		Hydrogen:   s.hydrogen,
		Indicators: Indicators(s.state, s.fuel, s.hydrogen),
		Buttons:    pressedButtons(s.state),
		Elapsed:    s.elapsed,
	}
}

// Indicators lists the lit indicators for a state, sorted.
func Indicators(state State, fuel, hydrogen string) []string {
	lit := map[string]bool{}
	if state >= Heating {
		lit["aquecimento_"+fuel] = true
	}
	if state >= FuelReady {
		lit["densidade_"+fuel] = true
	}
	if state >= MotorRunning {
		lit["injecao_diesel"] = true
		lit["retorno_diesel"] = true
		lit["motor_ativo"] = true
	}
	if state >= EngineWarming {
		lit["engine_temp"] = true
	}
	if state >= TestStarting {
		lit["retorno_"+fuel] = true
		lit["injecao_"+fuel] = true
	}
	if state >= TestRunning {
		delete(lit, "injecao_diesel")
		delete(lit, "retorno_diesel")
		if hydrogen != "" {
			lit["h2_"+hydrogen] = true
		}
	}

	out := make([]string, 0, len(lit))
	for name := range lit {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func pressedButtons(state State) []string {
	var out []string
	if state >= Heating {
		out = append(out, "general_button")
	}
	if state >= MotorStarting {
		out = append(out, "start_motor")
	}
	if state >= TestStarting {
		out = append(out, "start_test_button")
	}
	return out
}
