package sequence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/rig-panel/db"
	"github.com/thatsimonsguy/rig-panel/internal/clock"
)

func setupSequence(t *testing.T) (*Sequence, *clock.Manual, *db.Session) {
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	clk := clock.NewManual(time.Unix(0, 0))
	store := db.NewSession(conn)
	return New(clk, store, DefaultTimings()), clk, store
}

func runToEngineReady(t *testing.T, s *Sequence, clk *clock.Manual) {
	require.NoError(t, s.Select(GroupFuel, FuelOCB1))
	require.NoError(t, s.PressGeneral())
	clk.Advance(5 * time.Second)
	require.NoError(t, s.StartMotor())
	clk.Advance(10 * time.Second)
	require.Equal(t, EngineReady, s.State())
}

func TestFullSequence(t *testing.T) {
	s, clk, store := setupSequence(t)
	require.NoError(t, s.Select(GroupFuel, FuelOCA1))
	require.NoError(t, s.Select(GroupHydrogen, HydrogenArmazenado))

	require.NoError(t, s.PressGeneral())
	assert.Equal(t, Heating, s.State())
	assert.Equal(t, []string{"aquecimento_oca1"}, s.Snapshot().Indicators)

	clk.Advance(4999 * time.Millisecond)
	assert.Equal(t, Heating, s.State())
	clk.Advance(time.Millisecond)
	assert.Equal(t, FuelReady, s.State())
	assert.Equal(t, []string{"aquecimento_oca1", "densidade_oca1"}, s.Snapshot().Indicators)

	require.NoError(t, s.StartMotor())
	assert.Equal(t, MotorStarting, s.State())

	clk.Advance(time.Second)
	assert.Equal(t, MotorRunning, s.State())
	assert.Contains(t, s.Snapshot().Indicators, "motor_ativo")
	assert.Contains(t, s.Snapshot().Indicators, "injecao_diesel")

	clk.Advance(4 * time.Second)
	assert.Equal(t, EngineWarming, s.State())
	assert.Contains(t, s.Snapshot().Indicators, "engine_temp")
	flag, err := store.Flag(FlagEngineTempTimer)
	require.NoError(t, err)
	assert.False(t, flag)

	clk.Advance(5 * time.Second)
	assert.Equal(t, EngineReady, s.State())
	flag, err = store.Flag(FlagEngineTempTimer)
	require.NoError(t, err)
	assert.True(t, flag)

	require.NoError(t, s.StartTest())
	snap := s.Snapshot()
	assert.Equal(t, TestStarting, snap.State)
	assert.Contains(t, snap.Indicators, "injecao_oca1")
	assert.Contains(t, snap.Indicators, "retorno_oca1")
	assert.Equal(t, []string{"general_button", "start_motor", "start_test_button"}, snap.Buttons)

	clk.Advance(5 * time.Second)
	snap = s.Snapshot()
	assert.Equal(t, TestRunning, snap.State)
	assert.Equal(t, HydrogenArmazenado, snap.Hydrogen)
	assert.Contains(t, snap.Indicators, "h2_armazenado")
	assert.NotContains(t, snap.Indicators, "injecao_diesel")
	assert.NotContains(t, snap.Indicators, "retorno_diesel")
	assert.Contains(t, snap.Indicators, "motor_ativo")
}

func TestGuards(t *testing.T) {
	s, clk, _ := setupSequence(t)

	assert.ErrorIs(t, s.PressGeneral(), ErrNoSelection)
	assert.ErrorIs(t, s.StartMotor(), ErrInvalidTransition)
	assert.ErrorIs(t, s.StartTest(), ErrInvalidTransition)

	require.NoError(t, s.Select(GroupFuel, FuelOCB1))
	require.NoError(t, s.PressGeneral())
	assert.ErrorIs(t, s.PressGeneral(), ErrInvalidTransition)
	assert.ErrorIs(t, s.StartMotor(), ErrInvalidTransition, "density not reached yet")

	clk.Advance(5 * time.Second)
	require.NoError(t, s.StartMotor())
	clk.Advance(5 * time.Second)
	assert.Equal(t, EngineWarming, s.State())
	assert.ErrorIs(t, s.StartTest(), ErrInvalidTransition, "engine timer not elapsed")
}

func TestStartTest_RequiresFlag(t *testing.T) {
	s, clk, store := setupSequence(t)
	runToEngineReady(t, s, clk)

	require.NoError(t, store.SetFlag(FlagEngineTempTimer, false))
	assert.ErrorIs(t, s.StartTest(), ErrInvalidTransition)
	assert.Equal(t, EngineReady, s.State())
}

func TestSelectionCapturedAtPress(t *testing.T) {
	s, clk, _ := setupSequence(t)
	require.NoError(t, s.Select(GroupFuel, FuelOCB1))
	require.NoError(t, s.PressGeneral())

	require.NoError(t, s.Select(GroupFuel, FuelOCA1))
	clk.Advance(5 * time.Second)

	assert.Equal(t, []string{"aquecimento_ocb1", "densidade_ocb1"}, s.Snapshot().Indicators)
}

func TestTestRunning_NoHydrogenSelection(t *testing.T) {
	s, clk, _ := setupSequence(t)
	runToEngineReady(t, s, clk)

	require.NoError(t, s.StartTest())
	clk.Advance(5 * time.Second)

	snap := s.Snapshot()
	assert.Equal(t, TestRunning, snap.State)
	for _, name := range snap.Indicators {
		assert.NotContains(t, name, "h2_")
	}
}

func TestReset_InvalidatesTimers(t *testing.T) {
	s, clk, store := setupSequence(t)
	require.NoError(t, s.Select(GroupFuel, FuelOCB1))
	require.NoError(t, s.PressGeneral())
	clk.Advance(5 * time.Second)
	require.NoError(t, s.StartMotor())
	clk.Advance(2 * time.Second)

	require.NoError(t, s.Reset())
	assert.Equal(t, Idle, s.State())
	assert.Zero(t, clk.Pending())

	// a fresh run must not be disturbed by the old motor timers
	require.NoError(t, s.PressGeneral())
	clk.Advance(20 * time.Second)
	assert.Equal(t, FuelReady, s.State())

	flag, err := store.Flag(FlagEngineTempTimer)
	require.NoError(t, err)
	assert.False(t, flag)

	fuel, err := store.Selection(GroupFuel)
	require.NoError(t, err)
	assert.Equal(t, FuelOCB1, fuel, "selections survive a reset")
}

func TestReset_ClearsFlag(t *testing.T) {
	s, clk, store := setupSequence(t)
	runToEngineReady(t, s, clk)

	require.NoError(t, s.Reset())

	flag, err := store.Flag(FlagEngineTempTimer)
	require.NoError(t, err)
	assert.False(t, flag)
	assert.Empty(t, s.Snapshot().Indicators)
}

func TestElapsedCounter(t *testing.T) {
	s, clk, _ := setupSequence(t)
	s.Start()

	clk.Advance(3500 * time.Millisecond)
	assert.Equal(t, 3, s.Snapshot().Elapsed)

	require.NoError(t, s.Reset())
	assert.Equal(t, 0, s.Snapshot().Elapsed)
	clk.Advance(time.Second)
	assert.Equal(t, 1, s.Snapshot().Elapsed)

	s.Stop()
	clk.Advance(5 * time.Second)
	assert.Equal(t, 1, s.Snapshot().Elapsed)
}

func TestSelect_RejectsUnknownOption(t *testing.T) {
	s, _, _ := setupSequence(t)

	assert.ErrorIs(t, s.Select(GroupFuel, "gasolina"), ErrUnknownOption)
	assert.ErrorIs(t, s.Select("oxygen", FuelOCB1), ErrUnknownOption)
}

func TestIndicators_Idle(t *testing.T) {
	assert.Empty(t, Indicators(Idle, FuelOCB1, HydrogenArmazenado))
	assert.Empty(t, pressedButtons(Idle))
}
