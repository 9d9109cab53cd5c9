package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/rig-panel/db"
	"github.com/thatsimonsguy/rig-panel/internal/api"
	"github.com/thatsimonsguy/rig-panel/internal/clock"
	"github.com/thatsimonsguy/rig-panel/internal/config"
	"github.com/thatsimonsguy/rig-panel/internal/datadog"
	"github.com/thatsimonsguy/rig-panel/internal/dispatch"
	"github.com/thatsimonsguy/rig-panel/internal/logging"
	"github.com/thatsimonsguy/rig-panel/internal/notifications"
	"github.com/thatsimonsguy/rig-panel/internal/panel"
	"github.com/thatsimonsguy/rig-panel/internal/poller"
	"github.com/thatsimonsguy/rig-panel/internal/sequence"
	"github.com/thatsimonsguy/rig-panel/internal/tracer"
	"github.com/thatsimonsguy/rig-panel/internal/tui"
	"github.com/thatsimonsguy/rig-panel/system/shutdown"
)

func main() {
	cfg := config.Load()
	logFile := logging.Init(cfg.LogLevel, cfg.LogFile)
	shutdown.Register("log file", func(context.Context) error { return logFile.Close() })

	log.Info().
		Str("server", cfg.ServerURL).
		Int("controls", len(cfg.Controls)).
		Bool("safe_mode", cfg.SafeMode).
		Msg("Starting rig panel")

	datadog.InitMetrics(cfg)
	shutdown.Register("metrics", func(context.Context) error { datadog.Close(); return nil })

	ctx, cancel := context.WithCancel(context.Background())

	stopTracing, err := tracer.Setup(ctx, cfg.Tracing)
	if err != nil {
		shutdown.ShutdownWithError(err, "Failed to set up tracing")
	}
	shutdown.Register("tracing", stopTracing)

	rules, err := cfg.Rules()
	if err != nil {
		shutdown.ShutdownWithError(err, "Invalid channel rules")
	}

	dbConn, err := db.Open(cfg.SessionDB)
	if err != nil {
		shutdown.ShutdownWithError(err, "Failed to open session database")
	}
	shutdown.Register("session db", func(context.Context) error { return dbConn.Close() })

	client := api.NewClient(&cfg)
	p := panel.Build(cfg.Controls)

	alerter := tui.NewAlerter()
	notifier := dispatch.Fanout{alerter, notifications.New(cfg.NtfyServer, cfg.NtfyTopic)}
	d := dispatch.New(ctx, client, p, notifier, clock.Real{}, cfg)

	seq := sequence.New(clock.Real{}, db.NewSession(dbConn), sequence.DefaultTimings())
	seq.Start()

	pl := poller.New(client, p, rules, cfg.ADCPollInterval(), cfg.GPIOPollInterval())
	pl.Run(ctx)

	shutdown.Register("workers", func(context.Context) error {
		cancel()
		seq.Stop()
		pl.Wait()
		d.Wait()
		return nil
	})

	model := tui.New(tui.Deps{Panel: p, Sequence: seq, Rules: rules, Controls: cfg.Controls})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	alerter.Attach(program.Send)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info().Str("signal", sig.String()).Msg("Received signal")
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		shutdown.ShutdownWithError(err, "Panel exited with error")
	}
	shutdown.Shutdown()
}
