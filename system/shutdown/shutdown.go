package shutdown

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type hook struct {
	name string
	fn   func(context.Context) error
}

var (
	mu    sync.Mutex
	hooks []hook
	done  bool

	// exit is swapped out in tests
	exit = os.Exit

	Timeout = 5 * time.Second
)

// Register adds a cleanup step. Steps run in reverse registration order, so
// whatever started last stops first.
func Register(name string, fn func(context.Context) error) {
	mu.Lock()
	defer mu.Unlock()
	hooks = append(hooks, hook{name: name, fn: fn})
}

// Run executes every registered step once. Later calls do nothing.
func Run() {
	mu.Lock()
	if done {
		mu.Unlock()
		return
	}
	done = true
	pending := hooks
	hooks = nil
	mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	for i := len(pending) - 1; i >= 0; i-- {
		h := pending[i]
		if err := h.fn(ctx); err != nil {
			log.Error().Err(err).Str("step", h.name).Msg("Shutdown step failed")
			continue
		}
		log.Debug().Str("step", h.name).Msg("Shutdown step complete")
	}
	log.Info().Msg("Rig panel stopped")
}

func Shutdown() {
	Run()
	exit(0)
}

func ShutdownWithError(err error, msg string) {
	log.Error().Err(err).Msg(msg)
	Run()
	exit(1)
}

func reset() {
	mu.Lock()
	defer mu.Unlock()
	hooks = nil
	done = false
}
