package shutdown

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_ReverseOrderOnce(t *testing.T) {
	reset()
	t.Cleanup(reset)

	var order []string
	Register("db", func(context.Context) error { order = append(order, "db"); return nil })
	Register("poller", func(context.Context) error { order = append(order, "poller"); return errors.New("stuck") })
	Register("tui", func(context.Context) error { order = append(order, "tui"); return nil })

	Run()
	Run()

	assert.Equal(t, []string{"tui", "poller", "db"}, order)
}

func TestShutdownWithError_ExitCode(t *testing.T) {
	reset()
	t.Cleanup(reset)

	var code int
	origExit := exit
	exit = func(c int) { code = c }
	defer func() { exit = origExit }()

	ran := false
	Register("flush", func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		ran = true
		return nil
	})

	ShutdownWithError(errors.New("boom"), "Fatal error")

	assert.True(t, ran)
	assert.Equal(t, 1, code)
}
