package dispatch

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// Notifier delivers a blocking alert about a failed command.
type Notifier interface {
	Send(ctx context.Context, title, message string) error
}

// Fanout sends to every notifier and reports all failures together.
type Fanout []Notifier

func (f Fanout) Send(ctx context.Context, title, message string) error {
	var errs []error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, title, message); err != nil {
			log.Warn().Err(err).Str("title", title).Msg("Notifier failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
