package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Background runs best-effort side effects off the request path. Failures
// are logged and never reach the caller.
type Background struct {
	timeout time.Duration
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewBackground creates a Background whose jobs each get timeout to finish.
func NewBackground(timeout time.Duration, log zerolog.Logger) *Background {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Background{
		timeout: timeout,
		log:     log.With().Str("component", "background").Logger(),
	}
}

// Go runs fn in its own goroutine with a fresh context, detached from the
// request that triggered it.
func (b *Background) Go(name string, fn func(ctx context.Context) error) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.log.Error().Interface("panic", r).Str("job", name).Msg("Background job panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			b.log.Warn().Err(err).Str("job", name).Msg("Background job failed")
		}
	}()
}

// Wait blocks until every started job has returned. Used on shutdown.
func (b *Background) Wait() {
	b.wg.Wait()
}
