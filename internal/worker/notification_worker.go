package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/unieval/evaluation-backend/internal/notify"
)

// NotificationWorker drains the notification queue. It owns the asynq
// server; handlers live in package notify.
type NotificationWorker struct {
	srv      *asynq.Server
	handlers *notify.Handlers
	log      zerolog.Logger
}

// NewNotificationWorker creates a new NotificationWorker.
func NewNotificationWorker(srv *asynq.Server, handlers *notify.Handlers, log zerolog.Logger) *NotificationWorker {
	return &NotificationWorker{
		srv:      srv,
		handlers: handlers,
		log:      log.With().Str("component", "notification_worker").Logger(),
	}
}

// Mux returns the task routing table.
func (w *NotificationWorker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(w.logTask)
	w.handlers.Register(mux)
	return mux
}

// Start runs the worker until ctx is cancelled, then stops taking new tasks
// and waits for in-flight ones.
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.log.Info().Msg("NotificationWorker started")

	if err := w.srv.Start(w.Mux()); err != nil {
		return fmt.Errorf("start asynq server: %w", err)
	}

	<-ctx.Done()
	w.log.Info().Msg("Shutdown requested. Draining in-flight tasks...")
	w.srv.Shutdown()
	return nil
}

// logTask records the outcome of every task. Payloads carry no respondent
// identity, so only the type and error are logged.
func (w *NotificationWorker) logTask(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		err := next.ProcessTask(ctx, t)
		if err != nil {
			w.log.Warn().Err(err).Str("task", t.Type()).Msg("Task failed")
			return err
		}
		w.log.Debug().Str("task", t.Type()).Msg("Task done")
		return nil
	})
}
