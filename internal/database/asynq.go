package database

import (
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/unieval/evaluation-backend/internal/config"
)

// NewAsynqClient creates a task-queue client sharing the Redis instance from REDIS_URL.
func NewAsynqClient(cfg *config.Config, log zerolog.Logger) (*asynq.Client, error) {
	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL for asynq: %w", err)
	}

	client := asynq.NewClient(opt)

	log.Info().Msg("Asynq client initialized")
	return client, nil
}

// NewAsynqServer creates the worker-side task server.
func NewAsynqServer(cfg *config.Config, log zerolog.Logger) (*asynq.Server, error) {
	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL for asynq: %w", err)
	}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues: map[string]int{
			config.WorkerKey.NotificationQueue: 1,
		},
		Logger: asynqLogger{log: log.With().Str("component", "asynq").Logger()},
	})
	return srv, nil
}

// asynqLogger adapts zerolog to asynq.Logger.
type asynqLogger struct {
	log zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Fatal().Msg(fmt.Sprint(args...)) }

// NewAsynqInspector creates a read-only view of the task queues for the
// system metrics stream.
func NewAsynqInspector(cfg *config.Config) (*asynq.Inspector, error) {
	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL for asynq: %w", err)
	}
	return asynq.NewInspector(opt), nil
}
