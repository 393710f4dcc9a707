// Package job runs background work on asynq.
//
// Producers enqueue tasks through JobService.Client; the embedded server
// pulls them from Redis and dispatches them by task type.
package job

import (
	"fmt"

	"github.com/deppfellow/openwork/internal/config"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

type JobService struct {
	Client *asynq.Client
	server *asynq.Server
	logger *zerolog.Logger

	// mailer is set by InitHandlers.
	mailer Mailer
}

func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisAddr := cfg.Redis.Address

	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr: redisAddr,
	})

	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger: &asynqLogger{log: logger},
		},
	)

	return &JobService{
		Client: client,
		server: server,
		logger: logger,
	}
}

// Start registers the task handlers and starts the workers. It does not
// block; Stop shuts the workers down.
func (j *JobService) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskWorkPackageUpdated, j.handleWorkPackageUpdatedTask)

	j.logger.Info().Msg("Starting background job server")

	return j.server.Start(mux)
}

func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	j.server.Shutdown()
	j.Client.Close()
}

// asynqLogger routes asynq's own logs through zerolog.
type asynqLogger struct {
	log *zerolog.Logger
}

func (l *asynqLogger) Debug(args ...any) {
	l.log.Debug().Str("component", "asynq").Msg(fmt.Sprint(args...))
}
func (l *asynqLogger) Info(args ...any) {
	l.log.Info().Str("component", "asynq").Msg(fmt.Sprint(args...))
}
func (l *asynqLogger) Warn(args ...any) {
	l.log.Warn().Str("component", "asynq").Msg(fmt.Sprint(args...))
}
func (l *asynqLogger) Error(args ...any) {
	l.log.Error().Str("component", "asynq").Msg(fmt.Sprint(args...))
}
func (l *asynqLogger) Fatal(args ...any) {
	l.log.Fatal().Str("component", "asynq").Msg(fmt.Sprint(args...))
}
