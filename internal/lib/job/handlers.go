package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deppfellow/openwork/internal/config"
	"github.com/deppfellow/openwork/internal/lib/email"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Mailer sends the notification mails of the job handlers.
type Mailer interface {
	SendWorkPackageUpdatedEmail(to string, data email.WorkPackageUpdatedData) error
}

// InitHandlers builds the handler dependencies. It must run before Start.
func (j *JobService) InitHandlers(config *config.Config, logger *zerolog.Logger) {
	j.mailer = email.NewClient(config, logger)
}

func (j *JobService) handleWorkPackageUpdatedTask(ctx context.Context, t *asynq.Task) error {
	var p WorkPackageUpdatedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		// Retrying cannot fix a malformed payload.
		return fmt.Errorf("failed to unmarshal work package updated payload: %v: %w", err, asynq.SkipRetry)
	}

	log := j.logger.With().
		Str("type", "work_package_updated").
		Int64("work_package_id", p.WorkPackageID).
		Str("to", p.To).
		Logger()

	log.Info().Msg("Processing work package updated email task")

	err := j.mailer.SendWorkPackageUpdatedEmail(p.To, email.WorkPackageUpdatedData{
		WorkPackageID: p.WorkPackageID,
		Subject:       p.Subject,
		EditorID:      p.EditorID,
		Version:       p.JournalVersion,
		Notes:         p.Notes,
		Changes:       p.Changes,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to send work package updated email")
		return err
	}

	log.Info().Msg("Successfully sent work package updated email")
	return nil
}
