package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/deppfellow/openwork/internal/model"
	"github.com/hibiken/asynq"
)

const TaskWorkPackageUpdated = "email:work_package_updated"

// WorkPackageUpdatedPayload is stored in Redis as JSON.
type WorkPackageUpdatedPayload struct {
	To             string              `json:"to"`
	WorkPackageID  int64               `json:"work_package_id"`
	Subject        string              `json:"subject"`
	EditorID       string              `json:"editor_id"`
	JournalVersion int                 `json:"journal_version"`
	Notes          string              `json:"notes"`
	Changes        []model.FieldChange `json:"changes"`
}

// NewWorkPackageUpdatedTask retries three times on the default queue.
func NewWorkPackageUpdatedTask(p WorkPackageUpdatedPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskWorkPackageUpdated,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(30*time.Second),
	), nil
}

// EnqueueWorkPackageUpdated schedules the notification mail.
func (j *JobService) EnqueueWorkPackageUpdated(ctx context.Context, p WorkPackageUpdatedPayload) error {
	task, err := NewWorkPackageUpdatedTask(p)
	if err != nil {
		return fmt.Errorf("build %s task: %w", TaskWorkPackageUpdated, err)
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue %s task: %w", TaskWorkPackageUpdated, err)
	}

	j.logger.Debug().
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Int64("work_package_id", p.WorkPackageID).
		Msg("enqueued work package notification")
	return nil
}
