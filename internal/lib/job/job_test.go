package job

import (
	"context"
	"errors"
	"testing"

	"github.com/deppfellow/openwork/internal/lib/email"
	"github.com/deppfellow/openwork/internal/model"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

type fakeMailer struct {
	to   string
	data email.WorkPackageUpdatedData
	err  error
}

func (f *fakeMailer) SendWorkPackageUpdatedEmail(to string, data email.WorkPackageUpdatedData) error {
	f.to, f.data = to, data
	return f.err
}

func TestNewWorkPackageUpdatedTask(t *testing.T) {
	task, err := NewWorkPackageUpdatedTask(WorkPackageUpdatedPayload{To: "dev@example.com", WorkPackageID: 7})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TaskWorkPackageUpdated {
		t.Fatalf("unexpected type %q", task.Type())
	}
}

func TestHandleWorkPackageUpdatedTask(t *testing.T) {
	logger := zerolog.Nop()
	mailer := &fakeMailer{}
	j := &JobService{logger: &logger, mailer: mailer}

	task, _ := NewWorkPackageUpdatedTask(WorkPackageUpdatedPayload{
		To:             "dev@example.com",
		WorkPackageID:  7,
		Subject:        "Release",
		EditorID:       "user_1",
		JournalVersion: 2,
		Changes:        []model.FieldChange{{Field: "subject", From: "Draft", To: "Release"}},
	})

	if err := j.handleWorkPackageUpdatedTask(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if mailer.to != "dev@example.com" || mailer.data.Version != 2 || len(mailer.data.Changes) != 1 {
		t.Fatalf("unexpected mail %q %+v", mailer.to, mailer.data)
	}

	mailer.err = errors.New("provider down")
	if err := j.handleWorkPackageUpdatedTask(context.Background(), task); err == nil {
		t.Fatal("provider errors must fail the task so it is retried")
	}
}

func TestMalformedPayloadSkipsRetry(t *testing.T) {
	logger := zerolog.Nop()
	j := &JobService{logger: &logger, mailer: &fakeMailer{}}

	err := j.handleWorkPackageUpdatedTask(context.Background(), asynq.NewTask(TaskWorkPackageUpdated, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}
