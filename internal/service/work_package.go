package service

import (
	"context"
	"errors"
	"time"

	"github.com/deppfellow/openwork/internal/errs"
	"github.com/deppfellow/openwork/internal/lib/job"
	"github.com/deppfellow/openwork/internal/metrics"
	"github.com/deppfellow/openwork/internal/model"
	"github.com/deppfellow/openwork/internal/query"
	"github.com/deppfellow/openwork/internal/repository"
	"github.com/rs/zerolog"
)

type workPackageStore interface {
	Create(ctx context.Context, wp model.WorkPackage, notes string) (*model.WorkPackage, *model.Journal, error)
	GetByID(ctx context.Context, id int64) (*model.WorkPackage, error)
	Update(ctx context.Context, id int64, patch model.WorkPackagePatch, userID string) (*repository.UpdateResult, error)
}

type journalStore interface {
	ListByWorkPackage(ctx context.Context, workPackageID int64) ([]model.Journal, error)
	GetByVersion(ctx context.Context, workPackageID int64, version int) (*model.Journal, error)
	AtTimestamp(ctx context.Context, t time.Time, ids []int64) ([]model.HistoricWorkPackage, error)
}

type defaultStatusGetter interface {
	Default(ctx context.Context) (*model.IssueStatus, error)
}

type projectGetter interface {
	GetByID(ctx context.Context, id int64) (*model.Project, error)
}

// notifier enqueues notification mail.
type notifier interface {
	EnqueueWorkPackageUpdated(ctx context.Context, p job.WorkPackageUpdatedPayload) error
}

// emailResolver maps a user id to the user's email address.
type emailResolver interface {
	UserEmail(ctx context.Context, userID string) (string, error)
}

type WorkPackageService struct {
	workPackages workPackageStore
	journals     journalStore
	statuses     defaultStatusGetter
	projects     projectGetter
	notifier     notifier
	emails       emailResolver
	metrics      *metrics.Metrics
	logger       *zerolog.Logger
	now          func() time.Time
}

type WorkPackageServiceDeps struct {
	WorkPackages workPackageStore
	Journals     journalStore
	Statuses     defaultStatusGetter
	Projects     projectGetter
	Notifier     notifier
	Emails       emailResolver
	Metrics      *metrics.Metrics
	Logger       *zerolog.Logger
}

func NewWorkPackageService(d WorkPackageServiceDeps) *WorkPackageService {
	return &WorkPackageService{
		workPackages: d.WorkPackages,
		journals:     d.Journals,
		statuses:     d.Statuses,
		projects:     d.Projects,
		notifier:     d.Notifier,
		emails:       d.Emails,
		metrics:      d.Metrics,
		logger:       d.Logger,
		now:          time.Now,
	}
}

// CreateWorkPackageInput is a new work package; a zero StatusID picks the
// default status.
type CreateWorkPackageInput struct {
	Subject         string
	Description     string
	StatusID        int64
	AssignedToEmail *string
	Notes           string
}

func (s *WorkPackageService) Create(ctx context.Context, projectID int64, in CreateWorkPackageInput, userID string) (*model.WorkPackage, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	statusID := in.StatusID
	if statusID == 0 {
		status, err := s.statuses.Default(ctx)
		if err != nil {
			return nil, err
		}
		statusID = status.ID
	}

	wp, journal, err := s.workPackages.Create(ctx, model.WorkPackage{
		ProjectID:       projectID,
		Subject:         in.Subject,
		Description:     in.Description,
		StatusID:        statusID,
		AssignedToEmail: in.AssignedToEmail,
		AuthorID:        userID,
	}, in.Notes)
	if err != nil {
		return nil, err
	}

	s.recordJournal("create", journal)
	return wp, nil
}

func (s *WorkPackageService) Get(ctx context.Context, id int64) (*model.WorkPackage, error) {
	return s.workPackages.GetByID(ctx, id)
}

// Update saves patch and, when a journal was written, notifies the assignee
// unless the assignee made the change. Notification failures do not fail
// the update.
func (s *WorkPackageService) Update(ctx context.Context, id int64, patch model.WorkPackagePatch, userID string) (*model.WorkPackage, error) {
	res, err := s.workPackages.Update(ctx, id, patch, userID)
	if errors.Is(err, repository.ErrStaleWorkPackage) {
		return nil, errs.NewConflictError(
			"The work package was changed by someone else. Reload it and try again.",
			errs.Code("WORK_PACKAGE_STALE"),
		)
	}
	if err != nil {
		return nil, err
	}

	if res.Journal == nil {
		return res.WorkPackage, nil
	}
	s.recordJournal("update", res.Journal)

	if s.shouldNotify(ctx, res.WorkPackage, userID) {
		payload := job.WorkPackageUpdatedPayload{
			To:             *res.WorkPackage.AssignedToEmail,
			WorkPackageID:  res.WorkPackage.ID,
			Subject:        res.WorkPackage.Subject,
			EditorID:       userID,
			JournalVersion: res.Journal.Version,
			Notes:          res.Journal.Notes,
			Changes:        res.Previous.JournalData().Changes(res.WorkPackage.JournalData()),
		}
		if err := s.notifier.EnqueueWorkPackageUpdated(ctx, payload); err != nil {
			s.logger.Error().Err(err).Int64("work_package_id", id).Msg("failed to enqueue work package notification")
		}
	}

	return res.WorkPackage, nil
}

func (s *WorkPackageService) shouldNotify(ctx context.Context, wp *model.WorkPackage, editorID string) bool {
	if wp.AssignedToEmail == nil || *wp.AssignedToEmail == "" || s.notifier == nil {
		return false
	}
	if s.emails == nil {
		return true
	}

	editorEmail, err := s.emails.UserEmail(ctx, editorID)
	if err != nil {
		// Better a mail too many than a missed one.
		s.logger.Warn().Err(err).Str("user_id", editorID).Msg("could not resolve editor email")
		return true
	}
	return editorEmail != *wp.AssignedToEmail
}

func (s *WorkPackageService) Journals(ctx context.Context, id int64) ([]model.Journal, error) {
	if _, err := s.workPackages.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.journals.ListByWorkPackage(ctx, id)
}

func (s *WorkPackageService) Journal(ctx context.Context, id int64, version int) (*model.Journal, error) {
	return s.journals.GetByVersion(ctx, id, version)
}

// AtTimestamp returns the work package as it was at ts. A current
// timestamp returns the stored state.
func (s *WorkPackageService) AtTimestamp(ctx context.Context, id int64, ts query.Timestamp) (*model.HistoricWorkPackage, error) {
	now := s.now()

	current, err := s.workPackages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ts.IsCurrent(now) {
		return &model.HistoricWorkPackage{WorkPackage: *current, Timestamp: now.UTC()}, nil
	}

	if s.metrics != nil {
		s.metrics.RecordTemporalLookup()
	}

	states, err := s.journals.AtTimestamp(ctx, ts.At(now), []int64{id})
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, errs.NewNotFoundError(
			"The work package did not exist at "+ts.String(),
			true,
			errs.Code("WORK_PACKAGE_NOT_FOUND_AT_TIMESTAMP"),
		)
	}
	return &states[0], nil
}

func (s *WorkPackageService) recordJournal(operation string, j *model.Journal) {
	if s.metrics != nil && j != nil {
		s.metrics.RecordJournalWrite(operation)
	}
}
