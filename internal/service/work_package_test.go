package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/deppfellow/openwork/internal/errs"
	"github.com/deppfellow/openwork/internal/metrics"
	"github.com/deppfellow/openwork/internal/model"
	"github.com/deppfellow/openwork/internal/query"
	"github.com/deppfellow/openwork/internal/repository"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func strPtr(s string) *string { return &s }

func newWorkPackageService(wps *fakeWorkPackages, journals *fakeJournals, n *fakeNotifier, emails fakeEmails) *WorkPackageService {
	svc := NewWorkPackageService(WorkPackageServiceDeps{
		WorkPackages: wps,
		Journals:     journals,
		Statuses:     &fakeStatuses{statuses: []model.IssueStatus{{ID: 1, Name: "New", IsDefault: true}, {ID: 2, Name: "Closed"}}},
		Projects:     &fakeProjects{projects: map[int64]model.Project{7: {ID: 7, Identifier: "demo"}}},
		Notifier:     n,
		Emails:       emails,
		Metrics:      metrics.New(),
		Logger:       nopLogger(),
	})
	return svc
}

func updateResult(assignee *string) *repository.UpdateResult {
	prev := model.WorkPackage{ID: 3, ProjectID: 7, Subject: "s", Description: "old", StatusID: 1, AssignedToEmail: assignee}
	next := prev
	next.Description = "new"
	return &repository.UpdateResult{
		Previous:    prev,
		WorkPackage: &next,
		Journal:     &model.Journal{Version: 2, Notes: "updated"},
	}
}

func TestCreateUsesDefaultStatus(t *testing.T) {
	wps := &fakeWorkPackages{}
	svc := newWorkPackageService(wps, &fakeJournals{}, &fakeNotifier{}, nil)

	wp, err := svc.Create(context.Background(), 7, CreateWorkPackageInput{Subject: "s"}, "user_1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if wp.StatusID != 1 || wps.created.AuthorID != "user_1" {
		t.Fatalf("unexpected work package %+v", wps.created)
	}
	if got := testutil.ToFloat64(svc.metrics.JournalWritesTotal.WithLabelValues("create")); got != 1 {
		t.Fatalf("journal writes = %v, want 1", got)
	}

	if _, err := svc.Create(context.Background(), 99, CreateWorkPackageInput{Subject: "s"}, "user_1"); err == nil {
		t.Fatal("expected an error for an unknown project")
	}
}

func TestUpdateNotifiesAssignee(t *testing.T) {
	tests := []struct {
		name     string
		assignee *string
		editor   string
		want     int
	}{
		{"other editor", strPtr("dev@example.com"), "user_pm", 1},
		{"assignee edits", strPtr("dev@example.com"), "user_dev", 0},
		{"no assignee", nil, "user_pm", 0},
	}

	emails := fakeEmails{"user_pm": "pm@example.com", "user_dev": "dev@example.com"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &fakeNotifier{}
			wps := &fakeWorkPackages{update: updateResult(tt.assignee)}
			svc := newWorkPackageService(wps, &fakeJournals{}, n, emails)

			if _, err := svc.Update(context.Background(), 3, model.WorkPackagePatch{}, tt.editor); err != nil {
				t.Fatalf("Update: %v", err)
			}
			if len(n.payloads) != tt.want {
				t.Fatalf("notifications = %d, want %d", len(n.payloads), tt.want)
			}
			if tt.want == 1 {
				p := n.payloads[0]
				if p.To != "dev@example.com" || p.JournalVersion != 2 || len(p.Changes) != 1 || p.Changes[0].Field != "description" {
					t.Fatalf("unexpected payload %+v", p)
				}
			}
		})
	}
}

func TestUpdateWithoutJournalDoesNotNotify(t *testing.T) {
	n := &fakeNotifier{}
	res := updateResult(strPtr("dev@example.com"))
	res.Journal = nil
	svc := newWorkPackageService(&fakeWorkPackages{update: res}, &fakeJournals{}, n, fakeEmails{})

	if _, err := svc.Update(context.Background(), 3, model.WorkPackagePatch{}, "user_pm"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(n.payloads) != 0 {
		t.Fatal("an update without a journal must not notify")
	}
}

func TestUpdateStaleIsConflict(t *testing.T) {
	wps := &fakeWorkPackages{updateErr: repository.ErrStaleWorkPackage}
	svc := newWorkPackageService(wps, &fakeJournals{}, &fakeNotifier{}, nil)

	_, err := svc.Update(context.Background(), 3, model.WorkPackagePatch{LockVersion: 1}, "user_1")
	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusConflict || httpErr.Code != "WORK_PACKAGE_STALE" {
		t.Fatalf("expected a stale conflict, got %v", err)
	}
}

func TestAtTimestamp(t *testing.T) {
	now := time.Date(2022, 11, 1, 0, 0, 0, 0, time.UTC)
	current := &model.WorkPackage{ID: 3, ProjectID: 7, Description: "This is the current description"}
	historic := model.HistoricWorkPackage{
		WorkPackage:    current.WithData(model.JournalData{ProjectID: 7, Description: "This is the original description"}),
		JournalVersion: 1,
	}
	journals := &fakeJournals{historic: []model.HistoricWorkPackage{historic}}

	svc := newWorkPackageService(&fakeWorkPackages{wp: current}, journals, &fakeNotifier{}, nil)
	svc.now = func() time.Time { return now }

	got, err := svc.AtTimestamp(context.Background(), 3, query.MustParseTimestamp("PT0S"))
	if err != nil || got.Description != current.Description {
		t.Fatalf("current timestamp: %+v, %v", got, err)
	}
	if len(journals.at) != 0 {
		t.Fatal("a current timestamp must not read journals")
	}

	got, err = svc.AtTimestamp(context.Background(), 3, query.MustParseTimestamp("P-1D"))
	if err != nil || got.JournalVersion != 1 {
		t.Fatalf("historic timestamp: %+v, %v", got, err)
	}
	if !journals.at[0].Equal(now.Add(-24 * time.Hour)) {
		t.Fatalf("resolved at %v", journals.at[0])
	}

	journals.historic = nil
	_, err = svc.AtTimestamp(context.Background(), 3, query.MustParseTimestamp("2022-01-01T00:00:00Z"))
	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusNotFound {
		t.Fatalf("expected not found before creation, got %v", err)
	}
}
