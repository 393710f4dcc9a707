package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/deppfellow/openwork/internal/query"
)

func TestBuildQuery(t *testing.T) {
	q, err := queryFlags{
		filters:    []string{"description:~:original", "status_id:=:1,2"},
		timestamps: "2022-08-01T00:00:00Z,PT0S",
		project:    "4",
		sort:       "updated_at",
		desc:       true,
		limit:      10,
	}.buildQuery()
	if err != nil {
		t.Fatalf("buildQuery: %v", err)
	}

	if len(q.Filters) != 2 || q.Filters[1].Field != query.FieldStatusID || len(q.Filters[1].Values) != 2 {
		t.Fatalf("unexpected filters %+v", q.Filters)
	}
	if len(q.Timestamps) != 2 || q.Timestamps[1].String() != "PT0S" {
		t.Fatalf("unexpected timestamps %+v", q.Timestamps)
	}
	if q.ProjectID == nil || *q.ProjectID != 4 {
		t.Fatalf("unexpected project %v", q.ProjectID)
	}
	if q.Sort.Field != query.SortByUpdatedAt || q.Sort.Direction != query.SortDesc || q.Limit != 10 {
		t.Fatalf("unexpected paging %+v", q)
	}
}

func TestBuildQueryErrors(t *testing.T) {
	for name, flags := range map[string]queryFlags{
		"bad timestamp": {timestamps: "yesterday"},
		"bad project":   {project: "abc"},
		"bad filter":    {filters: []string{"description"}},
	} {
		if _, err := flags.buildQuery(); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestEmailPreviewCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := newEmailPreviewCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"work_package_updated"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), "Migrate file storage") {
		t.Fatalf("preview missing sample subject:\n%s", out.String())
	}

	cmd = newEmailPreviewCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"welcome"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for an unknown template")
	}
}
