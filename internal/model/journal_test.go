package model

import "testing"

func TestJournalDataEqual(t *testing.T) {
	a, b := "a@example.com", "a@example.com"
	c := "c@example.com"

	base := JournalData{ProjectID: 1, Subject: "s", StatusID: 1}

	withA := base
	withA.AssignedToEmail = &a
	withB := base
	withB.AssignedToEmail = &b
	withC := base
	withC.AssignedToEmail = &c

	if !withA.Equal(withB) {
		t.Fatal("equal emails behind different pointers must compare equal")
	}
	if withA.Equal(withC) || withA.Equal(base) {
		t.Fatal("different assignees must not compare equal")
	}

	changed := base
	changed.Description = "new"
	if base.Equal(changed) {
		t.Fatal("description change not detected")
	}
}

func TestWorkPackagePatchApply(t *testing.T) {
	email := "dev@example.com"
	wp := WorkPackage{Subject: "old", Description: "desc", StatusID: 1, AssignedToEmail: &email}

	subject := "new"
	got := WorkPackagePatch{Subject: &subject, ClearAssignee: true}.Apply(wp)

	if got.Subject != "new" || got.Description != "desc" {
		t.Fatalf("unexpected fields: %+v", got)
	}
	if got.AssignedToEmail != nil {
		t.Fatal("assignee should be cleared")
	}
	if wp.Subject != "old" {
		t.Fatal("Apply must not modify its argument")
	}

	roundTrip := WorkPackage{ID: 4}.WithData(wp.JournalData())
	if roundTrip.ID != 4 || !roundTrip.JournalData().Equal(wp.JournalData()) {
		t.Fatalf("WithData lost fields: %+v", roundTrip)
	}
}

func TestJournalDataChanges(t *testing.T) {
	email := "dev@example.com"
	before := JournalData{ProjectID: 1, Subject: "s", Description: "old", StatusID: 1}
	after := before
	after.Description = "new"
	after.StatusID = 2
	after.AssignedToEmail = &email

	changes := before.Changes(after)
	if len(changes) != 3 {
		t.Fatalf("expected 3 changes, got %+v", changes)
	}
	if changes[0] != (FieldChange{Field: "description", From: "old", To: "new"}) {
		t.Fatalf("unexpected first change %+v", changes[0])
	}
	if changes[2].Field != "assigned_to_email" || changes[2].From != "" || changes[2].To != email {
		t.Fatalf("unexpected assignee change %+v", changes[2])
	}
	if len(before.Changes(before)) != 0 {
		t.Fatal("identical data must yield no changes")
	}
}
