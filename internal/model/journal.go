package model

import (
	"strconv"
	"time"
)

// JournalData is the snapshot of the journaled work package fields.
type JournalData struct {
	ProjectID       int64   `json:"projectId"`
	Subject         string  `json:"subject"`
	Description     string  `json:"description"`
	StatusID        int64   `json:"statusId"`
	AssignedToEmail *string `json:"assignedToEmail"`
}

// Equal reports whether two snapshots hold the same values.
func (d JournalData) Equal(o JournalData) bool {
	if d.ProjectID != o.ProjectID || d.Subject != o.Subject ||
		d.Description != o.Description || d.StatusID != o.StatusID {
		return false
	}
	switch {
	case d.AssignedToEmail == nil && o.AssignedToEmail == nil:
		return true
	case d.AssignedToEmail == nil || o.AssignedToEmail == nil:
		return false
	default:
		return *d.AssignedToEmail == *o.AssignedToEmail
	}
}

// Journal is an immutable version of a work package. CreatedAt is the
// moment from which Data was valid.
type Journal struct {
	ID          int64       `json:"id"`
	JournableID int64       `json:"journableId"`
	Version     int         `json:"version"`
	UserID      string      `json:"userId"`
	Notes       string      `json:"notes"`
	Data        JournalData `json:"data"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// FieldChange is one journaled field that differs between two versions.
type FieldChange struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Changes lists the fields that differ from d to next, in a fixed order.
func (d JournalData) Changes(next JournalData) []FieldChange {
	var changes []FieldChange
	add := func(field, from, to string) {
		if from != to {
			changes = append(changes, FieldChange{Field: field, From: from, To: to})
		}
	}

	add("project_id", strconv.FormatInt(d.ProjectID, 10), strconv.FormatInt(next.ProjectID, 10))
	add("subject", d.Subject, next.Subject)
	add("description", d.Description, next.Description)
	add("status_id", strconv.FormatInt(d.StatusID, 10), strconv.FormatInt(next.StatusID, 10))
	add("assigned_to_email", deref(d.AssignedToEmail), deref(next.AssignedToEmail))
	return changes
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
