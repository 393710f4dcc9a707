package model

import "time"

type WorkPackage struct {
	ID              int64     `json:"id"`
	ProjectID       int64     `json:"projectId"`
	Subject         string    `json:"subject"`
	Description     string    `json:"description"`
	StatusID        int64     `json:"statusId"`
	AssignedToEmail *string   `json:"assignedToEmail"`
	AuthorID        string    `json:"authorId"`
	LockVersion     int       `json:"lockVersion"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// JournalData returns the journaled fields of the current state.
func (wp WorkPackage) JournalData() JournalData {
	return JournalData{
		ProjectID:       wp.ProjectID,
		Subject:         wp.Subject,
		Description:     wp.Description,
		StatusID:        wp.StatusID,
		AssignedToEmail: wp.AssignedToEmail,
	}
}

// WithData returns a copy of wp whose journaled fields are replaced by d.
func (wp WorkPackage) WithData(d JournalData) WorkPackage {
	wp.ProjectID = d.ProjectID
	wp.Subject = d.Subject
	wp.Description = d.Description
	wp.StatusID = d.StatusID
	wp.AssignedToEmail = d.AssignedToEmail
	return wp
}

// WorkPackagePatch carries the fields of an update. Nil means unchanged.
type WorkPackagePatch struct {
	Subject         *string
	Description     *string
	StatusID        *int64
	AssignedToEmail *string
	// ClearAssignee removes the assignee; it wins over AssignedToEmail.
	ClearAssignee bool
	LockVersion   int
	Notes         string
}

// Apply returns the state after applying p to wp.
func (p WorkPackagePatch) Apply(wp WorkPackage) WorkPackage {
	if p.Subject != nil {
		wp.Subject = *p.Subject
	}
	if p.Description != nil {
		wp.Description = *p.Description
	}
	if p.StatusID != nil {
		wp.StatusID = *p.StatusID
	}
	if p.ClearAssignee {
		wp.AssignedToEmail = nil
	} else if p.AssignedToEmail != nil {
		email := *p.AssignedToEmail
		wp.AssignedToEmail = &email
	}
	return wp
}

// HistoricWorkPackage is a work package as reconstructed at a timestamp.
type HistoricWorkPackage struct {
	WorkPackage
	Timestamp      time.Time `json:"timestamp"`
	JournalVersion int       `json:"journalVersion"`
}

// QueryResult is a matched work package in its current state together
// with the requested timestamps at which it matched the filters.
type QueryResult struct {
	WorkPackage
	MatchesAt []string `json:"matchesAt,omitempty"`
	// AttributesByTimestamp is filled on request, in timestamp order.
	AttributesByTimestamp []TimestampAttributes `json:"attributesByTimestamp,omitempty"`
}

// TimestampAttributes is a result's journaled state at one requested
// timestamp. Attributes is nil when the work package did not exist yet.
type TimestampAttributes struct {
	Timestamp      string       `json:"timestamp"`
	Exists         bool         `json:"exists"`
	MatchesFilters bool         `json:"matchesFilters"`
	Attributes     *JournalData `json:"attributes,omitempty"`
}
