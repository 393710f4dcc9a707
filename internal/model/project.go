package model

import "time"

type Project struct {
	ID         int64     `json:"id"`
	Identifier string    `json:"identifier"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ProjectSettings is the project settings page payload: every known status
// and the ids enabled for the project.
type ProjectSettings struct {
	Project           Project       `json:"project"`
	IssueStatuses     []IssueStatus `json:"issueStatuses"`
	EnabledStatusIDs  []int64       `json:"enabledStatusIds"`
	ProjectStorageIDs []int64       `json:"projectStorageIds"`
}
