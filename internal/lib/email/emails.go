package email

import (
	"fmt"

	"github.com/deppfellow/openwork/internal/model"
)

// WorkPackageUpdatedData feeds the work_package_updated template.
type WorkPackageUpdatedData struct {
	WorkPackageID int64
	Subject       string
	EditorID      string
	Version       int
	Notes         string
	Changes       []model.FieldChange
}

// SendWorkPackageUpdatedEmail tells an assignee that someone else changed
// their work package.
func (c *Client) SendWorkPackageUpdatedEmail(to string, data WorkPackageUpdatedData) error {
	return c.SendEmail(
		to,
		fmt.Sprintf("Work package #%d updated: %s", data.WorkPackageID, data.Subject),
		TemplateWorkPackageUpdated,
		data,
	)
}
