package email

import "github.com/deppfellow/openwork/internal/model"

// PreviewData holds sample data per template for local previews.
var PreviewData = map[Template]any{
	TemplateWorkPackageUpdated: WorkPackageUpdatedData{
		WorkPackageID: 42,
		Subject:       "Migrate file storage",
		EditorID:      "user_2abc",
		Version:       3,
		Notes:         "Moved to the new Nextcloud instance.",
		Changes: []model.FieldChange{
			{Field: "description", From: "This is the original description", To: "This is the current description"},
			{Field: "status_id", From: "1", To: "2"},
		},
	},
}
