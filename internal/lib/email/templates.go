package email

// Template names a file under templates/emails without its extension.
type Template string

const (
	TemplateWorkPackageUpdated Template = "work_package_updated"
)
