package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/deppfellow/openwork/internal/model"
	"github.com/deppfellow/openwork/internal/query"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Work packages"

// ExportContentType is the media type of XLSX workbooks.
const ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type projectLister interface {
	List(ctx context.Context) ([]model.Project, error)
}

type statusLister interface {
	All(ctx context.Context) ([]model.IssueStatus, error)
}

// ExportService renders query results as an XLSX workbook.
type ExportService struct {
	queries  *QueryService
	projects projectLister
	statuses statusLister
}

func NewExportService(queries *QueryService, projects projectLister, statuses statusLister) *ExportService {
	return &ExportService{queries: queries, projects: projects, statuses: statuses}
}

var exportHeader = []any{"ID", "Subject", "Status", "Project", "Assignee", "Updated at", "Matches at"}

// Export runs q and returns the workbook bytes.
func (s *ExportService) Export(ctx context.Context, q query.Query) ([]byte, error) {
	res, err := s.queries.Results(ctx, q, false)
	if err != nil {
		return nil, err
	}

	statuses, err := s.statuses.All(ctx)
	if err != nil {
		return nil, err
	}
	statusNames := make(map[int64]string, len(statuses))
	for _, st := range statuses {
		statusNames[st.ID] = st.Name
	}

	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, err
	}
	projectNames := make(map[int64]string, len(projects))
	for _, p := range projects {
		projectNames[p.ID] = p.Name
	}

	return buildWorkbook(res.Results, statusNames, projectNames)
}

func buildWorkbook(results []model.QueryResult, statusNames, projectNames map[int64]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, errors.Wrap(err, "rename sheet")
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, errors.Wrap(err, "write header")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "create header style")
	}
	if err := f.SetRowStyle(exportSheet, 1, 1, bold); err != nil {
		return nil, errors.Wrap(err, "style header")
	}

	for i, r := range results {
		assignee := ""
		if r.AssignedToEmail != nil {
			assignee = *r.AssignedToEmail
		}
		row := []any{
			r.ID,
			r.Subject,
			nameOr(statusNames, r.StatusID),
			nameOr(projectNames, r.ProjectID),
			assignee,
			r.UpdatedAt.UTC(),
			strings.Join(r.MatchesAt, ", "),
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, errors.Wrapf(err, "write row %d", i+2)
		}
	}

	if err := f.SetColWidth(exportSheet, "B", "B", 48); err != nil {
		return nil, errors.Wrap(err, "set column width")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "write workbook")
	}
	return buf.Bytes(), nil
}

func nameOr(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok {
		return name
	}
	return fmt.Sprintf("#%d", id)
}
