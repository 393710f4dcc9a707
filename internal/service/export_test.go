package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/deppfellow/openwork/internal/model"
	"github.com/xuri/excelize/v2"
)

func TestBuildWorkbook(t *testing.T) {
	results := []model.QueryResult{{
		WorkPackage: model.WorkPackage{ID: 3, ProjectID: 7, Subject: "Fix it", StatusID: 2, UpdatedAt: time.Now()},
		MatchesAt:   []string{"P-1D", "PT0S"},
	}}

	data, err := buildWorkbook(results, map[int64]string{2: "Closed"}, map[int64]string{})
	if err != nil {
		t.Fatalf("buildWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header plus one", len(rows))
	}
	if rows[0][0] != "ID" || rows[1][1] != "Fix it" || rows[1][2] != "Closed" || rows[1][3] != "#7" {
		t.Fatalf("unexpected rows %v", rows)
	}
	if rows[1][6] != "P-1D, PT0S" {
		t.Fatalf("unexpected matches column %q", rows[1][6])
	}
}
