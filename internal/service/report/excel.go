// Package report renders attendance and identity data as downloadable
// documents.
package report

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"smartattendance/backend/internal/entity"
)

var attendanceHeaders = []interface{}{
	"UID", "Name", "Jabatan", "Plate", "Shift", "Punctuality", "Checkin", "Checkout", "Worked hours", "Status",
}

// AttendanceXLSX writes the records of one day into a single-sheet workbook
// named after the date.
func AttendanceXLSX(date string, records []entity.Attendance) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := date
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, errors.Wrap(err, "naming sheet")
	}

	if err := f.SetSheetRow(sheet, "A1", &attendanceHeaders); err != nil {
		return nil, errors.Wrap(err, "writing header")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "creating header style")
	}
	if err := f.SetCellStyle(sheet, "A1", "J1", bold); err != nil {
		return nil, errors.Wrap(err, "styling header")
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := attendanceRow(r)
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, errors.Wrapf(err, "writing row %d", i+2)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "writing workbook")
	}
	return buf, nil
}

func attendanceRow(r entity.Attendance) []string {
	return []string{
		r.UID,
		r.Name,
		r.Department,
		r.Plate,
		r.Shift,
		r.Punctuality,
		r.Checkin,
		orDash(r.Checkout),
		orDash(r.WorkedHours),
		orDash(r.Status),
	}
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
