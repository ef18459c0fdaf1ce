package report

import (
	"bytes"
	"fmt"

	gofpdf "github.com/jung-kurt/gofpdf/v2"
	"github.com/pkg/errors"

	"smartattendance/backend/internal/entity"
)

var attendanceWidths = []float64{22, 38, 28, 24, 12, 24, 20, 20, 30, 24}

// AttendancePDF renders the records of one day as a landscape table.
func AttendancePDF(date string, records []entity.Attendance) (*bytes.Buffer, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Attendance "+date, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "Attendance "+date, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range attendanceHeaders {
		pdf.CellFormat(attendanceWidths[i], 7, fmt.Sprint(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, r := range records {
		for i, v := range attendanceRow(r) {
			pdf.CellFormat(attendanceWidths[i], 6, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 6, fmt.Sprintf("%d records", len(records)), "", 1, "R", false, 0, "")

	return output(pdf)
}

const (
	badgeCols = 3
	badgeW    = 60.0
	badgeH    = 80.0
	badgeQR   = 44.0
)

// BadgeSheetPDF lays out one badge per identity with its name and a QR code
// of its lookup key.
func BadgeSheetPDF(ids []entity.Identity) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(false, 10)

	perPage := badgeCols * 3
	for i, id := range ids {
		if i%perPage == 0 {
			pdf.AddPage()
		}
		slot := i % perPage
		x := 10 + float64(slot%badgeCols)*(badgeW+5)
		y := 10 + float64(slot/badgeCols)*(badgeH+5)

		png, err := QRCode(id.LookupKey, 256)
		if err != nil {
			return nil, errors.Wrapf(err, "badge %s", id.LookupKey)
		}
		name := fmt.Sprintf("qr-%d", i)
		pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))

		pdf.Rect(x, y, badgeW, badgeH, "D")
		pdf.ImageOptions(name, x+(badgeW-badgeQR)/2, y+4, badgeQR, badgeQR, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")

		pdf.SetXY(x, y+badgeQR+8)
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(badgeW, 7, orValue(id.Name, "-"), "", 2, "C", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(badgeW, 6, orValue(id.Department, "-"), "", 2, "C", false, 0, "")
		pdf.CellFormat(badgeW, 6, id.LookupKey, "", 2, "C", false, 0, "")
	}
	if len(ids) == 0 {
		pdf.AddPage()
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 10, "No RFID identities registered", "", 1, "C", false, 0, "")
	}

	return output(pdf)
}

func output(pdf *gofpdf.Fpdf) (*bytes.Buffer, error) {
	if err := pdf.Error(); err != nil {
		return nil, errors.Wrap(err, "rendering pdf")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "writing pdf")
	}
	return &buf, nil
}

func orValue(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
