package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders bill vouchers into a printable PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a one page voucher with a details table, the stage trail and
// a QR code pointing at the bill page.
func (e *PDFExporter) Render(v Voucher) ([]byte, error) {
	if v.BillID == "" {
		return nil, fmt.Errorf("voucher requires a bill id")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "PDA BILL VOUCHER", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	rows := [][2]string{
		{"Bill", v.BillID},
		{"Employee", v.EmployeeName},
		{"Department", v.Department},
		{"Category", v.Category},
		{"Amount", FormatAmount(v.Amount)},
		{"Status", v.Status},
		{"Submitted", v.SubmittedAt.UTC().Format("02 Jan 2006 15:04 MST")},
	}
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(40, 8, row[0], "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 8, row[1], "1", 1, "", false, 0, "")
	}
	if strings.TrimSpace(v.Description) != "" {
		pdf.Ln(3)
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, v.Description, "", "", false)
	}

	pdf.Ln(5)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(45, 8, "Stage", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 8, "Status", "1", 0, "C", false, 0, "")
	pdf.CellFormat(0, 8, "Remarks", "1", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, stage := range v.Stages {
		status := stage.Status
		if status == "" {
			status = "-"
		}
		pdf.CellFormat(45, 7, stage.Name, "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 7, status, "1", 0, "", false, 0, "")
		pdf.CellFormat(0, 7, lastLine(stage.Remark), "1", 1, "", false, 0, "")
	}

	if v.QRContent != "" {
		img, err := QRCodePNG(v.QRContent, 256)
		if err != nil {
			return nil, err
		}
		name := "qr-" + v.BillID
		pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(img))
		pdf.Ln(6)
		pdf.ImageOptions(name, 15, pdf.GetY(), 35, 35, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// lastLine keeps the table compact by printing only the newest remark entry.
func lastLine(remark string) string {
	remark = strings.TrimSpace(remark)
	if idx := strings.LastIndex(remark, "\n"); idx >= 0 {
		return remark[idx+1:]
	}
	return remark
}
