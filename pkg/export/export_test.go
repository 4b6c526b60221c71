package export

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleVoucher() Voucher {
	return Voucher{
		BillID:       "bill-1",
		EmployeeName: "Asha <Rao>",
		Department:   "CSE",
		Category:     "Major",
		Amount:       decimal.NewFromInt(60000),
		Status:       "Audit",
		SubmittedAt:  time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Stages: []StageLine{
			{Name: "Student Purchase", Status: "Approved", Remark: "[2026-03-01T10:00:00Z] snp: ok"},
			{Name: "Audit", Status: "Pending"},
			{Name: "Finance Admin"},
		},
		QRContent: "http://localhost:8080/bills/bill-1",
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "60,000.00", FormatAmount(decimal.NewFromInt(60000)))
	assert.Equal(t, "1,234.57", FormatAmount(decimal.RequireFromString("1234.567")))
}

func TestQRCodePNG(t *testing.T) {
	data, err := QRCodePNG("bill-1", 128)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())

	_, err = QRCodePNG("", 128)
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleVoucher())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().Render(Voucher{})
	assert.Error(t, err)
}

func TestHTMLExporterRender(t *testing.T) {
	exporter, err := NewHTMLExporter()
	require.NoError(t, err)

	out, err := exporter.Render(sampleVoucher())
	require.NoError(t, err)
	page := string(out)
	assert.Contains(t, page, "60,000.00")
	assert.Contains(t, page, "Asha &lt;Rao&gt;")
	assert.Contains(t, page, "data:image/png;base64,")
	assert.Contains(t, page, "snp: ok")
}
