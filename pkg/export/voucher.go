package export

import (
	"bytes"
	"fmt"
	"image/png"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// StageLine is one approval stage as printed on an artifact.
type StageLine struct {
	Name   string
	Status string
	Remark string
}

// Voucher carries the bill data rendered into the HTML page and PDF voucher.
type Voucher struct {
	BillID       string
	EmployeeName string
	Department   string
	Category     string
	Amount       decimal.Decimal
	Status       string
	Description  string
	SubmittedAt  time.Time
	Stages       []StageLine
	// QRContent is encoded into the QR code, usually the bill's public URL.
	QRContent string
}

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders a monetary amount with grouping and two decimals.
func FormatAmount(d decimal.Decimal) string {
	return amountPrinter.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

// QRCodePNG encodes content as a square QR code PNG of the given pixel size.
func QRCodePNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qr content required")
	}
	if size <= 0 {
		size = 256
	}
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("scale qr: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, scaled); err != nil {
		return nil, fmt.Errorf("encode qr png: %w", err)
	}
	return buf.Bytes(), nil
}
