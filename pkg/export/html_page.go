package export

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/bill_page.html
var templates embed.FS

// HTMLExporter renders the static bill page with an inline QR code.
type HTMLExporter struct {
	tpl *template.Template
}

// NewHTMLExporter parses the embedded page template.
func NewHTMLExporter() (*HTMLExporter, error) {
	funcMap := template.FuncMap{
		"formatAmount": FormatAmount,
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format("02 Jan 2006 15:04 MST")
		},
		"remarkLines": func(s string) []string {
			s = strings.TrimSpace(s)
			if s == "" {
				return nil
			}
			return strings.Split(s, "\n")
		},
	}
	tpl, err := template.New("bill_page.html").Funcs(funcMap).ParseFS(templates, "templates/bill_page.html")
	if err != nil {
		return nil, fmt.Errorf("parse bill page template: %w", err)
	}
	return &HTMLExporter{tpl: tpl}, nil
}

type pageData struct {
	Voucher
	QRDataURI template.URL
}

// Render executes the page template for the voucher.
func (e *HTMLExporter) Render(v Voucher) ([]byte, error) {
	if e == nil || e.tpl == nil {
		return nil, fmt.Errorf("html exporter not initialised")
	}
	data := pageData{Voucher: v}
	if v.QRContent != "" {
		img, err := QRCodePNG(v.QRContent, 200)
		if err != nil {
			return nil, err
		}
		data.QRDataURI = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(img))
	}
	buf := &bytes.Buffer{}
	if err := e.tpl.Execute(buf, data); err != nil {
		return nil, fmt.Errorf("render bill page: %w", err)
	}
	return buf.Bytes(), nil
}
