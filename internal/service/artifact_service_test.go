package service

import (
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pda-bills-api/internal/models"
	appErrors "github.com/noah-isme/pda-bills-api/pkg/errors"
	"github.com/noah-isme/pda-bills-api/pkg/export"
	"github.com/noah-isme/pda-bills-api/pkg/storage"
)

type capturingRenderer struct {
	prefix   string
	vouchers []export.Voucher
}

func (r *capturingRenderer) Render(v export.Voucher) ([]byte, error) {
	r.vouchers = append(r.vouchers, v)
	return []byte(r.prefix + v.BillID), nil
}

func newArtifactFixture(t *testing.T) (*ArtifactService, *storage.LocalStorage, *capturingRenderer) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	html := &capturingRenderer{prefix: "<html>"}
	svc := NewArtifactService(store, storage.NewSignedURLSigner("secret", time.Minute), html, &capturingRenderer{prefix: "%PDF"}, ArtifactConfig{
		PublicBaseURL: "https://bills.example.com",
		APIPrefix:     "/api/v1",
		RetryDelay:    10 * time.Millisecond,
	}, NewMetricsService(), nil)
	return svc, store, html
}

func artifactBill() models.Bill {
	return models.Bill{
		ID:                 "bill-1",
		EmployeeName:       "Asha",
		EmployeeDepartment: models.DepartmentCSE,
		Category:           models.CategoryMajor,
		Value:              decimal.NewFromInt(60000),
		OverallStatus:      models.OverallAudit,
		SNP:                models.StatusApproved,
		Audit:              models.StatusPending,
		SNPRemark:          "[2026-03-01T09:30:00Z] Ravi: ok",
		OtherRemark:        "[2026-03-01T09:00:00Z] Asha: urgent",
		CreatedAt:          fixedNow,
	}
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	return parsed.Query().Get("token")
}

func TestArtifactServiceRenderAndDownload(t *testing.T) {
	svc, _, html := newArtifactFixture(t)
	bill := artifactBill()

	links, err := svc.Links(&bill)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.False(t, links[0].Ready)
	assert.True(t, strings.HasPrefix(links[0].URL, "https://bills.example.com/api/v1/artifacts/download?token="))

	_, err = svc.Open(tokenFromLink(t, links[1].URL))
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	require.NoError(t, svc.Render(context.Background(), bill))
	require.Len(t, html.vouchers, 1)
	voucher := html.vouchers[0]
	assert.Equal(t, "https://bills.example.com/api/v1/bills/bill-1", voucher.QRContent)
	require.Len(t, voucher.Stages, 4)
	assert.Equal(t, "Student Purchase", voucher.Stages[0].Name)
	assert.Equal(t, "Approved", voucher.Stages[0].Status)
	assert.Equal(t, "Other", voucher.Stages[3].Name)

	links, err = svc.Links(&bill)
	require.NoError(t, err)
	assert.True(t, links[0].Ready)
	assert.True(t, links[1].Ready)

	file, err := svc.Open(tokenFromLink(t, links[1].URL))
	require.NoError(t, err)
	defer file.File.Close()
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, "bill-1-voucher.pdf", file.Name)
	body, err := io.ReadAll(file.File)
	require.NoError(t, err)
	assert.Equal(t, "%PDFbill-1", string(body))
}

func TestArtifactServiceRejectsBadTokens(t *testing.T) {
	svc, _, _ := newArtifactFixture(t)

	_, err := svc.Open("garbage")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	other := storage.NewSignedURLSigner("other", time.Minute)
	token, _, err := other.Sign("bill-1", "bills/bill-1/page.html")
	require.NoError(t, err)
	_, err = svc.Open(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestArtifactServiceScheduleAndRemove(t *testing.T) {
	svc, store, _ := newArtifactFixture(t)
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)
	bill := artifactBill()

	svc.Schedule(bill)
	assert.Eventually(t, func() bool {
		return store.Exists("bills/bill-1/page.html") && store.Exists("bills/bill-1/voucher.pdf")
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, svc.Remove(bill.ID))
	assert.False(t, store.Exists("bills/bill-1/page.html"))

	var nilSvc *ArtifactService
	assert.NotPanics(t, func() { nilSvc.Schedule(bill) })
	assert.NoError(t, nilSvc.Remove(bill.ID))
}
