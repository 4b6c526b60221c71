package service

import (
	"context"
	"errors"
	"os"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pda-bills-api/internal/models"
	appErrors "github.com/noah-isme/pda-bills-api/pkg/errors"
	"github.com/noah-isme/pda-bills-api/pkg/export"
	"github.com/noah-isme/pda-bills-api/pkg/jobs"
	"github.com/noah-isme/pda-bills-api/pkg/storage"
)

type artifactStorage interface {
	Save(relPath string, data []byte) (string, error)
	Open(relPath string) (*os.File, error)
	Exists(relPath string) bool
	DeleteDir(relDir string) error
}

type downloadSigner interface {
	Sign(billID, relPath string) (string, time.Time, error)
	Verify(token string) (*storage.Grant, error)
}

type voucherRenderer interface {
	Render(v export.Voucher) ([]byte, error)
}

// ArtifactConfig tunes artifact generation.
type ArtifactConfig struct {
	PublicBaseURL string
	APIPrefix     string
	Workers       int
	MaxRetries    int
	RetryDelay    time.Duration
}

// ArtifactFile is an opened artifact ready to stream.
type ArtifactFile struct {
	File        *os.File
	Name        string
	ContentType string
}

var artifactFiles = map[models.ArtifactKind]struct {
	name        string
	contentType string
}{
	models.ArtifactHTML: {name: "page.html", contentType: "text/html; charset=utf-8"},
	models.ArtifactPDF:  {name: "voucher.pdf", contentType: "application/pdf"},
}

// ArtifactService renders the static bill page and PDF voucher in the
// background and hands out signed download links.
type ArtifactService struct {
	storage artifactStorage
	signer  downloadSigner
	html    voucherRenderer
	pdf     voucherRenderer
	queue   *jobs.Queue[models.Bill]
	cfg     ArtifactConfig
	metrics *MetricsService
	logger  *zap.Logger
}

// NewArtifactService constructs the artifact generator.
func NewArtifactService(store artifactStorage, signer downloadSigner, html, pdf voucherRenderer, cfg ArtifactConfig, metrics *MetricsService, logger *zap.Logger) *ArtifactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ArtifactService{storage: store, signer: signer, html: html, pdf: pdf, cfg: cfg, metrics: metrics, logger: logger}
	svc.queue = jobs.NewQueue("artifacts", func(ctx context.Context, job jobs.Job[models.Bill]) error {
		return svc.Render(ctx, job.Payload)
	}, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return svc
}

// Start launches the render workers.
func (s *ArtifactService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop halts the render workers.
func (s *ArtifactService) Stop() {
	s.queue.Stop()
}

// Schedule queues a re-render of the bill's artifacts.
func (s *ArtifactService) Schedule(bill models.Bill) {
	if s == nil {
		return
	}
	job := jobs.Job[models.Bill]{ID: bill.ID + ":" + time.Now().UTC().Format(time.RFC3339Nano), Type: "render", Payload: bill}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to schedule artifact render", zap.String("bill_id", bill.ID), zap.Error(err))
	}
}

// Render writes both artifacts for bill.
func (s *ArtifactService) Render(_ context.Context, bill models.Bill) error {
	voucher := s.voucher(bill)
	for _, kind := range []models.ArtifactKind{models.ArtifactHTML, models.ArtifactPDF} {
		renderer := s.html
		if kind == models.ArtifactPDF {
			renderer = s.pdf
		}
		data, err := renderer.Render(voucher)
		if err == nil {
			_, err = s.storage.Save(artifactPath(bill.ID, kind), data)
		}
		s.metrics.RecordArtifact(kind, err)
		if err != nil {
			return err
		}
	}
	s.logger.Debug("artifacts rendered", zap.String("bill_id", bill.ID))
	return nil
}

// Links returns signed download links for the bill's artifacts.
func (s *ArtifactService) Links(bill *models.Bill) ([]models.ArtifactLink, error) {
	links := make([]models.ArtifactLink, 0, len(artifactFiles))
	for _, kind := range []models.ArtifactKind{models.ArtifactHTML, models.ArtifactPDF} {
		rel := artifactPath(bill.ID, kind)
		token, expiresAt, err := s.signer.Sign(bill.ID, rel)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign artifact link")
		}
		links = append(links, models.ArtifactLink{
			Kind:      kind,
			URL:       s.cfg.PublicBaseURL + s.cfg.APIPrefix + "/artifacts/download?token=" + token,
			Ready:     s.storage.Exists(rel),
			ExpiresAt: expiresAt,
		})
	}
	return links, nil
}

// Open validates a download token and opens the referenced artifact.
func (s *ArtifactService) Open(token string) (*ArtifactFile, error) {
	grant, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid download token")
	}
	name := path.Base(grant.Path)
	contentType := "application/octet-stream"
	for _, meta := range artifactFiles {
		if meta.name == name {
			contentType = meta.contentType
		}
	}
	file, err := s.storage.Open(grant.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "artifact not rendered yet")
		}
		return nil, appErrors.Storage(err, "failed to open artifact")
	}
	return &ArtifactFile{File: file, Name: grant.BillID + "-" + name, ContentType: contentType}, nil
}

// Remove deletes all artifacts of a bill.
func (s *ArtifactService) Remove(billID string) error {
	if s == nil {
		return nil
	}
	return s.storage.DeleteDir(path.Join("bills", billID))
}

func (s *ArtifactService) voucher(bill models.Bill) export.Voucher {
	stages := make([]export.StageLine, 0, len(models.Stages)+1)
	for _, stage := range models.Stages {
		stages = append(stages, export.StageLine{
			Name:   string(stage.OverallStatus()),
			Status: string(bill.StageStatus(stage)),
			Remark: *bill.RemarkSlot(stage),
		})
	}
	if bill.OtherRemark != "" {
		stages = append(stages, export.StageLine{Name: "Other", Remark: bill.OtherRemark})
	}
	return export.Voucher{
		BillID:       bill.ID,
		EmployeeName: bill.EmployeeName,
		Department:   string(bill.EmployeeDepartment),
		Category:     string(bill.Category),
		Amount:       bill.Value,
		Status:       string(bill.OverallStatus),
		Description:  bill.Description,
		SubmittedAt:  bill.CreatedAt,
		Stages:       stages,
		QRContent:    s.cfg.PublicBaseURL + s.cfg.APIPrefix + "/bills/" + bill.ID,
	}
}

func artifactPath(billID string, kind models.ArtifactKind) string {
	return path.Join("bills", billID, artifactFiles[kind].name)
}
