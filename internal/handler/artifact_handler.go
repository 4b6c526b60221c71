package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pda-bills-api/internal/service"
	appErrors "github.com/noah-isme/pda-bills-api/pkg/errors"
	"github.com/noah-isme/pda-bills-api/pkg/response"
)

type artifactOpener interface {
	Open(token string) (*service.ArtifactFile, error)
}

// ArtifactHandler serves rendered artifacts behind signed tokens.
type ArtifactHandler struct {
	artifacts artifactOpener
}

// NewArtifactHandler constructs the handler.
func NewArtifactHandler(artifacts artifactOpener) *ArtifactHandler {
	return &ArtifactHandler{artifacts: artifacts}
}

// Download godoc
// @Summary Download artifact
// @Description Streams a bill page or voucher. The token is the credential; no bearer token is needed.
// @Tags Artifacts
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /artifacts/download [get]
func (h *ArtifactHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, err := h.artifacts.Open(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.File.Close()

	info, err := file.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Storage(err, "failed to stat artifact"))
		return
	}
	c.Header("Cache-Control", "private, max-age=60")
	c.DataFromReader(http.StatusOK, info.Size(), file.ContentType, file.File, map[string]string{
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", file.Name),
	})
}
