package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pda-bills-api/internal/dto"
	"github.com/noah-isme/pda-bills-api/internal/middleware"
	"github.com/noah-isme/pda-bills-api/internal/models"
	appErrors "github.com/noah-isme/pda-bills-api/pkg/errors"
	"github.com/noah-isme/pda-bills-api/pkg/response"
)

// IdempotencyHeader carries the client supplied submission key.
const IdempotencyHeader = "Idempotency-Key"

type billService interface {
	Submit(ctx context.Context, req dto.CreateBillRequest, actor *models.JWTClaims, idempotencyKey string) (*models.Bill, bool, error)
	Act(ctx context.Context, id string, req dto.BillActionRequest, actor *models.JWTClaims) (*models.Bill, error)
	Edit(ctx context.Context, id string, req dto.EditBillRequest, actor *models.JWTClaims) (*models.Bill, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Bill, error)
	List(ctx context.Context, query dto.BillQuery, actor *models.JWTClaims) ([]models.Bill, *models.Pagination, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
}

// ArtifactLinker produces signed artifact links for a bill.
type ArtifactLinker interface {
	Links(bill *models.Bill) ([]models.ArtifactLink, error)
}

// BillHandler exposes the bill workflow endpoints.
type BillHandler struct {
	service   billService
	artifacts ArtifactLinker
}

// NewBillHandler constructs the handler. artifacts may be nil when artifact
// generation is disabled.
func NewBillHandler(service billService, artifacts ArtifactLinker) *BillHandler {
	return &BillHandler{service: service, artifacts: artifacts}
}

// Submit godoc
// @Summary Submit bill
// @Description Submit a bill for approval. Repeating a request with the same Idempotency-Key returns the original bill.
// @Tags Bills
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Idempotency key"
// @Param payload body dto.CreateBillRequest true "Bill payload"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope "Replayed submission"
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /bills [post]
func (h *BillHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	var req dto.CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid bill payload"))
		return
	}

	bill, replayed, err := h.service.Submit(c.Request.Context(), req, claims, c.GetHeader(IdempotencyHeader))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetReplayed(c, replayed)
	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	response.JSON(c, status, bill, nil, middleware.ExtractMeta(c))
}

// List godoc
// @Summary List bills
// @Description Employees see their own bills. Reviewers can filter by the stage awaiting them.
// @Tags Bills
// @Produce json
// @Param status query string false "Overall status"
// @Param category query string false "Category"
// @Param awaiting query string false "Stage awaiting action (snp, audit, financeAdmin or me)"
// @Param employee_id query string false "Employee ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /bills [get]
func (h *BillHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	var query dto.BillQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query"))
		return
	}

	bills, pagination, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bills, pagination)
}

// Get godoc
// @Summary Get bill
// @Tags Bills
// @Produce json
// @Param id path string true "Bill ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bills/{id} [get]
func (h *BillHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	bill, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bill, nil)
}

// Act godoc
// @Summary Apply department decision
// @Description Approve, Hold or Reject a bill at the stage owned by the caller's role. Hold and Reject require a remark.
// @Tags Bills
// @Accept json
// @Produce json
// @Param id path string true "Bill ID"
// @Param payload body dto.BillActionRequest true "Action payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bills/{id}/actions [post]
func (h *BillHandler) Act(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	var req dto.BillActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid action payload"))
		return
	}

	bill, err := h.service.Act(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bill, nil)
}

// Edit godoc
// @Summary Edit held bill
// @Description Change a bill on hold and restart its approval route.
// @Tags Bills
// @Accept json
// @Produce json
// @Param id path string true "Bill ID"
// @Param payload body dto.EditBillRequest true "Edit payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /bills/{id} [put]
func (h *BillHandler) Edit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	var req dto.EditBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid bill payload"))
		return
	}

	bill, err := h.service.Edit(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bill, nil)
}

// Delete godoc
// @Summary Delete bill
// @Description Administrative delete. The employee balance is not restored.
// @Tags Bills
// @Param id path string true "Bill ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /bills/{id} [delete]
func (h *BillHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Artifacts godoc
// @Summary Bill artifact links
// @Description Signed, expiring download links for the bill page and PDF voucher.
// @Tags Bills
// @Produce json
// @Param id path string true "Bill ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bills/{id}/artifact [get]
func (h *BillHandler) Artifacts(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	if h.artifacts == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "artifact generation is disabled"))
		return
	}
	bill, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	links, err := h.artifacts.Links(bill)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.BillArtifactsResponse{BillID: bill.ID, Artifacts: links}, nil)
}
