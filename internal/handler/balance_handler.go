package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pda-bills-api/internal/dto"
	"github.com/noah-isme/pda-bills-api/internal/models"
	"github.com/noah-isme/pda-bills-api/pkg/response"
)

type balanceService interface {
	Summary(ctx context.Context, employeeID string) (*models.BalanceSummary, error)
	Provision(ctx context.Context, employeeID string, balance decimal.Decimal, actorID string) (*models.BalanceAccount, error)
	History(ctx context.Context, employeeID string, page, size int) ([]models.BalanceEntry, *models.Pagination, error)
}

// BalanceHandler exposes employee balances.
type BalanceHandler struct {
	service balanceService
}

// NewBalanceHandler constructs the handler.
func NewBalanceHandler(service balanceService) *BalanceHandler {
	return &BalanceHandler{service: service}
}

// Me godoc
// @Summary Own balance
// @Tags Balances
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /balances/me [get]
func (h *BalanceHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	h.summary(c, claims.UserID)
}

// Get godoc
// @Summary Employee balance
// @Tags Balances
// @Produce json
// @Param employeeId path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /balances/{employeeId} [get]
func (h *BalanceHandler) Get(c *gin.Context) {
	h.summary(c, c.Param("employeeId"))
}

func (h *BalanceHandler) summary(c *gin.Context, employeeID string) {
	summary, err := h.service.Summary(c.Request.Context(), employeeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Provision godoc
// @Summary Provision balance
// @Description Sets the employee balance. The difference is written to the ledger.
// @Tags Balances
// @Accept json
// @Produce json
// @Param employeeId path string true "Employee ID"
// @Param payload body dto.ProvisionBalanceRequest true "Balance payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /balances/{employeeId} [put]
func (h *BalanceHandler) Provision(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	var req dto.ProvisionBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid balance payload"))
		return
	}
	account, err := h.service.Provision(c.Request.Context(), c.Param("employeeId"), req.Balance, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, account, nil)
}

// Entries godoc
// @Summary Balance ledger
// @Tags Balances
// @Produce json
// @Param employeeId path string true "Employee ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /balances/{employeeId}/entries [get]
func (h *BalanceHandler) Entries(c *gin.Context) {
	var query dto.BalanceEntriesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query"))
		return
	}
	entries, pagination, err := h.service.History(c.Request.Context(), c.Param("employeeId"), query.Page, query.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}
