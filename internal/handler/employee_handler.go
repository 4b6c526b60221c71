package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pda-bills-api/internal/dto"
	"github.com/noah-isme/pda-bills-api/internal/models"
	"github.com/noah-isme/pda-bills-api/pkg/response"
)

type employeeService interface {
	List(ctx context.Context, query dto.EmployeeQuery) ([]models.Employee, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Employee, error)
	Create(ctx context.Context, req dto.CreateEmployeeRequest) (*models.Employee, error)
	Update(ctx context.Context, id string, req dto.UpdateEmployeeRequest) (*models.Employee, error)
	Delete(ctx context.Context, id string) error
}

// EmployeeHandler handles employee directory endpoints.
type EmployeeHandler struct {
	service employeeService
}

// NewEmployeeHandler creates a new employee handler.
func NewEmployeeHandler(service employeeService) *EmployeeHandler {
	return &EmployeeHandler{service: service}
}

// List godoc
// @Summary List employees
// @Tags Employees
// @Produce json
// @Param department query string false "Department"
// @Param role query string false "Role"
// @Param search query string false "Name or email search"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /employees [get]
func (h *EmployeeHandler) List(c *gin.Context) {
	var query dto.EmployeeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query"))
		return
	}
	employees, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employees, pagination)
}

// Get godoc
// @Summary Get employee
// @Tags Employees
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /employees/{id} [get]
func (h *EmployeeHandler) Get(c *gin.Context) {
	employee, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// Create godoc
// @Summary Create employee
// @Tags Employees
// @Accept json
// @Produce json
// @Param payload body dto.CreateEmployeeRequest true "Employee payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /employees [post]
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req dto.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid employee payload"))
		return
	}
	employee, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, employee)
}

// Update godoc
// @Summary Update employee
// @Tags Employees
// @Accept json
// @Produce json
// @Param id path string true "Employee ID"
// @Param payload body dto.UpdateEmployeeRequest true "Employee payload"
// @Success 200 {object} response.Envelope
// @Router /employees/{id} [put]
func (h *EmployeeHandler) Update(c *gin.Context) {
	var req dto.UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid employee payload"))
		return
	}
	employee, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// Delete godoc
// @Summary Delete employee
// @Description Only employees without bills can be deleted.
// @Tags Employees
// @Param id path string true "Employee ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /employees/{id} [delete]
func (h *EmployeeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
