package dto

import "github.com/noah-isme/pda-bills-api/internal/models"

// CreateEmployeeRequest payload for registering an employee.
type CreateEmployeeRequest struct {
	ID         string            `json:"id" validate:"omitempty,max=64"`
	Name       string            `json:"name" validate:"required,max=200"`
	Email      string            `json:"email" validate:"required,email"`
	Department models.Department `json:"department" validate:"required,department"`
	Role       models.Role       `json:"role" validate:"required,role"`
}

// UpdateEmployeeRequest holds the mutable employee fields.
type UpdateEmployeeRequest struct {
	Name       *string            `json:"name" validate:"omitempty,max=200"`
	Email      *string            `json:"email" validate:"omitempty,email"`
	Department *models.Department `json:"department" validate:"omitempty,department"`
	Role       *models.Role       `json:"role" validate:"omitempty,role"`
}

// EmployeeQuery mirrors supported listing filters.
type EmployeeQuery struct {
	Department string `form:"department"`
	Role       string `form:"role"`
	Search     string `form:"search"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}
