package dto

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pda-bills-api/internal/models"
)

// CreateBillRequest payload for submitting a bill.
type CreateBillRequest struct {
	Category    models.Category `json:"category" validate:"required,oneof=Minor Major Consumables"`
	Value       decimal.Decimal `json:"value" swaggertype:"string" example:"10000.00"`
	Description string          `json:"description" validate:"max=2000"`
}

// BillActionRequest captures a department decision.
// Stage is optional; when set it must match the stage of the acting role.
type BillActionRequest struct {
	Action models.Action `json:"action" validate:"required,oneof=Approve Hold Reject"`
	Stage  models.Stage  `json:"stage" validate:"omitempty,oneof=snp audit financeAdmin"`
	Remark string        `json:"remark" validate:"max=2000"`
}

// EditBillRequest updates a bill that is on hold.
type EditBillRequest struct {
	Category    models.Category `json:"category" validate:"required,oneof=Minor Major Consumables"`
	Value       decimal.Decimal `json:"value" swaggertype:"string" example:"12000.00"`
	Description *string         `json:"description" validate:"omitempty,max=2000"`
	Note        string          `json:"note" validate:"max=2000"`
}

// BillQuery mirrors supported listing filters.
type BillQuery struct {
	Status     string `form:"status"`
	Category   string `form:"category"`
	Awaiting   string `form:"awaiting"`
	EmployeeID string `form:"employee_id"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

// BillArtifactsResponse lists download links for a bill's artifacts.
type BillArtifactsResponse struct {
	BillID    string                `json:"bill_id"`
	Artifacts []models.ArtifactLink `json:"artifacts"`
}
