package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies a bill for routing.
type Category string

const (
	CategoryMinor       Category = "Minor"
	CategoryMajor       Category = "Major"
	CategoryConsumables Category = "Consumables"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryMinor, CategoryMajor, CategoryConsumables:
		return true
	}
	return false
}

// Stage identifies one reviewing department's slot on a bill.
type Stage string

const (
	StageSNP          Stage = "snp"
	StageAudit        Stage = "audit"
	StageFinanceAdmin Stage = "financeAdmin"
)

// Stages lists the review slots in chain order.
var Stages = []Stage{StageSNP, StageAudit, StageFinanceAdmin}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	switch s {
	case StageSNP, StageAudit, StageFinanceAdmin:
		return true
	}
	return false
}

// OverallStatus returns the status value naming the stage's department.
func (s Stage) OverallStatus() OverallStatus {
	switch s {
	case StageSNP:
		return OverallStudentPurchase
	case StageAudit:
		return OverallAudit
	case StageFinanceAdmin:
		return OverallFinanceAdmin
	}
	return OverallUser
}

// StageStatus is the sub-status of one stage. The empty value means the stage
// is not part of the bill's current route and is stored as NULL.
type StageStatus string

const (
	StatusNone     StageStatus = ""
	StatusPending  StageStatus = "Pending"
	StatusHold     StageStatus = "Hold"
	StatusReject   StageStatus = "Reject"
	StatusApproved StageStatus = "Approved"
)

// Scan implements sql.Scanner.
func (s *StageStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = StatusNone
	case string:
		*s = StageStatus(v)
	case []byte:
		*s = StageStatus(v)
	default:
		return fmt.Errorf("unsupported stage status type %T", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (s StageStatus) Value() (driver.Value, error) {
	if s == StatusNone {
		return nil, nil
	}
	return string(s), nil
}

// MarshalJSON renders an empty stage as null.
func (s StageStatus) MarshalJSON() ([]byte, error) {
	if s == StatusNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

// UnmarshalJSON accepts null for an empty stage.
func (s *StageStatus) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = StatusNone
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = StageStatus(raw)
	return nil
}

// OverallStatus names the department currently owning a bill, or Accepted.
type OverallStatus string

const (
	OverallUser            OverallStatus = "User"
	OverallStudentPurchase OverallStatus = "Student Purchase"
	OverallAudit           OverallStatus = "Audit"
	OverallFinanceAdmin    OverallStatus = "Finance Admin"
	OverallAccepted        OverallStatus = "Accepted"
)

// Action is a reviewing department's decision on a bill.
type Action string

const (
	ActionApprove Action = "Approve"
	ActionHold    Action = "Hold"
	ActionReject  Action = "Reject"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionApprove, ActionHold, ActionReject:
		return true
	}
	return false
}

// Bill is a purchase bill moving through the approval chain.
type Bill struct {
	ID                 string          `db:"id" json:"id"`
	EmployeeID         string          `db:"employee_id" json:"employeeId"`
	EmployeeName       string          `db:"employee_name" json:"employeeName"`
	EmployeeDepartment Department      `db:"employee_department" json:"employeeDepartment"`
	Value              decimal.Decimal `db:"value" json:"value"`
	Category           Category        `db:"category" json:"category"`
	Description        string          `db:"description" json:"description"`
	OverallStatus      OverallStatus   `db:"overall_status" json:"overallStatus"`
	SNP                StageStatus     `db:"snp_status" json:"snp"`
	Audit              StageStatus     `db:"audit_status" json:"audit"`
	FinanceAdmin       StageStatus     `db:"finance_admin_status" json:"financeAdmin"`
	SNPRemark          string          `db:"snp_remark" json:"snpRemark"`
	AuditRemark        string          `db:"audit_remark" json:"auditRemark"`
	FinanceAdminRemark string          `db:"finance_admin_remark" json:"financeAdminRemark"`
	OtherRemark        string          `db:"other_remark" json:"otherRemark"`
	Version            int64           `db:"version" json:"version"`
	CreatedAt          time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updatedAt"`
}

// StageStatus returns the sub-status of the given stage.
func (b *Bill) StageStatus(stage Stage) StageStatus {
	switch stage {
	case StageSNP:
		return b.SNP
	case StageAudit:
		return b.Audit
	case StageFinanceAdmin:
		return b.FinanceAdmin
	}
	return StatusNone
}

// SetStageStatus updates the sub-status of the given stage.
func (b *Bill) SetStageStatus(stage Stage, status StageStatus) {
	switch stage {
	case StageSNP:
		b.SNP = status
	case StageAudit:
		b.Audit = status
	case StageFinanceAdmin:
		b.FinanceAdmin = status
	}
}

// RemarkSlot returns a pointer to the remark field of the given stage.
func (b *Bill) RemarkSlot(stage Stage) *string {
	switch stage {
	case StageSNP:
		return &b.SNPRemark
	case StageAudit:
		return &b.AuditRemark
	case StageFinanceAdmin:
		return &b.FinanceAdminRemark
	}
	return &b.OtherRemark
}

// BillFilter constrains listing queries.
type BillFilter struct {
	EmployeeID    string
	Status        *OverallStatus
	Category      *Category
	AwaitingStage *Stage
	Page          int
	PageSize      int
}
