package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/pda-bills-api/internal/models"
	appErrors "github.com/noah-isme/pda-bills-api/pkg/errors"
)

// Command is a department decision applied to a bill.
type Command struct {
	Stage  models.Stage
	Action models.Action
	Remark string
	Actor  string
	At     time.Time
}

// Change describes an edit of a held bill.
type Change struct {
	Category    models.Category
	Value       decimal.Decimal
	Description *string
	Note        string
	Actor       string
	At          time.Time
}

// IsTerminal reports whether the bill was rejected or fully approved.
func IsTerminal(b *models.Bill) bool {
	if b.FinanceAdmin == models.StatusApproved {
		return true
	}
	for _, stage := range models.Stages {
		if b.StageStatus(stage) == models.StatusReject {
			return true
		}
	}
	return false
}

// OwnerStage returns the stage that is Pending or on Hold. It returns false
// for terminal bills.
func OwnerStage(b *models.Bill) (models.Stage, bool) {
	if IsTerminal(b) {
		return "", false
	}
	for _, stage := range models.Stages {
		switch b.StageStatus(stage) {
		case models.StatusPending, models.StatusHold:
			return stage, true
		}
	}
	return "", false
}

// InFlight reports whether the bill still awaits a decision.
func InFlight(b *models.Bill) bool {
	_, ok := OwnerStage(b)
	return ok
}

// CheckConsistency verifies the single owner invariant: an in-flight bill has
// exactly one Pending or Hold stage, earlier stages are Approved or empty and
// later stages are empty.
func CheckConsistency(b *models.Bill) error {
	if b.FinanceAdmin == models.StatusApproved {
		if b.OverallStatus != models.OverallAccepted {
			return fmt.Errorf("accepted bill has status %q", b.OverallStatus)
		}
		return nil
	}
	owner := -1
	for i, stage := range models.Stages {
		switch b.StageStatus(stage) {
		case models.StatusPending, models.StatusHold, models.StatusReject:
			if owner >= 0 {
				return fmt.Errorf("stages %s and %s both active", models.Stages[owner], stage)
			}
			owner = i
		}
	}
	if owner < 0 {
		return fmt.Errorf("bill has no owning stage")
	}
	for i, stage := range models.Stages {
		status := b.StageStatus(stage)
		if i < owner && status != models.StatusApproved && status != models.StatusNone {
			return fmt.Errorf("stage %s before owner has status %q", stage, status)
		}
		if i > owner && status != models.StatusNone {
			return fmt.Errorf("stage %s after owner has status %q", stage, status)
		}
	}
	if b.OverallStatus != models.Stages[owner].OverallStatus() {
		return fmt.Errorf("status %q does not name owner %s", b.OverallStatus, models.Stages[owner])
	}
	return nil
}

// Apply runs one department decision against a bill and returns the new state.
// Hold and Reject additionally return the notification to deliver. The input
// bill is never modified.
func (p Policy) Apply(current models.Bill, cmd Command) (models.Bill, *models.NotificationEvent, error) {
	next := current
	if IsTerminal(&current) {
		return current, nil, appErrors.ErrBillTerminal
	}
	if !cmd.Action.Valid() {
		return current, nil, appErrors.Clone(appErrors.ErrValidation, "action must be one of Approve, Hold, Reject")
	}
	owner, ok := OwnerStage(&current)
	if !ok || owner != cmd.Stage {
		return current, nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("the %s stage does not own this bill", cmd.Stage))
	}
	remark := strings.TrimSpace(cmd.Remark)
	if cmd.Action != models.ActionApprove && remark == "" {
		return current, nil, appErrors.ErrRemarkRequired
	}

	slot := next.RemarkSlot(owner)
	*slot = AppendRemark(*slot, cmd.Actor, remark, cmd.At)
	next.UpdatedAt = cmd.At

	switch cmd.Action {
	case models.ActionApprove:
		next.SetStageStatus(owner, models.StatusApproved)
		switch owner {
		case models.StageSNP:
			post := p.ComputePostSNPRoute(current.Value)
			next.Audit = post.Audit
			next.FinanceAdmin = post.FinanceAdmin
			next.OverallStatus = post.Status
		case models.StageAudit:
			next.FinanceAdmin = models.StatusPending
			next.OverallStatus = models.OverallFinanceAdmin
		case models.StageFinanceAdmin:
			next.OverallStatus = models.OverallAccepted
		}
		return next, nil, nil
	case models.ActionHold:
		next.SetStageStatus(owner, models.StatusHold)
	case models.ActionReject:
		next.SetStageStatus(owner, models.StatusReject)
	}
	next.OverallStatus = owner.OverallStatus()

	event := &models.NotificationEvent{
		BillID:     current.ID,
		EmployeeID: current.EmployeeID,
		Department: owner.OverallStatus(),
		Stage:      owner,
		Action:     cmd.Action,
		Remark:     remark,
		Actor:      cmd.Actor,
		Timestamp:  cmd.At,
	}
	return next, event, nil
}

// Edit applies a change to a held bill and restarts the approval chain from
// the freshly computed route. Prior approvals are discarded.
func (p Policy) Edit(current models.Bill, change Change) (models.Bill, error) {
	if IsTerminal(&current) {
		return current, appErrors.ErrBillTerminal
	}
	owner, ok := OwnerStage(&current)
	if !ok || current.StageStatus(owner) != models.StatusHold {
		return current, appErrors.Clone(appErrors.ErrInvalidTransition, "bill can only be edited while on hold")
	}
	if err := p.Validate(change.Category, change.Value); err != nil {
		return current, err
	}

	next := current
	next.Category = change.Category
	next.Value = change.Value
	if change.Description != nil {
		next.Description = strings.TrimSpace(*change.Description)
	}
	p.ComputeInitialRoute(change.Category, change.Value).apply(&next)
	next.OtherRemark = AppendRemark(next.OtherRemark, change.Actor, change.Note, change.At)
	next.UpdatedAt = change.At
	return next, nil
}

// NewBill builds the initial state of a submitted bill.
func (p Policy) NewBill(id string, owner models.Employee, category models.Category, value decimal.Decimal, description string, at time.Time) (models.Bill, error) {
	if err := p.Validate(category, value); err != nil {
		return models.Bill{}, err
	}
	bill := models.Bill{
		ID:                 id,
		EmployeeID:         owner.ID,
		EmployeeName:       owner.Name,
		EmployeeDepartment: owner.Department,
		Value:              value,
		Category:           category,
		Description:        strings.TrimSpace(description),
		Version:            1,
		CreatedAt:          at,
		UpdatedAt:          at,
	}
	p.ComputeInitialRoute(category, value).apply(&bill)
	return bill, nil
}
