package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pda-bills-api/internal/models"
)

const billColumns = `id, employee_id, employee_name, employee_department, value, category, description,
       overall_status, snp_status, audit_status, finance_admin_status,
       snp_remark, audit_remark, finance_admin_remark, other_remark, version, created_at, updated_at`

var stageColumns = map[models.Stage]string{
	models.StageSNP:          "snp_status",
	models.StageAudit:        "audit_status",
	models.StageFinanceAdmin: "finance_admin_status",
}

// BillRepository persists bills.
type BillRepository struct {
	db *sqlx.DB
}

// NewBillRepository constructs the repository.
func NewBillRepository(db *sqlx.DB) *BillRepository {
	return &BillRepository{db: db}
}

// Create inserts a new bill using the supplied transaction.
func (r *BillRepository) Create(ctx context.Context, tx *sqlx.Tx, bill *models.Bill) error {
	const query = `INSERT INTO bills
	(id, employee_id, employee_name, employee_department, value, category, description,
	 overall_status, snp_status, audit_status, finance_admin_status,
	 snp_remark, audit_remark, finance_admin_remark, other_remark, version, created_at, updated_at)
	VALUES (:id, :employee_id, :employee_name, :employee_department, :value, :category, :description,
	 :overall_status, :snp_status, :audit_status, :finance_admin_status,
	 :snp_remark, :audit_remark, :finance_admin_remark, :other_remark, :version, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, bill); err != nil {
		return fmt.Errorf("create bill: %w", err)
	}
	return nil
}

// GetByID fetches a bill by identifier.
func (r *BillRepository) GetByID(ctx context.Context, id string) (*models.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE id = $1`
	var bill models.Bill
	if err := r.db.GetContext(ctx, &bill, query, id); err != nil {
		return nil, err
	}
	return &bill, nil
}

// GetForUpdate loads a bill and locks its row until the transaction ends.
func (r *BillRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE id = $1 FOR UPDATE`
	var bill models.Bill
	if err := tx.GetContext(ctx, &bill, query, id); err != nil {
		return nil, err
	}
	return &bill, nil
}

// Update writes the workflow state of a bill when its stored version still
// matches expectedVersion. It returns sql.ErrNoRows when the row changed.
func (r *BillRepository) Update(ctx context.Context, tx *sqlx.Tx, bill *models.Bill, expectedVersion int64) error {
	const query = `UPDATE bills SET
	value = :value, category = :category, description = :description,
	overall_status = :overall_status, snp_status = :snp_status, audit_status = :audit_status,
	finance_admin_status = :finance_admin_status, snp_remark = :snp_remark, audit_remark = :audit_remark,
	finance_admin_remark = :finance_admin_remark, other_remark = :other_remark,
	version = version + 1, updated_at = :updated_at
	WHERE id = :id AND version = :expected_version`
	result, err := tx.NamedExecContext(ctx, query, map[string]interface{}{
		"id":                   bill.ID,
		"value":                bill.Value,
		"category":             bill.Category,
		"description":          bill.Description,
		"overall_status":       bill.OverallStatus,
		"snp_status":           bill.SNP,
		"audit_status":         bill.Audit,
		"finance_admin_status": bill.FinanceAdmin,
		"snp_remark":           bill.SNPRemark,
		"audit_remark":         bill.AuditRemark,
		"finance_admin_remark": bill.FinanceAdminRemark,
		"other_remark":         bill.OtherRemark,
		"updated_at":           bill.UpdatedAt,
		"expected_version":     expectedVersion,
	})
	if err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check bill update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	bill.Version = expectedVersion + 1
	return nil
}

// SumInFlight totals what the employee's bills still awaiting a decision hold
// against the balance, ignoring excludeID. A bill holds its value net of the
// edit deltas already charged to the balance, so an edit increase is counted
// once.
func (r *BillRepository) SumInFlight(ctx context.Context, tx *sqlx.Tx, employeeID, excludeID string) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(b.value + COALESCE(e.charged, 0)), 0)
	FROM bills b
	LEFT JOIN (
	  SELECT bill_id, SUM(delta) AS charged FROM balance_entries
	  WHERE employee_id = $1 AND reason = $3 GROUP BY bill_id
	) e ON e.bill_id = b.id
	WHERE b.employee_id = $1 AND b.id <> $2
	  AND b.overall_status <> 'Accepted'
	  AND COALESCE(b.snp_status, '') <> 'Reject'
	  AND COALESCE(b.audit_status, '') <> 'Reject'
	  AND COALESCE(b.finance_admin_status, '') <> 'Reject'`
	var total decimal.Decimal
	if err := tx.GetContext(ctx, &total, query, employeeID, excludeID, models.BalanceReasonBillEdit); err != nil {
		return decimal.Zero, fmt.Errorf("sum in-flight bills: %w", err)
	}
	return total, nil
}

// List returns bills matching the filter together with the total count.
func (r *BillRepository) List(ctx context.Context, filter models.BillFilter) ([]models.Bill, int, error) {
	conditions := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("overall_status = $%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.AwaitingStage != nil {
		column, ok := stageColumns[*filter.AwaitingStage]
		if !ok {
			return nil, 0, fmt.Errorf("unknown stage %q", *filter.AwaitingStage)
		}
		conditions = append(conditions, column+" IN ('Pending', 'Hold')")
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM bills"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count bills: %w", err)
	}

	page, size := normalisePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s FROM bills%s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		billColumns, where, size, (page-1)*size)
	var bills []models.Bill
	if err := r.db.SelectContext(ctx, &bills, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bills: %w", err)
	}
	return bills, total, nil
}

// Delete removes a bill.
func (r *BillRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bills WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check bill delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func normalisePage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
