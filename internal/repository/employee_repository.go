package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/pda-bills-api/internal/models"
)

const employeeColumns = `id, name, email, department, role, created_at, updated_at`

// EmployeeRepository persists employees.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository constructs the repository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create inserts an employee.
func (r *EmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	if employee.ID == "" {
		employee.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	employee.CreatedAt = now
	employee.UpdatedAt = now
	const query = `INSERT INTO employees (id, name, email, department, role, created_at, updated_at)
	VALUES (:id, :name, :email, :department, :role, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, employee); err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

// GetByID fetches an employee by identifier.
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*models.Employee, error) {
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &employee, nil
}

// List returns employees matching the filter together with the total count.
func (r *EmployeeRepository) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error) {
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	if filter.Department != nil {
		args = append(args, *filter.Department)
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)))
	}
	if filter.Role != nil {
		args = append(args, *filter.Role)
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args), len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM employees"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}
	page, size := normalisePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s FROM employees%s ORDER BY name ASC LIMIT %d OFFSET %d", employeeColumns, where, size, (page-1)*size)
	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}
	return employees, total, nil
}

// Update writes the mutable employee fields.
func (r *EmployeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	employee.UpdatedAt = time.Now().UTC()
	const query = `UPDATE employees SET name = :name, email = :email, department = :department,
	role = :role, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, employee)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check employee update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an employee.
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check employee delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// HasBills reports whether any bill references the employee.
func (r *EmployeeRepository) HasBills(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM bills WHERE employee_id = $1)`, id); err != nil {
		return false, fmt.Errorf("check employee bills: %w", err)
	}
	return exists, nil
}

// IsUniqueViolation reports whether err is a Postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
