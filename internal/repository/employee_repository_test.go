package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pda-bills-api/internal/models"
)

func TestEmployeeRepositoryCreateAndGet(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewEmployeeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO employees")).WillReturnResult(sqlmock.NewResult(1, 1))
	employee := &models.Employee{Name: "Asha", Email: "asha@example.edu", Department: models.DepartmentCSE, Role: models.RoleEmployee}
	require.NoError(t, repo.Create(context.Background(), employee))
	require.NotEmpty(t, employee.ID)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, department, role")).
		WithArgs(employee.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "department", "role", "created_at", "updated_at"}).
			AddRow(employee.ID, "Asha", "asha@example.edu", "CSE", "EMPLOYEE", now, now))
	found, err := repo.GetByID(context.Background(), employee.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DepartmentCSE, found.Department)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryListSearch(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewEmployeeRepository(db)
	role := models.RoleSNP

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM employees WHERE role = $1 AND (LOWER(name) LIKE $2 OR LOWER(email) LIKE $2)")).
		WithArgs(role, "%ravi%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY name ASC")).
		WithArgs(role, "%ravi%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "department", "role", "created_at", "updated_at"}))

	list, total, err := repo.List(context.Background(), models.EmployeeFilter{Role: &role, Search: " Ravi "})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryHasBillsAndDelete(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewEmployeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM bills WHERE employee_id = $1)")).
		WithArgs("emp-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	has, err := repo.HasBills(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.True(t, has)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM employees")).WithArgs("emp-2").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "emp-2"), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("create employee: %w", &pq.Error{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}
