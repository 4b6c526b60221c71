package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/pda-bills-api/internal/dto"
	"github.com/noah-isme/pda-bills-api/internal/models"
	"github.com/noah-isme/pda-bills-api/internal/repository"
	appErrors "github.com/noah-isme/pda-bills-api/pkg/errors"
)

type employeeRepository interface {
	Create(ctx context.Context, employee *models.Employee) error
	GetByID(ctx context.Context, id string) (*models.Employee, error)
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error)
	Update(ctx context.Context, employee *models.Employee) error
	Delete(ctx context.Context, id string) error
	HasBills(ctx context.Context, id string) (bool, error)
}

// RegisterValidations adds the department and role tags used by the DTOs.
func RegisterValidations(v *validator.Validate) {
	_ = v.RegisterValidation("department", func(fl validator.FieldLevel) bool {
		return models.Department(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.Role(fl.Field().String()).Valid()
	})
}

// EmployeeService manages the employee directory.
type EmployeeService struct {
	repo      employeeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEmployeeService creates an instance of EmployeeService.
func NewEmployeeService(repo employeeRepository, validate *validator.Validate, logger *zap.Logger) *EmployeeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	RegisterValidations(validate)
	return &EmployeeService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated employees.
func (s *EmployeeService) List(ctx context.Context, query dto.EmployeeQuery) ([]models.Employee, *models.Pagination, error) {
	filter := models.EmployeeFilter{Search: query.Search, Page: query.Page, PageSize: query.PageSize}
	if query.Department != "" {
		department := models.Department(strings.ToUpper(query.Department))
		if !department.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown department")
		}
		filter.Department = &department
	}
	if query.Role != "" {
		role := models.Role(strings.ToUpper(query.Role))
		if !role.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
		}
		filter.Role = &role
	}

	employees, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Storage(err, "failed to list employees")
	}
	page, size := pageDefaults(query.Page, query.PageSize)
	return employees, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns an employee by ID.
func (s *EmployeeService) Get(ctx context.Context, id string) (*models.Employee, error) {
	employee, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Storage(err, "failed to load employee")
	}
	return employee, nil
}

// Create registers an employee.
func (s *EmployeeService) Create(ctx context.Context, req dto.CreateEmployeeRequest) (*models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create employee payload")
	}
	employee := &models.Employee{
		ID:         strings.TrimSpace(req.ID),
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Department: req.Department,
		Role:       req.Role,
	}
	if err := s.repo.Create(ctx, employee); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "employee id or email already exists")
		}
		return nil, appErrors.Storage(err, "failed to create employee")
	}
	s.logger.Info("employee created", zap.String("employee_id", employee.ID), zap.String("role", string(employee.Role)))
	return employee, nil
}

// Update changes the mutable fields of an employee.
func (s *EmployeeService) Update(ctx context.Context, id string, req dto.UpdateEmployeeRequest) (*models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update employee payload")
	}
	employee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		employee.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		employee.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Department != nil {
		employee.Department = *req.Department
	}
	if req.Role != nil {
		employee.Role = *req.Role
	}
	if err := s.repo.Update(ctx, employee); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		case repository.IsUniqueViolation(err):
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
		}
		return nil, appErrors.Storage(err, "failed to update employee")
	}
	return employee, nil
}

// Delete removes an employee who has never submitted a bill.
func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	hasBills, err := s.repo.HasBills(ctx, id)
	if err != nil {
		return appErrors.Storage(err, "failed to check employee bills")
	}
	if hasBills {
		return appErrors.Clone(appErrors.ErrConflict, "employee has bills and cannot be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return appErrors.Storage(err, "failed to delete employee")
	}
	s.logger.Info("employee deleted", zap.String("employee_id", id))
	return nil
}
