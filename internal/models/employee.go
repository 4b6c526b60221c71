package models

import "time"

// Role represents the available roles for the RBAC system.
type Role string

const (
	RoleEmployee     Role = "EMPLOYEE"
	RoleSNP          Role = "SNP"
	RoleAudit        Role = "AUDIT"
	RoleFinanceAdmin Role = "FINANCE_ADMIN"
	RoleAdmin        Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleSNP, RoleAudit, RoleFinanceAdmin, RoleAdmin:
		return true
	}
	return false
}

// Department is the organisational unit an employee belongs to.
type Department string

const (
	DepartmentCSE             Department = "CSE"
	DepartmentECE             Department = "ECE"
	DepartmentEEE             Department = "EEE"
	DepartmentMech            Department = "MECH"
	DepartmentCivil           Department = "CIVIL"
	DepartmentScience         Department = "SCIENCE"
	DepartmentAdministration  Department = "ADMINISTRATION"
	DepartmentStudentPurchase Department = "STUDENT_PURCHASE"
	DepartmentAudit           Department = "AUDIT"
	DepartmentFinance         Department = "FINANCE"
)

// Valid reports whether d is a known department.
func (d Department) Valid() bool {
	switch d {
	case DepartmentCSE, DepartmentECE, DepartmentEEE, DepartmentMech, DepartmentCivil,
		DepartmentScience, DepartmentAdministration, DepartmentStudentPurchase,
		DepartmentAudit, DepartmentFinance:
		return true
	}
	return false
}

// Employee is a member of staff who may submit or review bills.
type Employee struct {
	ID         string     `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Email      string     `db:"email" json:"email"`
	Department Department `db:"department" json:"department"`
	Role       Role       `db:"role" json:"role"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// EmployeeFilter captures filtering criteria for listing employees.
type EmployeeFilter struct {
	Department *Department
	Role       *Role
	Search     string
	Page       int
	PageSize   int
}
