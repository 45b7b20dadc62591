package users

import (
	"context"
	"time"
)

type StoreAPI interface {
	GetByID(ctx context.Context, id string) (Account, error)
	GetByCPF(ctx context.Context, cpf string) (Account, error)
	ListAll(ctx context.Context) ([]Account, error)
	ListActive(ctx context.Context) ([]Account, error)
	// ListActiveInDepartments returns active users whose active employee
	// record (joined on employee number and CPF) sits in one of departments,
	// or carries one of employeeNumbers.
	ListActiveInDepartments(ctx context.Context, departments, employeeNumbers []string) ([]Account, error)
	ListActiveByEmployeeNumbers(ctx context.Context, employeeNumbers []string) ([]Account, error)
	CountActiveByDepartment(ctx context.Context) ([]DepartmentCount, error)

	// Create inserts an account with no password that must register before
	// logging in. ErrConflict is returned when the CPF is taken.
	Create(ctx context.Context, cpf string, p Profile) (Account, error)
	// ApplyProfile locks the account row, compares it with p and writes the
	// differing fields. It returns the changed field names.
	ApplyProfile(ctx context.Context, id string, p Profile) ([]string, error)
	Deactivate(ctx context.Context, id string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	// SetPassword stores hash and clears the first-login flag.
	SetPassword(ctx context.Context, id, hash string) error
	SetAdmin(ctx context.Context, cpf string, admin bool) error
}
