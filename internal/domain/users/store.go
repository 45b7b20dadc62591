package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"lumigente/internal/domain/employee"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const accountColumns = `
  u.id::text, u.cpf, u.username, u.employee_number, u.full_name, u.first_name,
  u.department, u.department_description, u.branch, u.hierarchy_path,
  COALESCE(u.password_hash, ''), u.is_admin, u.is_active, u.first_login,
  u.last_login, u.created_at, u.updated_at
`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(
		&a.ID, &a.CPF, &a.Username, &a.EmployeeNumber, &a.FullName, &a.FirstName,
		&a.Department, &a.DepartmentDescription, &a.Branch, &a.HierarchyPath,
		&a.PasswordHash, &a.IsAdmin, &a.IsActive, &a.FirstLogin,
		&a.LastLogin, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	return a, err
}

func collectAccounts(rows pgx.Rows) ([]Account, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Account, error) {
		return scanAccount(row)
	})
}

func (s *Store) GetByID(ctx context.Context, id string) (Account, error) {
	return scanAccount(s.DB.QueryRow(ctx, `SELECT `+accountColumns+` FROM users u WHERE u.id::text = $1`, id))
}

func (s *Store) GetByCPF(ctx context.Context, cpf string) (Account, error) {
	return scanAccount(s.DB.QueryRow(ctx, `SELECT `+accountColumns+` FROM users u WHERE u.cpf = $1`, employee.NormalizeCPF(cpf)))
}

func (s *Store) ListAll(ctx context.Context) ([]Account, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+accountColumns+` FROM users u ORDER BY u.full_name`)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (s *Store) ListActive(ctx context.Context) ([]Account, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+accountColumns+` FROM users u WHERE u.is_active ORDER BY u.full_name`)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (s *Store) ListActiveInDepartments(ctx context.Context, departments, employeeNumbers []string) ([]Account, error) {
	if len(departments) == 0 && len(employeeNumbers) == 0 {
		return nil, nil
	}
	rows, err := s.DB.Query(ctx, `
    SELECT DISTINCT `+accountColumns+`
    FROM users u
    JOIN employee_records s ON s.employee_number = u.employee_number AND s.cpf = u.cpf
    WHERE u.is_active
      AND UPPER(TRIM(s.general_status)) = $3
      AND (TRIM(s.department) = ANY($1) OR TRIM(s.employee_number) = ANY($2))
    ORDER BY u.full_name
  `, departments, employeeNumbers, employee.StatusActive)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (s *Store) ListActiveByEmployeeNumbers(ctx context.Context, employeeNumbers []string) ([]Account, error) {
	if len(employeeNumbers) == 0 {
		return nil, nil
	}
	rows, err := s.DB.Query(ctx, `
    SELECT `+accountColumns+`
    FROM users u
    WHERE u.is_active AND TRIM(u.employee_number) = ANY($1)
    ORDER BY u.full_name
  `, employeeNumbers)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (s *Store) CountActiveByDepartment(ctx context.Context) ([]DepartmentCount, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT department, MAX(department_description), COUNT(1)
    FROM users
    WHERE is_active
    GROUP BY department
    ORDER BY COUNT(1) DESC, department
  `)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (DepartmentCount, error) {
		var dc DepartmentCount
		err := row.Scan(&dc.Department, &dc.Description, &dc.ActiveUsers)
		return dc, err
	})
}

func (s *Store) Create(ctx context.Context, cpf string, p Profile) (Account, error) {
	cpf = employee.NormalizeCPF(cpf)
	account, err := scanAccount(s.DB.QueryRow(ctx, `
    INSERT INTO users AS u (cpf, username, employee_number, full_name, first_name, department,
      department_description, branch, hierarchy_path, is_active, first_login)
    VALUES ($1,$1,$2,$3,$4,$5,$6,$7,$8,$9,true)
    RETURNING `+accountColumns,
		cpf, p.EmployeeNumber, p.FullName, p.FirstName, p.Department,
		p.DepartmentDescription, p.Branch, p.HierarchyPath, p.Active,
	))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Account{}, ErrConflict
	}
	return account, err
}

func (s *Store) ApplyProfile(ctx context.Context, id string, p Profile) ([]string, error) {
	var changed []string
	err := pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		current, err := scanAccount(tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM users u WHERE u.id::text = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		changed = current.Profile().Differs(p)
		if len(changed) == 0 {
			return nil
		}
		_, err = tx.Exec(ctx, `
      UPDATE users
      SET employee_number = $2, full_name = $3, first_name = $4, department = $5,
          department_description = $6, branch = $7, hierarchy_path = $8, is_active = $9,
          updated_at = now()
      WHERE id::text = $1
    `, id, p.EmployeeNumber, p.FullName, p.FirstName, p.Department,
			p.DepartmentDescription, p.Branch, p.HierarchyPath, p.Active)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("apply profile: %w", err)
	}
	return changed, nil
}

func (s *Store) Deactivate(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `UPDATE users SET is_active = false, updated_at = now() WHERE id::text = $1 AND is_active`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.DB.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id::text = $1`, id, at)
	return err
}

func (s *Store) SetPassword(ctx context.Context, id, hash string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users SET password_hash = $2, first_login = false, updated_at = now()
    WHERE id::text = $1
  `, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetAdmin(ctx context.Context, cpf string, admin bool) error {
	tag, err := s.DB.Exec(ctx, `UPDATE users SET is_admin = $2, updated_at = now() WHERE cpf = $1`, employee.NormalizeCPF(cpf), admin)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
