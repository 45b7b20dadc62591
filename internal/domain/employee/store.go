package employee

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const recordColumns = `
  cpf, employee_number, full_name, branch_code, cost_center, department,
  COALESCE(payroll_situation, ''), general_status, admission_date
`

func (s *Store) RecordsByCPF(ctx context.Context, cpf string) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+recordColumns+` FROM employee_records WHERE cpf = $1`, NormalizeCPF(cpf))
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (s *Store) RecordsByNumber(ctx context.Context, employeeNumber string) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+recordColumns+` FROM employee_records WHERE TRIM(employee_number) = TRIM($1)`, employeeNumber)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (s *Store) AllRecords(ctx context.Context) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+recordColumns+` FROM employee_records WHERE cpf <> ''`)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var rec Record
		var admission *time.Time
		if err := row.Scan(
			&rec.CPF, &rec.EmployeeNumber, &rec.FullName, &rec.BranchCode, &rec.CostCenter,
			&rec.Department, &rec.PayrollSituation, &rec.GeneralStatus, &admission,
		); err != nil {
			return Record{}, err
		}
		if admission != nil {
			rec.AdmissionDate = *admission
		}
		return rec, nil
	})
}
