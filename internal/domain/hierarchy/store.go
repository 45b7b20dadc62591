package hierarchy

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const nodeColumns = `
  dept_code, dept_description, responsible_number, COALESCE(responsible_cpf, ''), branch_code, full_path,
  level1_description, level1_responsible, level2_description, level2_responsible,
  level3_description, level3_responsible, level4_description, level4_responsible
`

func (s *Store) NodesByResponsible(ctx context.Context, employeeNumber, cpf string) ([]Node, error) {
	cpf = strings.TrimSpace(cpf)
	rows, err := s.DB.Query(ctx, `
    SELECT `+nodeColumns+`
    FROM org_nodes
    WHERE TRIM(responsible_number) = TRIM($1)
      AND ($2 = '' OR COALESCE(responsible_cpf, '') = '' OR responsible_cpf = $2)
  `, employeeNumber, cpf)
	if err != nil {
		return nil, err
	}
	return collectNodes(rows)
}

func (s *Store) NodesByDepartment(ctx context.Context, deptCode string) ([]Node, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+nodeColumns+`
    FROM org_nodes
    WHERE TRIM(dept_code) = TRIM($1)
  `, deptCode)
	if err != nil {
		return nil, err
	}
	return collectNodes(rows)
}

func (s *Store) NodesManagedBy(ctx context.Context, employeeNumber, cpf string) ([]Node, error) {
	cpf = strings.TrimSpace(cpf)
	rows, err := s.DB.Query(ctx, `
    SELECT `+nodeColumns+`
    FROM org_nodes
    WHERE TRIM($1) <> ''
      AND (
        (TRIM(responsible_number) = TRIM($1)
          AND ($2 = '' OR COALESCE(TRIM(responsible_cpf), '') = '' OR TRIM(responsible_cpf) = $2))
        OR TRIM($1) IN (
          TRIM(level1_responsible), TRIM(level2_responsible),
          TRIM(level3_responsible), TRIM(level4_responsible)
        )
      )
  `, employeeNumber, cpf)
	if err != nil {
		return nil, err
	}
	return collectNodes(rows)
}

// NodesWithPathSegment filters in Go so accents fold the same way the
// classifier compares segments.
func (s *Store) NodesWithPathSegment(ctx context.Context, segment string) ([]Node, error) {
	if strings.TrimSpace(segment) == "" {
		return nil, nil
	}
	rows, err := s.DB.Query(ctx, `
    SELECT `+nodeColumns+`
    FROM org_nodes
    WHERE TRIM(COALESCE(full_path, '')) <> ''
  `)
	if err != nil {
		return nil, err
	}
	nodes, err := collectNodes(rows)
	if err != nil {
		return nil, err
	}
	out := nodes[:0]
	for _, n := range nodes {
		if n.PathMentions(segment) {
			out = append(out, n)
		}
	}
	return out, nil
}

func collectNodes(rows pgx.Rows) ([]Node, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Node, error) {
		var n Node
		err := row.Scan(
			&n.DeptCode, &n.DeptDescription, &n.ResponsibleNumber, &n.ResponsibleCPF, &n.BranchCode, &n.FullPath,
			&n.Levels[0].Description, &n.Levels[0].ResponsibleNumber,
			&n.Levels[1].Description, &n.Levels[1].ResponsibleNumber,
			&n.Levels[2].Description, &n.Levels[2].ResponsibleNumber,
			&n.Levels[3].Description, &n.Levels[3].ResponsibleNumber,
		)
		return n, err
	})
}
