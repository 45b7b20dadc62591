package hierarchy

import (
	"context"
	"errors"
	"sort"
	"strings"

	"lumigente/internal/domain/employee"
	"lumigente/internal/platform/logger"
)

// EmployeeLookup finds the authoritative employee record for an employee
// number, optionally restricted to a CPF.
type EmployeeLookup interface {
	ByNumber(ctx context.Context, employeeNumber, cpf string) (employee.Record, error)
}

// ResolutionObserver is told the source of every resolution.
type ResolutionObserver interface {
	ObserveResolution(source string)
}

// Resolver places employees in the org chart. It is the single place where
// path and department are derived from the feeds.
type Resolver struct {
	Employees EmployeeLookup
	Org       StoreAPI
	Levels    *Calculator
	Observer  ResolutionObserver
}

func NewResolver(employees EmployeeLookup, org StoreAPI, levels *Calculator, observer ResolutionObserver) *Resolver {
	return &Resolver{Employees: employees, Org: org, Levels: levels, Observer: observer}
}

// Resolve never fails. Responsibility for a node wins over membership; among
// several candidate nodes the longest path wins. Data source errors degrade to
// an empty path with DepartmentError.
func (r *Resolver) Resolve(ctx context.Context, employeeNumber, cpf string) Resolution {
	res, err := r.resolve(ctx, strings.TrimSpace(employeeNumber), employee.NormalizeCPF(cpf))
	log := logger.From(ctx)
	if err != nil {
		log.Error().Err(err).Str("employeeNumber", employeeNumber).Msg("hierarchy resolution failed")
		res = Resolution{Department: DepartmentError, Source: SourceError}
	}
	if res.Degraded() && res.Source != SourceError {
		log.Warn().
			Str("employeeNumber", employeeNumber).
			Str("cpf", employee.MaskCPF(cpf)).
			Str("department", res.Department).
			Str("source", string(res.Source)).
			Msg("hierarchy resolution degraded")
	}
	res.Level = r.Levels.LevelFor(res.Path, departmentForLevel(res))
	if r.Observer != nil {
		r.Observer.ObserveResolution(string(res.Source))
	}
	return res
}

func departmentForLevel(res Resolution) string {
	if res.Path == "" {
		return ""
	}
	return res.Department
}

func (r *Resolver) resolve(ctx context.Context, employeeNumber, cpf string) (Resolution, error) {
	rec, err := r.Employees.ByNumber(ctx, employeeNumber, cpf)
	if errors.Is(err, employee.ErrNotFound) {
		return Resolution{Department: DepartmentUnknown, Source: SourceNoEmployee}, nil
	}
	if err != nil {
		return Resolution{}, err
	}

	nodes, err := r.Org.NodesByResponsible(ctx, employeeNumber, cpf)
	if err != nil {
		return Resolution{}, err
	}
	if node, ok := Deepest(nodes); ok {
		return Resolution{Path: node.FullPath, Department: node.DeptDescription, Source: SourceResponsible}, nil
	}

	department := strings.TrimSpace(rec.Department)
	if department != "" {
		nodes, err = r.Org.NodesByDepartment(ctx, department)
		if err != nil {
			return Resolution{}, err
		}
		if node, ok := Deepest(nodes); ok {
			return Resolution{Path: node.FullPath, Department: node.DeptDescription, Source: SourceMembership}, nil
		}
	}

	if department == "" {
		department = DepartmentUnknown
	}
	return Resolution{Department: department, Source: SourceUnmatched}, nil
}

// Deepest picks the node with the longest path. Ties go to the smallest
// department code so the choice is stable.
func Deepest(nodes []Node) (Node, bool) {
	if len(nodes) == 0 {
		return Node{}, false
	}
	sorted := make([]Node, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		li, lj := len(strings.TrimSpace(sorted[i].FullPath)), len(strings.TrimSpace(sorted[j].FullPath))
		if li != lj {
			return li > lj
		}
		return strings.TrimSpace(sorted[i].DeptCode) < strings.TrimSpace(sorted[j].DeptCode)
	})
	return sorted[0], true
}

// DescribeDepartment returns the description of the deepest node for code,
// the code itself when the chart has no such node, or DepartmentUnknown for
// an empty code.
func DescribeDepartment(ctx context.Context, org StoreAPI, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return DepartmentUnknown, nil
	}
	nodes, err := org.NodesByDepartment(ctx, code)
	if err != nil {
		return "", err
	}
	if node, ok := Deepest(nodes); ok && strings.TrimSpace(node.DeptDescription) != "" {
		return strings.TrimSpace(node.DeptDescription), nil
	}
	return code, nil
}
