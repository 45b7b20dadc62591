package testfixtures

import (
	"context"
	"strings"
	"sync"
	"time"

	"lumigente/internal/domain/employee"
	"lumigente/internal/domain/hierarchy"
)

// EmployeeFeed is an in-memory employee.StoreAPI. Setting Err makes every
// call fail with it.
type EmployeeFeed struct {
	mu      sync.Mutex
	records []employee.Record
	Err     error
}

func NewEmployeeFeed(records ...employee.Record) *EmployeeFeed {
	return &EmployeeFeed{records: records}
}

func (f *EmployeeFeed) Add(records ...employee.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, records...)
}

// Replace swaps the whole feed, as an upstream reload would.
func (f *EmployeeFeed) Replace(records ...employee.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append([]employee.Record(nil), records...)
}

func (f *EmployeeFeed) filter(keep func(employee.Record) bool) ([]employee.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	var out []employee.Record
	for _, rec := range f.records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *EmployeeFeed) RecordsByCPF(_ context.Context, cpf string) ([]employee.Record, error) {
	cpf = employee.NormalizeCPF(cpf)
	return f.filter(func(r employee.Record) bool { return employee.NormalizeCPF(r.CPF) == cpf })
}

func (f *EmployeeFeed) RecordsByNumber(_ context.Context, number string) ([]employee.Record, error) {
	number = strings.TrimSpace(number)
	return f.filter(func(r employee.Record) bool { return strings.TrimSpace(r.EmployeeNumber) == number })
}

func (f *EmployeeFeed) AllRecords(context.Context) ([]employee.Record, error) {
	return f.filter(func(r employee.Record) bool { return r.CPF != "" })
}

// OrgChart is an in-memory hierarchy.StoreAPI.
type OrgChart struct {
	mu    sync.Mutex
	nodes []hierarchy.Node
	Err   error
	Calls int
}

func NewOrgChart(nodes ...hierarchy.Node) *OrgChart {
	return &OrgChart{nodes: nodes}
}

func (o *OrgChart) Add(nodes ...hierarchy.Node) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nodes = append(o.nodes, nodes...)
}

func (o *OrgChart) filter(keep func(hierarchy.Node) bool) ([]hierarchy.Node, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Calls++
	if o.Err != nil {
		return nil, o.Err
	}
	var out []hierarchy.Node
	for _, n := range o.nodes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (o *OrgChart) NodesByResponsible(_ context.Context, number, cpf string) ([]hierarchy.Node, error) {
	number = strings.TrimSpace(number)
	cpf = strings.TrimSpace(cpf)
	return o.filter(func(n hierarchy.Node) bool {
		if strings.TrimSpace(n.ResponsibleNumber) != number {
			return false
		}
		return cpf == "" || n.ResponsibleCPF == "" || n.ResponsibleCPF == cpf
	})
}

func (o *OrgChart) NodesByDepartment(_ context.Context, code string) ([]hierarchy.Node, error) {
	code = strings.TrimSpace(code)
	return o.filter(func(n hierarchy.Node) bool { return strings.TrimSpace(n.DeptCode) == code })
}

func (o *OrgChart) NodesManagedBy(_ context.Context, number, cpf string) ([]hierarchy.Node, error) {
	return o.filter(func(n hierarchy.Node) bool { return n.ManagedBy(number, cpf) })
}

func (o *OrgChart) NodesWithPathSegment(_ context.Context, segment string) ([]hierarchy.Node, error) {
	return o.filter(func(n hierarchy.Node) bool {
		return n.PathMentions(segment)
	})
}

// Employee builds an active, on-payroll record.
func Employee(cpf, number, name, department string, admitted time.Time) employee.Record {
	return employee.Record{
		CPF:            employee.NormalizeCPF(cpf),
		EmployeeNumber: number,
		FullName:       name,
		BranchCode:     "01",
		CostCenter:     department,
		Department:     department,
		GeneralStatus:  employee.StatusActive,
		AdmissionDate:  admitted,
	}
}

// Node builds an org node whose description is the last segment of path.
func Node(code, responsible, path string, ancestors ...string) hierarchy.Node {
	segments := strings.Split(path, ">")
	n := hierarchy.Node{
		DeptCode:          code,
		DeptDescription:   strings.TrimSpace(segments[len(segments)-1]),
		ResponsibleNumber: responsible,
		BranchCode:        "01",
		FullPath:          path,
	}
	for i := 0; i < len(ancestors) && i < len(n.Levels); i++ {
		n.Levels[i] = hierarchy.Ancestor{
			Description:       strings.TrimSpace(segments[min(i, len(segments)-1)]),
			ResponsibleNumber: ancestors[i],
		}
	}
	return n
}
