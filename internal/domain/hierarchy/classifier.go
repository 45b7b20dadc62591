package hierarchy

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Classifier decides whether a user manages part of the org chart. Results
// are computed from the feeds on every call and never cached.
type Classifier struct {
	Org    StoreAPI
	Levels *Calculator
	Access *AccessTable
}

func NewClassifier(org StoreAPI, levels *Calculator, access *AccessTable) *Classifier {
	return &Classifier{Org: org, Levels: levels, Access: access}
}

// Classify fails on data source errors; a wrong access decision is worse than
// a failed request.
func (c *Classifier) Classify(ctx context.Context, s Subject) (Classification, error) {
	var managed, upper []Node
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		nodes, err := c.Org.NodesManagedBy(gctx, s.EmployeeNumber, s.CPF)
		if err != nil {
			return fmt.Errorf("%w: managed nodes: %v", ErrDataSource, err)
		}
		managed = nodes
		return nil
	})
	g.Go(func() error {
		nodes, err := c.upperNodes(gctx, s)
		if err != nil {
			return fmt.Errorf("%w: upper nodes: %v", ErrDataSource, err)
		}
		upper = nodes
		return nil
	})
	if err := g.Wait(); err != nil {
		return Classification{}, err
	}

	departments := c.managedDepartments(s.EmployeeNumber, s.CPF, managed, upper)
	out := Classification{
		IsManager:          len(departments) > 0,
		IsFullAccess:       c.Access.IsFullAccess(s.Department),
		ManagedDepartments: departments,
		HierarchyLevel:     c.Levels.LevelFor(s.HierarchyPath, s.DepartmentDescription),
	}
	switch {
	case out.IsFullAccess:
		out.ManagerType = ManagerTypeFullAccess
	case out.IsManager:
		out.ManagerType = ManagerTypeForDepth(c.deepestDepth(departments))
	default:
		out.ManagerType = ManagerTypeNonManager
	}
	return out, nil
}

// upperNodes finds nodes whose path contains the user's department as an
// ancestor segment while belonging to another department.
func (c *Classifier) upperNodes(ctx context.Context, s Subject) ([]Node, error) {
	own := strings.TrimSpace(s.DepartmentDescription)
	if own == "" || own == DepartmentUnknown || own == DepartmentError {
		return nil, nil
	}
	nodes, err := c.Org.NodesWithPathSegment(ctx, own)
	if err != nil {
		return nil, err
	}
	out := nodes[:0:0]
	for _, node := range nodes {
		if node.Matches(s.Department) || Fold(node.DeptDescription) == Fold(own) {
			continue
		}
		if c.Levels.ContainsSegment(node.FullPath, own) {
			out = append(out, node)
		}
	}
	return out, nil
}

func (c *Classifier) managedDepartments(employeeNumber, cpf string, managed, upper []Node) []ManagedDepartment {
	seen := make(map[string]int)
	var out []ManagedDepartment
	add := func(node Node, relation Relation) {
		code := strings.TrimSpace(node.DeptCode)
		if idx, ok := seen[code]; ok {
			if rank(relation) < rank(out[idx].Relation) {
				out[idx].Relation = relation
			}
			return
		}
		seen[code] = len(out)
		out = append(out, ManagedDepartment{
			Code:        code,
			Description: strings.TrimSpace(node.DeptDescription),
			Path:        node.FullPath,
			Responsible: strings.TrimSpace(node.ResponsibleNumber),
			Relation:    relation,
		})
	}
	for _, node := range managed {
		if node.RespondedBy(employeeNumber, cpf) {
			add(node, RelationDirect)
		} else {
			add(node, RelationAncestor)
		}
	}
	for _, node := range upper {
		add(node, RelationUpper)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func rank(r Relation) int {
	switch r {
	case RelationDirect:
		return 0
	case RelationAncestor:
		return 1
	default:
		return 2
	}
}

func (c *Classifier) deepestDepth(departments []ManagedDepartment) int {
	deepest := 0
	for _, dept := range departments {
		deepest = max(deepest, c.Levels.Depth(dept.Path))
	}
	return deepest
}

// IsResponsible reports whether the user is directly or at an ancestor level
// responsible for the department, as opposed to only sitting above it.
func (d ManagedDepartment) IsResponsible() bool {
	return d.Relation == RelationDirect || d.Relation == RelationAncestor
}
