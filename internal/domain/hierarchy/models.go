package hierarchy

import "strings"

const (
	// DepartmentUnknown is reported when no employee record exists.
	DepartmentUnknown = "Não definido"
	// DepartmentError is reported when the data source failed.
	DepartmentError = "Erro"
)

// Ancestor is one of the four named levels above an org node.
type Ancestor struct {
	Description       string `json:"description"`
	ResponsibleNumber string `json:"responsibleNumber"`
}

// Node is one row of the org chart feed. FullPath is precomputed upstream and
// treated as opaque: depth comes from its segment count, never from walking
// responsible links.
type Node struct {
	DeptCode          string      `json:"deptCode"`
	DeptDescription   string      `json:"deptDescription"`
	ResponsibleNumber string      `json:"responsibleNumber"`
	ResponsibleCPF    string      `json:"responsibleCpf"`
	BranchCode        string      `json:"branchCode"`
	FullPath          string      `json:"fullPath"`
	Levels            [4]Ancestor `json:"levels"`
}

// PathMentions reports whether segment occurs in the node's path, ignoring
// case and accents.
func (n Node) PathMentions(segment string) bool {
	folded := Fold(segment)
	return folded != "" && strings.Contains(Fold(n.FullPath), folded)
}

// RespondedBy reports whether number is the node's direct responsible. A
// node carrying a responsible CPF only matches that CPF when cpf is set.
func (n Node) RespondedBy(number, cpf string) bool {
	number = strings.TrimSpace(number)
	if number == "" || strings.TrimSpace(n.ResponsibleNumber) != number {
		return false
	}
	cpf = strings.TrimSpace(cpf)
	responsible := strings.TrimSpace(n.ResponsibleCPF)
	return cpf == "" || responsible == "" || responsible == cpf
}

// ManagedBy reports whether number is the node's responsible or the
// responsible of any of its ancestor levels.
func (n Node) ManagedBy(number, cpf string) bool {
	number = strings.TrimSpace(number)
	if number == "" {
		return false
	}
	if n.RespondedBy(number, cpf) {
		return true
	}
	for _, level := range n.Levels {
		if strings.TrimSpace(level.ResponsibleNumber) == number {
			return true
		}
	}
	return false
}

// Matches reports whether department names this node by code or description.
func (n Node) Matches(department string) bool {
	department = strings.TrimSpace(department)
	if department == "" {
		return false
	}
	return strings.TrimSpace(n.DeptCode) == department || strings.TrimSpace(n.DeptDescription) == department
}

type Source string

const (
	SourceResponsible Source = "responsible"
	SourceMembership  Source = "membership"
	SourceUnmatched   Source = "unmatched"
	SourceNoEmployee  Source = "no_employee"
	SourceError       Source = "error"
)

// Resolution is the outcome of resolving an employee's place in the org chart.
// An empty Path means unknown, not level zero confirmed.
type Resolution struct {
	Path       string `json:"path"`
	Department string `json:"department"`
	Level      int    `json:"level"`
	Source     Source `json:"source"`
}

func (r Resolution) Degraded() bool {
	return r.Source != SourceResponsible && r.Source != SourceMembership
}

type Relation string

const (
	RelationDirect   Relation = "direct"
	RelationAncestor Relation = "ancestor"
	RelationUpper    Relation = "upper"
)

type ManagedDepartment struct {
	Code        string   `json:"code"`
	Description string   `json:"description"`
	Path        string   `json:"path"`
	Responsible string   `json:"responsibleNumber"`
	Relation    Relation `json:"relation"`
}

// Classification describes a user's managerial standing.
type Classification struct {
	IsManager          bool                `json:"isManager"`
	IsFullAccess       bool                `json:"isFullAccess"`
	ManagedDepartments []ManagedDepartment `json:"managedDepartments"`
	ManagerType        string              `json:"managerType"`
	HierarchyLevel     int                 `json:"hierarchyLevel"`
}

// Subject is the minimum a caller must know about a user to classify it.
type Subject struct {
	UserID                string
	EmployeeNumber        string
	CPF                   string
	Department            string
	DepartmentDescription string
	HierarchyPath         string
	IsAdmin               bool
}
