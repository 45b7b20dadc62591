package users

import (
	"strings"
	"time"

	"lumigente/internal/domain/employee"
	"lumigente/internal/domain/hierarchy"
)

// AllDepartments is the department filter value that disables filtering.
const AllDepartments = "Todos"

// Account is the application user, created by sync from the HR feed.
// PasswordHash is empty until the user completes registration and is never
// written by sync.
type Account struct {
	ID                    string     `json:"id"`
	CPF                   string     `json:"cpf"`
	Username              string     `json:"username"`
	EmployeeNumber        string     `json:"employeeNumber"`
	FullName              string     `json:"fullName"`
	FirstName             string     `json:"firstName"`
	Department            string     `json:"department"`
	DepartmentDescription string     `json:"departmentDescription"`
	Branch                string     `json:"branch"`
	HierarchyPath         string     `json:"hierarchyPath"`
	PasswordHash          string     `json:"-"`
	IsAdmin               bool       `json:"isAdmin"`
	IsActive              bool       `json:"isActive"`
	FirstLogin            bool       `json:"firstLogin"`
	LastLogin             *time.Time `json:"lastLogin,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

func (a Account) HasPassword() bool {
	return strings.TrimSpace(a.PasswordHash) != ""
}

func (a Account) Profile() Profile {
	return Profile{
		EmployeeNumber:        a.EmployeeNumber,
		FullName:              a.FullName,
		FirstName:             a.FirstName,
		Department:            a.Department,
		DepartmentDescription: a.DepartmentDescription,
		Branch:                a.Branch,
		HierarchyPath:         a.HierarchyPath,
		Active:                a.IsActive,
	}
}

// Subject is the classifier's view of the account.
func (a Account) Subject() hierarchy.Subject {
	return hierarchy.Subject{
		UserID:                a.ID,
		EmployeeNumber:        a.EmployeeNumber,
		CPF:                   a.CPF,
		Department:            a.Department,
		DepartmentDescription: a.DepartmentDescription,
		HierarchyPath:         a.HierarchyPath,
		IsAdmin:               a.IsAdmin,
	}
}

// Profile holds the account fields derived from the HR feed.
type Profile struct {
	EmployeeNumber        string `json:"employeeNumber"`
	FullName              string `json:"fullName"`
	FirstName             string `json:"firstName"`
	Department            string `json:"department"`
	DepartmentDescription string `json:"departmentDescription"`
	Branch                string `json:"branch"`
	HierarchyPath         string `json:"hierarchyPath"`
	Active                bool   `json:"active"`
}

// ProfileFor derives the profile of rec given its resolved hierarchy path and
// its department description.
func ProfileFor(rec employee.Record, path, description string) Profile {
	return Profile{
		EmployeeNumber:        strings.TrimSpace(rec.EmployeeNumber),
		FullName:              strings.TrimSpace(rec.FullName),
		FirstName:             rec.FirstName(),
		Department:            strings.TrimSpace(rec.Department),
		DepartmentDescription: strings.TrimSpace(description),
		Branch:                strings.TrimSpace(rec.BranchCode),
		HierarchyPath:         path,
		Active:                rec.IsActive(),
	}
}

// Differs lists the fields that changed between p and other.
func (p Profile) Differs(other Profile) []string {
	var fields []string
	if p.EmployeeNumber != other.EmployeeNumber {
		fields = append(fields, "employeeNumber")
	}
	if p.FullName != other.FullName {
		fields = append(fields, "fullName")
	}
	if p.FirstName != other.FirstName {
		fields = append(fields, "firstName")
	}
	if p.Department != other.Department {
		fields = append(fields, "department")
	}
	if p.DepartmentDescription != other.DepartmentDescription {
		fields = append(fields, "departmentDescription")
	}
	if p.Branch != other.Branch {
		fields = append(fields, "branch")
	}
	if p.HierarchyPath != other.HierarchyPath {
		fields = append(fields, "hierarchyPath")
	}
	if p.Active != other.Active {
		fields = append(fields, "active")
	}
	return fields
}

// Member is an account as listed to other users.
type Member struct {
	ID                    string `json:"id"`
	FullName              string `json:"fullName"`
	EmployeeNumber        string `json:"employeeNumber"`
	Department            string `json:"department"`
	DepartmentDescription string `json:"departmentDescription"`
	HierarchyPath         string `json:"hierarchyPath"`
	HierarchyLevel        int    `json:"hierarchyLevel"`
}

type Filter struct {
	Department string
}

func (f Filter) active() bool {
	d := strings.TrimSpace(f.Department)
	return d != "" && d != AllDepartments
}

func (f Filter) matches(a Account) bool {
	if !f.active() {
		return true
	}
	d := strings.TrimSpace(f.Department)
	return strings.TrimSpace(a.Department) == d || strings.TrimSpace(a.DepartmentDescription) == d
}

type DepartmentCount struct {
	Department  string `json:"department"`
	Description string `json:"description"`
	ActiveUsers int    `json:"activeUsers"`
}
