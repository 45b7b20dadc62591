package auth

import (
	"lumigente/internal/domain/hierarchy"
	"lumigente/internal/domain/users"
)

// Principal is the snapshot of the user carried by the session. It is built
// at login and not refreshed until the next login.
type Principal struct {
	UserID                string `json:"userId"`
	Username              string `json:"username"`
	CPF                   string `json:"cpf"`
	EmployeeNumber        string `json:"employeeNumber"`
	FullName              string `json:"fullName"`
	FirstName             string `json:"firstName"`
	Department            string `json:"department"`
	DepartmentDescription string `json:"departmentDescription"`
	Branch                string `json:"branch"`
	HierarchyPath         string `json:"hierarchyPath"`
	HierarchyLevel        int    `json:"hierarchyLevel"`
	Role                  string `json:"role"`
	IsAdmin               bool   `json:"isAdmin"`
	SessionID             string `json:"-"`
}

func (p Principal) Subject() hierarchy.Subject {
	return hierarchy.Subject{
		UserID:                p.UserID,
		EmployeeNumber:        p.EmployeeNumber,
		CPF:                   p.CPF,
		Department:            p.Department,
		DepartmentDescription: p.DepartmentDescription,
		HierarchyPath:         p.HierarchyPath,
		IsAdmin:               p.IsAdmin,
	}
}

// RoleFor labels a user for display. Administrators are labelled as such
// whatever their level.
func RoleFor(isAdmin bool, level int) string {
	if isAdmin {
		return hierarchy.RoleAdministrator
	}
	return hierarchy.RoleForLevel(level)
}

// PrincipalFor builds the session snapshot of a.
func PrincipalFor(a users.Account, levels *hierarchy.Calculator) Principal {
	level := levels.LevelFor(a.HierarchyPath, a.DepartmentDescription)
	return Principal{
		UserID:                a.ID,
		Username:              a.Username,
		CPF:                   a.CPF,
		EmployeeNumber:        a.EmployeeNumber,
		FullName:              a.FullName,
		FirstName:             a.FirstName,
		Department:            a.Department,
		DepartmentDescription: a.DepartmentDescription,
		Branch:                a.Branch,
		HierarchyPath:         a.HierarchyPath,
		HierarchyLevel:        level,
		Role:                  RoleFor(a.IsAdmin, level),
		IsAdmin:               a.IsAdmin,
	}
}
