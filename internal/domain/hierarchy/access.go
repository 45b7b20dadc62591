package hierarchy

import "strings"

const (
	RoleEmployee      = "Funcionário"
	RoleSupervisor    = "Supervisor"
	RoleCoordinator   = "Coordenador"
	RoleManager       = "Gerente"
	RoleDirector      = "Diretor"
	RoleAdministrator = "Administrador"
)

const (
	ManagerTypeDirector   = "Diretor/Gerente Geral"
	ManagerTypeManager    = "Gerente"
	ManagerTypeSupervisor = "Supervisor/Coordenador"
	ManagerTypeGeneric    = "Gestor"
	ManagerTypeFullAccess = "RH/T&D"
	ManagerTypeNonManager = "Colaborador"
)

// RoleForLevel thresholds a hierarchy level into the coarse session role.
func RoleForLevel(level int) string {
	switch {
	case level >= 4:
		return RoleDirector
	case level >= 3:
		return RoleManager
	case level >= 2:
		return RoleCoordinator
	case level >= 1:
		return RoleSupervisor
	default:
		return RoleEmployee
	}
}

// ManagerTypeForDepth labels a manager by the depth of the deepest path they
// manage.
func ManagerTypeForDepth(depth int) string {
	switch {
	case depth >= 4:
		return ManagerTypeDirector
	case depth >= 3:
		return ManagerTypeManager
	case depth >= 2:
		return ManagerTypeSupervisor
	default:
		return ManagerTypeGeneric
	}
}

type Tier string

const (
	TierStandard   Tier = "standard"
	TierFullAccess Tier = "full_access"
)

// AccessTable maps department codes to access tiers. Codes not in the table
// are TierStandard.
type AccessTable struct {
	tiers map[string]Tier
}

func NewAccessTable(fullAccessCodes []string) *AccessTable {
	t := &AccessTable{tiers: make(map[string]Tier, len(fullAccessCodes))}
	for _, code := range fullAccessCodes {
		if code = strings.TrimSpace(code); code != "" {
			t.tiers[code] = TierFullAccess
		}
	}
	return t
}

func (t *AccessTable) Tier(department string) Tier {
	if t == nil {
		return TierStandard
	}
	if tier, ok := t.tiers[strings.TrimSpace(department)]; ok {
		return tier
	}
	return TierStandard
}

func (t *AccessTable) IsFullAccess(department string) bool {
	return t.Tier(department) == TierFullAccess
}

// Codes lists the configured full-access department codes.
func (t *AccessTable) Codes() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.tiers))
	for code, tier := range t.tiers {
		if tier == TierFullAccess {
			out = append(out, code)
		}
	}
	return out
}

// Party is one side of a single-target access check.
type Party struct {
	IsAdmin    bool
	Level      int
	Department string
}

// CanAccess decides whether current may view or act on target: admins always
// may, a higher level may, and an equal level may within the same department.
func CanAccess(current, target Party) bool {
	if current.IsAdmin {
		return true
	}
	if current.Level > target.Level {
		return true
	}
	return current.Level == target.Level &&
		strings.TrimSpace(current.Department) == strings.TrimSpace(target.Department)
}
