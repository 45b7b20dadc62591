package employee

import (
	"strings"
	"time"
)

// StatusActive is the general status the HR feed uses for current employees.
const StatusActive = "ATIVO"

// Record is one row of the HR employee history feed. A person (CPF) may have
// several rows, one per assignment.
type Record struct {
	CPF              string    `json:"cpf"`
	EmployeeNumber   string    `json:"employeeNumber"`
	FullName         string    `json:"fullName"`
	BranchCode       string    `json:"branchCode"`
	CostCenter       string    `json:"costCenter"`
	Department       string    `json:"department"`
	PayrollSituation string    `json:"payrollSituation"`
	GeneralStatus    string    `json:"generalStatus"`
	AdmissionDate    time.Time `json:"admissionDate"`
}

func (r Record) IsActive() bool {
	return strings.EqualFold(strings.TrimSpace(r.GeneralStatus), StatusActive)
}

func (r Record) OnPayroll() bool {
	return strings.TrimSpace(r.PayrollSituation) == ""
}

// FirstName is the first word of the full name.
func (r Record) FirstName() string {
	fields := strings.Fields(r.FullName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
