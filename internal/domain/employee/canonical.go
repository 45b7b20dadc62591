package employee

import (
	"sort"
	"strconv"
	"strings"
)

// Ranks reports whether a outranks b when choosing the authoritative row for
// a CPF: active status first, then rows still on payroll, then the latest
// admission, then the largest employee number.
func Ranks(a, b Record) bool {
	if a.IsActive() != b.IsActive() {
		return a.IsActive()
	}
	if a.OnPayroll() != b.OnPayroll() {
		return a.OnPayroll()
	}
	if !a.AdmissionDate.Equal(b.AdmissionDate) {
		return a.AdmissionDate.After(b.AdmissionDate)
	}
	return compareEmployeeNumbers(a.EmployeeNumber, b.EmployeeNumber) > 0
}

// SelectCanonical picks the authoritative row among rows. An all-inactive set
// still yields its best row so callers can tell inactive from missing.
func SelectCanonical(rows []Record) (Record, bool) {
	if len(rows) == 0 {
		return Record{}, false
	}
	best := rows[0]
	for _, row := range rows[1:] {
		if Ranks(row, best) {
			best = row
		}
	}
	return best, true
}

// CanonicalByCPF groups rows by normalized CPF and keeps the authoritative
// row of each group, ordered by CPF.
func CanonicalByCPF(rows []Record) []Record {
	groups := make(map[string][]Record)
	for _, row := range rows {
		cpf := NormalizeCPF(row.CPF)
		if cpf == "" {
			continue
		}
		groups[cpf] = append(groups[cpf], row)
	}
	out := make([]Record, 0, len(groups))
	for _, group := range groups {
		best, _ := SelectCanonical(group)
		out = append(out, best)
	}
	sort.Slice(out, func(i, j int) bool {
		return NormalizeCPF(out[i].CPF) < NormalizeCPF(out[j].CPF)
	})
	return out
}

// compareEmployeeNumbers compares numerically when both values are numeric,
// and lexicographically otherwise.
func compareEmployeeNumbers(a, b string) int {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	if errA == nil && errB == nil {
		switch {
		case na > nb:
			return 1
		case na < nb:
			return -1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
