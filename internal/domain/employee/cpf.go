package employee

import (
	"strings"
	"unicode"
)

// NormalizeCPF strips everything but digits.
func NormalizeCPF(raw string) string {
	var b strings.Builder
	b.Grow(11)
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCPF checks length and both check digits. Repeated-digit sequences
// such as 111.111.111-11 are rejected.
func ValidCPF(raw string) bool {
	cpf := NormalizeCPF(raw)
	if len(cpf) != 11 {
		return false
	}
	if strings.Count(cpf, cpf[:1]) == 11 {
		return false
	}
	digits := make([]int, 11)
	for i := range cpf {
		digits[i] = int(cpf[i] - '0')
	}
	return checkDigit(digits[:9], 10) == digits[9] && checkDigit(digits[:10], 11) == digits[10]
}

func checkDigit(digits []int, weight int) int {
	sum := 0
	for _, d := range digits {
		sum += d * weight
		weight--
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		return 0
	}
	return rest
}

// FormatCPF renders 11 digits as 000.000.000-00. Anything else is returned
// normalized but unformatted.
func FormatCPF(raw string) string {
	cpf := NormalizeCPF(raw)
	if len(cpf) != 11 {
		return cpf
	}
	return cpf[0:3] + "." + cpf[3:6] + "." + cpf[6:9] + "-" + cpf[9:11]
}

// MaskCPF keeps only the last two digits, for logs.
func MaskCPF(raw string) string {
	cpf := NormalizeCPF(raw)
	if len(cpf) < 2 {
		return "***"
	}
	return "***" + cpf[len(cpf)-2:]
}
