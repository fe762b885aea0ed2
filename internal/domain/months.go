// internal/domain/months.go
package domain

import (
	"sort"
	"strings"
)

// Months is the canonical calendar vocabulary for payable months.
var Months = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// CanonicalMonth matches s case-insensitively against Months.
func CanonicalMonth(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, m := range Months {
		if strings.EqualFold(m, s) {
			return m, true
		}
	}
	return "", false
}

// MonthNumber returns 1..12 for a canonical month name, 0 otherwise.
func MonthNumber(name string) int {
	for i, m := range Months {
		if m == name {
			return i + 1
		}
	}
	return 0
}

// NormalizeMonths canonicalises, dedupes and sorts months in calendar order.
func NormalizeMonths(in []string) ([]string, error) {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		m, ok := CanonicalMonth(raw)
		if !ok {
			return nil, invalid("selected_months", "unknown month "+strings.TrimSpace(raw))
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return MonthNumber(out[i]) < MonthNumber(out[j])
	})
	return out, nil
}
