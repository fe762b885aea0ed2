// internal/domain/validate.go
package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxNameLen        = 120
	maxCedulaLen      = 20
	maxDescriptionLen = 200
	minPasswordLen    = 6
)

// CleanText turns every unicode space into a plain one, drops control
// characters and collapses runs of spaces.
func CleanText(s string) string {
	result := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			result = append(result, ' ')
		case unicode.IsControl(r):
		default:
			result = append(result, r)
		}
	}
	return strings.Join(strings.Fields(string(result)), " ")
}

// NormalizeCedula strips spaces and dashes so "17-1234 5678" and
// "1712345678" are the same key.
func NormalizeCedula(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' || r == '.' {
			return -1
		}
		return r
	}, s)
}

// ValidYear reports whether s is a four digit year.
func ValidYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s[0] != '0'
}

func ValidateStudent(name, cedula string) error {
	if name == "" {
		return invalid("name", "name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return invalid("name", "name is too long")
	}
	if cedula == "" {
		return invalid("cedula", "cedula is required")
	}
	if utf8.RuneCountInString(cedula) > maxCedulaLen {
		return invalid("cedula", "cedula is too long")
	}
	return nil
}

func (s PaymentSettings) Validate() error {
	if err := validateAmount("monthly_amount", s.MonthlyAmount); err != nil {
		return err
	}
	if !ValidYear(s.AcademicYear) {
		return invalid("academic_year", "academic year must be a four digit year")
	}
	if len(s.SelectedMonths) == 0 {
		return invalid("selected_months", "select at least one month")
	}
	for _, m := range s.SelectedMonths {
		if MonthNumber(m) == 0 {
			return invalid("selected_months", "unknown month "+m)
		}
	}
	return nil
}

// HasMonth reports whether month is one of the payable months.
func (s PaymentSettings) HasMonth(month string) bool {
	for _, m := range s.SelectedMonths {
		if m == month {
			return true
		}
	}
	return false
}

func (p Payment) Validate() error {
	if strings.TrimSpace(p.StudentID) == "" {
		return invalid("student_id", "student is required")
	}
	if MonthNumber(p.Month) == 0 {
		return invalid("month", "unknown month "+p.Month)
	}
	if !ValidYear(p.Year) {
		return invalid("year", "year must be a four digit year")
	}
	return validateAmount("amount", p.Amount)
}

func (e Expense) Validate() error {
	if e.ResponsibleStudentID == nil || strings.TrimSpace(*e.ResponsibleStudentID) == "" {
		return invalid("responsible_student_id", "responsible student is required")
	}
	if strings.TrimSpace(e.Description) == "" {
		return invalid("description", "description is required")
	}
	if utf8.RuneCountInString(e.Description) > maxDescriptionLen {
		return invalid("description", "description too long (max 200 characters)")
	}
	return validateAmount("amount", e.Amount)
}

func ValidateRegistration(username, password, paraleloName string) error {
	if username == "" {
		return invalid("username", "username is required")
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return invalid("password", "password must have at least 6 characters")
	}
	if paraleloName == "" {
		return invalid("paralelo_name", "paralelo name is required")
	}
	return nil
}
