// Package aggregate derives the read models (dashboard, statements, class
// summary) from ledger snapshots. Everything here is a pure function of its
// inputs; callers load the snapshot and nothing is cached.
package aggregate

import (
	"sort"

	"tesoreria/internal/domain"
)

// NoResponsible is shown when an expense's responsible student was deleted.
const NoResponsible = "N/A"

func SumPayments(payments []domain.Payment) domain.Money {
	var total domain.Money
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

func SumExpenses(expenses []domain.Expense) domain.Money {
	var total domain.Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// PendingPayments counts, per student, the configured months of the academic
// year with no recorded payment. Without settings nothing is pending.
func PendingPayments(students []domain.Student, settings *domain.PaymentSettings, payments []domain.Payment) int {
	if settings == nil {
		return 0
	}

	type period struct{ studentID, month string }
	paid := make(map[period]struct{}, len(payments))
	for _, p := range payments {
		if p.Year != settings.AcademicYear {
			continue
		}
		paid[period{p.StudentID, p.Month}] = struct{}{}
	}

	pending := 0
	for _, s := range students {
		for _, m := range settings.SelectedMonths {
			if _, ok := paid[period{s.ID, m}]; !ok {
				pending++
			}
		}
	}
	return pending
}

// Dashboard builds the treasurer's summary from one consistent snapshot.
func Dashboard(students []domain.Student, settings *domain.PaymentSettings, payments []domain.Payment, expenses []domain.Expense) domain.DashboardSummary {
	income := SumPayments(payments)
	spent := SumExpenses(expenses)
	return domain.DashboardSummary{
		TotalIncome:     income,
		TotalExpenses:   spent,
		CurrentBalance:  income.Sub(spent),
		TotalStudents:   len(students),
		PendingPayments: PendingPayments(students, settings, payments),
	}
}

// Statement keeps payments in the order given (creation order from storage).
func Statement(student domain.Student, payments []domain.Payment) domain.StudentStatement {
	out := make([]domain.Payment, 0, len(payments))
	for _, p := range payments {
		if p.StudentID == student.ID {
			out = append(out, p)
		}
	}
	return domain.StudentStatement{
		Name:      student.Name,
		Cedula:    student.Cedula,
		TotalPaid: SumPayments(out),
		Payments:  out,
	}
}

// NewestFirst returns a copy of payments sorted by creation time, newest first.
func NewestFirst(payments []domain.Payment) []domain.Payment {
	out := append([]domain.Payment(nil), payments...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Class builds the public balance view of one treasurer's class.
func Class(t domain.Treasurer, students []domain.Student, payments []domain.Payment, expenses []domain.Expense) domain.ClassSummary {
	names := make(map[string]string, len(students))
	for _, s := range students {
		names[s.ID] = s.Name
	}

	income := SumPayments(payments)
	spent := SumExpenses(expenses)
	summary := domain.ClassSummary{
		ParaleloName:   t.ParaleloName,
		TotalIncome:    income,
		TotalExpenses:  spent,
		CurrentBalance: income.Sub(spent),
		Expenses:       make([]domain.ClassExpense, 0, len(expenses)),
	}
	for _, e := range expenses {
		responsible := NoResponsible
		if e.ResponsibleStudentID != nil {
			if name, ok := names[*e.ResponsibleStudentID]; ok {
				responsible = name
			}
		}
		summary.Expenses = append(summary.Expenses, domain.ClassExpense{
			Description:        e.Description,
			Amount:             e.Amount,
			ResponsibleStudent: responsible,
			ActivityImage:      e.ActivityImage,
			CreatedAt:          e.CreatedAt,
		})
	}
	return summary
}
