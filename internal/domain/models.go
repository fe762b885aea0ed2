// internal/domain/models.go
package domain

import "time"

// Treasurer owns one class ("paralelo") data partition.
type Treasurer struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	ParaleloName string    `json:"paralelo_name"`
	CreatedAt    time.Time `json:"created_at"`
}

type Student struct {
	ID          string    `json:"id"`
	TreasurerID string    `json:"tesorero_id"`
	Name        string    `json:"name"`
	Cedula      string    `json:"cedula"`
	CreatedAt   time.Time `json:"created_at"`
}

// PaymentSettings is the single current dues configuration of a treasurer.
// Saving again overwrites it.
type PaymentSettings struct {
	ID             string    `json:"id"`
	TreasurerID    string    `json:"tesorero_id"`
	MonthlyAmount  Money     `json:"monthly_amount"`
	AcademicYear   string    `json:"academic_year"`
	SelectedMonths []string  `json:"selected_months"`
	CreatedAt      time.Time `json:"created_at"`
}

// Payment is one recorded monthly due. At most one per (StudentID, Month, Year).
type Payment struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"student_id"`
	Month        string    `json:"month"`
	Year         string    `json:"year"`
	Amount       Money     `json:"amount"`
	ReceiptImage *string   `json:"receipt_image"`
	CreatedAt    time.Time `json:"created_at"`
}

// Expense is a class expense. ResponsibleStudentID becomes nil once the
// responsible student is deleted.
type Expense struct {
	ID                   string    `json:"id"`
	TreasurerID          string    `json:"tesorero_id"`
	ResponsibleStudentID *string   `json:"responsible_student_id"`
	Description          string    `json:"description"`
	Amount               Money     `json:"amount"`
	ActivityImage        *string   `json:"activity_image"`
	CreatedAt            time.Time `json:"created_at"`
}

type PaymentFilter struct {
	StudentID string
}

type ExpenseFilter struct {
	ResponsibleStudentID string
}

type DashboardSummary struct {
	TotalIncome     Money `json:"total_income"`
	TotalExpenses   Money `json:"total_expenses"`
	CurrentBalance  Money `json:"current_balance"`
	TotalStudents   int   `json:"total_students"`
	PendingPayments int   `json:"pending_payments"`
}

// StudentStatement is the public view of one student's payments, in creation order.
type StudentStatement struct {
	Name      string    `json:"name"`
	Cedula    string    `json:"cedula"`
	TotalPaid Money     `json:"total_paid"`
	Payments  []Payment `json:"payments"`
}

// ClassSummary is the public balance view of a whole class.
type ClassSummary struct {
	ParaleloName   string         `json:"paralelo_name"`
	TotalIncome    Money          `json:"total_income"`
	TotalExpenses  Money          `json:"total_expenses"`
	CurrentBalance Money          `json:"current_balance"`
	Expenses       []ClassExpense `json:"expenses"`
}

type ClassExpense struct {
	Description        string    `json:"description"`
	Amount             Money     `json:"amount"`
	ResponsibleStudent string    `json:"responsible_student"`
	ActivityImage      *string   `json:"activity_image"`
	CreatedAt          time.Time `json:"created_at"`
}
