// internal/storage/storage.go
package storage

import (
	"context"

	"tesoreria/internal/domain"
)

// Find* methods return (nil, nil) when nothing matches. Mutations scoped by
// treasurerID return domain.ErrNotFound when the row is not in that scope.

type TreasurerStorage interface {
	CreateTreasurer(ctx context.Context, t domain.Treasurer) error
	FindTreasurerByUsername(ctx context.Context, username string) (*domain.Treasurer, error)
	FindTreasurerByID(ctx context.Context, id string) (*domain.Treasurer, error)
}

type StudentStorage interface {
	// CreateStudent fails with domain.ErrDuplicateCedula on a taken cedula.
	CreateStudent(ctx context.Context, s domain.Student) error
	ListStudents(ctx context.Context, treasurerID string) ([]domain.Student, error)
	FindStudent(ctx context.Context, treasurerID, id string) (*domain.Student, error)
	FindStudentByCedula(ctx context.Context, cedula string) (*domain.Student, error)
	// DeleteStudent removes the student and its payments and detaches its
	// expenses in one transaction.
	DeleteStudent(ctx context.Context, treasurerID, id string) error
}

type SettingsStorage interface {
	GetSettings(ctx context.Context, treasurerID string) (*domain.PaymentSettings, error)
	// SaveSettings replaces the treasurer's current settings.
	SaveSettings(ctx context.Context, s domain.PaymentSettings) error
}

type PaymentStorage interface {
	// CreatePayment fails with domain.ErrDuplicatePayment when the
	// (student, month, year) period is already paid.
	CreatePayment(ctx context.Context, p domain.Payment) error
	ListPayments(ctx context.Context, treasurerID string, f domain.PaymentFilter) ([]domain.Payment, error)
	DeletePayment(ctx context.Context, treasurerID, id string) error
}

type ExpenseStorage interface {
	CreateExpense(ctx context.Context, e domain.Expense) error
	ListExpenses(ctx context.Context, treasurerID string, f domain.ExpenseFilter) ([]domain.Expense, error)
	DeleteExpense(ctx context.Context, treasurerID, id string) error
}

// Storage is everything the service needs from one backend.
type Storage interface {
	TreasurerStorage
	StudentStorage
	SettingsStorage
	PaymentStorage
	ExpenseStorage
	Ping(ctx context.Context) error
	Close() error
}
