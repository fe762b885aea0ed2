package service

import (
	"context"
	"log/slog"
	"strings"

	"tesoreria/internal/domain"
	"tesoreria/internal/events"
)

type ExpenseInput struct {
	ResponsibleStudentID string
	Description          string
	Amount               domain.Money
	ActivityImage        *string
}

func (s *Service) RecordExpense(ctx context.Context, ownerID string, in ExpenseInput) (domain.Expense, error) {
	if err := requireOwner(ownerID); err != nil {
		return domain.Expense{}, err
	}

	responsible := strings.TrimSpace(in.ResponsibleStudentID)
	e := domain.Expense{
		ID:                   s.newID(),
		TreasurerID:          ownerID,
		ResponsibleStudentID: &responsible,
		Description:          domain.CleanText(in.Description),
		Amount:               domain.NewMoney(in.Amount.Decimal),
		ActivityImage:        emptyToNil(in.ActivityImage),
		CreatedAt:            s.now(),
	}
	if err := e.Validate(); err != nil {
		return domain.Expense{}, err
	}

	student, err := s.store.FindStudent(ctx, ownerID, responsible)
	if err != nil {
		return domain.Expense{}, err
	}
	if student == nil {
		return domain.Expense{}, domain.ErrNotFound
	}

	if err := s.store.CreateExpense(ctx, e); err != nil {
		return domain.Expense{}, err
	}

	slog.InfoContext(ctx, "expense recorded",
		"treasurer_id", ownerID,
		"expense_id", e.ID,
		"amount", e.Amount.String())
	s.publish(ctx, events.ExpenseRecorded, ownerID, e.ID)
	return e, nil
}

func (s *Service) ListExpenses(ctx context.Context, ownerID string, f domain.ExpenseFilter) ([]domain.Expense, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.store.ListExpenses(ctx, ownerID, f)
}

func (s *Service) DeleteExpense(ctx context.Context, ownerID, id string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	if err := s.store.DeleteExpense(ctx, ownerID, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "expense deleted", "treasurer_id", ownerID, "expense_id", id)
	s.publish(ctx, events.ExpenseDeleted, ownerID, id)
	return nil
}
