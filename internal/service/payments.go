package service

import (
	"context"
	"log/slog"
	"strings"

	"tesoreria/internal/domain"
	"tesoreria/internal/events"
)

type PaymentInput struct {
	StudentID    string
	Month        string
	Year         string
	Amount       domain.Money
	ReceiptImage *string
}

// RecordPayment stores one due for a (student, month, year) period. A second
// payment for the same period fails with domain.ErrDuplicatePayment; the
// storage unique constraint settles concurrent attempts.
func (s *Service) RecordPayment(ctx context.Context, ownerID string, in PaymentInput) (domain.Payment, error) {
	if err := requireOwner(ownerID); err != nil {
		return domain.Payment{}, err
	}

	month, ok := domain.CanonicalMonth(in.Month)
	if !ok {
		return domain.Payment{}, &domain.ValidationError{Field: "month", Message: "unknown month " + in.Month}
	}
	p := domain.Payment{
		ID:           s.newID(),
		StudentID:    strings.TrimSpace(in.StudentID),
		Month:        month,
		Year:         strings.TrimSpace(in.Year),
		Amount:       domain.NewMoney(in.Amount.Decimal),
		ReceiptImage: emptyToNil(in.ReceiptImage),
		CreatedAt:    s.now(),
	}
	if err := p.Validate(); err != nil {
		return domain.Payment{}, err
	}

	student, err := s.store.FindStudent(ctx, ownerID, p.StudentID)
	if err != nil {
		return domain.Payment{}, err
	}
	if student == nil {
		return domain.Payment{}, domain.ErrNotFound
	}

	if s.strictMonths {
		if err := s.checkPayableMonth(ctx, ownerID, p.Month); err != nil {
			return domain.Payment{}, err
		}
	}

	if err := s.store.CreatePayment(ctx, p); err != nil {
		return domain.Payment{}, err
	}

	slog.InfoContext(ctx, "payment recorded",
		"treasurer_id", ownerID,
		"payment_id", p.ID,
		"student_id", p.StudentID,
		"month", p.Month,
		"year", p.Year,
		"amount", p.Amount.String())
	s.publish(ctx, events.PaymentRecorded, ownerID, p.ID)
	return p, nil
}

func (s *Service) checkPayableMonth(ctx context.Context, ownerID, month string) error {
	settings, err := s.store.GetSettings(ctx, ownerID)
	if err != nil {
		return err
	}
	if settings == nil {
		return &domain.ValidationError{Field: "month", Message: "payment settings are not configured"}
	}
	if !settings.HasMonth(month) {
		return &domain.ValidationError{Field: "month", Message: month + " is not a payable month"}
	}
	return nil
}

// ListPayments returns the owner's payments in creation order, optionally
// for one student.
func (s *Service) ListPayments(ctx context.Context, ownerID string, f domain.PaymentFilter) ([]domain.Payment, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.store.ListPayments(ctx, ownerID, f)
}

func (s *Service) DeletePayment(ctx context.Context, ownerID, id string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	if err := s.store.DeletePayment(ctx, ownerID, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "payment deleted", "treasurer_id", ownerID, "payment_id", id)
	s.publish(ctx, events.PaymentDeleted, ownerID, id)
	return nil
}

func emptyToNil(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	return p
}
