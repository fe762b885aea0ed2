package service

import (
	"context"

	"tesoreria/internal/aggregate"
	"tesoreria/internal/domain"

	"golang.org/x/sync/errgroup"
)

// snapshot is one read of everything the aggregates need.
type snapshot struct {
	students []domain.Student
	settings *domain.PaymentSettings
	payments []domain.Payment
	expenses []domain.Expense
}

func (s *Service) load(ctx context.Context, ownerID string) (snapshot, error) {
	var snap snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.students, err = s.store.ListStudents(ctx, ownerID)
		return err
	})
	g.Go(func() (err error) {
		snap.settings, err = s.store.GetSettings(ctx, ownerID)
		return err
	})
	g.Go(func() (err error) {
		snap.payments, err = s.store.ListPayments(ctx, ownerID, domain.PaymentFilter{})
		return err
	})
	g.Go(func() (err error) {
		snap.expenses, err = s.store.ListExpenses(ctx, ownerID, domain.ExpenseFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	return snap, nil
}

func (s *Service) DashboardSummary(ctx context.Context, ownerID string) (domain.DashboardSummary, error) {
	if err := requireOwner(ownerID); err != nil {
		return domain.DashboardSummary{}, err
	}
	snap, err := s.load(ctx, ownerID)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	return aggregate.Dashboard(snap.students, snap.settings, snap.payments, snap.expenses), nil
}

// StudentStatement is the public lookup by cedula. Payments come back in
// creation order; domain.ErrNotFound when no student matches.
func (s *Service) StudentStatement(ctx context.Context, cedula string) (domain.StudentStatement, error) {
	student, err := s.FindByCedula(ctx, cedula)
	if err != nil {
		return domain.StudentStatement{}, err
	}
	if student == nil {
		return domain.StudentStatement{}, domain.ErrNotFound
	}

	payments, err := s.store.ListPayments(ctx, student.TreasurerID, domain.PaymentFilter{StudentID: student.ID})
	if err != nil {
		return domain.StudentStatement{}, err
	}
	return aggregate.Statement(*student, payments), nil
}

// ClassSummary is the public balance of one treasurer's class.
func (s *Service) ClassSummary(ctx context.Context, treasurerID string) (domain.ClassSummary, error) {
	t, err := s.store.FindTreasurerByID(ctx, treasurerID)
	if err != nil {
		return domain.ClassSummary{}, err
	}
	if t == nil {
		return domain.ClassSummary{}, domain.ErrNotFound
	}

	snap, err := s.load(ctx, treasurerID)
	if err != nil {
		return domain.ClassSummary{}, err
	}
	return aggregate.Class(*t, snap.students, snap.payments, snap.expenses), nil
}
