package service

import (
	"context"
	"log/slog"

	"tesoreria/internal/domain"
	"tesoreria/internal/events"
)

func (s *Service) AddStudent(ctx context.Context, ownerID, name, cedula string) (domain.Student, error) {
	if err := requireOwner(ownerID); err != nil {
		return domain.Student{}, err
	}
	name = domain.CleanText(name)
	cedula = domain.NormalizeCedula(cedula)
	if err := domain.ValidateStudent(name, cedula); err != nil {
		return domain.Student{}, err
	}

	st := domain.Student{
		ID:          s.newID(),
		TreasurerID: ownerID,
		Name:        name,
		Cedula:      cedula,
		CreatedAt:   s.now(),
	}
	if err := s.store.CreateStudent(ctx, st); err != nil {
		return domain.Student{}, err
	}

	slog.InfoContext(ctx, "student added", "treasurer_id", ownerID, "student_id", st.ID)
	s.publish(ctx, events.StudentCreated, ownerID, st.ID)
	return st, nil
}

// ListStudents returns the owner's students in creation order.
func (s *Service) ListStudents(ctx context.Context, ownerID string) ([]domain.Student, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.store.ListStudents(ctx, ownerID)
}

// DeleteStudent removes the student with its payments and detaches it from
// its expenses, atomically.
func (s *Service) DeleteStudent(ctx context.Context, ownerID, id string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	if err := s.store.DeleteStudent(ctx, ownerID, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "student deleted", "treasurer_id", ownerID, "student_id", id)
	s.publish(ctx, events.StudentDeleted, ownerID, id)
	return nil
}

// FindByCedula is the public, unscoped lookup. It returns nil when no
// student has that cedula.
func (s *Service) FindByCedula(ctx context.Context, cedula string) (*domain.Student, error) {
	cedula = domain.NormalizeCedula(cedula)
	if cedula == "" {
		return nil, nil
	}
	return s.store.FindStudentByCedula(ctx, cedula)
}
