package service

import (
	"context"
	"log/slog"
	"strings"

	"tesoreria/internal/domain"
	"tesoreria/internal/events"
)

type SettingsInput struct {
	MonthlyAmount  domain.Money
	AcademicYear   string
	SelectedMonths []string
}

// GetSettings returns nil when the owner never configured payments.
func (s *Service) GetSettings(ctx context.Context, ownerID string) (*domain.PaymentSettings, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.store.GetSettings(ctx, ownerID)
}

// SaveSettings replaces the owner's current settings.
func (s *Service) SaveSettings(ctx context.Context, ownerID string, in SettingsInput) (domain.PaymentSettings, error) {
	if err := requireOwner(ownerID); err != nil {
		return domain.PaymentSettings{}, err
	}
	months, err := domain.NormalizeMonths(in.SelectedMonths)
	if err != nil {
		return domain.PaymentSettings{}, err
	}

	ps := domain.PaymentSettings{
		ID:             s.newID(),
		TreasurerID:    ownerID,
		MonthlyAmount:  domain.NewMoney(in.MonthlyAmount.Decimal),
		AcademicYear:   strings.TrimSpace(in.AcademicYear),
		SelectedMonths: months,
		CreatedAt:      s.now(),
	}
	if err := ps.Validate(); err != nil {
		return domain.PaymentSettings{}, err
	}
	if err := s.store.SaveSettings(ctx, ps); err != nil {
		return domain.PaymentSettings{}, err
	}

	slog.InfoContext(ctx, "payment settings saved",
		"treasurer_id", ownerID,
		"academic_year", ps.AcademicYear,
		"months", len(ps.SelectedMonths))
	s.publish(ctx, events.SettingsSaved, ownerID, ps.ID)
	return ps, nil
}
