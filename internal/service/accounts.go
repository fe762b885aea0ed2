package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tesoreria/internal/auth"
	"tesoreria/internal/domain"
)

type RegisterInput struct {
	Username     string
	Password     string
	ParaleloName string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.Treasurer, error) {
	username := strings.TrimSpace(in.Username)
	paralelo := domain.CleanText(in.ParaleloName)
	if err := domain.ValidateRegistration(username, in.Password, paralelo); err != nil {
		return domain.Treasurer{}, err
	}

	existing, err := s.store.FindTreasurerByUsername(ctx, username)
	if err != nil {
		return domain.Treasurer{}, err
	}
	if existing != nil {
		return domain.Treasurer{}, domain.ErrDuplicateUsername
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.Treasurer{}, fmt.Errorf("hash password: %w", err)
	}

	t := domain.Treasurer{
		ID:           s.newID(),
		Username:     username,
		PasswordHash: hash,
		ParaleloName: paralelo,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateTreasurer(ctx, t); err != nil {
		return domain.Treasurer{}, err
	}

	slog.InfoContext(ctx, "treasurer registered", "treasurer_id", t.ID, "username", t.Username)
	return t, nil
}

// Login returns a signed token for valid credentials. Unknown users and wrong
// passwords fail the same way.
func (s *Service) Login(ctx context.Context, username, password string) (string, domain.Treasurer, error) {
	t, err := s.store.FindTreasurerByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", domain.Treasurer{}, err
	}
	if t == nil || !auth.CheckPassword(t.PasswordHash, password) {
		return "", domain.Treasurer{}, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(t.ID)
	if err != nil {
		return "", domain.Treasurer{}, fmt.Errorf("generate token: %w", err)
	}
	return token, *t, nil
}

func (s *Service) Me(ctx context.Context, ownerID string) (domain.Treasurer, error) {
	if err := requireOwner(ownerID); err != nil {
		return domain.Treasurer{}, err
	}
	t, err := s.store.FindTreasurerByID(ctx, ownerID)
	if err != nil {
		return domain.Treasurer{}, err
	}
	if t == nil {
		// token for an account that no longer exists
		return domain.Treasurer{}, domain.ErrUnauthorized
	}
	return *t, nil
}
