// internal/auth/jwt.go
package auth

import (
	"errors"
	"log/slog"
	"time"

	"tesoreria/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

type TokenService struct {
	secretKey []byte
	expiresIn time.Duration
	now       func() time.Time
}

func NewTokenService(cfg config.Config) *TokenService {
	return &TokenService{
		secretKey: []byte(cfg.JWTSecret),
		expiresIn: cfg.JWTExpiresIn,
		now:       time.Now,
	}
}

// GenerateToken issues an HS256 token whose subject is the treasurer id.
func (s *TokenService) GenerateToken(treasurerID string) (string, error) {
	issuedAt := s.now()
	expTime := issuedAt.Add(s.expiresIn)
	claims := jwt.MapClaims{
		"sub": treasurerID,
		"iat": issuedAt.Unix(),
		"exp": expTime.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(s.secretKey)
	if err == nil {
		slog.Debug("JWT generated", "treasurer_id", treasurerID, "expires_at", expTime.Format(time.RFC3339))
	}
	return tokenStr, err
}

// ParseToken returns the treasurer id of a valid, unexpired token.
func (s *TokenService) ParseToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secretKey, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			return "", errors.New("invalid subject")
		}
		return sub, nil
	}
	return "", errors.New("invalid token claims")
}
