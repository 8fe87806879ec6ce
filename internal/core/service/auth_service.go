package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mfalicoff/kosync/internal/core/domain"
	"github.com/mfalicoff/kosync/internal/core/ports"
)

// AuthService validates the per-request credential pair. The secret is
// whatever the device puts in its key header; it is treated as an opaque
// passphrase and compared against the stored bcrypt hash.
type AuthService struct {
	repo   ports.UserRepository
	logger zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, logger zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, logger: logger}
}

// Authenticate looks up the user and verifies the secret. It returns the
// identity assertion for the request; an unknown username and a wrong secret
// are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, username, secret string) (*domain.Claims, error) {
	if username == "" || secret == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(secret)) != nil {
		s.logger.Warn().Str("username", username).Msg("credential mismatch")
		return nil, domain.ErrInvalidCredentials
	}

	return &domain.Claims{
		Username:      user.Username,
		Active:        user.IsActive,
		Administrator: user.IsAdministrator,
	}, nil
}

// HashSecret produces the stored form of a credential.
func HashSecret(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
