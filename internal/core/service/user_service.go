package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mfalicoff/kosync/internal/core/domain"
	"github.com/mfalicoff/kosync/internal/core/ports"
)

// UserService implements account lifecycle. The registration toggle is
// injected at construction; it gates only the self-service Register path,
// administrators can always create accounts.
type UserService struct {
	repo                ports.UserRepository
	registrationEnabled bool
	logger              zerolog.Logger
}

func NewUserService(repo ports.UserRepository, registrationEnabled bool, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, registrationEnabled: registrationEnabled, logger: logger}
}

// Register creates an account through the anonymous device endpoint.
func (s *UserService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if !s.registrationEnabled {
		s.logger.Warn().Str("username", username).Msg("registration attempted while disabled")
		return nil, domain.ErrRegistrationDisabled
	}
	return s.create(ctx, username, password)
}

// CreateUser creates an account on behalf of an administrator, bypassing the
// registration toggle.
func (s *UserService) CreateUser(ctx context.Context, username, password string) (*domain.User, error) {
	return s.create(ctx, username, password)
}

func (s *UserService) create(ctx context.Context, username, password string) (*domain.User, error) {
	if strings.TrimSpace(password) == "" {
		return nil, domain.ErrInvalidPassword
	}

	hash, err := HashSecret(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:              uuid.NewString(),
		Username:        username,
		PasswordHash:    hash,
		IsActive:        true,
		IsAdministrator: false,
		Documents:       make(map[string]domain.Progress),
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("username", username).Msg("user created")
	return created, nil
}

// DeleteUser removes the account and all of its progress records. The
// reserved admin account is always protected.
func (s *UserService) DeleteUser(ctx context.Context, username string) error {
	if username == domain.AdminUsername {
		s.logger.Warn().Msg("attempt to delete the admin account")
		return domain.ErrForbidden
	}

	if _, err := s.repo.FindByUsername(ctx, username); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, username); err != nil {
		return err
	}

	s.logger.Info().Str("username", username).Msg("user deleted")
	return nil
}

// SetActive flips the account's active flag and returns the updated user.
func (s *UserService) SetActive(ctx context.Context, username string, isActive bool) (*domain.User, error) {
	if username == domain.AdminUsername {
		s.logger.Warn().Msg("attempt to change admin account status")
		return nil, domain.ErrForbidden
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	user.IsActive = isActive
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("username", username).
		Bool("active", isActive).
		Msg("user status updated")
	return user, nil
}

// ToggleActive flips the account's current active flag.
func (s *UserService) ToggleActive(ctx context.Context, username string) (*domain.User, error) {
	if username == domain.AdminUsername {
		s.logger.Warn().Msg("attempt to change admin account status")
		return nil, domain.ErrForbidden
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.SetActive(ctx, username, !user.IsActive)
}

// SetPassword replaces the stored credential hash. KOReader will not attempt
// to log in with a blank or whitespace-only password field, so those are
// rejected here as well.
func (s *UserService) SetPassword(ctx context.Context, username, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return domain.ErrInvalidPassword
	}

	if username == domain.AdminUsername {
		s.logger.Warn().Msg("attempt to change admin account password")
		return domain.ErrForbidden
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return err
	}

	hash, err := HashSecret(newPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}

	s.logger.Info().Str("username", username).Msg("user password updated")
	return nil
}

// ListUsers returns summaries of all accounts without credential material.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.UserSummary, error) {
	users, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, u.Summary())
	}
	return summaries, nil
}

// ListDocuments returns all progress records stored for the user.
func (s *UserService) ListDocuments(ctx context.Context, username string) ([]domain.Progress, error) {
	if _, err := s.repo.FindByUsername(ctx, username); err != nil {
		return nil, err
	}
	return s.repo.ListDocuments(ctx, username)
}

// DeleteDocument removes a single progress record from the user.
func (s *UserService) DeleteDocument(ctx context.Context, username, documentHash string) error {
	if _, err := s.repo.FindByUsername(ctx, username); err != nil {
		return err
	}

	if err := s.repo.RemoveDocument(ctx, username, documentHash); err != nil {
		return err
	}

	s.logger.Info().
		Str("username", username).
		Str("document", documentHash).
		Msg("document deleted")
	return nil
}
