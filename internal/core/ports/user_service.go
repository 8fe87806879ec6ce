package ports

import (
	"context"

	"github.com/mfalicoff/kosync/internal/core/domain"
)

// UserService covers account lifecycle. Register is the self-service path
// gated by the registration toggle; everything else is administrator-only and
// gated by the calling transport.
type UserService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	CreateUser(ctx context.Context, username, password string) (*domain.User, error)
	DeleteUser(ctx context.Context, username string) error
	SetActive(ctx context.Context, username string, isActive bool) (*domain.User, error)
	ToggleActive(ctx context.Context, username string) (*domain.User, error)
	SetPassword(ctx context.Context, username, newPassword string) error
	ListUsers(ctx context.Context) ([]domain.UserSummary, error)
	ListDocuments(ctx context.Context, username string) ([]domain.Progress, error)
	DeleteDocument(ctx context.Context, username, documentHash string) error
}
