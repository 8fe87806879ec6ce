package ports

import (
	"context"

	"github.com/mfalicoff/kosync/internal/core/domain"
)

// UserRepository is the storage contract for users and their embedded
// progress records. The backing engine is swappable; callers may only rely on
// point lookups by username and by (username, documentHash), plus full-record
// replacement. A user's delete removes all of that user's progress within the
// store's native atomicity unit.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	ListAll(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, username string) error

	GetDocument(ctx context.Context, username, documentHash string) (*domain.Progress, error)
	UpsertDocument(ctx context.Context, username string, progress domain.Progress) error
	RemoveDocument(ctx context.Context, username, documentHash string) error
	ListDocuments(ctx context.Context, username string) ([]domain.Progress, error)
	TotalDocumentCount(ctx context.Context) (int64, error)
}
