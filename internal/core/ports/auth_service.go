package ports

import (
	"context"

	"github.com/mfalicoff/kosync/internal/core/domain"
)

// AuthService validates per-request header credentials against the user
// store. There is no session state: every call re-checks the store.
type AuthService interface {
	Authenticate(ctx context.Context, username, secret string) (*domain.Claims, error)
}
