package service

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mfalicoff/kosync/internal/core/domain"
	"github.com/mfalicoff/kosync/internal/core/ports"
)

func progressInput(percentage string) ports.ProgressInput {
	return ports.ProgressInput{
		Progress:   "marker",
		Percentage: decimal.RequireFromString(percentage),
		Device:     "kindle",
		DeviceID:   "dev-1",
	}
}

// stubUserRepo is an in-memory UserRepository for service tests.
type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Documents = make(map[string]domain.Progress, len(u.Documents))
	for k, v := range u.Documents {
		clone.Documents[k] = v
	}
	return &clone
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) ListAll(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Username]; exists {
		return nil, domain.ErrUserExists
	}
	r.users[user.Username] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Username]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[user.Username] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[username]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, username)
	return nil
}

func (r *stubUserRepo) GetDocument(_ context.Context, username, documentHash string) (*domain.Progress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	p, ok := u.Documents[documentHash]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return &p, nil
}

func (r *stubUserRepo) UpsertDocument(_ context.Context, username string, progress domain.Progress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.Documents == nil {
		u.Documents = make(map[string]domain.Progress)
	}
	u.Documents[progress.DocumentHash] = progress
	return nil
}

func (r *stubUserRepo) RemoveDocument(_ context.Context, username, documentHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return domain.ErrUserNotFound
	}
	if _, ok := u.Documents[documentHash]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(u.Documents, documentHash)
	return nil
}

func (r *stubUserRepo) ListDocuments(_ context.Context, username string) ([]domain.Progress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := make([]domain.Progress, 0, len(u.Documents))
	for _, p := range u.Documents {
		out = append(out, p)
	}
	return out, nil
}

func (r *stubUserRepo) TotalDocumentCount(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, u := range r.users {
		total += int64(len(u.Documents))
	}
	return total, nil
}
