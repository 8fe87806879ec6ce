package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mfalicoff/kosync/internal/api/middleware"
	"github.com/mfalicoff/kosync/internal/core/domain"
)

type stubUserService struct {
	registerFn       func(ctx context.Context, username, password string) (*domain.User, error)
	createUserFn     func(ctx context.Context, username, password string) (*domain.User, error)
	deleteUserFn     func(ctx context.Context, username string) error
	setActiveFn      func(ctx context.Context, username string, isActive bool) (*domain.User, error)
	toggleActiveFn   func(ctx context.Context, username string) (*domain.User, error)
	setPasswordFn    func(ctx context.Context, username, newPassword string) error
	listUsersFn      func(ctx context.Context) ([]domain.UserSummary, error)
	listDocumentsFn  func(ctx context.Context, username string) ([]domain.Progress, error)
	deleteDocumentFn func(ctx context.Context, username, documentHash string) error
}

func (s *stubUserService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	return s.registerFn(ctx, username, password)
}

func (s *stubUserService) CreateUser(ctx context.Context, username, password string) (*domain.User, error) {
	return s.createUserFn(ctx, username, password)
}

func (s *stubUserService) DeleteUser(ctx context.Context, username string) error {
	return s.deleteUserFn(ctx, username)
}

func (s *stubUserService) SetActive(ctx context.Context, username string, isActive bool) (*domain.User, error) {
	return s.setActiveFn(ctx, username, isActive)
}

func (s *stubUserService) ToggleActive(ctx context.Context, username string) (*domain.User, error) {
	return s.toggleActiveFn(ctx, username)
}

func (s *stubUserService) SetPassword(ctx context.Context, username, newPassword string) error {
	return s.setPasswordFn(ctx, username, newPassword)
}

func (s *stubUserService) ListUsers(ctx context.Context) ([]domain.UserSummary, error) {
	return s.listUsersFn(ctx)
}

func (s *stubUserService) ListDocuments(ctx context.Context, username string) ([]domain.Progress, error) {
	return s.listDocumentsFn(ctx, username)
}

func (s *stubUserService) DeleteDocument(ctx context.Context, username, documentHash string) error {
	return s.deleteDocumentFn(ctx, username, documentHash)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func TestUserHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		registerFn: func(ctx context.Context, username, password string) (*domain.User, error) {
			if username != "alice" || password != "secret1" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return &domain.User{ID: "id-1", Username: username, IsActive: true}, nil
		},
	}
	h := NewUserHandler(stub)

	body := strings.NewReader(`{"username":"alice","password":"secret1"}`)
	req := httptest.NewRequest(http.MethodPost, "/users/create", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["username"] != "alice" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestUserHandler_Register_Disabled(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		registerFn: func(ctx context.Context, username, password string) (*domain.User, error) {
			return nil, domain.ErrRegistrationDisabled
		},
	}
	h := NewUserHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/users/create", strings.NewReader(`{"username":"alice","password":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rec.Code)
	}
}

func TestUserHandler_Register_UserExists(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		registerFn: func(ctx context.Context, username, password string) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	h := NewUserHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/users/create", strings.NewReader(`{"username":"alice","password":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rec.Code)
	}
}

func TestUserHandler_Register_MissingFields(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		registerFn: func(ctx context.Context, username, password string) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewUserHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/users/create", strings.NewReader(`{"username":"alice"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Register(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestUserHandler_CheckAuth(t *testing.T) {
	e := newTestEcho()
	h := NewUserHandler(&stubUserService{})

	req := httptest.NewRequest(http.MethodGet, "/users/auth", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.SetClaims(c, &domain.Claims{Username: "alice", Active: true})

	if err := h.CheckAuth(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"username":"alice"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestUserHandler_CheckAuth_NoClaims(t *testing.T) {
	e := newTestEcho()
	h := NewUserHandler(&stubUserService{})

	req := httptest.NewRequest(http.MethodGet, "/users/auth", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CheckAuth(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
