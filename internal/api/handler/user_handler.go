package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mfalicoff/kosync/internal/api/metrics"
	"github.com/mfalicoff/kosync/internal/core/domain"
	"github.com/mfalicoff/kosync/internal/core/ports"
)

// UserHandler serves the device-facing account endpoints.
type UserHandler struct {
	userService ports.UserService
}

func NewUserHandler(userService ports.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type usernameResponse struct {
	Username string `json:"username"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// CheckAuth handles GET /users/auth — a credential-validation probe.
//
// @Summary      Validate credentials
// @Tags         users
// @Produce      json
// @Param        x-auth-user  header  string  true  "Username"
// @Param        x-auth-key   header  string  true  "Credential digest"
// @Success      200  {object}  usernameResponse
// @Failure      401  {object}  map[string]string
// @Router       /users/auth [get]
func (h *UserHandler) CheckAuth(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usernameResponse{Username: claims.Username})
}

// Register handles POST /users/create — anonymous self-registration.
//
// KOReader treats any non-201 as a failure and surfaces the message, and the
// legacy wire contract uses 402 both for "registration disabled" and "user
// exists", so those are mapped here rather than in the central error handler.
//
// @Summary      Create an account
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "Credentials"
// @Success      201   {object}  usernameResponse
// @Failure      402   {object}  messageResponse
// @Router       /users/create [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userService.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRegistrationDisabled):
			return c.JSON(http.StatusPaymentRequired, messageResponse{Message: "User registration is disabled"})
		case errors.Is(err, domain.ErrUserExists):
			return c.JSON(http.StatusPaymentRequired, messageResponse{Message: "User already exists"})
		}
		return err
	}

	metrics.UsersCreatedTotal.WithLabelValues("self").Inc()
	return c.JSON(http.StatusCreated, usernameResponse{Username: user.Username})
}
