package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mfalicoff/kosync/internal/api/middleware"
	"github.com/mfalicoff/kosync/internal/core/domain"
)

// ctxClaims extracts the identity claims injected by the Auth middleware.
// Their presence proves the middleware ran; a protected handler reached
// without them is a wiring bug surfaced as 401.
func ctxClaims(c echo.Context) (*domain.Claims, error) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, nil
}
