package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mfalicoff/kosync/internal/api/metrics"
	"github.com/mfalicoff/kosync/internal/core/domain"
	"github.com/mfalicoff/kosync/internal/core/ports"
)

// KOReader credential headers. The key header carries whatever digest the
// device computed; the server treats it as an opaque secret.
const (
	HeaderAuthUser = "x-auth-user"
	HeaderAuthKey  = "x-auth-key"
)

const ctxClaims = "claims"

// Throttle rate-limits failed credential checks per client address. A nil
// Throttle disables throttling entirely.
type Throttle interface {
	Allow(ctx context.Context, ip string) (bool, error)
	RecordFailure(ctx context.Context, ip string) error
}

// Auth validates the per-request credential headers and injects the identity
// claims into the context. Every request re-validates against the store;
// there is no session or token caching.
func Auth(auth ports.AuthService, throttle Throttle, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			ip := ClientIPFromContext(c)

			if throttle != nil {
				allowed, err := throttle.Allow(ctx, ip)
				if err != nil {
					// A throttle outage must not lock every client out.
					log.Warn().Err(err).Msg("auth throttle unavailable")
				} else if !allowed {
					metrics.AuthAttemptsTotal.WithLabelValues("throttled").Inc()
					log.Warn().Str("client_ip", ip).Msg("auth attempts throttled")
					return echo.NewHTTPError(http.StatusTooManyRequests, "too many failed attempts")
				}
			}

			username := c.Request().Header.Get(HeaderAuthUser)
			secret := c.Request().Header.Get(HeaderAuthKey)
			if username == "" || secret == "" {
				metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication headers")
			}

			claims, err := auth.Authenticate(ctx, username, secret)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidCredentials) {
					metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
					if throttle != nil {
						if terr := throttle.RecordFailure(ctx, ip); terr != nil {
							log.Warn().Err(terr).Msg("failed to record auth failure")
						}
					}
					log.Warn().Str("username", username).Str("client_ip", ip).Msg("invalid credentials")
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
				}
				return err
			}

			if !claims.Active {
				metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
				log.Warn().Str("username", username).Msg("inactive account rejected")
				return echo.NewHTTPError(http.StatusUnauthorized, "account is inactive")
			}

			metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
			c.Set(ctxClaims, claims)
			return next(c)
		}
	}
}

// RequireAdmin gates an endpoint on the administrator claim. It must run
// after Auth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(ctxClaims).(*domain.Claims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}
			if !claims.Administrator {
				return echo.NewHTTPError(http.StatusForbidden, "administrator access required")
			}
			return next(c)
		}
	}
}

// ClaimsFromContext returns the claims injected by Auth.
func ClaimsFromContext(c echo.Context) (*domain.Claims, bool) {
	claims, ok := c.Get(ctxClaims).(*domain.Claims)
	return claims, ok
}

// SetClaims injects claims directly, bypassing Auth. Tests only.
func SetClaims(c echo.Context, claims *domain.Claims) {
	c.Set(ctxClaims, claims)
}
