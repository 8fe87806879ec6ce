package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	ctxClientIP     = "client_ip"
	ctxTrustedProxy = "trusted_proxy"
)

// ClientIP resolves the client address for logging attribution. The
// X-Forwarded-For header is only honoured when the connecting address is in
// the trusted proxy allowlist; the result never influences auth decisions.
func ClientIP(trustedProxies []string) echo.MiddlewareFunc {
	trusted := make(map[string]struct{}, len(trustedProxies))
	for _, p := range trustedProxies {
		if p = strings.TrimSpace(p); p != "" {
			trusted[p] = struct{}{}
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			connecting := connectingIP(c.Request())
			_, viaTrusted := trusted[connecting]

			ip := connecting
			if viaTrusted {
				if forwarded := forwardedIP(c.Request()); forwarded != "" {
					ip = forwarded
				}
			}

			c.Set(ctxClientIP, ip)
			c.Set(ctxTrustedProxy, viaTrusted)
			return next(c)
		}
	}
}

// ClientIPFromContext returns the address resolved by the ClientIP
// middleware, falling back to the connecting address.
func ClientIPFromContext(c echo.Context) string {
	if ip, ok := c.Get(ctxClientIP).(string); ok && ip != "" {
		return ip
	}
	return connectingIP(c.Request())
}

// TrustedProxyFromContext reports whether the request arrived through a
// trusted proxy.
func TrustedProxyFromContext(c echo.Context) bool {
	trusted, _ := c.Get(ctxTrustedProxy).(bool)
	return trusted
}

func connectingIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := net.ParseIP(host); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4.String()
		}
		return ip.String()
	}
	return host
}

// forwardedIP returns the first valid address in X-Forwarded-For, if any.
func forwardedIP(r *http.Request) string {
	header := r.Header.Get("X-Forwarded-For")
	if header == "" {
		return ""
	}
	for _, part := range strings.Split(header, ",") {
		candidate := strings.TrimSpace(part)
		if candidate == "" {
			continue
		}
		if net.ParseIP(candidate) != nil {
			return candidate
		}
		return ""
	}
	return ""
}
