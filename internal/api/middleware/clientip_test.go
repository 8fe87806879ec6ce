package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func resolveIP(t *testing.T, trustedProxies []string, remoteAddr, forwardedFor string) (string, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var ip string
	var trusted bool
	next := func(c echo.Context) error {
		ip = ClientIPFromContext(c)
		trusted = TrustedProxyFromContext(c)
		return nil
	}
	if err := ClientIP(trustedProxies)(next)(c); err != nil {
		t.Fatalf("middleware error: %v", err)
	}
	return ip, trusted
}

func TestClientIP_DirectConnection(t *testing.T) {
	ip, trusted := resolveIP(t, nil, "203.0.113.7:51234", "")
	if ip != "203.0.113.7" || trusted {
		t.Fatalf("unexpected result: %s trusted=%v", ip, trusted)
	}
}

func TestClientIP_TrustedProxyForwards(t *testing.T) {
	ip, trusted := resolveIP(t, []string{"10.0.0.1"}, "10.0.0.1:443", "203.0.113.7, 10.0.0.1")
	if ip != "203.0.113.7" || !trusted {
		t.Fatalf("unexpected result: %s trusted=%v", ip, trusted)
	}
}

func TestClientIP_UntrustedProxyIgnored(t *testing.T) {
	// X-Forwarded-For is spoofable; only trusted proxies may set it.
	ip, trusted := resolveIP(t, []string{"10.0.0.1"}, "198.51.100.9:443", "203.0.113.7")
	if ip != "198.51.100.9" || trusted {
		t.Fatalf("unexpected result: %s trusted=%v", ip, trusted)
	}
}

func TestClientIP_TrustedProxyWithoutHeader(t *testing.T) {
	ip, trusted := resolveIP(t, []string{"10.0.0.1"}, "10.0.0.1:443", "")
	if ip != "10.0.0.1" || !trusted {
		t.Fatalf("unexpected result: %s trusted=%v", ip, trusted)
	}
}

func TestClientIP_InvalidForwardedValue(t *testing.T) {
	ip, _ := resolveIP(t, []string{"10.0.0.1"}, "10.0.0.1:443", "not-an-ip")
	if ip != "10.0.0.1" {
		t.Fatalf("expected fallback to connecting address, got %s", ip)
	}
}
