package middleware

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type contextKey string

const NonceKey contextKey = "csp_nonce"

// Script hosts for htmx and the Tailwind play CDN
var scriptHosts = []string{"https://unpkg.com", "https://cdn.tailwindcss.com"}

// GenerateNonce returns 16 random bytes, base64url encoded
func GenerateNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ContentSecurityPolicy builds the dashboard policy for one nonce.
func ContentSecurityPolicy(nonce string) string {
	script := append([]string{"script-src", "'self'", "'nonce-" + nonce + "'"}, scriptHosts...)
	directives := []string{
		"default-src 'self'",
		strings.Join(script, " "),
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data:",
		"connect-src 'self'",
		"form-action 'self'",
		"frame-ancestors 'none'",
	}
	return strings.Join(directives, "; ")
}

// CSPNonce tags each request with a fresh nonce. Templates read it through
// GetNonce; handlers through c.Get(NonceKey).
func CSPNonce() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			nonce, err := GenerateNonce()
			if err != nil {
				zap.L().Error("failed to generate csp nonce", zap.Error(err))
				return echo.NewHTTPError(http.StatusInternalServerError)
			}

			c.Set(string(NonceKey), nonce)
			ctx := context.WithValue(c.Request().Context(), NonceKey, nonce)
			c.SetRequest(c.Request().WithContext(ctx))

			c.Response().Header().Set("Content-Security-Policy", ContentSecurityPolicy(nonce))
			return next(c)
		}
	}
}

// GetNonce retrieves the nonce from the context
func GetNonce(ctx context.Context) string {
	if val, ok := ctx.Value(NonceKey).(string); ok {
		return val
	}
	return ""
}
