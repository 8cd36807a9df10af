package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

const (
	CSRFTokenKey   contextKey = "csrf"
	CSRFHeaderName            = "X-CSRF-Token"
	CSRFFormField             = "_csrf"
	csrfCookieName            = "_csrf"

	// Same memory bound echo's form lookup parses with
	formMemory = 32 << 20
)

// CSRF protects the dashboard actions. The token is accepted from the
// X-CSRF-Token header (htmx) or the _csrf form field (plain form posts).
func CSRF(secureCookie bool) echo.MiddlewareFunc {
	protect := echomiddleware.CSRFWithConfig(echomiddleware.CSRFConfig{
		TokenLookup:    "header:" + CSRFHeaderName + ",form:" + CSRFFormField,
		ContextKey:     string(CSRFTokenKey),
		CookieName:     csrfCookieName,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   secureCookie,
		CookieSameSite: http.SameSiteStrictMode,
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		// Expose the token to templ components through the request context
		withToken := func(c echo.Context) error {
			ctx := context.WithValue(c.Request().Context(), CSRFTokenKey, GetCSRFToken(c))
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
		check := protect(withToken)

		return func(c echo.Context) error {
			if err := parseForm(c.Request()); err != nil {
				return err
			}
			return check(c)
		}
	}
}

// parseForm reads form bodies ahead of the token lookup, which ignores
// parse errors. A body cut off by BodyLimit keeps its 413 instead of
// turning into a missing token.
func parseForm(req *http.Request) error {
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return nil
	}

	err := req.ParseMultipartForm(formMemory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return nil
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return echo.NewHTTPError(http.StatusBadRequest, "malformed form body")
}

// GetCSRFToken retrieves the CSRF token from the Echo context
// This token should be included in forms and AJAX requests
func GetCSRFToken(c echo.Context) string {
	token := c.Get(string(CSRFTokenKey))
	if token == nil {
		return ""
	}
	if tokenStr, ok := token.(string); ok {
		return tokenStr
	}
	return ""
}

// CSRFTokenFromContext is GetCSRFToken for templates
func CSRFTokenFromContext(ctx context.Context) string {
	if val, ok := ctx.Value(CSRFTokenKey).(string); ok {
		return val
	}
	return ""
}
