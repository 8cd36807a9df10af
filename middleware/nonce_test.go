package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNonce_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		nonce, err := GenerateNonce()
		require.NoError(t, err)
		assert.Len(t, nonce, 22)
		assert.False(t, seen[nonce], "nonce repeated")
		seen[nonce] = true
	}
}

func TestContentSecurityPolicy(t *testing.T) {
	csp := ContentSecurityPolicy("abc")

	directives := make(map[string]string)
	for _, d := range strings.Split(csp, "; ") {
		name, value, _ := strings.Cut(d, " ")
		directives[name] = value
	}

	assert.Equal(t, "'self'", directives["default-src"])
	assert.Equal(t, "'self' 'nonce-abc' https://unpkg.com https://cdn.tailwindcss.com", directives["script-src"])
	assert.Equal(t, "'self'", directives["form-action"])
	assert.Equal(t, "'none'", directives["frame-ancestors"])
}

func TestCSPNonce(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var fromTemplate string
	handler := CSPNonce()(func(c echo.Context) error {
		fromTemplate = GetNonce(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))

	nonce, ok := c.Get(string(NonceKey)).(string)
	require.True(t, ok)
	assert.Equal(t, nonce, fromTemplate)
	assert.Equal(t, ContentSecurityPolicy(nonce), rec.Header().Get("Content-Security-Policy"))
}

func TestGetNonce_Missing(t *testing.T) {
	assert.Empty(t, GetNonce(context.Background()))
}
