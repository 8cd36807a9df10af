package middleware

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCSRFToken(t *testing.T) {
	e := echo.New()

	t.Run("TokenExists", func(t *testing.T) {
		c := e.NewContext(nil, nil)
		expectedToken := "test-csrf-token"
		c.Set("csrf", expectedToken)

		token := GetCSRFToken(c)
		assert.Equal(t, expectedToken, token)
	})

	t.Run("TokenMissing", func(t *testing.T) {
		c := e.NewContext(nil, nil)

		token := GetCSRFToken(c)
		assert.Equal(t, "", token)
	})

	t.Run("TokenInvalidType", func(t *testing.T) {
		c := e.NewContext(nil, nil)
		c.Set("csrf", 123) // Not a string

		token := GetCSRFToken(c)
		assert.Equal(t, "", token)
	})
}

func TestCSRF(t *testing.T) {
	e := echo.New()
	handler := CSRF(false)(func(c echo.Context) error {
		assert.Equal(t, GetCSRFToken(c), CSRFTokenFromContext(c.Request().Context()))
		return c.String(http.StatusOK, CSRFTokenFromContext(c.Request().Context()))
	})

	t.Run("GetIssuesToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, handler(c))
		token := rec.Body.String()
		assert.NotEmpty(t, token)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "_csrf", cookies[0].Name)
		assert.Equal(t, token, cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("PostWithHeaderToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.AddCookie(&http.Cookie{Name: "_csrf", Value: "known-token"})
		req.Header.Set(CSRFHeaderName, "known-token")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, handler(c))
		assert.Equal(t, "known-token", rec.Body.String())
	})

	t.Run("PostWithFormToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(CSRFFormField+"=known-token"))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		req.AddCookie(&http.Cookie{Name: "_csrf", Value: "known-token"})
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		assert.NoError(t, handler(c))
	})

	t.Run("PostWithWrongToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.AddCookie(&http.Cookie{Name: "_csrf", Value: "known-token"})
		req.Header.Set(CSRFHeaderName, "forged")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler(c)
		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusForbidden, he.Code)
	})

	t.Run("PostWithoutToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		assert.Error(t, handler(c))
	})
}

func multipartWithToken(t *testing.T, token string, fileSize int) (*bytes.Buffer, string) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField(CSRFFormField, token))
	part, err := w.CreateFormFile("file", "leads.csv")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("a"), fileSize))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func TestCSRF_MultipartForm(t *testing.T) {
	e := echo.New()
	ok := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
	handler := echomiddleware.BodyLimit("1K")(CSRF(false)(ok))

	t.Run("TokenInMultipartField", func(t *testing.T) {
		body, contentType := multipartWithToken(t, "known-token", 100)
		req := httptest.NewRequest(http.MethodPost, "/dashboard/upload", body)
		req.Header.Set(echo.HeaderContentType, contentType)
		req.AddCookie(&http.Cookie{Name: "_csrf", Value: "known-token"})
		rec := httptest.NewRecorder()

		require.NoError(t, handler(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("OversizedBodyKeepsTooLarge", func(t *testing.T) {
		body, contentType := multipartWithToken(t, "known-token", 8*1024)
		// Hide the length so the limit applies while reading
		req := httptest.NewRequest(http.MethodPost, "/dashboard/upload", struct{ *bytes.Buffer }{body})
		req.Header.Set(echo.HeaderContentType, contentType)
		req.AddCookie(&http.Cookie{Name: "_csrf", Value: "known-token"})
		rec := httptest.NewRecorder()

		err := handler(e.NewContext(req, rec))
		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusRequestEntityTooLarge, he.Code)
	})

	t.Run("MalformedMultipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/dashboard/upload", strings.NewReader("not multipart"))
		req.Header.Set(echo.HeaderContentType, "multipart/form-data")
		req.AddCookie(&http.Cookie{Name: "_csrf", Value: "known-token"})
		rec := httptest.NewRecorder()

		err := handler(e.NewContext(req, rec))
		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusBadRequest, he.Code)
	})
}
