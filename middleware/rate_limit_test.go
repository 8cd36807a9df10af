package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestNewRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		Requests: 10,
		Window:   time.Minute,
	})
	defer rl.Stop()

	assert.NotNil(t, rl)
	assert.Equal(t, 10, rl.config.Requests)
	assert.Equal(t, time.Minute, rl.config.Window)
	assert.NotNil(t, rl.config.KeyFunc)
	assert.NotNil(t, rl.config.Handler)
	assert.Equal(t, "Too many requests. Please try again later.", rl.config.Message)
}

func TestRateLimiterMiddleware(t *testing.T) {
	e := echo.New()

	t.Run("WithinLimit", func(t *testing.T) {
		rl := NewActionRateLimiter(2, time.Second, nil)
		defer rl.Stop()

		handler := rl.Middleware()(func(c echo.Context) error {
			return c.String(http.StatusOK, "success")
		})

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodPost, "/dashboard/process", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			assert.NoError(t, handler(c))
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("ExceededLimit", func(t *testing.T) {
		rl := NewActionRateLimiter(1, time.Second, nil)
		defer rl.Stop()

		handler := rl.Middleware()(func(c echo.Context) error {
			return c.String(http.StatusOK, "success")
		})

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		assert.NoError(t, handler(e.NewContext(req, rec)))

		req = httptest.NewRequest(http.MethodPost, "/", nil)
		rec = httptest.NewRecorder()
		err := handler(e.NewContext(req, rec))

		assert.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusTooManyRequests, he.Code)
	})

	t.Run("CustomHandler", func(t *testing.T) {
		var refused string
		rl := NewActionRateLimiter(1, time.Second, func(c echo.Context, message string) error {
			refused = message
			return c.HTML(http.StatusTooManyRequests, "<div id=\"flash\">"+message+"</div>")
		})
		defer rl.Stop()

		handler := rl.Middleware()(func(c echo.Context) error {
			return c.String(http.StatusOK, "success")
		})

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		assert.NoError(t, handler(e.NewContext(req, rec)))
		assert.Empty(t, refused)

		req = httptest.NewRequest(http.MethodPost, "/", nil)
		rec = httptest.NewRecorder()

		err := handler(e.NewContext(req, rec))
		assert.NoError(t, err)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Contains(t, refused, "Too many actions")
		assert.Contains(t, rec.Body.String(), "Too many actions")
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	})
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := NewActionRateLimiter(1, time.Minute, nil)
	defer rl.Stop()

	now := time.Now()
	ok, _ := rl.allow("1.2.3.4", now)
	assert.True(t, ok)

	ok, wait := rl.allow("1.2.3.4", now.Add(15*time.Second))
	assert.False(t, ok)
	assert.Equal(t, 45*time.Second, wait)

	ok, _ = rl.allow("5.6.7.8", now)
	assert.True(t, ok, "keys are counted separately")

	ok, _ = rl.allow("1.2.3.4", now.Add(2*time.Minute))
	assert.True(t, ok, "window expired")
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := NewActionRateLimiter(1, time.Minute, nil)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}
