package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"leadboard/config"
	"leadboard/handlers"
	"leadboard/middleware"
	"leadboard/services"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == "" {
			port = cfg.ServerPort
		}

		logger := zap.L()
		client := services.NewLeadsClient(cfg.BackendURL, cfg.BackendTimeout)
		dashboard := services.NewDashboard(client, services.DashboardOptions{
			LogLimit:   cfg.LogLimit,
			MessageTTL: cfg.MessageTTL,
			Logger:     logger,
		})

		e, cleanup := newServer(cfg, dashboard, logger)
		defer cleanup()

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := e.Shutdown(shutdownCtx); err != nil {
				logger.Error("server shutdown failed", zap.Error(err))
			}
		}()

		logger.Info("starting server",
			zap.String("port", port),
			zap.String("backend", cfg.BackendURL),
			zap.String("environment", cfg.Environment),
		)
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newServer wires middleware and routes. The returned func releases the
// rate limiter.
func newServer(cfg *config.Config, dashboard *services.Dashboard, logger *zap.Logger) (*echo.Echo, func()) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.Secure())
	e.Use(middleware.RequestLogger(logger))
	// Before CSRF, which reads form bodies for the token
	e.Use(echomiddleware.BodyLimit(bodyLimit(cfg.MaxUploadSize)))
	e.Use(middleware.CSPNonce())
	e.Use(middleware.CSRF(cfg.IsProduction()))

	// Make config available to handlers
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			return next(c)
		}
	})

	h := handlers.NewDashboardHandler(dashboard, cfg, logger)
	limiter := middleware.NewActionRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, h.Limited)

	e.GET("/", handlers.RootHandler)
	e.GET("/health", handlers.HealthHandler)

	e.GET("/dashboard", h.Show)
	e.POST("/dashboard/tab", h.SelectTab)
	e.GET("/dashboard/message", h.Message)
	e.POST("/dashboard/message/dismiss", h.DismissMessage)
	e.GET("/dashboard/export.xlsx", h.Export)

	// Actions that reach the backend. The limiter goes on each route; a
	// group would also count 404s under /dashboard.
	limited := limiter.Middleware()
	e.POST("/dashboard/upload", h.Upload, limited)
	e.POST("/dashboard/process", h.Process, limited)
	e.POST("/dashboard/logs/clear", h.ClearLogs, limited)

	return e, limiter.Stop
}

// bodyLimit leaves room for the multipart envelope around the CSV
func bodyLimit(maxUpload int64) string {
	if maxUpload <= 0 {
		maxUpload = config.DefaultMaxUploadSize
	}
	return strconv.FormatInt(maxUpload/1024+64, 10) + "K"
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
